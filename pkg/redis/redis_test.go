package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewFromClient(rdb, zap.NewNop()), mr
}

func TestClient_Claim(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	ok, holder, err := c.Claim(ctx, "request:coalesce:BTN001", "inflight:a", 30*time.Second)
	if err != nil || !ok || holder != "inflight:a" {
		t.Fatalf("expected first claim to win, got ok=%v holder=%q err=%v", ok, holder, err)
	}

	ok, holder, err = c.Claim(ctx, "request:coalesce:BTN001", "inflight:b", 30*time.Second)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if ok || holder != "inflight:a" {
		t.Errorf("expected loser to see inflight:a, got ok=%v holder=%q", ok, holder)
	}

	mr.FastForward(31 * time.Second)
	ok, _, _ = c.Claim(ctx, "request:coalesce:BTN001", "inflight:c", 30*time.Second)
	if !ok {
		t.Error("expected claim to succeed after expiry")
	}
}

func TestClient_Swap(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()
	key := "request:coalesce:BTN001"

	if err := c.Store(ctx, key, "req-1", 30*time.Second); err != nil {
		t.Fatalf("Store: %v", err)
	}

	if ok, err := c.Swap(ctx, key, "req-0", "inflight:a", 30*time.Second); err != nil || ok {
		t.Errorf("expected swap from a stale holder to fail, got ok=%v err=%v", ok, err)
	}
	if ok, err := c.Swap(ctx, key, "req-1", "inflight:a", 30*time.Second); err != nil || !ok {
		t.Fatalf("expected swap from the current holder to win, got ok=%v err=%v", ok, err)
	}
	if got, _ := mr.Get(key); got != "inflight:a" {
		t.Errorf("expected inflight:a stored, got %q", got)
	}
	if ttl := mr.TTL(key); ttl <= 0 || ttl > 30*time.Second {
		t.Errorf("expected the swap to refresh the ttl, got %v", ttl)
	}

	mr.Del(key)
	if ok, _ := c.Swap(ctx, key, "inflight:a", "inflight:b", 30*time.Second); ok {
		t.Error("expected swap on a missing key to fail")
	}
}

func TestClient_Swap_OneWinner(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	key := "request:coalesce:BTN001"
	_ = c.Store(ctx, key, "req-accepted", time.Minute)

	const racers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := c.Swap(ctx, key, "req-accepted", "inflight:"+string(rune('a'+i)), time.Minute)
			if err != nil {
				t.Errorf("Swap: %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly one swap to win, got %d", wins)
	}
}

func TestClient_CheckRateLimit(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := c.CheckRateLimit(ctx, "rl:trigger:gateway:1", 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("call %d: expected allowed, got ok=%v err=%v", i+1, ok, err)
		}
	}
	if ok, _ := c.CheckRateLimit(ctx, "rl:trigger:gateway:1", 3, time.Minute); ok {
		t.Error("expected the fourth call to be limited")
	}
}

func TestClient_Blacklist(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	if err := c.BlacklistToken(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("BlacklistToken: %v", err)
	}
	if ok, _ := c.IsBlacklisted(ctx, "jti-1"); !ok {
		t.Error("expected jti-1 to be revoked")
	}
	if err := c.BlacklistToken(ctx, "jti-2", 0); err != nil {
		t.Fatalf("BlacklistToken with expired ttl: %v", err)
	}
	if ok, _ := c.IsBlacklisted(ctx, "jti-2"); ok {
		t.Error("expected an already-expired token not to be stored")
	}

	mr.FastForward(2 * time.Minute)
	if ok, _ := c.IsBlacklisted(ctx, "jti-1"); ok {
		t.Error("expected revocation to lapse with the token")
	}
}
