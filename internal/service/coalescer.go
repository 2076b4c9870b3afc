package service

import (
	"context"
	"sync"
	"time"
)

// Coalescer holds short-lived claims that fold repeated triggers from one
// button into a single request. The Redis client satisfies it; memoryCoalescer
// covers single-instance deployments.
type Coalescer interface {
	// Claim stores value under key if the key is free. When it is taken the
	// current holder's value is returned with false.
	Claim(ctx context.Context, key, value string, ttl time.Duration) (bool, string, error)
	// Swap replaces the value under key with next only while it still
	// holds prev. False means another caller got there first or the key
	// expired.
	Swap(ctx context.Context, key, prev, next string, ttl time.Duration) (bool, error)
	Store(ctx context.Context, key, value string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

const coalesceKeyPrefix = "request:coalesce:"

// value parked under a key while the request behind it is being created
const inFlightPrefix = "inflight:"

// how long a duplicate trigger waits for an in-flight create to land
const (
	inFlightPoll = 25 * time.Millisecond
	defaultInFlightWait = 2 * time.Second
)

type memoryClaim struct {
	value   string
	expires time.Time
}

type memoryCoalescer struct {
	mu     sync.Mutex
	claims map[string]memoryClaim
	now    func() time.Time
}

// NewMemoryCoalescer in-process Coalescer with lazy expiry.
func NewMemoryCoalescer() Coalescer {
	return &memoryCoalescer{
		claims: make(map[string]memoryClaim),
		now:    time.Now,
	}
}

func (m *memoryCoalescer) Claim(_ context.Context, key, value string, ttl time.Duration) (bool, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)
	if c, ok := m.claims[key]; ok {
		return false, c.value, nil
	}
	m.claims[key] = memoryClaim{value: value, expires: now.Add(ttl)}
	return true, value, nil
}

func (m *memoryCoalescer) Swap(_ context.Context, key, prev, next string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	c, ok := m.claims[key]
	if !ok || !now.Before(c.expires) || c.value != prev {
		return false, nil
	}
	m.claims[key] = memoryClaim{value: next, expires: now.Add(ttl)}
	return true, nil
}

func (m *memoryCoalescer) Store(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claims[key] = memoryClaim{value: value, expires: m.now().Add(ttl)}
	return nil
}

func (m *memoryCoalescer) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claims, key)
	return nil
}

// caller holds m.mu
func (m *memoryCoalescer) sweep(now time.Time) {
	for k, c := range m.claims {
		if !now.Before(c.expires) {
			delete(m.claims, k)
		}
	}
}
