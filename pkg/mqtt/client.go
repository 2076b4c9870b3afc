package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/debranko/obedio-yacht-crew-management-sub004/config"
)

// at-least-once for every topic
const qos byte = 1

var ErrNotConnected = errors.New("mqtt client not connected")

// Handler consumes one inbound message.
type Handler func(topic string, payload []byte)

// Client paho wrapper: auto-reconnect, resubscribe on connect, JSON publish.
type Client struct {
	cfg    *config.MQTTConfig
	client paho.Client
	logger *zap.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewClient builds the client without connecting.
func NewClient(cfg *config.MQTTConfig, logger *zap.Logger) *Client {
	c := &Client{
		cfg:      cfg,
		logger:   logger,
		handlers: make(map[string]Handler),
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	// unique suffix so several backend instances can share one broker
	opts.SetClientID(fmt.Sprintf("%s-%s", cfg.ClientID, uuid.New().String()[:8]))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(false)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetDefaultPublishHandler(func(_ paho.Client, msg paho.Message) {
		logger.Debug("mqtt message without handler", zap.String("topic", msg.Topic()))
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	})
	opts.SetOnConnectHandler(func(_ paho.Client) {
		logger.Info("mqtt connected", zap.String("broker", cfg.BrokerURL))
		if err := c.resubscribe(); err != nil {
			logger.Error("mqtt resubscribe failed", zap.Error(err))
		}
	})
	opts.SetReconnectingHandler(func(_ paho.Client, _ *paho.ClientOptions) {
		logger.Info("mqtt reconnecting")
	})

	c.client = paho.NewClient(opts)
	return c
}

// Connect dials the broker, retrying with exponential backoff until ctx ends.
func (c *Client) Connect(ctx context.Context) error {
	const maxRetries = 5
	var err error
	for i := 0; i < maxRetries; i++ {
		token := c.client.Connect()
		if token.WaitTimeout(5*time.Second) && token.Error() == nil {
			return nil
		}
		err = token.Error()
		if err == nil {
			err = errors.New("connect timed out")
		}

		backoff := time.Duration(1<<uint(i)) * time.Second
		c.logger.Warn("mqtt connect attempt failed",
			zap.Int("attempt", i+1),
			zap.Duration("retry_in", backoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("mqtt connect failed after %d attempts: %w", maxRetries, err)
}

// Subscribe registers handler for topic. Subscriptions survive reconnects.
func (c *Client) Subscribe(topic string, handler Handler) error {
	c.mu.Lock()
	c.handlers[topic] = handler
	c.mu.Unlock()

	if !c.client.IsConnectionOpen() {
		return nil // applied by the on-connect hook
	}
	return c.subscribe(topic, handler)
}

// Unsubscribe drops topics so they are not restored on reconnect either.
func (c *Client) Unsubscribe(topics ...string) error {
	c.mu.Lock()
	for _, t := range topics {
		delete(c.handlers, t)
	}
	c.mu.Unlock()

	if !c.client.IsConnectionOpen() {
		return nil
	}
	token := c.client.Unsubscribe(topics...)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("unsubscribe: %w", token.Error())
	}
	return nil
}

func (c *Client) subscribe(topic string, handler Handler) error {
	token := c.client.Subscribe(topic, qos, func(_ paho.Client, msg paho.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	c.logger.Info("mqtt subscribed", zap.String("topic", topic))
	return nil
}

func (c *Client) resubscribe() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for topic, h := range c.handlers {
		if err := c.subscribe(topic, h); err != nil {
			return err
		}
	}
	return nil
}

// PublishJSON marshals v and publishes it with QoS 1.
// Waits for the broker ack until ctx is done or the publish timeout elapses.
func (c *Client) PublishJSON(ctx context.Context, topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode mqtt payload: %w", err)
	}
	if !c.client.IsConnectionOpen() {
		return ErrNotConnected
	}

	timeout := c.cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	token := c.client.Publish(topic, qos, false, data)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("publish %s: timed out after %s", topic, timeout)
	}
}

// IsConnected reports whether the broker connection is up.
func (c *Client) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// Close disconnects, allowing in-flight work 250ms to finish.
func (c *Client) Close() {
	if c.client.IsConnected() {
		c.client.Disconnect(250)
	}
}
