package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/qlstats/internal/infrastructure/config"
)

// Logger receives connection state changes. *logging.Logger satisfies it.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Client is a publish-only broker connection that announces its presence
// on the system status topic and reconnects on its own.
// It is safe for concurrent use.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig
	topics Topics

	mu     sync.RWMutex
	up     bool
	logger Logger
}

// Connect dials the broker and waits up to ten seconds for the first
// connection. Later drops are retried in the background with backoff
// between cfg.Reconnect.InitialDelay and MaxDelay.
//
// On every (re)connect a retained "online" presence record is published;
// the broker publishes the "offline" will if the link dies uncleanly.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	c := &Client{cfg: cfg, topics: NewTopics(cfg.TopicPrefix)}

	opts := clientOptions(cfg, c.topics).
		SetOnConnectHandler(func(pahomqtt.Client) { c.linkUp() }).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.linkDown(err) }).
		SetReconnectingHandler(func(pahomqtt.Client, *pahomqtt.ClientOptions) {
			if l := c.log(); l != nil {
				l.Info("MQTT reconnecting", "broker", brokerURL(cfg))
			}
		})

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The connect handler runs on its own goroutine.
	c.setUp(true)
	return c, nil
}

func (c *Client) setUp(up bool) {
	c.mu.Lock()
	c.up = up
	c.mu.Unlock()
}

func (c *Client) linkUp() {
	c.setUp(true)
	c.publishPresence(true, "")
}

func (c *Client) linkDown(err error) {
	c.setUp(false)
	if l := c.log(); l != nil {
		l.Warn("MQTT connection lost", "error", err)
	}
}

// Topics returns the topic builder for the configured prefix.
func (c *Client) Topics() Topics {
	return c.topics
}

// Close publishes a graceful offline record, then disconnects.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	if c.IsConnected() {
		c.publishPresence(false, reasonShutdown).WaitTimeout(publishTimeout)
	}
	c.client.Disconnect(disconnectQuiesceMS)
	c.setUp(false)
	return nil
}

// HealthCheck reports ErrNotConnected while the link is down.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected reports whether publications can currently be sent.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	up := c.up
	c.mu.RUnlock()
	return up && c.client != nil && c.client.IsConnected()
}

// SetLogger sets where connection state changes are logged.
func (c *Client) SetLogger(l Logger) {
	c.mu.Lock()
	c.logger = l
	c.mu.Unlock()
}

func (c *Client) log() Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}
