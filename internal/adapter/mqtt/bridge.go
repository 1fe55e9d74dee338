// Package mqtt owns the single connection to the event broker.
//
// The bridge gives no delivery guarantee across reconnects: it connects
// with a clean session at QoS 0, Publish while disconnected is a dropped
// no-op, and nothing is queued for replay. Acceptable for ephemeral
// operational alerts; callers must not assume delivery.
package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/stadium-ops/event-gateway/config"
)

// EventSink receives every inbound broker event, in arrival order, on
// paho's single delivery goroutine.
type EventSink interface {
	Accept(topic string, payload []byte)
}

type Bridge struct {
	cfg    config.BrokerConfig
	logger *slog.Logger
	sink   EventSink

	// mu guards client so a reconnect attempt cannot race a concurrent
	// disconnect during teardown.
	mu     sync.Mutex
	client paho.Client
}

func NewBridge(cfg config.BrokerConfig, sink EventSink, logger *slog.Logger) *Bridge {
	return &Bridge{cfg: cfg, sink: sink, logger: logger}
}

// Connect establishes the broker connection and subscribes to the root
// wildcard topic. Connection errors are not surfaced as hard failures: the
// paho auto-reconnect keeps retrying and the gateway degrades to "no events
// observed" until it succeeds.
func (b *Bridge) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client != nil {
		return nil
	}

	clientID := fmt.Sprintf("%s-%s", b.cfg.ClientIDPrefix, uuid.NewString()[:8])

	opts := paho.NewClientOptions().
		AddBroker(b.cfg.URL).
		SetClientID(clientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(b.cfg.ConnectTimeout).
		SetOrderMatters(true)

	// Subscribing inside OnConnect re-establishes the wildcard
	// subscription after every reconnect (clean session drops it).
	opts.SetOnConnectHandler(func(c paho.Client) {
		b.logger.Info("broker connected",
			"url", b.cfg.URL, "client_id", clientID)
		token := c.Subscribe(b.cfg.RootTopic, 0, b.onMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			b.logger.Error("broker subscribe failed",
				"topic", b.cfg.RootTopic, "error", err)
			return
		}
		b.logger.Info("broker subscription established", "topic", b.cfg.RootTopic)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		b.logger.Warn("broker connection lost", "error", err)
	})
	opts.SetReconnectingHandler(func(_ paho.Client, _ *paho.ClientOptions) {
		b.logger.Info("broker reconnecting", "url", b.cfg.URL)
	})

	b.client = paho.NewClient(opts)

	// Fire and forget: with ConnectRetry the token resolves eventually;
	// waiting here would block startup on a down broker.
	b.client.Connect()
	return nil
}

func (b *Bridge) onMessage(_ paho.Client, msg paho.Message) {
	b.sink.Accept(msg.Topic(), msg.Payload())
}

// Publish is best-effort, at most once: while the connection is down the
// event is dropped, not queued, and no error is returned.
func (b *Bridge) Publish(topic string, payload []byte) {
	b.mu.Lock()
	client := b.client
	b.mu.Unlock()

	if client == nil || !client.IsConnectionOpen() {
		b.logger.Debug("publish dropped, broker not connected", "topic", topic)
		return
	}

	token := client.Publish(topic, 0, false, payload)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			b.logger.Warn("broker publish failed", "topic", topic, "error", err)
		}
	}()
}

// Disconnect releases the connection. Idempotent; invoked from the fx
// OnStop hook in every teardown path.
func (b *Bridge) Disconnect() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client == nil {
		return
	}
	b.client.Disconnect(250)
	b.client = nil
	b.logger.Info("broker disconnected")
}
