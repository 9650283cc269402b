package messaging

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/orderdash/orderdash/internal/config"
)

// Message is one record taken off the bus.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
	Offset  int64
	Time    time.Time
}

// Handler processes an inbound message. Returning an error leaves the
// message uncommitted so the bus can redeliver it.
type Handler func(context.Context, Message) error

// Client publishes order events and feeds consumed messages to handlers.
type Client interface {
	Publish(ctx context.Context, key []byte, value []byte) error
	Consume(ctx context.Context, handler Handler) error
	Topic() string
}

// Module wires the messaging client.
var Module = fx.Provide(NewClient)

// NewClient builds the client named by the configuration. With messaging
// disabled the application still gets a working client that drops
// everything, so publishing call sites need no guards.
func NewClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Client, error) {
	if !cfg.Messaging.Enabled || cfg.Messaging.Driver == "noop" {
		logger.Info("messaging disabled, order events will not be published")
		return NewNoop(cfg.Messaging.Kafka.Topic), nil
	}

	switch cfg.Messaging.Driver {
	case "kafka":
		return newKafkaClient(lc, cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported messaging driver: %s", cfg.Messaging.Driver)
	}
}

// NewNoop returns a client whose publishes vanish and whose Consume blocks
// until the context ends. Used when messaging is disabled and by tests.
func NewNoop(topic string) Client {
	return noopClient{topic: topic}
}

type noopClient struct {
	topic string
}

func (noopClient) Publish(context.Context, []byte, []byte) error { return nil }

func (noopClient) Consume(ctx context.Context, _ Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (n noopClient) Topic() string { return n.topic }
