package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/orderdash/orderdash/internal/config"
)

// fetchRetryDelay spaces out retries after a failed fetch so a broker
// outage does not spin the consumer loop.
const fetchRetryDelay = time.Second

type kafkaClient struct {
	writer *kafka.Writer
	reader *kafka.Reader
	topic  string
	logger *zap.Logger
}

func newKafkaClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) Client {
	kcfg := cfg.Messaging.Kafka

	writer := &kafka.Writer{
		Addr:         kafka.TCP(kcfg.Brokers...),
		Topic:        kcfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Logger:       kafkaLogger{logger},
		ErrorLogger:  kafkaLogger{logger},
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        kcfg.Brokers,
		GroupID:        cfg.Messaging.ConsumerGroup,
		Topic:          kcfg.Topic,
		MinBytes:       kcfg.MinBytes,
		MaxBytes:       kcfg.MaxBytes,
		CommitInterval: kcfg.CommitInterval,
		Dialer: &kafka.Dialer{
			Timeout:  kcfg.ConnectTimeout,
			ClientID: kcfg.ClientID,
		},
	})

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Info("closing kafka client")
			werr := writer.Close()
			rerr := reader.Close()
			if werr != nil {
				return werr
			}
			return rerr
		},
	})

	return &kafkaClient{writer: writer, reader: reader, topic: kcfg.Topic, logger: logger}
}

func (k *kafkaClient) Publish(ctx context.Context, key []byte, value []byte) error {
	return k.writer.WriteMessages(ctx, kafka.Message{Topic: k.topic, Key: key, Value: value})
}

func (k *kafkaClient) Consume(ctx context.Context, handler Handler) error {
	for {
		msg, err := k.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			k.logger.Error("kafka fetch failed", zap.Error(err))
			time.Sleep(fetchRetryDelay)
			continue
		}

		if err := handler(ctx, toMessage(msg)); err != nil {
			// Leave the offset uncommitted so the message is redelivered.
			k.logger.Error("message handler failed", zap.Int64("offset", msg.Offset), zap.Error(err))
			continue
		}

		if err := k.reader.CommitMessages(ctx, msg); err != nil {
			k.logger.Warn("kafka commit failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

func (k *kafkaClient) Topic() string { return k.topic }

func toMessage(msg kafka.Message) Message {
	var headers map[string]string
	if len(msg.Headers) > 0 {
		headers = make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
	}
	return Message{
		Topic:   msg.Topic,
		Key:     append([]byte(nil), msg.Key...),
		Value:   append([]byte(nil), msg.Value...),
		Headers: headers,
		Offset:  msg.Offset,
		Time:    msg.Time,
	}
}

type kafkaLogger struct {
	logger *zap.Logger
}

func (k kafkaLogger) Printf(format string, args ...any) {
	k.logger.Sugar().Debugf(format, args...)
}
