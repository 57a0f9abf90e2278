package kafka

import (
	"context"

	"go.uber.org/zap"
)

type Producer interface {
	SendMessage(ctx context.Context, topic string, key, value []byte) error
	Close() error
}

// ConsoleProducer logs messages instead of publishing them. Used when no
// broker is configured.
type ConsoleProducer struct {
	logger *zap.Logger
}

var _ Producer = (*ConsoleProducer)(nil)

func NewConsoleProducer(logger *zap.Logger) *ConsoleProducer {
	return &ConsoleProducer{logger: logger}
}

func (p *ConsoleProducer) SendMessage(_ context.Context, topic string, key, value []byte) error {
	p.logger.Info("kafka message (console)",
		zap.String("topic", topic),
		zap.ByteString("key", key),
		zap.ByteString("value", value),
	)
	return nil
}

func (p *ConsoleProducer) Close() error {
	return nil
}
