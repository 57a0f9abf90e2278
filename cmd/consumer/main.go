package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/assolink/cantine/internal/logger"
)

const (
	defaultBrokers = "localhost:9092"
	auditTopic     = "audit_logs"
	groupID        = "cantine-audit-consumer"
)

// Audit-log consumer: tails the audit topic and prints each event. Useful
// for local inspection of what the outbox publisher ships.
func main() {
	log := logger.New()
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		brokers = defaultBrokers
	}

	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        strings.Split(brokers, ","),
		GroupID:        groupID,
		Topic:          auditTopic,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        3 * time.Second,
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Error("closing kafka reader", zap.Error(err))
		}
	}()

	log.Info("audit consumer started", zap.String("brokers", brokers), zap.String("topic", auditTopic))

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("audit consumer stopping")
				return
			}
			log.Error("read message", zap.Error(err))
			time.Sleep(5 * time.Second)
			continue
		}

		log.Info("audit event",
			zap.Time("timestamp", m.Time),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
			zap.ByteString("key", m.Key),
			zap.ByteString("value", m.Value),
		)
	}
}
