package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/assolink/cantine/internal/cache"
	"github.com/assolink/cantine/internal/canteen"
	"github.com/assolink/cantine/internal/db"
	"github.com/assolink/cantine/internal/kafka"
	"github.com/assolink/cantine/internal/logger"
	"github.com/assolink/cantine/internal/mail"
	"github.com/assolink/cantine/internal/repository/postgresql"
	"github.com/assolink/cantine/internal/server"
)

func main() {
	log := logger.New()
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db.LoadEnv()

	loc, err := time.LoadLocation(envOr("CANTEEN_TZ", "Europe/Paris"))
	if err != nil {
		log.Fatal("invalid CANTEEN_TZ", zap.Error(err))
	}

	database, err := db.NewDB(ctx)
	if err != nil {
		log.Fatal("database init failed", zap.Error(err))
	}
	defer database.Pool().Close()

	quotaRepo := postgresql.NewQuotaRepo(database)
	orderRepo := postgresql.NewOrderRepo(database)
	assocRepo := postgresql.NewAssociationRepo(database)
	outboxRepo := postgresql.NewOutboxTaskRepo(database)

	var mailer mail.Mailer = mail.NewConsoleMailer(log)
	if os.Getenv("SENDGRID_API_KEY") != "" {
		mailer = mail.NewSendgridMailer()
	}

	var producer kafka.Producer = kafka.NewConsoleProducer(log)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		producer = kafka.NewWriterProducer(brokers)
	}
	publisher := kafka.NewPublisher(database, outboxRepo, producer, kafka.PublisherConfig{
		PollInterval: 500 * time.Millisecond,
		BatchSize:    10,
		MaxAttempts:  5,
	}, log)

	svc := canteen.NewService(database, quotaRepo, orderRepo, mailer, cache.NewQuotaCache(), log, loc)
	auditor := server.NewAuditManager(outboxRepo, log, 2, 5, 500*time.Millisecond)
	srv := server.New(svc, assocRepo, auditor, log, loc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, envOr("HTTP_PORT", "9000"))
	})
	g.Go(func() error {
		publisher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		publisher.Shutdown()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
	log.Info("server stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
