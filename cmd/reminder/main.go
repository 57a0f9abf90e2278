package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/assolink/cantine/internal/canteen"
	"github.com/assolink/cantine/internal/db"
	"github.com/assolink/cantine/internal/logger"
	"github.com/assolink/cantine/internal/mail"
	"github.com/assolink/cantine/internal/repository/postgresql"
)

// Reminder batch, meant to run from cron every evening: notifies every
// association with an active order delivering on the target date (by
// default, tomorrow).
func main() {
	log := logger.New()
	defer func() { _ = log.Sync() }()

	dateFlag := flag.String("date", "", "target delivery date (YYYY-MM-DD), defaults to tomorrow")
	flag.Parse()

	db.LoadEnv()

	tz := os.Getenv("CANTEEN_TZ")
	if tz == "" {
		tz = "Europe/Paris"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Fatal("invalid CANTEEN_TZ", zap.Error(err))
	}

	day := time.Now().In(loc).AddDate(0, 0, 1)
	if *dateFlag != "" {
		day, err = time.ParseInLocation("2006-01-02", *dateFlag, loc)
		if err != nil {
			log.Fatal("invalid -date, expected YYYY-MM-DD", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	database, err := db.NewDB(ctx)
	if err != nil {
		log.Fatal("database init failed", zap.Error(err))
	}
	defer database.Pool().Close()

	var mailer mail.Mailer = mail.NewConsoleMailer(log)
	if os.Getenv("SENDGRID_API_KEY") != "" {
		mailer = mail.NewSendgridMailer()
	}

	reminder := canteen.NewReminder(
		postgresql.NewOrderRepo(database),
		postgresql.NewAssociationRepo(database),
		mailer,
		log,
		loc,
	)

	sent, failed, err := reminder.Run(ctx, day)
	if err != nil {
		log.Fatal("reminder batch failed", zap.Error(err))
	}
	log.Info("reminder batch done",
		zap.String("date", day.Format("2006-01-02")),
		zap.Int("sent", sent),
		zap.Int("failed", failed),
	)
}
