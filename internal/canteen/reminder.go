package canteen

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/assolink/cantine/internal/mail"
	"github.com/assolink/cantine/internal/metrics"
	"github.com/assolink/cantine/internal/repository"
)

// Reminder is the delivery-eve batch: one reminder email per active order
// scheduled for the target day. It is triggered externally (cron), not by
// the API process.
type Reminder struct {
	orders OrderStore
	assocs AssociationStore
	mailer mail.Mailer
	logger *zap.Logger
	loc    *time.Location
}

func NewReminder(orders OrderStore, assocs AssociationStore, mailer mail.Mailer, logger *zap.Logger, loc *time.Location) *Reminder {
	return &Reminder{
		orders: orders,
		assocs: assocs,
		mailer: mailer,
		logger: logger,
		loc:    loc,
	}
}

// Run processes every active order for day. Individual lookup or send
// failures are logged and counted but never abort the batch.
func (r *Reminder) Run(ctx context.Context, day time.Time) (sent, failed int, err error) {
	day = repository.Day(day, r.loc)

	orders, err := r.orders.ListActiveByDay(ctx, day)
	if err != nil {
		return 0, 0, err
	}
	r.logger.Info("reminder batch started",
		zap.Time("delivery_day", day),
		zap.Int("orders", len(orders)),
	)

	for _, order := range orders {
		if err := r.remind(ctx, order); err != nil {
			failed++
			metrics.ReminderEmailsTotal.WithLabelValues("failed").Inc()
			r.logger.Warn("reminder failed",
				zap.String("order_id", order.ID),
				zap.String("owner_id", order.OwnerID),
				zap.Error(err),
			)
			continue
		}
		sent++
		metrics.ReminderEmailsTotal.WithLabelValues("sent").Inc()
	}

	r.logger.Info("reminder batch finished", zap.Int("sent", sent), zap.Int("failed", failed))
	return sent, failed, nil
}

func (r *Reminder) remind(ctx context.Context, order *repository.Order) error {
	owner, err := r.assocs.GetByID(ctx, order.OwnerID)
	if err != nil {
		return err
	}
	return r.mailer.Send(ctx, mail.Message{
		To:         owner.Email,
		ToName:     owner.Name,
		Subject:    "Your canteen order is delivered tomorrow",
		TemplateID: mail.TemplateOrderReminder,
		Vars: map[string]any{
			"quantity":      order.Quantity,
			"delivery_date": order.DeliveryDay.Format("2006-01-02"),
			"zone":          order.Zone,
		},
	})
}
