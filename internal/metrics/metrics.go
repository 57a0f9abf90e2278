package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cantine_orders_placed_total",
		Help: "Total number of canteen orders successfully placed.",
	})

	OrdersModifiedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cantine_orders_modified_total",
		Help: "Total number of canteen orders whose quantity was changed.",
	})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cantine_orders_cancelled_total",
		Help: "Total number of canteen orders cancelled.",
	})

	OrderRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cantine_order_rejections_total",
		Help: "Total number of rejected order operations, by reason.",
	},
		[]string{"reason"},
	)

	NotificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cantine_notification_failures_total",
		Help: "Total number of notification emails that failed to send.",
	})

	ReminderEmailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cantine_reminder_emails_total",
		Help: "Total number of delivery-eve reminder emails, by outcome.",
	},
		[]string{"outcome"},
	)

	QuotaCacheItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cantine_quota_cache_items",
		Help: "Current number of quota rows held in the in-process cache.",
	})
)
