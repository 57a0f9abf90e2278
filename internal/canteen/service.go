//go:generate mockgen -source ./service.go -destination=./mocks/canteen.go -package=mock_canteen
package canteen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/assolink/cantine/internal/cache"
	"github.com/assolink/cantine/internal/db"
	"github.com/assolink/cantine/internal/mail"
	"github.com/assolink/cantine/internal/metrics"
	"github.com/assolink/cantine/internal/repository"
)

type QuotaStore interface {
	GetByDay(ctx context.Context, day time.Time) (*repository.Quota, error)
	GetByDayTx(ctx context.Context, tx db.Tx, day time.Time) (*repository.Quota, error)
	Upsert(ctx context.Context, quota *repository.Quota) error
	ListRange(ctx context.Context, from, to time.Time) ([]*repository.Quota, error)
}

type OrderStore interface {
	CreateTx(ctx context.Context, tx db.Tx, order *repository.Order) error
	GetByID(ctx context.Context, id string) (*repository.Order, error)
	GetByIDTx(ctx context.Context, tx db.Tx, id string) (*repository.Order, error)
	UpdateQuantityTx(ctx context.Context, tx db.Tx, id string, quantity int) error
	UpdateStatusTx(ctx context.Context, tx db.Tx, id string, status repository.Status) error
	SumActiveQuantity(ctx context.Context, day time.Time) (int, error)
	SumActiveQuantityTx(ctx context.Context, tx db.Tx, day time.Time) (int, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*repository.Order, error)
	ListActiveByDay(ctx context.Context, day time.Time) ([]*repository.Order, error)
}

type AssociationStore interface {
	GetByID(ctx context.Context, id string) (*repository.Association, error)
}

// Availability is the capacity snapshot for one delivery day.
type Availability struct {
	Day       time.Time `json:"date"`
	Quota     int       `json:"quota"`
	Ordered   int       `json:"ordered"`
	Remaining int       `json:"remaining"`
}

// Service is the order lifecycle controller: it combines the mutation
// window guard, the capacity calculator and the stores, and emits
// best-effort notifications after each successful change.
type Service struct {
	db     db.DB
	quotas QuotaStore
	orders OrderStore
	mailer mail.Mailer
	cache  *cache.QuotaCache
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

func NewService(database db.DB, quotas QuotaStore, orders OrderStore, mailer mail.Mailer, quotaCache *cache.QuotaCache, logger *zap.Logger, loc *time.Location) *Service {
	return &Service{
		db:     database,
		quotas: quotas,
		orders: orders,
		mailer: mailer,
		cache:  quotaCache,
		logger: logger,
		loc:    loc,
		now:    time.Now,
	}
}

// WithClock replaces the wall clock. Tests use it to pin "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// day normalizes a delivery-date value to midnight in the service location.
// Dates scanned from DATE columns come back anchored in UTC; their wall date
// is the delivery day, so it is re-anchored rather than converted.
func (s *Service) day(t time.Time) time.Time {
	return repository.DateIn(t, s.loc)
}

// quotaCapacity resolves the configured capacity for a day, treating a
// missing quota row as zero.
func (s *Service) quotaCapacity(ctx context.Context, day time.Time) (int, error) {
	if quota, ok := s.cache.Get(day); ok {
		return quota.Capacity, nil
	}
	quota, err := s.quotas.GetByDay(ctx, day)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	s.cache.Set(quota)
	return quota.Capacity, nil
}

func quotaCapacityTx(ctx context.Context, quotas QuotaStore, tx db.Tx, day time.Time) (int, error) {
	quota, err := quotas.GetByDayTx(ctx, tx, day)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return quota.Capacity, nil
}

func (s *Service) Availability(ctx context.Context, day time.Time) (*Availability, error) {
	day = s.day(day)

	capacity, err := s.quotaCapacity(ctx, day)
	if err != nil {
		return nil, err
	}
	ordered, err := s.orders.SumActiveQuantity(ctx, day)
	if err != nil {
		return nil, err
	}

	return &Availability{
		Day:       day,
		Quota:     capacity,
		Ordered:   ordered,
		Remaining: Remaining(capacity, ordered),
	}, nil
}

// PlaceOrder reserves capacity for a new order. The quota row lock, active
// sum and insert all happen in one transaction, so two concurrent requests
// for the same day cannot jointly overshoot the quota.
func (s *Service) PlaceOrder(ctx context.Context, owner *repository.Association, deliveryDay time.Time, quantity int, zone string) (*repository.Order, error) {
	if quantity < 1 {
		metrics.OrderRejectionsTotal.WithLabelValues("invalid_quantity").Inc()
		return nil, &ValidationError{Reason: "quantity must be at least 1"}
	}
	day := s.day(deliveryDay)
	if !CanCreate(day, s.now(), s.loc) {
		metrics.OrderRejectionsTotal.WithLabelValues("lead_time").Inc()
		return nil, &ValidationError{Reason: fmt.Sprintf("orders must be placed at least %d days before delivery", minLeadDaysCreate)}
	}

	now := s.now().UTC()
	order := &repository.Order{
		ID:          uuid.NewString(),
		OwnerID:     owner.ID,
		DeliveryDay: day,
		Quantity:    quantity,
		Status:      repository.StatusPending,
		Zone:        zone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := db.InTx(ctx, s.db, func(tx db.Tx) error {
		capacity, err := quotaCapacityTx(ctx, s.quotas, tx, day)
		if err != nil {
			return err
		}
		ordered, err := s.orders.SumActiveQuantityTx(ctx, tx, day)
		if err != nil {
			return err
		}
		remaining := Remaining(capacity, ordered)
		if quantity > remaining {
			return &CapacityError{Max: remaining}
		}
		return s.orders.CreateTx(ctx, tx, order)
	})
	if err != nil {
		var capErr *CapacityError
		if errors.As(err, &capErr) {
			metrics.OrderRejectionsTotal.WithLabelValues("capacity").Inc()
		}
		return nil, err
	}

	metrics.OrdersPlacedTotal.Inc()
	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("owner_id", owner.ID),
		zap.Time("delivery_day", day),
		zap.Int("quantity", quantity),
	)
	s.notify(ctx, owner, mail.TemplateOrderCreated, "Your canteen order is confirmed", map[string]any{
		"quantity":      quantity,
		"delivery_date": day.Format("2006-01-02"),
		"zone":          zone,
	})
	return order, nil
}

// ModifyOrder changes the quantity of an existing order. The order always
// keeps its current quantity and may grow by the day's remaining headroom,
// so a successful change never pushes the active sum past the quota.
func (s *Service) ModifyOrder(ctx context.Context, owner *repository.Association, id string, newQuantity int) (*repository.Order, error) {
	order, err := s.getOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if order.Status == repository.StatusCancelled || !CanModify(order.DeliveryDay, s.now(), s.loc) {
		metrics.OrderRejectionsTotal.WithLabelValues("window_closed").Inc()
		return nil, ErrWindowClosed
	}
	if newQuantity < 1 {
		metrics.OrderRejectionsTotal.WithLabelValues("invalid_quantity").Inc()
		return nil, &ValidationError{Reason: "quantity must be at least 1"}
	}

	day := s.day(order.DeliveryDay)
	err = db.InTx(ctx, s.db, func(tx db.Tx) error {
		capacity, err := quotaCapacityTx(ctx, s.quotas, tx, day)
		if err != nil {
			return err
		}
		locked, err := s.orders.GetByIDTx(ctx, tx, id)
		if err != nil {
			return err
		}
		ordered, err := s.orders.SumActiveQuantityTx(ctx, tx, day)
		if err != nil {
			return err
		}
		maxAllowed := MaxQuantityForUpdate(capacity, ordered, locked.Quantity)
		if newQuantity > maxAllowed {
			return &CapacityError{Max: maxAllowed}
		}
		return s.orders.UpdateQuantityTx(ctx, tx, id, newQuantity)
	})
	if err != nil {
		var capErr *CapacityError
		if errors.As(err, &capErr) {
			metrics.OrderRejectionsTotal.WithLabelValues("capacity").Inc()
		}
		return nil, err
	}

	order.Quantity = newQuantity
	metrics.OrdersModifiedTotal.Inc()
	s.logger.Info("order modified",
		zap.String("order_id", order.ID),
		zap.String("owner_id", owner.ID),
		zap.Int("quantity", newQuantity),
	)
	s.notify(ctx, owner, mail.TemplateOrderModified, "Your canteen order was updated", map[string]any{
		"quantity":      newQuantity,
		"delivery_date": day.Format("2006-01-02"),
	})
	return order, nil
}

// CancelOrder sets the order to cancelled, freeing its capacity. penalty is
// an opaque compensation amount from the onboarding record, passed through
// to the notification untouched.
func (s *Service) CancelOrder(ctx context.Context, owner *repository.Association, id, penalty string) (*repository.Order, error) {
	order, err := s.getOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	// A second cancel attempt is rejected on the window axis; the active sum
	// was already released by the first one.
	if order.Status == repository.StatusCancelled || !CanCancel(order.DeliveryDay, s.now(), s.loc) {
		metrics.OrderRejectionsTotal.WithLabelValues("window_closed").Inc()
		return nil, ErrWindowClosed
	}

	err = db.InTx(ctx, s.db, func(tx db.Tx) error {
		locked, err := s.orders.GetByIDTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if locked.Status == repository.StatusCancelled {
			return ErrWindowClosed
		}
		return s.orders.UpdateStatusTx(ctx, tx, id, repository.StatusCancelled)
	})
	if err != nil {
		return nil, err
	}

	order.Status = repository.StatusCancelled
	metrics.OrdersCancelledTotal.Inc()
	s.logger.Info("order cancelled",
		zap.String("order_id", order.ID),
		zap.String("owner_id", owner.ID),
	)
	vars := map[string]any{
		"delivery_date": s.day(order.DeliveryDay).Format("2006-01-02"),
	}
	if penalty != "" {
		vars["penalty"] = penalty
	}
	s.notify(ctx, owner, mail.TemplateOrderCancelled, "Your canteen order was cancelled", vars)
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, owner *repository.Association) ([]*repository.Order, error) {
	return s.orders.ListByOwner(ctx, owner.ID)
}

// SetQuota upserts the capacity for a day. Admin is trusted: no check
// against already committed orders, an over-committed day just reads as
// zero remaining.
func (s *Service) SetQuota(ctx context.Context, day time.Time, capacity int, slotStart, slotEnd string) error {
	if capacity < 0 {
		return &ValidationError{Reason: "capacity must be >= 0"}
	}
	day = s.day(day)
	if err := s.quotas.Upsert(ctx, &repository.Quota{
		Day:       day,
		Capacity:  capacity,
		SlotStart: slotStart,
		SlotEnd:   slotEnd,
	}); err != nil {
		return err
	}
	s.cache.Invalidate(day)
	return nil
}

func (s *Service) ListQuotas(ctx context.Context, from, to time.Time) ([]*repository.Quota, error) {
	return s.quotas.ListRange(ctx, s.day(from), s.day(to))
}

// getOwned fetches an order and hides both absence and foreign ownership
// behind the same ErrNotFound.
func (s *Service) getOwned(ctx context.Context, owner *repository.Association, id string) (*repository.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.OrderRejectionsTotal.WithLabelValues("not_found").Inc()
		}
		return nil, err
	}
	if order.OwnerID != owner.ID {
		metrics.OrderRejectionsTotal.WithLabelValues("not_found").Inc()
		return nil, ErrNotFound
	}
	return order, nil
}

// notify sends a lifecycle email. Failures are logged and counted, never
// returned: the state change stands whether or not the email goes out.
func (s *Service) notify(ctx context.Context, owner *repository.Association, templateID, subject string, vars map[string]any) {
	err := s.mailer.Send(ctx, mail.Message{
		To:         owner.Email,
		ToName:     owner.Name,
		Subject:    subject,
		TemplateID: templateID,
		Vars:       vars,
	})
	if err != nil {
		metrics.NotificationFailuresTotal.Inc()
		s.logger.Warn("notification failed",
			zap.String("template", templateID),
			zap.String("to", owner.Email),
			zap.Error(err),
		)
	}
}
