package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/assolink/cantine/internal/db"
	"github.com/assolink/cantine/internal/repository"
)

type OrderRepo struct {
	db db.DB
}

func NewOrderRepo(db db.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

func activeStatusArgs() []string {
	statuses := repository.ActiveStatuses()
	args := make([]string, len(statuses))
	for i, s := range statuses {
		args[i] = string(s)
	}
	return args
}

func (r *OrderRepo) CreateTx(ctx context.Context, tx db.Tx, order *repository.Order) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO orders (
            id, owner_id, delivery_day, quantity, status, zone, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, order.ID, order.OwnerID, order.DeliveryDay, order.Quantity, order.Status, order.Zone, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", order.ID, err)
	}
	return nil
}

func (r *OrderRepo) GetByID(ctx context.Context, id string) (*repository.Order, error) {
	var order repository.Order
	err := r.db.Get(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return &order, nil
}

func (r *OrderRepo) GetByIDTx(ctx context.Context, tx db.Tx, id string) (*repository.Order, error) {
	var order repository.Order
	err := tx.Get(ctx, &order, "SELECT * FROM orders WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("lock order %s: %w", id, err)
	}
	return &order, nil
}

func (r *OrderRepo) UpdateQuantityTx(ctx context.Context, tx db.Tx, id string, quantity int) error {
	tag, err := tx.Exec(ctx, `
        UPDATE orders
        SET quantity = $1, updated_at = $2
        WHERE id = $3
    `, quantity, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update quantity of order %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *OrderRepo) UpdateStatusTx(ctx context.Context, tx db.Tx, id string, status repository.Status) error {
	tag, err := tx.Exec(ctx, `
        UPDATE orders
        SET status = $1, updated_at = $2
        WHERE id = $3
    `, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update status of order %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SumActiveQuantity totals the reserved quantities for a delivery day over
// capacity-consuming statuses only.
func (r *OrderRepo) SumActiveQuantity(ctx context.Context, day time.Time) (int, error) {
	var total int
	err := r.db.Get(ctx, &total, `
        SELECT COALESCE(SUM(quantity), 0) FROM orders
        WHERE delivery_day = $1 AND status = ANY($2)
    `, day, activeStatusArgs())
	if err != nil {
		return 0, fmt.Errorf("sum active quantity for %s: %w", day.Format("2006-01-02"), err)
	}
	return total, nil
}

func (r *OrderRepo) SumActiveQuantityTx(ctx context.Context, tx db.Tx, day time.Time) (int, error) {
	var total int
	err := tx.Get(ctx, &total, `
        SELECT COALESCE(SUM(quantity), 0) FROM orders
        WHERE delivery_day = $1 AND status = ANY($2)
    `, day, activeStatusArgs())
	if err != nil {
		return 0, fmt.Errorf("sum active quantity for %s: %w", day.Format("2006-01-02"), err)
	}
	return total, nil
}

func (r *OrderRepo) ListByOwner(ctx context.Context, ownerID string) ([]*repository.Order, error) {
	var orders []*repository.Order
	err := r.db.Select(ctx, &orders, `
        SELECT * FROM orders
        WHERE owner_id = $1
        ORDER BY delivery_day DESC, created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list orders of %s: %w", ownerID, err)
	}
	return orders, nil
}

// ListActiveByDay feeds the delivery-eve reminder batch.
func (r *OrderRepo) ListActiveByDay(ctx context.Context, day time.Time) ([]*repository.Order, error) {
	var orders []*repository.Order
	err := r.db.Select(ctx, &orders, `
        SELECT * FROM orders
        WHERE delivery_day = $1 AND status = ANY($2)
        ORDER BY created_at ASC
    `, day, activeStatusArgs())
	if err != nil {
		return nil, fmt.Errorf("list active orders for %s: %w", day.Format("2006-01-02"), err)
	}
	return orders, nil
}
