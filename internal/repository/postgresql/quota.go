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

type QuotaRepo struct {
	db db.DB
}

func NewQuotaRepo(db db.DB) *QuotaRepo {
	return &QuotaRepo{db: db}
}

func (r *QuotaRepo) GetByDay(ctx context.Context, day time.Time) (*repository.Quota, error) {
	var quota repository.Quota
	err := r.db.Get(ctx, &quota, "SELECT * FROM quotas WHERE day = $1", day)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get quota for %s: %w", day.Format("2006-01-02"), err)
	}
	return &quota, nil
}

// GetByDayTx locks the quota row for the rest of the transaction. Capacity
// reservations serialize on this lock.
func (r *QuotaRepo) GetByDayTx(ctx context.Context, tx db.Tx, day time.Time) (*repository.Quota, error) {
	var quota repository.Quota
	err := tx.Get(ctx, &quota, "SELECT * FROM quotas WHERE day = $1 FOR UPDATE", day)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("lock quota for %s: %w", day.Format("2006-01-02"), err)
	}
	return &quota, nil
}

// Upsert creates or replaces the quota for a day. Admin-only; no capacity
// invariant is checked against already committed orders.
func (r *QuotaRepo) Upsert(ctx context.Context, quota *repository.Quota) error {
	if quota.Capacity < 0 {
		return fmt.Errorf("quota capacity must be >= 0, got %d", quota.Capacity)
	}
	_, err := r.db.Exec(ctx, `
        INSERT INTO quotas (day, capacity, slot_start, slot_end, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (day) DO UPDATE SET
            capacity = EXCLUDED.capacity,
            slot_start = EXCLUDED.slot_start,
            slot_end = EXCLUDED.slot_end,
            updated_at = EXCLUDED.updated_at
    `, quota.Day, quota.Capacity, quota.SlotStart, quota.SlotEnd, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert quota for %s: %w", quota.Day.Format("2006-01-02"), err)
	}
	return nil
}

func (r *QuotaRepo) ListRange(ctx context.Context, from, to time.Time) ([]*repository.Quota, error) {
	var quotas []*repository.Quota
	err := r.db.Select(ctx, &quotas, `
        SELECT * FROM quotas
        WHERE day >= $1 AND day <= $2
        ORDER BY day ASC
    `, from, to)
	if err != nil {
		return nil, fmt.Errorf("list quotas: %w", err)
	}
	return quotas, nil
}
