package repository

import (
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("not found")

// Status is the closed set of order states. Keeping it closed (instead of a
// free-form string column read back as-is) means a newly introduced state
// cannot silently slip past the capacity accounting.
type Status string

const (
	StatusPending      Status = "pending"
	StatusToPrepare    Status = "to_prepare"
	StatusToDeliver    Status = "to_deliver"
	StatusDelivered    Status = "delivered"
	StatusCancelled    Status = "cancelled"
	StatusNotRecovered Status = "not_recovered"
	StatusRecovered    Status = "recovered"
	StatusBlocked      Status = "blocked"
)

// activeForCapacity is the explicit predicate table: only these states hold
// a reservation against the day's quota.
var activeForCapacity = map[Status]bool{
	StatusPending:      true,
	StatusToPrepare:    true,
	StatusToDeliver:    true,
	StatusDelivered:    false,
	StatusCancelled:    false,
	StatusNotRecovered: false,
	StatusRecovered:    false,
	StatusBlocked:      false,
}

// ActiveStatuses lists the states that consume capacity, in a stable order
// usable as SQL filter arguments.
func ActiveStatuses() []Status {
	return []Status{StatusPending, StatusToPrepare, StatusToDeliver}
}

func (s Status) CountsAgainstCapacity() bool {
	return activeForCapacity[s]
}

func (s Status) Valid() bool {
	_, ok := activeForCapacity[s]
	return ok
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown order status %q", raw)
	}
	return s, nil
}

// Quota is the configured meal capacity for a single delivery day. A missing
// row means capacity zero. The slot bounds are informational only.
type Quota struct {
	ID        int64     `db:"id" json:"-"`
	Day       time.Time `db:"day" json:"date"`
	Capacity  int       `db:"capacity" json:"capacity"`
	SlotStart string    `db:"slot_start" json:"slot_start"`
	SlotEnd   string    `db:"slot_end" json:"slot_end"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// Order is one association's meal reservation for a delivery day.
type Order struct {
	ID          string    `db:"id" json:"id"`
	OwnerID     string    `db:"owner_id" json:"-"`
	DeliveryDay time.Time `db:"delivery_day" json:"delivery_day"`
	Quantity    int       `db:"quantity" json:"quantity"`
	Status      Status    `db:"status" json:"status"`
	Zone        string    `db:"zone" json:"zone"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"-"`
}

// Association is a tenant account. Orders are scoped to their owning
// association and never visible across tenants.
type Association struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Password  string    `db:"password" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Day truncates the instant t to its calendar day in loc. Use for wall-clock
// values ("now"); for DATE column values use DateIn.
func Day(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DateIn re-anchors the calendar date carried by t at midnight in loc. DATE
// columns scan back as midnight UTC; their wall date is the delivery day
// whatever the location, so it must not be shifted through a conversion
// (midnight UTC viewed west of UTC is still the previous evening).
func DateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
