package canteen

import (
	"errors"
	"fmt"

	"github.com/assolink/cantine/internal/repository"
)

// ErrNotFound covers both a missing order and an order owned by another
// association; callers must not be able to tell the two apart.
var ErrNotFound = repository.ErrNotFound

// ErrWindowClosed means the cutoff relative to the delivery day has passed.
// Not retryable.
var ErrWindowClosed = errors.New("the change window for this delivery date has closed")

// ValidationError is a recoverable input error; the caller can resubmit
// corrected input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// CapacityError reports that a requested quantity does not fit into the
// day's remaining capacity. Max is the largest quantity the caller could
// still request, so a retry with a valid value needs no extra round trip.
type CapacityError struct {
	Max int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("requested quantity exceeds remaining capacity (maximum allowed: %d)", e.Max)
}
