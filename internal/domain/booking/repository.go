package booking

import (
	"context"
	"time"
)

// ListFilter selects bookings in store order (ascending id).
type ListFilter struct {
	Status string // empty matches every status
	Skip   int
	Limit  int
}

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its identifier.
	FindByID(ctx context.Context, id int64) (*Booking, error)

	// List retrieves bookings in id order with optional status filter and offset pagination.
	List(ctx context.Context, filter ListFilter) ([]*Booking, error)

	// FindByClientName retrieves bookings whose client name contains the substring,
	// case-insensitively, ordered by start time.
	FindByClientName(ctx context.Context, substring string) ([]*Booking, error)

	// FindByStartBetween retrieves bookings with from <= start_time <= to, ordered by start time.
	FindByStartBetween(ctx context.Context, from, to time.Time) ([]*Booking, error)

	// FindActiveOverlapping retrieves non-cancelled bookings overlapping slot, other than excludeID.
	FindActiveOverlapping(ctx context.Context, slot TimeSlot, excludeID int64) ([]*Booking, error)

	// CountByStatus returns booking counts grouped by status.
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking and assigns its id.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking.
	Update(ctx context.Context, booking *Booking) error

	// Delete permanently removes a booking.
	Delete(ctx context.Context, id int64) error

	// WithinTx runs fn against a repository bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(repo BookingRepository) error) error

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
