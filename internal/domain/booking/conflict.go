package booking

import (
	"time"

	"github.com/edgeandco/service-booking/internal/domain"
)

// TimeSlot is an immutable half-open interval [Start, End).
type TimeSlot struct {
	Start time.Time
	End   time.Time
}

// NewTimeSlot creates a TimeSlot from naive timestamps.
func NewTimeSlot(start, end time.Time) TimeSlot {
	return TimeSlot{Start: Naive(start), End: Naive(end)}
}

// Overlaps reports whether two slots intersect. Touching endpoints do not overlap.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return s.Start.Before(other.End) && s.End.After(other.Start)
}

// Candidate is the set of fields a booking would have after a create or update.
type Candidate struct {
	ClientName string
	Slot       TimeSlot
	Price      float64
	Status     BookingStatus
}

// ValidateFields checks the per-booking invariants: end after start and a positive price.
func ValidateFields(slot TimeSlot, price float64) error {
	if !slot.End.After(slot.Start) {
		return domain.NewValidationError("end_time", "end_time must be after start_time")
	}
	if !(price > 0) {
		return domain.NewValidationError("price", "price must be positive")
	}
	return nil
}

// CheckConflicts returns a ConflictError for the earliest active booking in existing
// that overlaps slot. The booking whose id equals excludeID never conflicts with itself;
// pass 0 on create.
func CheckConflicts(slot TimeSlot, excludeID int64, existing []*Booking) error {
	var hit *Booking
	for _, other := range existing {
		if other == nil || (excludeID != 0 && other.ID() == excludeID) {
			continue
		}
		if !other.Status().IsActive() || !slot.Overlaps(other.Slot()) {
			continue
		}
		if hit == nil || other.StartTime().Before(hit.StartTime()) {
			hit = other
		}
	}
	if hit != nil {
		return domain.NewBookingConflictError(hit.ClientName(), hit.StartTime())
	}
	return nil
}

// Validate runs the full rule set against a candidate: required fields, field
// invariants, then exclusivity against existing bookings.
func Validate(c Candidate, excludeID int64, existing []*Booking) error {
	if c.ClientName == "" {
		return domain.NewValidationError("client_name", "client_name must not be empty")
	}
	if !c.Status.IsValid() {
		return domain.NewValidationError("status", "status must be one of confirmed, pending, cancelled")
	}
	if err := ValidateFields(c.Slot, c.Price); err != nil {
		return err
	}
	return CheckConflicts(c.Slot, excludeID, existing)
}
