package booking

import (
	"strings"
	"time"

	"github.com/edgeandco/service-booking/internal/domain"
)

// Booking is the aggregate root for a reserved time slot.
type Booking struct {
	id         int64
	clientName string
	slot       TimeSlot
	price      float64
	notes      *string
	location   *string
	status     BookingStatus

	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking with validated fields. The id is assigned by the
// store when the booking is first saved.
func NewBooking(
	clientName string,
	slot TimeSlot,
	price float64,
	notes *string,
	location *string,
	status BookingStatus,
	now time.Time,
) (*Booking, error) {
	clientName = strings.TrimSpace(clientName)
	if clientName == "" {
		return nil, domain.NewValidationError("client_name", "client_name must not be empty")
	}
	if status == "" {
		status = StatusConfirmed
	}
	if !status.IsValid() {
		return nil, domain.NewValidationError("status", "status must be one of confirmed, pending, cancelled")
	}
	slot = NewTimeSlot(slot.Start, slot.End)
	if err := ValidateFields(slot, price); err != nil {
		return nil, err
	}

	now = Naive(now)
	return &Booking{
		clientName: clientName,
		slot:       slot,
		price:      price,
		notes:      notes,
		location:   location,
		status:     status,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id int64,
	clientName string,
	startTime time.Time,
	endTime time.Time,
	price float64,
	notes *string,
	location *string,
	status BookingStatus,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:         id,
		clientName: clientName,
		slot:       NewTimeSlot(startTime, endTime),
		price:      price,
		notes:      notes,
		location:   location,
		status:     status,
		createdAt:  Naive(createdAt),
		updatedAt:  Naive(updatedAt),
	}
}

// --- Getters ---

// ID returns the store-assigned identifier, or 0 before the first save.
func (b *Booking) ID() int64 { return b.id }

// ClientName returns the name of the client the slot is reserved for.
func (b *Booking) ClientName() string { return b.clientName }

// Slot returns the reserved interval.
func (b *Booking) Slot() TimeSlot { return b.slot }

// StartTime returns the start of the reserved interval.
func (b *Booking) StartTime() time.Time { return b.slot.Start }

// EndTime returns the end of the reserved interval.
func (b *Booking) EndTime() time.Time { return b.slot.End }

// Price returns the booking price.
func (b *Booking) Price() float64 { return b.price }

// Notes returns the optional free-form notes.
func (b *Booking) Notes() *string { return b.notes }

// Location returns the optional location.
func (b *Booking) Location() *string { return b.location }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// Candidate returns the booking's current fields in the form the conflict engine checks.
func (b *Booking) Candidate() Candidate {
	return Candidate{
		ClientName: b.clientName,
		Slot:       b.slot,
		Price:      b.price,
		Status:     b.status,
	}
}

// --- Behavior ---

// AssignID sets the store-assigned identifier. It has no effect once an id is set.
func (b *Booking) AssignID(id int64) {
	if b.id == 0 {
		b.id = id
	}
}

// Patch carries the fields of a partial update; nil means "leave unchanged".
type Patch struct {
	ClientName *string
	StartTime  *time.Time
	EndTime    *time.Time
	Price      *float64
	Notes      *string
	Location   *string
	Status     *BookingStatus

	// ClearNotes and ClearLocation null the field; they win over Notes and Location.
	ClearNotes    bool
	ClearLocation bool
}

// TouchesSlot reports whether the patch supplies start_time or end_time.
func (p Patch) TouchesSlot() bool {
	return p.StartTime != nil || p.EndTime != nil
}

// Apply validates and applies a partial update. It reports whether the result must be
// re-checked for overlaps: when either time field is supplied, or when a cancelled
// booking is brought back into an active status. Nothing is changed on error.
func (b *Booking) Apply(p Patch, now time.Time) (recheck bool, err error) {
	clientName := b.clientName
	if p.ClientName != nil {
		clientName = strings.TrimSpace(*p.ClientName)
		if clientName == "" {
			return false, domain.NewValidationError("client_name", "client_name must not be empty")
		}
	}

	status := b.status
	if p.Status != nil {
		if !p.Status.IsValid() {
			return false, domain.NewValidationError("status", "status must be one of confirmed, pending, cancelled")
		}
		status = *p.Status
	}

	slot := b.slot
	if p.StartTime != nil {
		slot.Start = Naive(*p.StartTime)
	}
	if p.EndTime != nil {
		slot.End = Naive(*p.EndTime)
	}
	price := b.price
	if p.Price != nil {
		price = *p.Price
	}
	if p.TouchesSlot() || p.Price != nil {
		if err := ValidateFields(slot, price); err != nil {
			return false, err
		}
	}

	reactivated := !b.status.IsActive() && status.IsActive()

	b.clientName = clientName
	b.slot = slot
	b.price = price
	b.status = status
	switch {
	case p.ClearNotes:
		b.notes = nil
	case p.Notes != nil:
		b.notes = p.Notes
	}
	switch {
	case p.ClearLocation:
		b.location = nil
	case p.Location != nil:
		b.location = p.Location
	}
	b.updatedAt = Naive(now)

	return p.TouchesSlot() || reactivated, nil
}
