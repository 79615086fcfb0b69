package booking

import "fmt"

// BookingStatus represents the scheduling state of a booking.
type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusPending   BookingStatus = "pending"
	StatusCancelled BookingStatus = "cancelled"
)

// AllStatuses lists every recognised status in display order.
var AllStatuses = []BookingStatus{StatusConfirmed, StatusPending, StatusCancelled}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusCancelled:
		return true
	}
	return false
}

// IsActive returns true if bookings in this status take part in overlap checks.
// Pending bookings hold their slot just like confirmed ones.
func (s BookingStatus) IsActive() bool {
	return s.IsValid() && s != StatusCancelled
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}
