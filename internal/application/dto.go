package application

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/edgeandco/service-booking/internal/domain"
	bookingDomain "github.com/edgeandco/service-booking/internal/domain/booking"
)

// Timestamp is a wall-clock timestamp on the wire. It accepts RFC 3339 with or
// without an offset and renders without one.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t as a naive Timestamp.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: bookingDomain.Naive(t)}
}

// UnmarshalJSON parses a JSON string timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := bookingDomain.ParseTimestamp(raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalJSON renders the timestamp in naive ISO form.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(bookingDomain.FormatTimestamp(t.Time))
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ClientName string     `json:"client_name" binding:"required"`
	StartTime  *Timestamp `json:"start_time" binding:"required"`
	EndTime    *Timestamp `json:"end_time" binding:"required"`
	Price      *float64   `json:"price" binding:"required"`
	Notes      *string    `json:"notes"`
	Location   *string    `json:"location"`
	Status     string     `json:"status" binding:"omitempty,booking_status"`
}

// OptionalString is a nullable request field that remembers whether it was sent,
// so an explicit null can be told apart from an absent key.
type OptionalString struct {
	Value *string
	Set   bool
}

// SetString returns an OptionalString carrying v.
func SetString(v string) OptionalString {
	return OptionalString{Value: &v, Set: true}
}

// Null returns an OptionalString that clears the field.
func Null() OptionalString {
	return OptionalString{Set: true}
}

// UnmarshalJSON marks the field as sent; null leaves Value nil.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (o OptionalString) cleared() bool {
	return o.Set && o.Value == nil
}

// UpdateBookingRequest holds a partial update; absent fields are left unchanged and an
// explicit null clears notes or location.
type UpdateBookingRequest struct {
	ClientName *string        `json:"client_name"`
	StartTime  *Timestamp     `json:"start_time"`
	EndTime    *Timestamp     `json:"end_time"`
	Price      *float64       `json:"price"`
	Notes      OptionalString `json:"notes"`
	Location   OptionalString `json:"location"`
	Status     *string        `json:"status" binding:"omitempty,booking_status"`
}

func (r UpdateBookingRequest) toPatch() (bookingDomain.Patch, error) {
	patch := bookingDomain.Patch{
		ClientName:    r.ClientName,
		Price:         r.Price,
		Notes:         r.Notes.Value,
		Location:      r.Location.Value,
		ClearNotes:    r.Notes.cleared(),
		ClearLocation: r.Location.cleared(),
	}
	if r.StartTime != nil {
		start := r.StartTime.Time
		patch.StartTime = &start
	}
	if r.EndTime != nil {
		end := r.EndTime.Time
		patch.EndTime = &end
	}
	if r.Status != nil {
		status, err := bookingDomain.ParseBookingStatus(*r.Status)
		if err != nil {
			return bookingDomain.Patch{}, domain.NewValidationError("status", err.Error())
		}
		patch.Status = &status
	}
	return patch, nil
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID         int64     `json:"id"`
	ClientName string    `json:"client_name"`
	StartTime  Timestamp `json:"start_time"`
	EndTime    Timestamp `json:"end_time"`
	Price      float64   `json:"price"`
	Notes      *string   `json:"notes"`
	Location   *string   `json:"location"`
	Status     string    `json:"status"`
	CreatedAt  Timestamp `json:"created_at"`
	UpdatedAt  Timestamp `json:"updated_at"`
}

// BookingStatsDTO holds aggregate booking statistics.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// DailyEarningsDTO is the earnings summary for one calendar date.
type DailyEarningsDTO struct {
	Date              string  `json:"date"`
	TotalEarnings     float64 `json:"total_earnings"`
	BookingCount      int     `json:"booking_count"`
	ConfirmedEarnings float64 `json:"confirmed_earnings"`
	ConfirmedCount    int     `json:"confirmed_count"`
}

// WeeklyEarningsDTO is the earnings summary for seven consecutive days.
type WeeklyEarningsDTO struct {
	WeekStart      string             `json:"week_start"`
	WeekEnd        string             `json:"week_end"`
	TotalEarnings  float64            `json:"total_earnings"`
	DailyBreakdown []DailyEarningsDTO `json:"daily_breakdown"`
	AverageDaily   float64            `json:"average_daily"`
}

// RangeEarningsDTO is the earnings summary for an inclusive date range.
type RangeEarningsDTO struct {
	StartDate      string             `json:"start_date"`
	EndDate        string             `json:"end_date"`
	TotalEarnings  float64            `json:"total_earnings"`
	DailySummaries []DailyEarningsDTO `json:"daily_summaries"`
	DaysCount      int                `json:"days_count"`
	AverageDaily   float64            `json:"average_daily"`
}

// BookingDeletedPayload is the change-feed payload for a removed booking.
type BookingDeletedPayload struct {
	ID int64 `json:"id"`
}

// --- Helpers ---

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:         bk.ID(),
		ClientName: bk.ClientName(),
		StartTime:  NewTimestamp(bk.StartTime()),
		EndTime:    NewTimestamp(bk.EndTime()),
		Price:      bk.Price(),
		Notes:      bk.Notes(),
		Location:   bk.Location(),
		Status:     string(bk.Status()),
		CreatedAt:  NewTimestamp(bk.CreatedAt()),
		UpdatedAt:  NewTimestamp(bk.UpdatedAt()),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}
