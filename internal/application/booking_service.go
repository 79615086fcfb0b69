package application

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/edgeandco/service-booking/internal/domain"
	bookingDomain "github.com/edgeandco/service-booking/internal/domain/booking"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Booking change-feed event types.
const (
	EventBookingCreated = "booking.created"
	EventBookingUpdated = "booking.updated"
	EventBookingDeleted = "booking.deleted"
)

const publishTimeout = 5 * time.Second

var tracer = otel.Tracer("github.com/edgeandco/service-booking/internal/application")

// EventPublisher emits booking change events after a successful write.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, key string, data any) error
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo      bookingDomain.BookingRepository
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	publisher EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// GetBooking retrieves a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, id int64) (*BookingDTO, error) {
	ctx, span := startSpan(ctx, "BookingService.GetBooking", attribute.Int64("booking.id", id))
	defer span.End()

	bk, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, recordErr(span, err)
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListBookings returns bookings in id order, optionally filtered by status.
func (s *BookingService) ListBookings(ctx context.Context, status string, skip, limit int) ([]BookingDTO, error) {
	ctx, span := startSpan(ctx, "BookingService.ListBookings")
	defer span.End()

	if skip < 0 || limit < 0 {
		return nil, recordErr(span, domain.NewValidationError("skip", "skip and limit must not be negative"))
	}
	bookings, err := s.repo.List(ctx, bookingDomain.ListFilter{Status: status, Skip: skip, Limit: limit})
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("failed to list bookings: %w", err))
	}
	return toBookingDTOs(bookings), nil
}

// ListByClient returns bookings whose client name contains substring, ignoring case.
func (s *BookingService) ListByClient(ctx context.Context, substring string) ([]BookingDTO, error) {
	ctx, span := startSpan(ctx, "BookingService.ListByClient")
	defer span.End()

	bookings, err := s.repo.FindByClientName(ctx, substring)
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("failed to list bookings by client: %w", err))
	}
	return toBookingDTOs(bookings), nil
}

// ListByDateRange returns bookings with startDate <= start_time <= endDate, both
// bounds taken at midnight.
func (s *BookingService) ListByDateRange(ctx context.Context, startDate, endDate time.Time) ([]BookingDTO, error) {
	ctx, span := startSpan(ctx, "BookingService.ListByDateRange")
	defer span.End()

	bookings, err := s.repo.FindByStartBetween(ctx, bookingDomain.DateOf(startDate), bookingDomain.DateOf(endDate))
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("failed to list bookings by date range: %w", err))
	}
	return toBookingDTOs(bookings), nil
}

// ListForDate returns the bookings starting on the given calendar date.
func (s *BookingService) ListForDate(ctx context.Context, date time.Time) ([]BookingDTO, error) {
	ctx, span := startSpan(ctx, "BookingService.ListForDate")
	defer span.End()

	day := bookingDomain.DateOf(date)
	candidates, err := s.repo.FindByStartBetween(ctx, day, bookingDomain.AddDays(day, 1))
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("failed to list bookings for date: %w", err))
	}

	// The window ends at next midnight inclusive; keep only this date.
	bookings := make([]*bookingDomain.Booking, 0, len(candidates))
	for _, bk := range candidates {
		if bookingDomain.SameDate(bk.StartTime(), day) {
			bookings = append(bookings, bk)
		}
	}
	return toBookingDTOs(bookings), nil
}

// CreateBooking validates a new booking against every active booking and persists it.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingDTO, error) {
	ctx, span := startSpan(ctx, "BookingService.CreateBooking")
	defer span.End()

	if req.StartTime == nil || req.EndTime == nil {
		return nil, recordErr(span, domain.NewValidationError("start_time", "start_time and end_time are required"))
	}
	if req.Price == nil {
		return nil, recordErr(span, domain.NewValidationError("price", "price is required"))
	}

	status := bookingDomain.StatusConfirmed
	if req.Status != "" {
		parsed, err := bookingDomain.ParseBookingStatus(req.Status)
		if err != nil {
			return nil, recordErr(span, domain.NewValidationError("status", err.Error()))
		}
		status = parsed
	}

	bk, err := bookingDomain.NewBooking(
		req.ClientName,
		bookingDomain.NewTimeSlot(req.StartTime.Time, req.EndTime.Time),
		*req.Price,
		req.Notes,
		req.Location,
		status,
		s.now(),
	)
	if err != nil {
		return nil, recordErr(span, err)
	}

	err = s.repo.WithinTx(ctx, func(tx bookingDomain.BookingRepository) error {
		existing, err := tx.FindActiveOverlapping(ctx, bk.Slot(), 0)
		if err != nil {
			return err
		}
		if err := bookingDomain.Validate(bk.Candidate(), 0, existing); err != nil {
			return err
		}
		return tx.Save(ctx, bk)
	})
	if err != nil {
		return nil, recordErr(span, err)
	}

	s.logger.Info("booking created",
		zap.Int64("booking_id", bk.ID()),
		zap.String("client_name", bk.ClientName()),
		zap.String("start_time", bookingDomain.FormatTimestamp(bk.StartTime())),
	)

	result := toBookingDTO(bk)
	s.publishEvent(ctx, EventBookingCreated, bk.ID(), result)
	return &result, nil
}

// UpdateBooking applies a partial update. The result is re-checked for overlaps when
// a time field is supplied or a cancelled booking becomes active again.
func (s *BookingService) UpdateBooking(ctx context.Context, id int64, req UpdateBookingRequest) (*BookingDTO, error) {
	ctx, span := startSpan(ctx, "BookingService.UpdateBooking", attribute.Int64("booking.id", id))
	defer span.End()

	patch, err := req.toPatch()
	if err != nil {
		return nil, recordErr(span, err)
	}

	var bk *bookingDomain.Booking
	err = s.repo.WithinTx(ctx, func(tx bookingDomain.BookingRepository) error {
		found, err := tx.FindByID(ctx, id)
		if err != nil {
			return err
		}
		recheck, err := found.Apply(patch, s.now())
		if err != nil {
			return err
		}
		if recheck {
			existing, err := tx.FindActiveOverlapping(ctx, found.Slot(), found.ID())
			if err != nil {
				return err
			}
			if err := bookingDomain.Validate(found.Candidate(), found.ID(), existing); err != nil {
				return err
			}
		}
		bk = found
		return tx.Update(ctx, found)
	})
	if err != nil {
		return nil, recordErr(span, err)
	}

	s.logger.Info("booking updated",
		zap.Int64("booking_id", bk.ID()),
		zap.String("status", string(bk.Status())),
	)

	result := toBookingDTO(bk)
	s.publishEvent(ctx, EventBookingUpdated, bk.ID(), result)
	return &result, nil
}

// ConfirmBooking moves a pending booking to confirmed. Bookings in any other status
// are left untouched and reported as unchanged.
func (s *BookingService) ConfirmBooking(ctx context.Context, id int64) (bool, error) {
	ctx, span := startSpan(ctx, "BookingService.ConfirmBooking", attribute.Int64("booking.id", id))
	defer span.End()

	confirmed := bookingDomain.StatusConfirmed
	var bk *bookingDomain.Booking
	err := s.repo.WithinTx(ctx, func(tx bookingDomain.BookingRepository) error {
		found, err := tx.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if found.Status() != bookingDomain.StatusPending {
			return nil
		}
		if _, err := found.Apply(bookingDomain.Patch{Status: &confirmed}, s.now()); err != nil {
			return err
		}
		bk = found
		return tx.Update(ctx, found)
	})
	if err != nil {
		return false, recordErr(span, err)
	}
	if bk == nil {
		return false, nil
	}

	s.logger.Info("booking confirmed", zap.Int64("booking_id", id))
	s.publishEvent(ctx, EventBookingUpdated, id, toBookingDTO(bk))
	return true, nil
}

// DeleteBooking permanently removes a booking.
func (s *BookingService) DeleteBooking(ctx context.Context, id int64) error {
	ctx, span := startSpan(ctx, "BookingService.DeleteBooking", attribute.Int64("booking.id", id))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		return recordErr(span, err)
	}

	s.logger.Info("booking deleted", zap.Int64("booking_id", id))
	s.publishEvent(ctx, EventBookingDeleted, id, BookingDeletedPayload{ID: id})
	return nil
}

// GetBookingStats returns aggregate booking statistics.
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	ctx, span := startSpan(ctx, "BookingService.GetBookingStats")
	defer span.End()

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("failed to get booking stats: %w", err))
	}

	byStatus := make(map[string]int64, len(bookingDomain.AllStatuses))
	for _, status := range bookingDomain.AllStatuses {
		byStatus[string(status)] = 0
	}
	var total int64
	for status, c := range counts {
		byStatus[status] = c
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      byStatus,
	}, nil
}

// Ping reports whether the booking store is reachable.
func (s *BookingService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// --- Helpers ---

// publishEvent is best-effort: the write has already committed, so failures are logged only.
func (s *BookingService) publishEvent(ctx context.Context, eventType string, bookingID int64, data any) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(pubCtx, eventType, strconv.FormatInt(bookingID, 10), data); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("event_type", eventType),
			zap.Int64("booking_id", bookingID),
			zap.Error(err),
		)
	}
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func recordErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
