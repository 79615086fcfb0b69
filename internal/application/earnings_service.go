package application

import (
	"context"
	"fmt"
	"time"

	bookingDomain "github.com/edgeandco/service-booking/internal/domain/booking"
	"github.com/edgeandco/service-booking/internal/domain/earnings"
	"go.uber.org/zap"
)

// EarningsService computes earnings rollups. Every call re-reads the store.
type EarningsService struct {
	repo   bookingDomain.BookingRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewEarningsService creates a new EarningsService.
func NewEarningsService(repo bookingDomain.BookingRepository, logger *zap.Logger) *EarningsService {
	return &EarningsService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// DailyEarnings summarises bookings starting on date.
func (s *EarningsService) DailyEarnings(ctx context.Context, date time.Time) (*DailyEarningsDTO, error) {
	ctx, span := startSpan(ctx, "EarningsService.DailyEarnings")
	defer span.End()

	day := bookingDomain.DateOf(date)
	candidates, err := s.repo.FindByStartBetween(ctx, day, bookingDomain.AddDays(day, 1))
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("failed to load daily bookings: %w", err))
	}

	result := toDailyEarningsDTO(earnings.Daily(day, candidates))
	return &result, nil
}

// WeeklyEarnings summarises the seven days starting at weekStart.
func (s *EarningsService) WeeklyEarnings(ctx context.Context, weekStart time.Time) (*WeeklyEarningsDTO, error) {
	ctx, span := startSpan(ctx, "EarningsService.WeeklyEarnings")
	defer span.End()

	from, to := earnings.WeekWindow(weekStart)
	candidates, err := s.repo.FindByStartBetween(ctx, from, to)
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("failed to load weekly bookings: %w", err))
	}

	summary := earnings.Weekly(weekStart, candidates)
	s.logger.Debug("weekly earnings computed",
		zap.String("week_start", bookingDomain.FormatDate(summary.WeekStart)),
		zap.Int("candidates", len(candidates)),
	)

	result := WeeklyEarningsDTO{
		WeekStart:      bookingDomain.FormatDate(summary.WeekStart),
		WeekEnd:        bookingDomain.FormatDate(summary.WeekEnd),
		TotalEarnings:  summary.TotalEarnings,
		DailyBreakdown: toDailyEarningsDTOs(summary.DailyBreakdown),
		AverageDaily:   summary.AverageDaily,
	}
	return &result, nil
}

// CurrentWeekEarnings summarises the week starting on the Monday of today.
func (s *EarningsService) CurrentWeekEarnings(ctx context.Context) (*WeeklyEarningsDTO, error) {
	return s.WeeklyEarnings(ctx, bookingDomain.MondayOf(bookingDomain.Naive(s.now())))
}

// RangeEarnings summarises every calendar day from startDate to endDate inclusive.
func (s *EarningsService) RangeEarnings(ctx context.Context, startDate, endDate time.Time) (*RangeEarningsDTO, error) {
	ctx, span := startSpan(ctx, "EarningsService.RangeEarnings")
	defer span.End()

	candidates := []*bookingDomain.Booking{}
	if !startDate.After(endDate) {
		from, to := earnings.RangeWindow(startDate, endDate)
		loaded, err := s.repo.FindByStartBetween(ctx, from, to)
		if err != nil {
			return nil, recordErr(span, fmt.Errorf("failed to load range bookings: %w", err))
		}
		candidates = loaded
	}

	summary := earnings.Range(startDate, endDate, candidates)
	result := RangeEarningsDTO{
		StartDate:      bookingDomain.FormatDate(summary.StartDate),
		EndDate:        bookingDomain.FormatDate(summary.EndDate),
		TotalEarnings:  summary.TotalEarnings,
		DailySummaries: toDailyEarningsDTOs(summary.DailySummaries),
		DaysCount:      summary.DaysCount,
		AverageDaily:   summary.AverageDaily,
	}
	return &result, nil
}

func toDailyEarningsDTO(d earnings.DailySummary) DailyEarningsDTO {
	return DailyEarningsDTO{
		Date:              bookingDomain.FormatDate(d.Date),
		TotalEarnings:     d.TotalEarnings,
		BookingCount:      d.BookingCount,
		ConfirmedEarnings: d.ConfirmedEarnings,
		ConfirmedCount:    d.ConfirmedCount,
	}
}

func toDailyEarningsDTOs(days []earnings.DailySummary) []DailyEarningsDTO {
	dtos := make([]DailyEarningsDTO, len(days))
	for i, d := range days {
		dtos[i] = toDailyEarningsDTO(d)
	}
	return dtos
}
