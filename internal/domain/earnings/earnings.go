// Package earnings computes read-only price rollups over bookings by calendar day.
package earnings

import (
	"time"

	bookingDomain "github.com/edgeandco/service-booking/internal/domain/booking"
)

// DaysPerWeek is the fixed divisor for weekly averages, regardless of empty days.
const DaysPerWeek = 7

// DailySummary aggregates every booking starting on one calendar date.
type DailySummary struct {
	Date              time.Time
	TotalEarnings     float64
	BookingCount      int
	ConfirmedEarnings float64
	ConfirmedCount    int
}

// WeeklySummary aggregates seven consecutive days starting at WeekStart.
type WeeklySummary struct {
	WeekStart      time.Time
	WeekEnd        time.Time
	TotalEarnings  float64
	DailyBreakdown []DailySummary
	AverageDaily   float64
}

// RangeSummary aggregates every calendar day from StartDate to EndDate inclusive.
type RangeSummary struct {
	StartDate      time.Time
	EndDate        time.Time
	TotalEarnings  float64
	DailySummaries []DailySummary
	DaysCount      int
	AverageDaily   float64
}

// Daily sums bookings whose start time falls on date. Total figures count every
// status, cancelled included; confirmed figures count status confirmed only.
// Bookings on other dates are ignored, so a wider candidate set is safe to pass.
func Daily(date time.Time, bookings []*bookingDomain.Booking) DailySummary {
	day := bookingDomain.DateOf(date)
	summary := DailySummary{Date: day}
	for _, bk := range bookings {
		if !bookingDomain.SameDate(bk.StartTime(), day) {
			continue
		}
		summary.TotalEarnings += bk.Price()
		summary.BookingCount++
		if bk.Status() == bookingDomain.StatusConfirmed {
			summary.ConfirmedEarnings += bk.Price()
			summary.ConfirmedCount++
		}
	}
	return summary
}

// WeekWindow returns the candidate window for a week: weekStart through
// weekStart+7 days inclusive, one day past the week's last day.
func WeekWindow(weekStart time.Time) (from, to time.Time) {
	from = bookingDomain.DateOf(weekStart)
	return from, bookingDomain.AddDays(from, DaysPerWeek)
}

// Weekly re-buckets the candidates gathered for WeekWindow into seven daily summaries.
func Weekly(weekStart time.Time, candidates []*bookingDomain.Booking) WeeklySummary {
	start := bookingDomain.DateOf(weekStart)
	summary := WeeklySummary{
		WeekStart:      start,
		WeekEnd:        bookingDomain.AddDays(start, DaysPerWeek-1),
		DailyBreakdown: make([]DailySummary, 0, DaysPerWeek),
	}
	for i := 0; i < DaysPerWeek; i++ {
		daily := Daily(bookingDomain.AddDays(start, i), candidates)
		summary.DailyBreakdown = append(summary.DailyBreakdown, daily)
		summary.TotalEarnings += daily.TotalEarnings
	}
	summary.AverageDaily = summary.TotalEarnings / DaysPerWeek
	return summary
}

// RangeWindow returns the candidate window for a date range.
func RangeWindow(startDate, endDate time.Time) (from, to time.Time) {
	return bookingDomain.DateOf(startDate), bookingDomain.AddDays(endDate, 1)
}

// Range builds one daily summary per calendar day from startDate to endDate inclusive.
// An inverted range yields zero days and a zero average.
func Range(startDate, endDate time.Time, candidates []*bookingDomain.Booking) RangeSummary {
	start := bookingDomain.DateOf(startDate)
	end := bookingDomain.DateOf(endDate)
	summary := RangeSummary{
		StartDate:      start,
		EndDate:        end,
		DailySummaries: []DailySummary{},
	}
	for day := start; !day.After(end); day = bookingDomain.AddDays(day, 1) {
		daily := Daily(day, candidates)
		summary.DailySummaries = append(summary.DailySummaries, daily)
		summary.TotalEarnings += daily.TotalEarnings
	}
	summary.DaysCount = len(summary.DailySummaries)
	if summary.DaysCount > 0 {
		summary.AverageDaily = summary.TotalEarnings / float64(summary.DaysCount)
	}
	return summary
}
