//go:build integration

package main_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/edgeandco/service-booking/internal/application"
	"github.com/edgeandco/service-booking/internal/domain"
	bookingDomain "github.com/edgeandco/service-booking/internal/domain/booking"
	bookingEvents "github.com/edgeandco/service-booking/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentCreates_ExactlyOneWins races overlapping creates against the same
// gap; the row locks and exclusion constraint must let exactly one commit.
func TestConcurrentCreates_ExactlyOneWins(t *testing.T) {
	db := setupPostgres(t)
	stack := setupBookingStack(t, db, nil)
	ctx := context.Background()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := stack.Service.CreateBooking(ctx, application.CreateBookingRequest{
				ClientName: "Racer",
				StartTime:  ts(t, "2025-03-10T10:00:00"),
				EndTime:    ts(t, "2025-03-10T11:00:00"),
				Price:      ptr(40.0 + float64(i)),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case domain.IsConflict(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, conflicts)

	var count int64
	require.NoError(t, db.Table("bookings").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

// TestExclusionConstraint_RejectsOverlapOutsideService saves straight through the
// repository, bypassing the engine, and expects the database to refuse.
func TestExclusionConstraint_RejectsOverlapOutsideService(t *testing.T) {
	db := setupPostgres(t)
	stack := setupBookingStack(t, db, nil)
	ctx := context.Background()

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	first, err := bookingDomain.NewBooking("A", bookingDomain.NewTimeSlot(start, start.Add(time.Hour)), 50, nil, nil, "", start)
	require.NoError(t, err)
	require.NoError(t, stack.Repo.Save(ctx, first))
	assert.NotZero(t, first.ID())

	overlap, err := bookingDomain.NewBooking("B", bookingDomain.NewTimeSlot(start.Add(30*time.Minute), start.Add(90*time.Minute)), 50, nil, nil, "", start)
	require.NoError(t, err)
	err = stack.Repo.Save(ctx, overlap)
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))

	// Cancelled rows are exempt and back-to-back slots are fine.
	cancelled, err := bookingDomain.NewBooking("C", bookingDomain.NewTimeSlot(start, start.Add(time.Hour)), 50, nil, nil, bookingDomain.StatusCancelled, start)
	require.NoError(t, err)
	require.NoError(t, stack.Repo.Save(ctx, cancelled))

	adjacent, err := bookingDomain.NewBooking("D", bookingDomain.NewTimeSlot(start.Add(time.Hour), start.Add(2*time.Hour)), 50, nil, nil, "", start)
	require.NoError(t, err)
	require.NoError(t, stack.Repo.Save(ctx, adjacent))
}

func TestBookingLifecycleAndEarnings_Postgres(t *testing.T) {
	db := setupPostgres(t)
	stack := setupBookingStack(t, db, nil)
	ctx := context.Background()

	pending, err := stack.Service.CreateBooking(ctx, application.CreateBookingRequest{
		ClientName: "John Smith",
		StartTime:  ts(t, "2025-03-10T09:00:00"),
		EndTime:    ts(t, "2025-03-10T10:00:00"),
		Price:      ptr(50.0),
		Status:     "pending",
		Notes:      ptr("first visit"),
	})
	require.NoError(t, err)

	cancelled, err := stack.Service.CreateBooking(ctx, application.CreateBookingRequest{
		ClientName: "smith, jane",
		StartTime:  ts(t, "2025-03-10T10:00:00"),
		EndTime:    ts(t, "2025-03-10T11:00:00"),
		Price:      ptr(30.0),
	})
	require.NoError(t, err)
	_, err = stack.Service.UpdateBooking(ctx, cancelled.ID, application.UpdateBookingRequest{Status: ptr("cancelled")})
	require.NoError(t, err)

	_, err = stack.Service.CreateBooking(ctx, application.CreateBookingRequest{
		ClientName: "Alice",
		StartTime:  ts(t, "2025-03-10T10:30:00"),
		EndTime:    ts(t, "2025-03-10T11:30:00"),
		Price:      ptr(20.0),
	})
	require.NoError(t, err, "a cancelled booking must not block its slot")

	matches, err := stack.Service.ListByClient(ctx, "SMITH")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "John Smith", matches[0].ClientName)
	assert.Equal(t, "smith, jane", matches[1].ClientName)

	daily, err := stack.Earnings.DailyEarnings(ctx, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.InDelta(t, 100.0, daily.TotalEarnings, 1e-9)
	assert.Equal(t, 3, daily.BookingCount)
	assert.InDelta(t, 20.0, daily.ConfirmedEarnings, 1e-9)
	assert.Equal(t, 1, daily.ConfirmedCount)

	weekly, err := stack.Earnings.WeeklyEarnings(ctx, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, weekly.DailyBreakdown, 7)
	assert.InDelta(t, 100.0/7, weekly.AverageDaily, 1e-9)

	got, err := stack.Service.GetBooking(ctx, pending.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Notes)
	assert.Equal(t, "first visit", *got.Notes)
	assert.Nil(t, got.Location)
	assert.Equal(t, pending.StartTime.Time, got.StartTime.Time)

	require.NoError(t, stack.Service.DeleteBooking(ctx, pending.ID))
	err = stack.Service.DeleteBooking(ctx, pending.ID)
	assert.True(t, domain.IsNotFound(err))
}

// TestBookingPaid_ConfirmsPendingBooking verifies that a payment.booking_paid event
// moves a pending booking to confirmed and that the change lands on booking.events.
func TestBookingPaid_ConfirmsPendingBooking(t *testing.T) {
	db := setupPostgres(t)
	brokers := setupKafka(t)

	stack := setupBookingStack(t, db, brokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	created, err := stack.Service.CreateBooking(ctx, application.CreateBookingRequest{
		ClientName: "Paying Client",
		StartTime:  ts(t, "2025-04-01T14:00:00"),
		EndTime:    ts(t, "2025-04-01T15:00:00"),
		Price:      ptr(75.0),
		Status:     "pending",
	})
	require.NoError(t, err)

	// Start the consumer.
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	publishTestEvent(t, brokers, bookingEvents.TopicPaymentEvents, "service-payment",
		bookingEvents.PaymentBookingPaid, bookingEvents.BookingPaidEvent{
			BookingID: created.ID,
			PaymentID: "pay_123",
			Amount:    75.0,
		})

	waitForBookingStatus(t, db, created.ID, "confirmed", 15*time.Second)

	ce := consumeOneEvent(t, brokers, bookingEvents.TopicBookingEvents,
		application.EventBookingUpdated, 15*time.Second)

	var updated application.BookingDTO
	require.NoError(t, ce.ParseData(&updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "confirmed", updated.Status)
	assert.Equal(t, bookingEvents.ServiceSource, ce.Source)
}
