package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/edgeandco/service-booking/internal/domain"
	bookingDomain "github.com/edgeandco/service-booking/internal/domain/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var base = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

type MemoryRepositorySuite struct {
	suite.Suite
	ctx  context.Context
	repo *MemoryBookingRepository
}

func TestMemoryRepositorySuite(t *testing.T) {
	suite.Run(t, new(MemoryRepositorySuite))
}

func (s *MemoryRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = NewMemoryBookingRepository()
}

func (s *MemoryRepositorySuite) save(name string, startHour int, status bookingDomain.BookingStatus) *bookingDomain.Booking {
	start := base.Add(time.Duration(startHour) * time.Hour)
	bk, err := bookingDomain.NewBooking(name, bookingDomain.NewTimeSlot(start, start.Add(time.Hour)), 10, nil, nil, status, base)
	s.Require().NoError(err)
	s.Require().NoError(s.repo.Save(s.ctx, bk))
	return bk
}

func (s *MemoryRepositorySuite) TestSaveAssignsSequentialIDs() {
	a := s.save("A", 9, "")
	b := s.save("B", 11, "")

	s.Equal(int64(1), a.ID())
	s.Equal(int64(2), b.ID())

	found, err := s.repo.FindByID(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal("B", found.ClientName())
}

func (s *MemoryRepositorySuite) TestReturnedBookingsAreCopies() {
	s.save("A", 9, "")

	found, err := s.repo.FindByID(s.ctx, 1)
	s.Require().NoError(err)
	name := "changed"
	_, err = found.Apply(bookingDomain.Patch{ClientName: &name}, base)
	s.Require().NoError(err)

	again, err := s.repo.FindByID(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("A", again.ClientName(), "mutating a result must not touch the store")
}

func (s *MemoryRepositorySuite) TestListOrderFilterAndPagination() {
	s.save("A", 15, "")
	s.save("B", 9, bookingDomain.StatusCancelled)
	s.save("C", 12, "")
	s.save("D", 7, "")

	all, err := s.repo.List(s.ctx, bookingDomain.ListFilter{Limit: 100})
	s.Require().NoError(err)
	s.Equal([]string{"A", "B", "C", "D"}, names(all), "id order, not start order")

	page, err := s.repo.List(s.ctx, bookingDomain.ListFilter{Skip: 1, Limit: 2})
	s.Require().NoError(err)
	s.Equal([]string{"B", "C"}, names(page))

	confirmed, err := s.repo.List(s.ctx, bookingDomain.ListFilter{Status: "confirmed", Limit: 100})
	s.Require().NoError(err)
	s.Equal([]string{"A", "C", "D"}, names(confirmed))

	none, err := s.repo.List(s.ctx, bookingDomain.ListFilter{Skip: 10, Limit: 100})
	s.Require().NoError(err)
	s.Empty(none)

	zero, err := s.repo.List(s.ctx, bookingDomain.ListFilter{Limit: 0})
	s.Require().NoError(err)
	s.Empty(zero)
}

func (s *MemoryRepositorySuite) TestFindByClientNameIsCaseInsensitiveSubstring() {
	s.save("smith, jane", 14, "")
	s.save("John Smith", 9, "")
	s.save("Alice", 11, "")

	found, err := s.repo.FindByClientName(s.ctx, "SMITH")
	s.Require().NoError(err)
	s.Equal([]string{"John Smith", "smith, jane"}, names(found))
}

func (s *MemoryRepositorySuite) TestFindByStartBetweenIsInclusive() {
	s.save("midnight", 0, "")
	s.save("noon", 12, "")
	s.save("next midnight", 24, "")
	s.save("later", 25, "")

	found, err := s.repo.FindByStartBetween(s.ctx, base, base.Add(24*time.Hour))
	s.Require().NoError(err)
	s.Equal([]string{"midnight", "noon", "next midnight"}, names(found))
}

func (s *MemoryRepositorySuite) TestFindActiveOverlapping() {
	s.save("active", 10, "")
	s.save("cancelled", 10, bookingDomain.StatusCancelled)
	s.save("adjacent", 11, bookingDomain.StatusPending)

	slot := bookingDomain.NewTimeSlot(base.Add(10*time.Hour+30*time.Minute), base.Add(11*time.Hour))
	found, err := s.repo.FindActiveOverlapping(s.ctx, slot, 0)
	s.Require().NoError(err)
	s.Equal([]string{"active"}, names(found))

	found, err = s.repo.FindActiveOverlapping(s.ctx, slot, 1)
	s.Require().NoError(err)
	s.Empty(found)
}

func (s *MemoryRepositorySuite) TestUpdateAndDeleteMissing() {
	ghost := bookingDomain.ReconstructBooking(42, "ghost", base, base.Add(time.Hour), 10, nil, nil, bookingDomain.StatusConfirmed, base, base)
	s.True(domain.IsNotFound(s.repo.Update(s.ctx, ghost)))

	s.save("A", 9, "")
	s.Require().NoError(s.repo.Delete(s.ctx, 1))
	s.True(domain.IsNotFound(s.repo.Delete(s.ctx, 1)))
	_, err := s.repo.FindByID(s.ctx, 1)
	s.True(domain.IsNotFound(err))
}

func (s *MemoryRepositorySuite) TestCountByStatus() {
	s.save("A", 9, "")
	s.save("B", 11, bookingDomain.StatusPending)
	s.save("C", 13, "")

	counts, err := s.repo.CountByStatus(s.ctx)
	s.Require().NoError(err)
	s.Equal(map[string]int64{"confirmed": 2, "pending": 1}, counts)
}

func (s *MemoryRepositorySuite) TestWithinTxRollsBackOnError() {
	s.save("A", 9, "")
	boom := errors.New("boom")

	err := s.repo.WithinTx(s.ctx, func(tx bookingDomain.BookingRepository) error {
		bk, err := bookingDomain.NewBooking("B", bookingDomain.NewTimeSlot(base.Add(12*time.Hour), base.Add(13*time.Hour)), 10, nil, nil, "", base)
		if err != nil {
			return err
		}
		if err := tx.Save(s.ctx, bk); err != nil {
			return err
		}
		if err := tx.Delete(s.ctx, 1); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	all, err := s.repo.List(s.ctx, bookingDomain.ListFilter{Limit: 100})
	s.Require().NoError(err)
	s.Equal([]string{"A"}, names(all))

	next := s.save("C", 15, "")
	s.Equal(int64(2), next.ID(), "ids handed out in a rolled-back tx are reused")
}

func (s *MemoryRepositorySuite) TestRollbackKeepsConcurrentDelete() {
	s.save("A", 9, "")
	conflict := domain.NewConflictError("time slot conflicts with existing booking")

	deleted := make(chan error, 1)
	err := s.repo.WithinTx(s.ctx, func(tx bookingDomain.BookingRepository) error {
		started := make(chan struct{})
		go func() {
			close(started)
			deleted <- s.repo.Delete(s.ctx, 1)
		}()
		<-started
		time.Sleep(20 * time.Millisecond)
		return conflict
	})
	s.ErrorIs(err, conflict)

	s.Require().NoError(<-deleted)
	_, err = s.repo.FindByID(s.ctx, 1)
	s.True(domain.IsNotFound(err), "an acknowledged delete must survive another transaction's rollback")
}

func (s *MemoryRepositorySuite) TestNestedWithinTxJoinsOuter() {
	boom := errors.New("boom")

	err := s.repo.WithinTx(s.ctx, func(tx bookingDomain.BookingRepository) error {
		return tx.WithinTx(s.ctx, func(inner bookingDomain.BookingRepository) error {
			bk, err := bookingDomain.NewBooking("B", bookingDomain.NewTimeSlot(base, base.Add(time.Hour)), 10, nil, nil, "", base)
			if err != nil {
				return err
			}
			if err := inner.Save(s.ctx, bk); err != nil {
				return err
			}
			return boom
		})
	})
	s.ErrorIs(err, boom)

	counts, err := s.repo.CountByStatus(s.ctx)
	s.Require().NoError(err)
	s.Empty(counts)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now\\`, escapeLike(`50% off_now\`))
	assert.Equal(t, "smith", escapeLike("smith"))
}

func TestModelRoundTrip(t *testing.T) {
	notes := "n"
	bk := bookingDomain.ReconstructBooking(5, "A", base.Add(time.Hour), base.Add(2*time.Hour), 12.5, &notes, nil, bookingDomain.StatusPending, base, base.Add(time.Minute))

	back, err := toDomainBooking(toBookingModel(bk))
	require.NoError(t, err)
	assert.Equal(t, bk, back)

	_, err = toDomainBooking(&BookingModel{Status: "archived"})
	assert.Error(t, err)
}

func names(bookings []*bookingDomain.Booking) []string {
	out := make([]string, len(bookings))
	for i, bk := range bookings {
		out[i] = bk.ClientName()
	}
	return out
}
