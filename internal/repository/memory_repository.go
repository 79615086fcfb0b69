package repository

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/edgeandco/service-booking/internal/domain"
	bookingDomain "github.com/edgeandco/service-booking/internal/domain/booking"
)

// memoryState is the data shared by a MemoryBookingRepository and its transactions.
type memoryState struct {
	mu       sync.RWMutex
	bookings map[int64]bookingDomain.Booking
	nextID   int64

	txMu sync.Mutex
}

// MemoryBookingRepository keeps bookings in process memory. Writes are serialised
// with transactions, which roll back by restoring a snapshot.
type MemoryBookingRepository struct {
	state *memoryState
}

// NewMemoryBookingRepository creates an empty in-memory repository.
func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{
		state: &memoryState{
			bookings: make(map[int64]bookingDomain.Booking),
			nextID:   1,
		},
	}
}

// FindByID retrieves a booking by its identifier.
func (r *MemoryBookingRepository) FindByID(_ context.Context, id int64) (*bookingDomain.Booking, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	bk, ok := r.state.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", strconv.FormatInt(id, 10))
	}
	return &bk, nil
}

// List retrieves bookings in id order with an optional status filter.
func (r *MemoryBookingRepository) List(_ context.Context, filter bookingDomain.ListFilter) ([]*bookingDomain.Booking, error) {
	matched := r.selectSorted(func(bk *bookingDomain.Booking) bool {
		return filter.Status == "" || string(bk.Status()) == filter.Status
	}, byID)

	skip := max(filter.Skip, 0)
	if skip >= len(matched) {
		return []*bookingDomain.Booking{}, nil
	}
	matched = matched[skip:]
	if filter.Limit >= 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// FindByClientName retrieves bookings whose client name contains substring, ignoring case.
func (r *MemoryBookingRepository) FindByClientName(_ context.Context, substring string) ([]*bookingDomain.Booking, error) {
	needle := strings.ToLower(substring)
	return r.selectSorted(func(bk *bookingDomain.Booking) bool {
		return strings.Contains(strings.ToLower(bk.ClientName()), needle)
	}, byStartTime), nil
}

// FindByStartBetween retrieves bookings with from <= start_time <= to.
func (r *MemoryBookingRepository) FindByStartBetween(_ context.Context, from, to time.Time) ([]*bookingDomain.Booking, error) {
	from, to = bookingDomain.Naive(from), bookingDomain.Naive(to)
	return r.selectSorted(func(bk *bookingDomain.Booking) bool {
		return !bk.StartTime().Before(from) && !bk.StartTime().After(to)
	}, byStartTime), nil
}

// FindActiveOverlapping retrieves non-cancelled bookings overlapping slot.
func (r *MemoryBookingRepository) FindActiveOverlapping(_ context.Context, slot bookingDomain.TimeSlot, excludeID int64) ([]*bookingDomain.Booking, error) {
	return r.selectSorted(func(bk *bookingDomain.Booking) bool {
		return bk.ID() != excludeID && bk.Status().IsActive() && slot.Overlaps(bk.Slot())
	}, byStartTime), nil
}

// CountByStatus returns booking counts grouped by status.
func (r *MemoryBookingRepository) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	counts := make(map[string]int64)
	for _, bk := range r.state.bookings {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

// Save persists a new booking and assigns its id.
func (r *MemoryBookingRepository) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.state.txMu.Lock()
	defer r.state.txMu.Unlock()
	return r.state.save(bk)
}

// Update persists changes to an existing booking.
func (r *MemoryBookingRepository) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.state.txMu.Lock()
	defer r.state.txMu.Unlock()
	return r.state.update(bk)
}

// Delete permanently removes a booking.
func (r *MemoryBookingRepository) Delete(_ context.Context, id int64) error {
	r.state.txMu.Lock()
	defer r.state.txMu.Unlock()
	return r.state.delete(id)
}

// WithinTx runs fn with exclusive access to the store, restoring the previous
// contents if fn fails. Writes outside a transaction wait for it to finish.
func (r *MemoryBookingRepository) WithinTx(_ context.Context, fn func(repo bookingDomain.BookingRepository) error) error {
	r.state.txMu.Lock()
	defer r.state.txMu.Unlock()
	return memoryTx{r}.run(fn)
}

// memoryTx is the repository handed to a transaction body. It already holds
// txMu, so its writes only take mu.
type memoryTx struct {
	*MemoryBookingRepository
}

func (tx memoryTx) Save(_ context.Context, bk *bookingDomain.Booking) error {
	return tx.state.save(bk)
}

func (tx memoryTx) Update(_ context.Context, bk *bookingDomain.Booking) error {
	return tx.state.update(bk)
}

func (tx memoryTx) Delete(_ context.Context, id int64) error {
	return tx.state.delete(id)
}

// WithinTx joins the enclosing transaction.
func (tx memoryTx) WithinTx(_ context.Context, fn func(repo bookingDomain.BookingRepository) error) error {
	return fn(tx)
}

func (tx memoryTx) run(fn func(repo bookingDomain.BookingRepository) error) error {
	st := tx.state
	st.mu.RLock()
	snapshot := make(map[int64]bookingDomain.Booking, len(st.bookings))
	for id, bk := range st.bookings {
		snapshot[id] = bk
	}
	nextID := st.nextID
	st.mu.RUnlock()

	if err := fn(tx); err != nil {
		st.mu.Lock()
		st.bookings = snapshot
		st.nextID = nextID
		st.mu.Unlock()
		return err
	}
	return nil
}

func (st *memoryState) save(bk *bookingDomain.Booking) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	bk.AssignID(st.nextID)
	st.nextID++
	st.bookings[bk.ID()] = *bk
	return nil
}

func (st *memoryState) update(bk *bookingDomain.Booking) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.bookings[bk.ID()]; !ok {
		return domain.NewNotFoundError("Booking", strconv.FormatInt(bk.ID(), 10))
	}
	st.bookings[bk.ID()] = *bk
	return nil
}

func (st *memoryState) delete(id int64) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.bookings[id]; !ok {
		return domain.NewNotFoundError("Booking", strconv.FormatInt(id, 10))
	}
	delete(st.bookings, id)
	return nil
}

// Ping always succeeds for the in-memory store.
func (r *MemoryBookingRepository) Ping(_ context.Context) error {
	return nil
}

func (r *MemoryBookingRepository) selectSorted(
	match func(*bookingDomain.Booking) bool,
	less func(a, b *bookingDomain.Booking) bool,
) []*bookingDomain.Booking {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	out := make([]*bookingDomain.Booking, 0)
	for _, stored := range r.state.bookings {
		bk := stored
		if match(&bk) {
			out = append(out, &bk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byID(a, b *bookingDomain.Booking) bool {
	return a.ID() < b.ID()
}

func byStartTime(a, b *bookingDomain.Booking) bool {
	if a.StartTime().Equal(b.StartTime()) {
		return a.ID() < b.ID()
	}
	return a.StartTime().Before(b.StartTime())
}
