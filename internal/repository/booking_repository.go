package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/edgeandco/service-booking/internal/domain"
	bookingDomain "github.com/edgeandco/service-booking/internal/domain/booking"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pgExclusionViolation is the SQLSTATE raised by the bookings_no_overlap constraint.
const pgExclusionViolation = "23P01"

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	ClientName string    `gorm:"not null;size:255;index"`
	StartTime  time.Time `gorm:"type:timestamp;not null;index"`
	EndTime    time.Time `gorm:"type:timestamp;not null"`
	Price      float64   `gorm:"not null"`
	Notes      *string   `gorm:"type:text"`
	Location   *string   `gorm:"size:255"`
	Status     string    `gorm:"not null;size:20;default:'confirmed';index"`
	CreatedAt  time.Time `gorm:"type:timestamp;not null"`
	UpdatedAt  time.Time `gorm:"type:timestamp;not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id int64) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// List retrieves bookings in id order with an optional status filter.
func (r *GormBookingRepository) List(ctx context.Context, filter bookingDomain.ListFilter) ([]*bookingDomain.Booking, error) {
	query := r.db.WithContext(ctx).Model(&BookingModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var models []BookingModel
	if err := query.
		Order("id ASC").
		Offset(filter.Skip).
		Limit(filter.Limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindByClientName retrieves bookings whose client name contains substring, ignoring case.
func (r *GormBookingRepository) FindByClientName(ctx context.Context, substring string) ([]*bookingDomain.Booking, error) {
	pattern := "%" + escapeLike(substring) + "%"

	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("client_name ILIKE ?", pattern).
		Order("start_time ASC").
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find bookings by client: %w", err)
	}
	return toDomainBookings(models)
}

// FindByStartBetween retrieves bookings with from <= start_time <= to.
func (r *GormBookingRepository) FindByStartBetween(ctx context.Context, from, to time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("start_time >= ? AND start_time <= ?", bookingDomain.Naive(from), bookingDomain.Naive(to)).
		Order("start_time ASC").
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find bookings by date range: %w", err)
	}
	return toDomainBookings(models)
}

// FindActiveOverlapping retrieves and row-locks non-cancelled bookings overlapping slot.
func (r *GormBookingRepository) FindActiveOverlapping(ctx context.Context, slot bookingDomain.TimeSlot, excludeID int64) ([]*bookingDomain.Booking, error) {
	query := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status <> ?", string(bookingDomain.StatusCancelled)).
		Where("start_time < ? AND end_time > ?", slot.End, slot.Start)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var models []BookingModel
	if err := query.Order("start_time ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}
	return toDomainBookings(models)
}

// CountByStatus returns booking counts grouped by status.
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking and assigns its id.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isOverlapViolation(err) {
			return domain.NewConflictError("Booking conflicts with an existing booking")
		}
		return fmt.Errorf("failed to save booking: %w", err)
	}
	bk.AssignID(model.ID)
	return nil
}

// Update persists changes to an existing booking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"client_name": model.ClientName,
			"start_time":  model.StartTime,
			"end_time":    model.EndTime,
			"price":       model.Price,
			"notes":       model.Notes,
			"location":    model.Location,
			"status":      model.Status,
			"updated_at":  model.UpdatedAt,
		})

	if result.Error != nil {
		if isOverlapViolation(result.Error) {
			return domain.NewConflictError("Updated booking conflicts with an existing booking")
		}
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Booking", strconv.FormatInt(model.ID, 10))
	}
	return nil
}

// Delete permanently removes a booking.
func (r *GormBookingRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&BookingModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Booking", strconv.FormatInt(id, 10))
	}
	return nil
}

// WithinTx runs fn inside a database transaction.
func (r *GormBookingRepository) WithinTx(ctx context.Context, fn func(repo bookingDomain.BookingRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormBookingRepository{db: tx})
	})
}

// Ping checks the database connection.
func (r *GormBookingRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:         bk.ID(),
		ClientName: bk.ClientName(),
		StartTime:  bk.StartTime(),
		EndTime:    bk.EndTime(),
		Price:      bk.Price(),
		Notes:      bk.Notes(),
		Location:   bk.Location(),
		Status:     string(bk.Status()),
		CreatedAt:  bk.CreatedAt(),
		UpdatedAt:  bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.ClientName,
		m.StartTime,
		m.EndTime,
		m.Price,
		m.Notes,
		m.Location,
		status,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}

func isOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes substring match literally inside an ILIKE pattern.
func escapeLike(substring string) string {
	return likeEscaper.Replace(substring)
}
