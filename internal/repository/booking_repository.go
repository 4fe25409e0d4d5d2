package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/washline/service-booking/internal/domain/booking"
	"github.com/washline/service-booking/internal/platform/domain"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingNumber   string     `gorm:"uniqueIndex;not null;size:20"`
	CustomerID      uuid.UUID  `gorm:"type:uuid;index;not null"`
	ServiceID       uuid.UUID  `gorm:"type:uuid;not null"`
	VehicleID       uuid.UUID  `gorm:"type:uuid;not null"`
	Address         string     `gorm:"size:500;not null"`
	TimeSlot        string     `gorm:"size:5;not null"`
	Status          string     `gorm:"not null;size:30;index"`
	Recurring       bool       `gorm:"not null;default:false"`
	Cadence         string     `gorm:"not null;size:20;default:'none'"`
	ParentID        *uuid.UUID `gorm:"type:uuid;index"`
	Price           int64      `gorm:"not null"`
	Currency        string     `gorm:"not null;size:3;default:'EUR'"`
	PaymentMethod   string     `gorm:"not null;size:20"`
	PaymentIntentID string     `gorm:"size:255;index"`
	ScheduledAt     time.Time  `gorm:"not null;index"`
	ConfirmedAt     *time.Time `gorm:""`
	CancelledAt     *time.Time `gorm:""`
	CancelNote      string     `gorm:"size:500"`
	Version         int64      `gorm:"not null;default:1"`
	CreatedAt       time.Time  `gorm:"not null"`
	UpdatedAt       time.Time  `gorm:"not null"`
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

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return r.findOne(ctx, "Booking", id.String(), "id = ?", id)
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	return r.findOne(ctx, "Booking", number, "booking_number = ?", number)
}

// FindByPaymentIntentID retrieves the booking a payment intent belongs to.
func (r *GormBookingRepository) FindByPaymentIntentID(ctx context.Context, intentID string) (*bookingDomain.Booking, error) {
	return r.findOne(ctx, "Booking", intentID, "payment_intent_id = ?", intentID)
}

func (r *GormBookingRepository) findOne(ctx context.Context, entity, key string, query string, args ...interface{}) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError(entity, key)
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByCustomerID retrieves bookings for a specific customer with pagination.
func (r *GormBookingRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where("customer_id = ?", customerID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customer bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("scheduled_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find customer bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// FindChildren retrieves the recurrence children of a primary booking in schedule order.
func (r *GormBookingRepository) FindChildren(ctx context.Context, parentID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("scheduled_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find recurrence children: %w", err)
	}
	return toDomainBookings(models)
}

// FindStalePending retrieves pending primaries created before the cutoff, oldest first.
func (r *GormBookingRepository) FindStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND parent_id IS NULL AND created_at < ?", string(bookingDomain.StatusPending), createdBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find stale pending bookings: %w", err)
	}
	return toDomainBookings(models)
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// SaveBatch persists several new bookings in a single INSERT.
func (r *GormBookingRepository) SaveBatch(ctx context.Context, bookings []*bookingDomain.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	models := make([]*BookingModel, len(bookings))
	for i, bk := range bookings {
		models[i] = toBookingModel(bk)
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return fmt.Errorf("failed to save booking batch: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// Only update if the stored version is the one IncrementVersion started from.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":            model.Status,
			"address":           model.Address,
			"time_slot":         model.TimeSlot,
			"payment_method":    model.PaymentMethod,
			"payment_intent_id": model.PaymentIntentID,
			"scheduled_at":      model.ScheduledAt,
			"confirmed_at":      model.ConfirmedAt,
			"cancelled_at":      model.CancelledAt,
			"cancel_note":       model.CancelNote,
			"version":           model.Version,
			"updated_at":        model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
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

// WithinTransaction runs fn with a repository bound to a single database
// transaction. Returning an error from fn rolls everything back.
func (r *GormBookingRepository) WithinTransaction(ctx context.Context, fn func(repo bookingDomain.BookingRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormBookingRepository{db: tx})
	})
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:              bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		CustomerID:      bk.CustomerID(),
		ServiceID:       bk.ServiceID(),
		VehicleID:       bk.VehicleID(),
		Address:         bk.Address(),
		TimeSlot:        string(bk.TimeSlot()),
		Status:          string(bk.Status()),
		Recurring:       bk.Recurring(),
		Cadence:         string(bk.Cadence()),
		ParentID:        bk.ParentID(),
		Price:           bk.Price(),
		Currency:        bk.Currency(),
		PaymentMethod:   string(bk.PaymentMethod()),
		PaymentIntentID: bk.PaymentIntentID(),
		ScheduledAt:     bk.ScheduledAt(),
		ConfirmedAt:     bk.ConfirmedAt(),
		CancelledAt:     bk.CancelledAt(),
		CancelNote:      bk.CancelNote(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}
	cadence, err := bookingDomain.ParseCadence(m.Cadence)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.CustomerID,
		m.ServiceID,
		m.VehicleID,
		m.Address,
		bookingDomain.TimeSlot(m.TimeSlot),
		status,
		m.Recurring,
		cadence,
		m.ParentID,
		m.Price,
		m.Currency,
		bookingDomain.PaymentMethod(m.PaymentMethod),
		m.PaymentIntentID,
		m.ScheduledAt,
		m.ConfirmedAt,
		m.CancelledAt,
		m.CancelNote,
		m.Version,
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
