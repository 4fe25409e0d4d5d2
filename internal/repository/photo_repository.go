package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	photoDomain "github.com/washline/service-booking/internal/domain/photo"
)

// PhotoModel is the GORM model for the booking_photos table.
type PhotoModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_booking_photo_type"`
	UploadedBy uuid.UUID `gorm:"type:uuid;not null"`
	PhotoType  string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_booking_photo_type"`
	URL        string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (PhotoModel) TableName() string { return "booking_photos" }

// GormPhotoRepository implements PhotoRepository using GORM.
type GormPhotoRepository struct {
	db *gorm.DB
}

// NewGormPhotoRepository creates a new GormPhotoRepository.
func NewGormPhotoRepository(db *gorm.DB) *GormPhotoRepository {
	return &GormPhotoRepository{db: db}
}

// Upsert inserts the photo or replaces the URL of the existing one for the
// same booking and type.
func (r *GormPhotoRepository) Upsert(ctx context.Context, photo *photoDomain.WashPhoto) error {
	model := toPhotoModel(photo)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "booking_id"}, {Name: "photo_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"url", "uploaded_by", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert booking photo: %w", err)
	}
	return nil
}

// FindByBookingID returns all photos for a booking.
func (r *GormPhotoRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*photoDomain.WashPhoto, error) {
	var models []PhotoModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find booking photos: %w", err)
	}
	photos := make([]*photoDomain.WashPhoto, len(models))
	for i := range models {
		photos[i] = toPhotoDomain(&models[i])
	}
	return photos, nil
}

func toPhotoModel(p *photoDomain.WashPhoto) PhotoModel {
	return PhotoModel{
		ID:         p.ID(),
		BookingID:  p.BookingID(),
		UploadedBy: p.UploadedBy(),
		PhotoType:  string(p.PhotoType()),
		URL:        p.URL(),
		CreatedAt:  p.CreatedAt(),
		UpdatedAt:  p.UpdatedAt(),
	}
}

func toPhotoDomain(m *PhotoModel) *photoDomain.WashPhoto {
	return photoDomain.Reconstruct(m.ID, m.BookingID, m.UploadedBy, photoDomain.PhotoType(m.PhotoType), m.URL, m.CreatedAt, m.UpdatedAt)
}
