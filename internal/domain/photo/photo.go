package photo

import (
	"time"

	"github.com/google/uuid"

	"github.com/washline/service-booking/internal/platform/domain"
)

// PhotoType distinguishes the two shots taken around a wash.
type PhotoType string

const (
	PhotoTypeBefore PhotoType = "before"
	PhotoTypeAfter  PhotoType = "after"
)

// IsValid returns true if the photo type is recognized.
func (p PhotoType) IsValid() bool {
	return p == PhotoTypeBefore || p == PhotoTypeAfter
}

// WashPhoto is a before or after picture attached to a booking. A booking has
// at most one photo per type; uploading again replaces it.
type WashPhoto struct {
	id         uuid.UUID
	bookingID  uuid.UUID
	uploadedBy uuid.UUID
	photoType  PhotoType
	url        string
	createdAt  time.Time
	updatedAt  time.Time
}

// NewWashPhoto creates a wash photo.
func NewWashPhoto(bookingID, uploadedBy uuid.UUID, photoType PhotoType, url string) (*WashPhoto, error) {
	if bookingID == uuid.Nil {
		return nil, domain.NewValidationError("booking ID is required")
	}
	if !photoType.IsValid() {
		return nil, domain.NewValidationError("invalid photo type: " + string(photoType))
	}
	if url == "" {
		return nil, domain.NewValidationError("photo URL is required")
	}

	now := time.Now().UTC()
	return &WashPhoto{
		id:         uuid.New(),
		bookingID:  bookingID,
		uploadedBy: uploadedBy,
		photoType:  photoType,
		url:        url,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// Reconstruct rebuilds a WashPhoto from persistence.
func Reconstruct(id, bookingID, uploadedBy uuid.UUID, photoType PhotoType, url string, createdAt, updatedAt time.Time) *WashPhoto {
	return &WashPhoto{
		id:         id,
		bookingID:  bookingID,
		uploadedBy: uploadedBy,
		photoType:  photoType,
		url:        url,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// Getters.
func (p *WashPhoto) ID() uuid.UUID         { return p.id }
func (p *WashPhoto) BookingID() uuid.UUID  { return p.bookingID }
func (p *WashPhoto) UploadedBy() uuid.UUID { return p.uploadedBy }
func (p *WashPhoto) PhotoType() PhotoType  { return p.photoType }
func (p *WashPhoto) URL() string           { return p.url }
func (p *WashPhoto) CreatedAt() time.Time  { return p.createdAt }
func (p *WashPhoto) UpdatedAt() time.Time  { return p.updatedAt }
