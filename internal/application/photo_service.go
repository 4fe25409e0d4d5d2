package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/washline/service-booking/internal/domain/booking"
	photoDomain "github.com/washline/service-booking/internal/domain/photo"
	"github.com/washline/service-booking/internal/platform/auth"
	"github.com/washline/service-booking/internal/platform/domain"
)

// UploadPhotoRequest holds a before or after photo for a booking.
type UploadPhotoRequest struct {
	PhotoType string `json:"photo_type" binding:"required"`
	URL       string `json:"url" binding:"required"`
}

// PhotoDTO is the API response representation of a wash photo.
type PhotoDTO struct {
	ID         uuid.UUID `json:"id"`
	BookingID  uuid.UUID `json:"booking_id"`
	UploadedBy uuid.UUID `json:"uploaded_by"`
	PhotoType  string    `json:"photo_type"`
	URL        string    `json:"url"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PhotoService handles wash photo use cases.
type PhotoService struct {
	repo     photoDomain.PhotoRepository
	bookings bookingDomain.BookingRepository
	logger   *zap.Logger
}

// NewPhotoService creates a new PhotoService.
func NewPhotoService(repo photoDomain.PhotoRepository, bookings bookingDomain.BookingRepository, logger *zap.Logger) *PhotoService {
	return &PhotoService{repo: repo, bookings: bookings, logger: logger}
}

// UploadPhoto stores the before or after photo of a booking, replacing any
// previous one of the same type. Customers may only touch their own bookings.
func (s *PhotoService) UploadPhoto(ctx context.Context, bookingID, userID uuid.UUID, role auth.Role, req UploadPhotoRequest) (*PhotoDTO, error) {
	if err := s.checkAccess(ctx, bookingID, userID, role); err != nil {
		return nil, err
	}

	photo, err := photoDomain.NewWashPhoto(bookingID, userID, photoDomain.PhotoType(req.PhotoType), req.URL)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, photo); err != nil {
		return nil, err
	}

	s.logger.Info("photo uploaded",
		zap.String("booking_id", bookingID.String()),
		zap.String("photo_type", req.PhotoType),
	)
	return toPhotoDTO(photo), nil
}

// GetBookingPhotos returns all photos for a booking.
func (s *PhotoService) GetBookingPhotos(ctx context.Context, bookingID, userID uuid.UUID, role auth.Role) ([]*PhotoDTO, error) {
	if err := s.checkAccess(ctx, bookingID, userID, role); err != nil {
		return nil, err
	}
	photos, err := s.repo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	dtos := make([]*PhotoDTO, len(photos))
	for i, p := range photos {
		dtos[i] = toPhotoDTO(p)
	}
	return dtos, nil
}

func (s *PhotoService) checkAccess(ctx context.Context, bookingID, userID uuid.UUID, role auth.Role) error {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if role != auth.RoleAdmin && !bk.IsOwnedBy(userID) {
		return domain.NewForbiddenError("booking belongs to another customer")
	}
	return nil
}

func toPhotoDTO(p *photoDomain.WashPhoto) *PhotoDTO {
	return &PhotoDTO{
		ID:         p.ID(),
		BookingID:  p.BookingID(),
		UploadedBy: p.UploadedBy(),
		PhotoType:  string(p.PhotoType()),
		URL:        p.URL(),
		UpdatedAt:  p.UpdatedAt(),
	}
}
