package photo

import (
	"context"

	"github.com/google/uuid"
)

// PhotoRepository defines persistence operations for wash photos.
type PhotoRepository interface {
	// Upsert stores the photo, replacing any existing one of the same booking and type.
	Upsert(ctx context.Context, photo *WashPhoto) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*WashPhoto, error)
}
