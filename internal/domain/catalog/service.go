package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service is a wash offering from the catalog. It is maintained outside this
// service and is read-only here.
type Service struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Icon          string    `json:"icon"`
	DurationLabel string    `json:"duration_label"`
	BasePrice     int64     `json:"base_price"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

// ServiceRepository reads catalog entries.
type ServiceRepository interface {
	// ListActive returns active services ordered by creation time.
	ListActive(ctx context.Context) ([]Service, error)

	// FindByID returns one service, active or not.
	FindByID(ctx context.Context, id uuid.UUID) (*Service, error)
}
