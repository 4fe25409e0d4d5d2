package vehicle

import (
	"context"

	"github.com/google/uuid"
)

// VehicleRepository defines persistence operations for customer vehicles.
type VehicleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	// FindByCustomerID lists a customer's vehicles, default first.
	FindByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*Vehicle, error)
	CountByCustomerID(ctx context.Context, customerID uuid.UUID) (int64, error)
	Save(ctx context.Context, vehicle *Vehicle) error
	Update(ctx context.Context, vehicle *Vehicle) error
	Delete(ctx context.Context, id uuid.UUID) error
	// SetDefault clears the customer's defaults and flags vehicleID, atomically.
	SetDefault(ctx context.Context, customerID, vehicleID uuid.UUID) error
}
