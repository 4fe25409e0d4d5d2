package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	vehicleDomain "github.com/washline/service-booking/internal/domain/vehicle"
	"github.com/washline/service-booking/internal/platform/domain"
)

// CreateVehicleRequest is the request DTO for adding a vehicle.
type CreateVehicleRequest struct {
	Brand    string `json:"brand" binding:"required"`
	Model    string `json:"model" binding:"required"`
	Year     int    `json:"year"`
	Color    string `json:"color"`
	BodyType string `json:"body_type"`
	Plate    string `json:"plate"`
}

// UpdateVehicleRequest is the request DTO for updating a vehicle.
type UpdateVehicleRequest struct {
	Brand    string `json:"brand"`
	Model    string `json:"model"`
	Year     int    `json:"year"`
	Color    string `json:"color"`
	BodyType string `json:"body_type"`
	Plate    string `json:"plate"`
}

// VehicleDTO is the API response representation of a vehicle.
type VehicleDTO struct {
	ID          uuid.UUID `json:"id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	Brand       string    `json:"brand"`
	Model       string    `json:"model"`
	DisplayName string    `json:"display_name"`
	Year        int       `json:"year,omitempty"`
	Color       string    `json:"color,omitempty"`
	BodyType    string    `json:"body_type"`
	Plate       string    `json:"plate,omitempty"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// VehicleService handles the customer's vehicle list.
type VehicleService struct {
	repo   vehicleDomain.VehicleRepository
	logger *zap.Logger
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(repo vehicleDomain.VehicleRepository, logger *zap.Logger) *VehicleService {
	return &VehicleService{repo: repo, logger: logger}
}

// CreateVehicle adds a vehicle. A customer's first vehicle becomes their default.
func (s *VehicleService) CreateVehicle(ctx context.Context, customerID uuid.UUID, req CreateVehicleRequest) (*VehicleDTO, error) {
	v, err := vehicleDomain.NewVehicle(
		customerID,
		req.Brand,
		req.Model,
		req.Year,
		req.Color,
		vehicleDomain.BodyType(req.BodyType),
		req.Plate,
	)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, v); err != nil {
		return nil, err
	}
	if count == 0 {
		if err := s.repo.SetDefault(ctx, customerID, v.ID()); err != nil {
			return nil, err
		}
		v.MarkDefault()
	}

	s.logger.Info("vehicle created",
		zap.String("vehicle_id", v.ID().String()),
		zap.String("customer_id", customerID.String()),
	)
	return toVehicleDTO(v), nil
}

// ListVehicles returns the customer's vehicles, default first.
func (s *VehicleService) ListVehicles(ctx context.Context, customerID uuid.UUID) ([]*VehicleDTO, error) {
	vehicles, err := s.repo.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	dtos := make([]*VehicleDTO, len(vehicles))
	for i, v := range vehicles {
		dtos[i] = toVehicleDTO(v)
	}
	return dtos, nil
}

// UpdateVehicle applies partial updates to one of the customer's vehicles.
func (s *VehicleService) UpdateVehicle(ctx context.Context, customerID, vehicleID uuid.UUID, req UpdateVehicleRequest) (*VehicleDTO, error) {
	v, err := s.loadOwned(ctx, customerID, vehicleID)
	if err != nil {
		return nil, err
	}
	if err := v.Update(req.Brand, req.Model, req.Year, req.Color, vehicleDomain.BodyType(req.BodyType), req.Plate); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	return toVehicleDTO(v), nil
}

// DeleteVehicle removes one of the customer's vehicles. No other vehicle is
// promoted when the default is deleted.
func (s *VehicleService) DeleteVehicle(ctx context.Context, customerID, vehicleID uuid.UUID) error {
	if _, err := s.loadOwned(ctx, customerID, vehicleID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, vehicleID)
}

// SetDefaultVehicle makes one vehicle the customer's default.
func (s *VehicleService) SetDefaultVehicle(ctx context.Context, customerID, vehicleID uuid.UUID) (*VehicleDTO, error) {
	v, err := s.loadOwned(ctx, customerID, vehicleID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetDefault(ctx, customerID, vehicleID); err != nil {
		return nil, err
	}
	v.MarkDefault()
	return toVehicleDTO(v), nil
}

func (s *VehicleService) loadOwned(ctx context.Context, customerID, vehicleID uuid.UUID) (*vehicleDomain.Vehicle, error) {
	v, err := s.repo.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if !v.IsOwnedBy(customerID) {
		return nil, domain.NewNotFoundError("Vehicle", vehicleID.String())
	}
	return v, nil
}

func toVehicleDTO(v *vehicleDomain.Vehicle) *VehicleDTO {
	return &VehicleDTO{
		ID:          v.ID(),
		CustomerID:  v.CustomerID(),
		Brand:       v.Brand(),
		Model:       v.Model(),
		DisplayName: v.DisplayName(),
		Year:        v.Year(),
		Color:       v.Color(),
		BodyType:    string(v.BodyType()),
		Plate:       v.Plate(),
		IsDefault:   v.IsDefault(),
		CreatedAt:   v.CreatedAt(),
		UpdatedAt:   v.UpdatedAt(),
	}
}
