package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	vehicleDomain "github.com/washline/service-booking/internal/domain/vehicle"
	"github.com/washline/service-booking/internal/platform/domain"
)

// VehicleModel is the GORM model for the vehicles table.
type VehicleModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index"`
	Brand      string    `gorm:"type:varchar(100);not null"`
	Model      string    `gorm:"type:varchar(100);not null"`
	Year       int       `gorm:"type:int"`
	Color      string    `gorm:"type:varchar(50)"`
	BodyType   string    `gorm:"type:varchar(20);not null;default:'other'"`
	Plate      string    `gorm:"type:varchar(20)"`
	IsDefault  bool      `gorm:"not null;default:false"`
	Version    int64     `gorm:"not null;default:1"`
	CreatedAt  time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt  time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (VehicleModel) TableName() string { return "vehicles" }

// GormVehicleRepository implements VehicleRepository using GORM.
type GormVehicleRepository struct {
	db *gorm.DB
}

func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

func (r *GormVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	var model VehicleModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Vehicle", id.String())
		}
		return nil, fmt.Errorf("failed to find vehicle: %w", err)
	}
	return toVehicleDomain(&model), nil
}

func (r *GormVehicleRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*vehicleDomain.Vehicle, error) {
	var models []VehicleModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("is_default DESC, created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find customer vehicles: %w", err)
	}
	vehicles := make([]*vehicleDomain.Vehicle, len(models))
	for i := range models {
		vehicles[i] = toVehicleDomain(&models[i])
	}
	return vehicles, nil
}

func (r *GormVehicleRepository) CountByCustomerID(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&VehicleModel{}).Where("customer_id = ?", customerID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count customer vehicles: %w", err)
	}
	return count, nil
}

func (r *GormVehicleRepository) Save(ctx context.Context, v *vehicleDomain.Vehicle) error {
	model := toVehicleModel(v)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save vehicle: %w", err)
	}
	return nil
}

func (r *GormVehicleRepository) Update(ctx context.Context, v *vehicleDomain.Vehicle) error {
	model := toVehicleModel(v)
	previousVersion := v.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&VehicleModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Updates(map[string]interface{}{
			"brand":      model.Brand,
			"model":      model.Model,
			"year":       model.Year,
			"color":      model.Color,
			"body_type":  model.BodyType,
			"plate":      model.Plate,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update vehicle: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("vehicle was modified by another transaction")
	}
	return nil
}

func (r *GormVehicleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&VehicleModel{}).Error
}

// SetDefault clears every default flag of the customer and sets it on one
// vehicle, inside one transaction.
func (r *GormVehicleRepository) SetDefault(ctx context.Context, customerID, vehicleID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if err := tx.Model(&VehicleModel{}).
			Where("customer_id = ? AND is_default = ?", customerID, true).
			Updates(map[string]interface{}{"is_default": false, "updated_at": now}).Error; err != nil {
			return fmt.Errorf("failed to clear default vehicle: %w", err)
		}
		result := tx.Model(&VehicleModel{}).
			Where("id = ? AND customer_id = ?", vehicleID, customerID).
			Updates(map[string]interface{}{"is_default": true, "updated_at": now})
		if result.Error != nil {
			return fmt.Errorf("failed to set default vehicle: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.NewNotFoundError("Vehicle", vehicleID.String())
		}
		return nil
	})
}

// --- Conversions ---

func toVehicleModel(v *vehicleDomain.Vehicle) *VehicleModel {
	return &VehicleModel{
		ID:         v.ID(),
		CustomerID: v.CustomerID(),
		Brand:      v.Brand(),
		Model:      v.Model(),
		Year:       v.Year(),
		Color:      v.Color(),
		BodyType:   string(v.BodyType()),
		Plate:      v.Plate(),
		IsDefault:  v.IsDefault(),
		Version:    v.Version(),
		CreatedAt:  v.CreatedAt(),
		UpdatedAt:  v.UpdatedAt(),
	}
}

func toVehicleDomain(m *VehicleModel) *vehicleDomain.Vehicle {
	return vehicleDomain.Reconstruct(
		m.ID, m.CustomerID,
		m.Brand, m.Model,
		m.Year,
		m.Color,
		vehicleDomain.BodyType(m.BodyType),
		m.Plate,
		m.IsDefault,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}
