package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/washline/service-booking/internal/domain/catalog"
	"github.com/washline/service-booking/internal/platform/domain"
)

// ServiceModel is the GORM model for the services table.
type ServiceModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name          string    `gorm:"type:varchar(100);not null"`
	Description   string    `gorm:"type:text"`
	Icon          string    `gorm:"type:varchar(50)"`
	DurationLabel string    `gorm:"type:varchar(50)"`
	BasePrice     int64     `gorm:"not null"`
	Active        bool      `gorm:"not null;default:true;index"`
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (ServiceModel) TableName() string { return "services" }

// GormServiceRepository reads the service catalog.
type GormServiceRepository struct {
	db *gorm.DB
}

// NewGormServiceRepository creates a new GormServiceRepository.
func NewGormServiceRepository(db *gorm.DB) *GormServiceRepository {
	return &GormServiceRepository{db: db}
}

// ListActive returns active services ordered by creation time.
func (r *GormServiceRepository) ListActive(ctx context.Context) ([]catalog.Service, error) {
	var models []ServiceModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	services := make([]catalog.Service, len(models))
	for i := range models {
		services[i] = toCatalogService(&models[i])
	}
	return services, nil
}

// FindByID returns a service by id.
func (r *GormServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	var model ServiceModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Service", id.String())
		}
		return nil, fmt.Errorf("failed to find service: %w", err)
	}
	svc := toCatalogService(&model)
	return &svc, nil
}

func toCatalogService(m *ServiceModel) catalog.Service {
	return catalog.Service{
		ID:            m.ID,
		Name:          m.Name,
		Description:   m.Description,
		Icon:          m.Icon,
		DurationLabel: m.DurationLabel,
		BasePrice:     m.BasePrice,
		Active:        m.Active,
		CreatedAt:     m.CreatedAt,
	}
}
