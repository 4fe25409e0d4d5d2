package application

import (
	"context"

	"github.com/washline/service-booking/internal/domain/catalog"
)

// CatalogService exposes the read-only service catalog.
type CatalogService struct {
	repo catalog.ServiceRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo catalog.ServiceRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// ListServices returns the active services.
func (s *CatalogService) ListServices(ctx context.Context) ([]catalog.Service, error) {
	return s.repo.ListActive(ctx)
}
