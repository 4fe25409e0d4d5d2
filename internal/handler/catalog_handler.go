package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/washline/service-booking/internal/domain/catalog"
	"github.com/washline/service-booking/internal/platform/auth"
	"github.com/washline/service-booking/internal/platform/middleware"
	"github.com/washline/service-booking/internal/platform/response"
)

// ServiceCatalog lists bookable services. *application.CatalogService implements it.
type ServiceCatalog interface {
	ListServices(ctx context.Context) ([]catalog.Service, error)
}

// CatalogHandler handles HTTP requests for the service catalog.
type CatalogHandler struct {
	service ServiceCatalog
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(service ServiceCatalog) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// RegisterRoutes registers the catalog routes.
func (h *CatalogHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	services := r.Group("/api/v1/services")
	services.Use(middleware.AuthMiddleware(jwtManager))
	services.GET("", h.ListServices)
}

// ListServices handles GET /api/v1/services.
func (h *CatalogHandler) ListServices(c *gin.Context) {
	result, err := h.service.ListServices(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
