package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/washline/service-booking/internal/application"
	"github.com/washline/service-booking/internal/platform/auth"
	"github.com/washline/service-booking/internal/platform/middleware"
	"github.com/washline/service-booking/internal/platform/response"
)

// VehicleManager manages a customer's vehicles. *application.VehicleService implements it.
type VehicleManager interface {
	CreateVehicle(ctx context.Context, customerID uuid.UUID, req application.CreateVehicleRequest) (*application.VehicleDTO, error)
	ListVehicles(ctx context.Context, customerID uuid.UUID) ([]*application.VehicleDTO, error)
	UpdateVehicle(ctx context.Context, customerID, vehicleID uuid.UUID, req application.UpdateVehicleRequest) (*application.VehicleDTO, error)
	DeleteVehicle(ctx context.Context, customerID, vehicleID uuid.UUID) error
	SetDefaultVehicle(ctx context.Context, customerID, vehicleID uuid.UUID) (*application.VehicleDTO, error)
}

// VehicleHandler handles HTTP requests for vehicle operations.
type VehicleHandler struct {
	service VehicleManager
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(service VehicleManager) *VehicleHandler {
	return &VehicleHandler{service: service}
}

// RegisterRoutes registers all vehicle routes.
func (h *VehicleHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	vehicles := r.Group("/api/v1/vehicles")
	vehicles.Use(middleware.AuthMiddleware(jwtManager))
	{
		vehicles.POST("", h.CreateVehicle)
		vehicles.GET("", h.ListVehicles)
		vehicles.PUT("/:id", h.UpdateVehicle)
		vehicles.DELETE("/:id", h.DeleteVehicle)
		vehicles.POST("/:id/default", h.SetDefault)
	}
}

// CreateVehicle handles POST /api/v1/vehicles.
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	userID, ok := customerID(c)
	if !ok {
		return
	}

	var req application.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateVehicle(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListVehicles handles GET /api/v1/vehicles.
func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	userID, ok := customerID(c)
	if !ok {
		return
	}

	result, err := h.service.ListVehicles(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateVehicle handles PUT /api/v1/vehicles/:id.
func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	userID, ok := customerID(c)
	if !ok {
		return
	}
	vehicleID, ok := pathID(c, "id", "vehicle")
	if !ok {
		return
	}

	var req application.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateVehicle(c.Request.Context(), userID, vehicleID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteVehicle handles DELETE /api/v1/vehicles/:id.
func (h *VehicleHandler) DeleteVehicle(c *gin.Context) {
	userID, ok := customerID(c)
	if !ok {
		return
	}
	vehicleID, ok := pathID(c, "id", "vehicle")
	if !ok {
		return
	}

	if err := h.service.DeleteVehicle(c.Request.Context(), userID, vehicleID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SetDefault handles POST /api/v1/vehicles/:id/default.
func (h *VehicleHandler) SetDefault(c *gin.Context) {
	userID, ok := customerID(c)
	if !ok {
		return
	}
	vehicleID, ok := pathID(c, "id", "vehicle")
	if !ok {
		return
	}

	result, err := h.service.SetDefaultVehicle(c.Request.Context(), userID, vehicleID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
