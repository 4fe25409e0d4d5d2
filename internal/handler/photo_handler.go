package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/washline/service-booking/internal/application"
	"github.com/washline/service-booking/internal/platform/auth"
	"github.com/washline/service-booking/internal/platform/middleware"
	"github.com/washline/service-booking/internal/platform/response"
)

// PhotoStore stores before/after wash photos. *application.PhotoService implements it.
type PhotoStore interface {
	UploadPhoto(ctx context.Context, bookingID, userID uuid.UUID, role auth.Role, req application.UploadPhotoRequest) (*application.PhotoDTO, error)
	GetBookingPhotos(ctx context.Context, bookingID, userID uuid.UUID, role auth.Role) ([]*application.PhotoDTO, error)
}

// PhotoHandler handles HTTP requests for booking photo operations.
type PhotoHandler struct {
	service PhotoStore
}

// NewPhotoHandler creates a new PhotoHandler.
func NewPhotoHandler(service PhotoStore) *PhotoHandler {
	return &PhotoHandler{service: service}
}

// RegisterRoutes registers all photo routes.
func (h *PhotoHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	photos := r.Group("/api/v1/bookings")
	photos.Use(middleware.AuthMiddleware(jwtManager))
	{
		photos.PUT("/:id/photos", h.UploadPhoto)
		photos.GET("/:id/photos", h.GetBookingPhotos)
	}
}

// UploadPhoto handles PUT /api/v1/bookings/:id/photos. A photo replaces the
// booking's previous photo of the same type.
func (h *PhotoHandler) UploadPhoto(c *gin.Context) {
	userID, bookingID, ok := bookingIDs(c)
	if !ok {
		return
	}
	role, _ := middleware.GetUserRole(c)

	var req application.UploadPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UploadPhoto(c.Request.Context(), bookingID, userID, role, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBookingPhotos handles GET /api/v1/bookings/:id/photos.
func (h *PhotoHandler) GetBookingPhotos(c *gin.Context) {
	userID, bookingID, ok := bookingIDs(c)
	if !ok {
		return
	}
	role, _ := middleware.GetUserRole(c)

	result, err := h.service.GetBookingPhotos(c.Request.Context(), bookingID, userID, role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
