package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/washline/service-booking/internal/application"
	"github.com/washline/service-booking/internal/platform/auth"
	"github.com/washline/service-booking/internal/platform/domain"
	"github.com/washline/service-booking/internal/platform/middleware"
	"github.com/washline/service-booking/internal/platform/response"
)

// BookingWizard drives booking sessions. *application.BookingService implements it.
type BookingWizard interface {
	StartSession(ctx context.Context, customerID uuid.UUID) (*application.SessionDTO, error)
	GetSession(ctx context.Context, customerID, sessionID uuid.UUID) (*application.SessionDTO, error)
	ExitSession(ctx context.Context, customerID, sessionID uuid.UUID) error
	SelectService(ctx context.Context, customerID, sessionID, serviceID uuid.UUID) (*application.SessionDTO, error)
	SelectVehicle(ctx context.Context, customerID, sessionID, vehicleID uuid.UUID) (*application.SessionDTO, error)
	SetAddress(ctx context.Context, customerID, sessionID uuid.UUID, address string) (*application.SessionDTO, error)
	SelectSlot(ctx context.Context, customerID, sessionID uuid.UUID, slot string, date *time.Time) (*application.SessionDTO, error)
	SelectCadence(ctx context.Context, customerID, sessionID uuid.UUID, cadence string) (*application.SessionDTO, error)
	SelectPaymentMethod(ctx context.Context, customerID, sessionID uuid.UUID, method string) (*application.SessionDTO, error)
	Next(ctx context.Context, customerID, sessionID uuid.UUID) (*application.SessionDTO, error)
	Back(ctx context.Context, customerID, sessionID uuid.UUID) (*application.SessionDTO, error)
	Finalize(ctx context.Context, customerID, sessionID uuid.UUID) (*application.FinalizeResultDTO, error)
}

var errInvalidDate = domain.NewValidationError("date must be formatted YYYY-MM-DD")

// SessionHandler handles HTTP requests for the booking wizard.
type SessionHandler struct {
	service BookingWizard
	loc     *time.Location
	limiter *middleware.RateLimiter
}

// NewSessionHandler creates a new SessionHandler. Service dates are read in
// loc. limiter, when set, throttles finalize per customer.
func NewSessionHandler(service BookingWizard, loc *time.Location, limiter *middleware.RateLimiter) *SessionHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &SessionHandler{service: service, loc: loc, limiter: limiter}
}

// RegisterRoutes registers all booking session routes.
func (h *SessionHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	finalize := []gin.HandlerFunc{h.Finalize}
	if h.limiter != nil {
		finalize = []gin.HandlerFunc{h.limiter.Middleware(), h.Finalize}
	}

	sessions := r.Group("/api/v1/booking-sessions")
	sessions.Use(middleware.AuthMiddleware(jwtManager))
	{
		sessions.POST("", h.StartSession)
		sessions.GET("/:id", h.GetSession)
		sessions.DELETE("/:id", h.ExitSession)
		sessions.PUT("/:id/service", h.SelectService)
		sessions.PUT("/:id/vehicle", h.SelectVehicle)
		sessions.PUT("/:id/address", h.SetAddress)
		sessions.PUT("/:id/slot", h.SelectSlot)
		sessions.PUT("/:id/recurrence", h.SelectCadence)
		sessions.PUT("/:id/payment-method", h.SelectPaymentMethod)
		sessions.POST("/:id/next", h.Next)
		sessions.POST("/:id/back", h.Back)
		sessions.POST("/:id/finalize", finalize...)
	}
}

// StartSession handles POST /api/v1/booking-sessions.
func (h *SessionHandler) StartSession(c *gin.Context) {
	userID, ok := customerID(c)
	if !ok {
		return
	}

	result, err := h.service.StartSession(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetSession handles GET /api/v1/booking-sessions/:id.
func (h *SessionHandler) GetSession(c *gin.Context) {
	h.step(c, h.service.GetSession)
}

// ExitSession handles DELETE /api/v1/booking-sessions/:id.
func (h *SessionHandler) ExitSession(c *gin.Context) {
	userID, sessionID, ok := h.ids(c)
	if !ok {
		return
	}

	if err := h.service.ExitSession(c.Request.Context(), userID, sessionID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SelectService handles PUT /api/v1/booking-sessions/:id/service.
func (h *SessionHandler) SelectService(c *gin.Context) {
	var body struct {
		ServiceID uuid.UUID `json:"service_id" binding:"required"`
	}
	h.edit(c, &body, func(ctx context.Context, userID, sessionID uuid.UUID) (*application.SessionDTO, error) {
		return h.service.SelectService(ctx, userID, sessionID, body.ServiceID)
	})
}

// SelectVehicle handles PUT /api/v1/booking-sessions/:id/vehicle.
func (h *SessionHandler) SelectVehicle(c *gin.Context) {
	var body struct {
		VehicleID uuid.UUID `json:"vehicle_id" binding:"required"`
	}
	h.edit(c, &body, func(ctx context.Context, userID, sessionID uuid.UUID) (*application.SessionDTO, error) {
		return h.service.SelectVehicle(ctx, userID, sessionID, body.VehicleID)
	})
}

// SetAddress handles PUT /api/v1/booking-sessions/:id/address.
func (h *SessionHandler) SetAddress(c *gin.Context) {
	var body struct {
		Address string `json:"address"`
	}
	h.edit(c, &body, func(ctx context.Context, userID, sessionID uuid.UUID) (*application.SessionDTO, error) {
		return h.service.SetAddress(ctx, userID, sessionID, body.Address)
	})
}

// SelectSlot handles PUT /api/v1/booking-sessions/:id/slot. The optional date
// is a calendar day, "2006-01-02".
func (h *SessionHandler) SelectSlot(c *gin.Context) {
	var body struct {
		Slot string `json:"slot" binding:"required"`
		Date string `json:"date"`
	}
	h.edit(c, &body, func(ctx context.Context, userID, sessionID uuid.UUID) (*application.SessionDTO, error) {
		var date *time.Time
		if body.Date != "" {
			d, err := time.ParseInLocation(time.DateOnly, body.Date, h.loc)
			if err != nil {
				return nil, errInvalidDate
			}
			date = &d
		}
		return h.service.SelectSlot(ctx, userID, sessionID, body.Slot, date)
	})
}

// SelectCadence handles PUT /api/v1/booking-sessions/:id/recurrence.
func (h *SessionHandler) SelectCadence(c *gin.Context) {
	var body struct {
		Cadence string `json:"cadence"`
	}
	h.edit(c, &body, func(ctx context.Context, userID, sessionID uuid.UUID) (*application.SessionDTO, error) {
		return h.service.SelectCadence(ctx, userID, sessionID, body.Cadence)
	})
}

// SelectPaymentMethod handles PUT /api/v1/booking-sessions/:id/payment-method.
func (h *SessionHandler) SelectPaymentMethod(c *gin.Context) {
	var body struct {
		PaymentMethod string `json:"payment_method" binding:"required"`
	}
	h.edit(c, &body, func(ctx context.Context, userID, sessionID uuid.UUID) (*application.SessionDTO, error) {
		return h.service.SelectPaymentMethod(ctx, userID, sessionID, body.PaymentMethod)
	})
}

// Next handles POST /api/v1/booking-sessions/:id/next.
func (h *SessionHandler) Next(c *gin.Context) {
	h.step(c, h.service.Next)
}

// Back handles POST /api/v1/booking-sessions/:id/back.
func (h *SessionHandler) Back(c *gin.Context) {
	h.step(c, h.service.Back)
}

// Finalize handles POST /api/v1/booking-sessions/:id/finalize.
func (h *SessionHandler) Finalize(c *gin.Context) {
	userID, sessionID, ok := h.ids(c)
	if !ok {
		return
	}

	result, err := h.service.Finalize(c.Request.Context(), userID, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

func (h *SessionHandler) ids(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := customerID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	sessionID, ok := pathID(c, "id", "session")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return userID, sessionID, true
}

func (h *SessionHandler) step(c *gin.Context, fn func(ctx context.Context, customerID, sessionID uuid.UUID) (*application.SessionDTO, error)) {
	userID, sessionID, ok := h.ids(c)
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), userID, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

func (h *SessionHandler) edit(c *gin.Context, body interface{}, fn func(ctx context.Context, customerID, sessionID uuid.UUID) (*application.SessionDTO, error)) {
	userID, sessionID, ok := h.ids(c)
	if !ok {
		return
	}
	if err := c.ShouldBindJSON(body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := fn(c.Request.Context(), userID, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
