package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/washline/service-booking/internal/application"
	"github.com/washline/service-booking/internal/platform/auth"
	"github.com/washline/service-booking/internal/platform/domain"
	"github.com/washline/service-booking/internal/platform/middleware"
	"github.com/washline/service-booking/internal/platform/response"
)

// BookingQueries reads and cancels a customer's bookings.
// *application.BookingService implements it.
type BookingQueries interface {
	GetBooking(ctx context.Context, customerID, bookingID uuid.UUID) (*application.BookingDTO, error)
	GetCustomerBookings(ctx context.Context, customerID uuid.UUID, page, limit int) (*domain.PaginatedResult[application.BookingDTO], error)
	GetOccurrences(ctx context.Context, customerID, bookingID uuid.UUID) ([]application.BookingDTO, error)
	CancelBooking(ctx context.Context, customerID, bookingID uuid.UUID, reason string) (*application.BookingDTO, error)
}

// PaymentHandoff hands bookings over to payment. *application.PaymentService implements it.
type PaymentHandoff interface {
	InitiatePayment(ctx context.Context, customerID, bookingID uuid.UUID) (*application.PaymentIntentDTO, error)
	CompletePayment(ctx context.Context, customerID, bookingID uuid.UUID, outcome application.PaymentOutcome) (*application.BookingDTO, error)
}

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service  BookingQueries
	payments PaymentHandoff
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service BookingQueries, payments PaymentHandoff) *BookingHandler {
	return &BookingHandler{service: service, payments: payments}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	bookings := r.Group("/api/v1/bookings")
	bookings.Use(middleware.AuthMiddleware(jwtManager))
	{
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.GET("/:id/occurrences", h.GetOccurrences)
		bookings.POST("/:id/cancel", h.CancelBooking)
		bookings.POST("/:id/payment-intent", h.InitiatePayment)
		bookings.POST("/:id/payment-result", h.CompletePayment)
	}
}

// ListBookings handles GET /api/v1/bookings.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID, ok := customerID(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.GetCustomerBookings(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userID, bookingID, ok := bookingIDs(c)
	if !ok {
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), userID, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetOccurrences handles GET /api/v1/bookings/:id/occurrences.
func (h *BookingHandler) GetOccurrences(c *gin.Context) {
	userID, bookingID, ok := bookingIDs(c)
	if !ok {
		return
	}

	result, err := h.service.GetOccurrences(c.Request.Context(), userID, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userID, bookingID, ok := bookingIDs(c)
	if !ok {
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body)

	result, err := h.service.CancelBooking(c.Request.Context(), userID, bookingID, body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// InitiatePayment handles POST /api/v1/bookings/:id/payment-intent.
func (h *BookingHandler) InitiatePayment(c *gin.Context) {
	userID, bookingID, ok := bookingIDs(c)
	if !ok {
		return
	}

	result, err := h.payments.InitiatePayment(c.Request.Context(), userID, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// CompletePayment handles POST /api/v1/bookings/:id/payment-result with the
// payment sheet outcome: success, cancelled or error.
func (h *BookingHandler) CompletePayment(c *gin.Context) {
	userID, bookingID, ok := bookingIDs(c)
	if !ok {
		return
	}

	var body struct {
		Outcome string `json:"outcome" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	outcome, err := application.ParsePaymentOutcome(body.Outcome)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.payments.CompletePayment(c.Request.Context(), userID, bookingID, outcome)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

func bookingIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := customerID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	bookingID, ok := pathID(c, "id", "booking")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return userID, bookingID, true
}
