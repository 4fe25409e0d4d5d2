package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/washline/service-booking/internal/places"
	"github.com/washline/service-booking/internal/platform/auth"
	"github.com/washline/service-booking/internal/platform/middleware"
	"github.com/washline/service-booking/internal/platform/response"
)

// AddressLookup suggests and resolves addresses. *places.Client implements it.
type AddressLookup interface {
	Autocomplete(ctx context.Context, input string) []places.Prediction
	ReverseGeocode(ctx context.Context, lat, lon float64) string
}

// PlacesHandler handles address lookups for the wizard's address step.
type PlacesHandler struct {
	lookup  AddressLookup
	limiter *middleware.RateLimiter
}

// NewPlacesHandler creates a new PlacesHandler. Requests are throttled per customer.
func NewPlacesHandler(lookup AddressLookup, limiter *middleware.RateLimiter) *PlacesHandler {
	return &PlacesHandler{lookup: lookup, limiter: limiter}
}

// RegisterRoutes registers the places routes.
func (h *PlacesHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	group := r.Group("/api/v1/places")
	group.Use(middleware.AuthMiddleware(jwtManager))
	if h.limiter != nil {
		group.Use(h.limiter.Middleware())
	}
	{
		group.GET("/autocomplete", h.Autocomplete)
		group.GET("/reverse", h.ReverseGeocode)
	}
}

// Autocomplete handles GET /api/v1/places/autocomplete?input=.
func (h *PlacesHandler) Autocomplete(c *gin.Context) {
	response.Success(c, h.lookup.Autocomplete(c.Request.Context(), c.Query("input")))
}

// ReverseGeocode handles GET /api/v1/places/reverse?lat=&lon=.
func (h *PlacesHandler) ReverseGeocode(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		response.BadRequest(c, "invalid latitude")
		return
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		response.BadRequest(c, "invalid longitude")
		return
	}

	response.Success(c, gin.H{"address": h.lookup.ReverseGeocode(c.Request.Context(), lat, lon)})
}
