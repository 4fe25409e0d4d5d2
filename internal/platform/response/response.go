package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/washline/service-booking/internal/platform/domain"
)

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *meta       `json:"meta,omitempty"`
}

type meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// Success writes a 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

// Created writes a 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

// Paginated writes a 200 with a page of items and paging metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	p := domain.NewPaginatedResult([]struct{}{}, total, page, limit)
	c.JSON(http.StatusOK, envelope{
		Success: true,
		Data:    items,
		Meta:    &meta{Total: total, Page: page, Limit: limit, TotalPages: p.TotalPages},
	})
}

// BadRequest writes a 400 with the given message.
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, envelope{Error: msg})
}

// Unauthorized writes a 401.
func Unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{Error: "unauthorized"})
}

// Error maps err to a status code by its domain kind. Unknown errors become 500
// without leaking their message.
func Error(c *gin.Context, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, envelope{Error: msg})
}

// StatusFor returns the HTTP status for err.
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindInvalidState:
		return http.StatusUnprocessableEntity
	case domain.KindUpstream:
		return http.StatusBadGateway
	case domain.KindPayment:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
