package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/washline/service-booking/internal/application"
	"github.com/washline/service-booking/internal/platform/auth"
	"github.com/washline/service-booking/internal/platform/domain"
	"github.com/washline/service-booking/internal/platform/middleware"
)

// stubWizard implements the methods a test sets; anything else panics.
type stubWizard struct {
	BookingWizard
	start    func(customerID uuid.UUID) (*application.SessionDTO, error)
	slot     func(slot string, date *time.Time) (*application.SessionDTO, error)
	service  func(serviceID uuid.UUID) (*application.SessionDTO, error)
	finalize func(customerID, sessionID uuid.UUID) (*application.FinalizeResultDTO, error)
}

func (s *stubWizard) StartSession(_ context.Context, customerID uuid.UUID) (*application.SessionDTO, error) {
	return s.start(customerID)
}

func (s *stubWizard) SelectService(_ context.Context, _, _, serviceID uuid.UUID) (*application.SessionDTO, error) {
	return s.service(serviceID)
}

func (s *stubWizard) SelectSlot(_ context.Context, _, _ uuid.UUID, slot string, date *time.Time) (*application.SessionDTO, error) {
	return s.slot(slot, date)
}

func (s *stubWizard) Finalize(_ context.Context, customerID, sessionID uuid.UUID) (*application.FinalizeResultDTO, error) {
	return s.finalize(customerID, sessionID)
}

func TestSessionHandler_StartSession(t *testing.T) {
	userID := uuid.New()
	sessionID := uuid.New()
	r := newRouter(NewSessionHandler(&stubWizard{
		start: func(customerID uuid.UUID) (*application.SessionDTO, error) {
			assert.Equal(t, userID, customerID)
			return &application.SessionDTO{ID: sessionID, Step: "selecting_service", StepNumber: 1}, nil
		},
	}, time.UTC, nil))

	w, env := do(t, r, http.MethodPost, "/api/v1/booking-sessions", token(t, userID, auth.RoleCustomer), nil)

	require.Equal(t, http.StatusCreated, w.Code)
	var got application.SessionDTO
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, sessionID, got.ID)
	assert.Equal(t, 1, got.StepNumber)
}

func TestSessionHandler_RequiresToken(t *testing.T) {
	r := newRouter(NewSessionHandler(&stubWizard{}, time.UTC, nil))

	w, _ := do(t, r, http.MethodPost, "/api/v1/booking-sessions", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionHandler_InvalidSessionID(t *testing.T) {
	r := newRouter(NewSessionHandler(&stubWizard{}, time.UTC, nil))

	w, env := do(t, r, http.MethodPost, "/api/v1/booking-sessions/not-a-uuid/finalize", token(t, uuid.New(), auth.RoleCustomer), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid session ID", env.Error)
}

func TestSessionHandler_SelectServiceRequiresBody(t *testing.T) {
	r := newRouter(NewSessionHandler(&stubWizard{}, time.UTC, nil))
	path := "/api/v1/booking-sessions/" + uuid.NewString() + "/service"

	w, _ := do(t, r, http.MethodPut, path, token(t, uuid.New(), auth.RoleCustomer), map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_SelectServiceMapsNotFound(t *testing.T) {
	serviceID := uuid.New()
	r := newRouter(NewSessionHandler(&stubWizard{
		service: func(id uuid.UUID) (*application.SessionDTO, error) {
			assert.Equal(t, serviceID, id)
			return nil, domain.NewNotFoundError("Service", id.String())
		},
	}, time.UTC, nil))
	path := "/api/v1/booking-sessions/" + uuid.NewString() + "/service"

	w, _ := do(t, r, http.MethodPut, path, token(t, uuid.New(), auth.RoleCustomer), map[string]string{"service_id": serviceID.String()})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandler_SelectSlotParsesDateInLocation(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	var gotDate *time.Time
	r := newRouter(NewSessionHandler(&stubWizard{
		slot: func(slot string, date *time.Time) (*application.SessionDTO, error) {
			assert.Equal(t, "10:00", slot)
			gotDate = date
			return &application.SessionDTO{}, nil
		},
	}, paris, nil))
	path := "/api/v1/booking-sessions/" + uuid.NewString() + "/slot"
	tok := token(t, uuid.New(), auth.RoleCustomer)

	w, _ := do(t, r, http.MethodPut, path, tok, map[string]string{"slot": "10:00", "date": "2025-07-14"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gotDate)
	assert.True(t, gotDate.Equal(time.Date(2025, 7, 14, 0, 0, 0, 0, paris)))

	w, env := do(t, r, http.MethodPut, path, tok, map[string]string{"slot": "10:00", "date": "14/07/2025"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "YYYY-MM-DD")
}

func TestSessionHandler_FinalizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"replayed session", domain.NewNotFoundError("BookingSession", "x"), http.StatusNotFound},
		{"double tap", domain.NewConflictError("booking session is already being finalized"), http.StatusConflict},
		{"other customer", domain.NewForbiddenError("booking session belongs to another customer"), http.StatusForbidden},
		{"write failed", &application.PersistenceError{Kind: application.WriteFailed, Err: assert.AnError}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(NewSessionHandler(&stubWizard{
				finalize: func(uuid.UUID, uuid.UUID) (*application.FinalizeResultDTO, error) { return nil, tt.err },
			}, time.UTC, nil))
			path := "/api/v1/booking-sessions/" + uuid.NewString() + "/finalize"

			w, _ := do(t, r, http.MethodPost, path, token(t, uuid.New(), auth.RoleCustomer), nil)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestSessionHandler_FinalizeIsRateLimited(t *testing.T) {
	calls := 0
	r := newRouter(NewSessionHandler(&stubWizard{
		finalize: func(uuid.UUID, uuid.UUID) (*application.FinalizeResultDTO, error) {
			calls++
			return &application.FinalizeResultDTO{}, nil
		},
	}, time.UTC, middleware.NewRateLimiter(0.001, 1)))
	path := "/api/v1/booking-sessions/" + uuid.NewString() + "/finalize"
	tok := token(t, uuid.New(), auth.RoleCustomer)

	w, _ := do(t, r, http.MethodPost, path, tok, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	w, _ = do(t, r, http.MethodPost, path, tok, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 1, calls)
}
