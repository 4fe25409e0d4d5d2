package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/washline/service-booking/internal/platform/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testJWT = auth.NewJWTManager("handler-test-secret", time.Hour)

type routes interface {
	RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager)
}

func newRouter(hs ...routes) *gin.Engine {
	r := gin.New()
	for _, h := range hs {
		h.RegisterRoutes(&r.RouterGroup, testJWT)
	}
	return r
}

func token(t *testing.T, userID uuid.UUID, role auth.Role) string {
	t.Helper()
	tok, err := testJWT.GenerateAccessToken(userID, "customer@washline.test", role)
	require.NoError(t, err)
	return tok
}

// envelope mirrors the response body.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Meta    *struct {
		Total int64 `json:"total"`
		Page  int   `json:"page"`
		Limit int   `json:"limit"`
	} `json:"meta"`
}

func do(t *testing.T, r http.Handler, method, path, tok string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}
