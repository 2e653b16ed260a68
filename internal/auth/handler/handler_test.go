package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agency_backend/internal/auth/service"
	"agency_backend/internal/auth/transport"
	"agency_backend/platform/httpkit"
	"agency_backend/platform/logger"
	"agency_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testConfig struct{ hash string }

func (testConfig) GetJWTAccessSecret() string       { return "secret" }
func (testConfig) GetAccessTokenTTL() time.Duration { return time.Hour }
func (testConfig) GetAdminEmail() string            { return "agence@example.com" }
func (c testConfig) GetAdminPasswordHash() string   { return c.hash }

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := testConfig{hash: string(hash)}
	h := New(service.New(cfg, logger.Discard()), validator.New())

	r := gin.New()
	h.RegisterRoutes(r.Group("/auth"))
	r.GET("/me", httpkit.AuthRequired(cfg), httpkit.RequireRole(service.RoleAdmin), h.GetMe)
	return r
}

func login(r *gin.Engine, email, password string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignedInAdminReachesProtectedRoutes(t *testing.T) {
	r := newRouter(t)

	w := login(r, "agence@example.com", "correct horse")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var auth transport.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &auth))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var me transport.ProfileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "agence@example.com", me.Email)
	assert.Equal(t, []string{"admin"}, me.Roles)
}

func TestSignInFailures(t *testing.T) {
	r := newRouter(t)

	assert.Equal(t, http.StatusUnauthorized, login(r, "agence@example.com", "nope").Code)
	assert.Equal(t, http.StatusBadRequest, login(r, "not-an-email", "x").Code)
}
