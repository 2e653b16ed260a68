package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apphttp "agency_backend/internal/http"
	"agency_backend/platform/logger"
	"agency_backend/platform/metrics"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type testConfig struct{}

func (testConfig) GetHTTPAddr() string        { return ":0" }
func (testConfig) GetCORSAllowAll() bool      { return false }
func (testConfig) GetCORSOrigins() []string   { return []string{"https://console.test"} }
func (testConfig) GetCORSAllowCreds() bool    { return true }
func (testConfig) GetJWTAccessSecret() string { return "secret" }

type pingModule struct{}

func (pingModule) Name() string { return "ping" }

func (pingModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	ctx.Protected.GET("/ping", ok)
	ctx.Public.GET("/ping", ok)
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (bool, error) { return false, nil }

type health struct{ err error }

func (h health) Ping(context.Context) error { return h.err }

func newEngine(app *apphttp.App) *gin.Engine {
	gin.SetMode(gin.TestMode)
	app.Config = testConfig{}
	app.Logger = logger.Discard()
	app.Modules = []apphttp.Module{pingModule{}}
	return New(app)
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	assert.Equal(t, http.StatusOK, get(newEngine(&apphttp.App{Health: health{}}), "/api/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable,
		get(newEngine(&apphttp.App{Health: health{err: errors.New("down")}}), "/api/health").Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	engine := newEngine(&apphttp.App{})

	assert.Equal(t, http.StatusUnauthorized, get(engine, "/api/v1/ping").Code)
	assert.Equal(t, http.StatusOK, get(engine, "/api/v1/public/ping").Code)
}

func TestPublicRoutesAreRateLimited(t *testing.T) {
	engine := newEngine(&apphttp.App{PublicLimiter: denyAll{}})

	assert.Equal(t, http.StatusTooManyRequests, get(engine, "/api/v1/public/ping").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	engine := newEngine(&apphttp.App{Metrics: metrics.New()})

	get(engine, "/api/v1/public/ping")
	w := get(engine, "/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "agency_http_requests_total")
}
