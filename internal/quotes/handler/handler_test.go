package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agency_backend/internal/quotes/pricing"
	"agency_backend/internal/quotes/repository"
	"agency_backend/internal/quotes/service"
	"agency_backend/internal/quotes/token"
	"agency_backend/internal/quotes/transport"
	"agency_backend/platform/httpkit"
	"agency_backend/platform/logger"
	"agency_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct{}

func (testConfig) GetQuoteNumberPrefix() string    { return "DEV" }
func (testConfig) GetQuoteValidity() time.Duration { return 8 * 24 * time.Hour }
func (testConfig) GetVATEnabled() bool             { return false }
func (testConfig) GetVATRate() decimal.Decimal     { return decimal.Zero }
func (testConfig) GetCatalogPath() string          { return "" }
func (testConfig) GetPublicBaseURL() string        { return "https://agence.test" }
func (testConfig) GetNotifyTimeout() time.Duration { return time.Second }
func (testConfig) GetAdminNotifyEmail() string     { return "" }
func (testConfig) GetNotificationMode() string     { return "log" }

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemory()
	log := logger.Discard()
	catalog, err := pricing.DefaultCatalog()
	require.NoError(t, err)
	svc := service.New(store, token.NewManager(store, log), catalog, testConfig{}, log)
	val := validator.New()

	r := gin.New()
	v1 := r.Group("/api/v1")
	New(svc, val).RegisterRoutes(v1.Group("/quotes"))
	NewPublicHandler(svc, val).RegisterRoutes(v1.Group("/public"))
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func createBody() map[string]any {
	return map[string]any{
		"client":  map[string]any{"name": "Claire Martin", "email": "claire@example.com"},
		"project": map[string]any{"offerType": "vitrine", "extraPages": 3},
	}
}

func TestAdminLifecycleOverHTTP(t *testing.T) {
	r := newRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/quotes", createBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[transport.ActionResponse](t, w)
	assert.Equal(t, "650.00", created.Quote.Amounts.TTC.StringFixed(2))
	id := created.Quote.ID

	w = do(t, r, http.MethodPatch, "/api/v1/quotes/"+id, map[string]any{"action": "valider", "message": "Bonjour"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	validated := decode[transport.ActionResponse](t, w)
	require.NotEmpty(t, validated.Quote.PublicURL)
	tok := validated.Quote.PublicURL[strings.LastIndex(validated.Quote.PublicURL, "/")+1:]

	w = do(t, r, http.MethodGet, "/api/v1/public/quotes/"+tok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	view := decode[transport.PublicQuoteResponse](t, w)
	assert.Equal(t, "consulte", string(view.Status))

	w = do(t, r, http.MethodPost, "/api/v1/public/quotes/"+tok+"/refuse", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodDelete, "/api/v1/quotes/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/v1/quotes/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRefuseWithoutReasonIsMissingReason(t *testing.T) {
	r := newRouter(t)
	created := decode[transport.ActionResponse](t, do(t, r, http.MethodPost, "/api/v1/quotes", createBody()))

	w := do(t, r, http.MethodPatch, "/api/v1/quotes/"+created.Quote.ID, map[string]any{"action": "refuser"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing_reason", decode[httpkit.ErrorResponse](t, w).Code)
}

func TestInvalidTransitionIsConflict(t *testing.T) {
	r := newRouter(t)
	created := decode[transport.ActionResponse](t, do(t, r, http.MethodPost, "/api/v1/quotes", createBody()))

	w := do(t, r, http.MethodDelete, "/api/v1/quotes/"+created.Quote.ID, nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_transition", decode[httpkit.ErrorResponse](t, w).Code)
}

func TestUnknownActionFailsValidation(t *testing.T) {
	r := newRouter(t)

	w := do(t, r, http.MethodPatch, "/api/v1/quotes/DEV-2026-0001", map[string]any{"action": "archiver"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[httpkit.ErrorResponse](t, w)
	assert.Equal(t, "validation", body.Code)
	assert.Contains(t, body.Details, "action")
}

func TestUnknownAndDraftTokensLookTheSame(t *testing.T) {
	r := newRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/public/quote-requests", createBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	pending := decode[transport.QuoteRequestResponse](t, w)
	assert.Equal(t, "en_attente", string(pending.Status))

	unknown := do(t, r, http.MethodGet, "/api/v1/public/quotes/"+strings.Repeat("a", token.Length), nil)
	malformed := do(t, r, http.MethodGet, "/api/v1/public/quotes/nope", nil)

	assert.Equal(t, http.StatusNotFound, unknown.Code)
	assert.Equal(t, unknown.Body.String(), malformed.Body.String())
}

func TestPreviewRejectsNegativePages(t *testing.T) {
	r := newRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/public/quote-requests/preview", map[string]any{
		"project": map[string]any{"offerType": "vitrine", "extraPages": -1},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", decode[httpkit.ErrorResponse](t, w).Code)
}

func TestCatalogListsOffers(t *testing.T) {
	r := newRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/public/catalog", nil)

	require.Equal(t, http.StatusOK, w.Code)
	catalog := decode[transport.CatalogResponse](t, w)
	assert.NotEmpty(t, catalog.Offers)
	assert.Equal(t, "EUR", catalog.Currency)
}
