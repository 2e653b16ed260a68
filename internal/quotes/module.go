// Package quotes provides the quotes (devis) domain module.
package quotes

import (
	"context"
	"fmt"

	"agency_backend/internal/events"
	apphttp "agency_backend/internal/http"
	"agency_backend/internal/notification"
	"agency_backend/internal/quotes/handler"
	"agency_backend/internal/quotes/pricing"
	"agency_backend/internal/quotes/repository"
	"agency_backend/internal/quotes/service"
	"agency_backend/internal/quotes/token"
	"agency_backend/platform/logger"
	"agency_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TransitionRecorder counts lifecycle transitions.
type TransitionRecorder interface {
	QuoteTransition(to, actor string)
}

// Module represents the quotes domain module
type Module struct {
	handler       *handler.Handler
	publicHandler *handler.PublicHandler
	service       *service.Service
}

// NewModule creates a new quotes module with all dependencies wired. The
// price list comes from the configured catalogue file, or the built-in one.
func NewModule(pool *pgxpool.Pool, cfg service.Config, eventBus events.Bus, val *validator.Validator, log *logger.Logger) (*Module, error) {
	catalog, err := loadCatalog(cfg.GetCatalogPath())
	if err != nil {
		return nil, err
	}
	return newModule(repository.New(pool), catalog, cfg, eventBus, val, log), nil
}

func newModule(store repository.Store, catalog *pricing.Catalog, cfg service.Config, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(store, token.NewManager(store, log), catalog, cfg, log)
	svc.SetEventBus(eventBus)

	return &Module{
		handler:       handler.New(svc, val),
		publicHandler: handler.NewPublicHandler(svc, val),
		service:       svc,
	}
}

func loadCatalog(path string) (*pricing.Catalog, error) {
	if path == "" {
		return pricing.DefaultCatalog()
	}
	catalog, err := pricing.LoadCatalog(path)
	if err != nil {
		return nil, fmt.Errorf("load pricing catalog: %w", err)
	}
	return catalog, nil
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "quotes"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// SetNotifier injects the dispatcher for quote emails.
func (m *Module) SetNotifier(d notification.Dispatcher) {
	m.service.SetNotifier(d)
}

// SetDiscountValidator injects the affiliate code lookup.
func (m *Module) SetDiscountValidator(v service.DiscountValidator) {
	m.service.SetDiscountValidator(v)
}

// RegisterMetrics counts every persisted transition.
func (m *Module) RegisterMetrics(bus events.Bus, rec TransitionRecorder) {
	bus.Subscribe(events.QuoteStatusChanged{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		if changed, ok := e.(events.QuoteStatusChanged); ok {
			rec.QuoteTransition(changed.ToStatus, changed.Actor)
		}
		return nil
	}))
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/quotes"))

	// Public routes: request funnel and client links.
	m.publicHandler.RegisterRoutes(ctx.Public)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
