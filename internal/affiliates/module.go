// Package affiliates provides the affiliate codes module: admin management
// and the discount lookup used by quote creation.
package affiliates

import (
	"agency_backend/internal/affiliates/handler"
	"agency_backend/internal/affiliates/repository"
	"agency_backend/internal/affiliates/service"
	apphttp "agency_backend/internal/http"
	"agency_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the affiliates module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the affiliates module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	svc := service.New(repository.New(pool))
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "affiliates"
}

// Service returns the service layer, which the quotes module uses as its
// discount validator.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts affiliate routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/affiliates"))
	m.handler.RegisterPublicRoutes(ctx.Public.Group("/affiliates"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
