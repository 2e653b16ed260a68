// Package exports provides CSV exports of quotes for bookkeeping.
package exports

import (
	apphttp "agency_backend/internal/http"
	"agency_backend/platform/validator"
)

// Module is the exports bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the exports module.
func NewModule(quotes QuoteLister, val *validator.Validator) *Module {
	return &Module{handler: NewHandler(quotes, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "exports"
}

// RegisterRoutes mounts export routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/exports/quotes.csv", m.handler.ExportQuotesCSV)
}

var _ apphttp.Module = (*Module)(nil)
