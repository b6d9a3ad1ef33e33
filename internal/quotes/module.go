// Package quotes provides the quote generation bounded context module.
// This file defines the module that encapsulates all quotes setup and route registration.
package quotes

import (
	apphttp "travelquote_backend/internal/http"
	"travelquote_backend/internal/quotes/handler"
	"travelquote_backend/internal/quotes/repository"
	"travelquote_backend/internal/quotes/service"
	"travelquote_backend/internal/tenant"
	"travelquote_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the quotes bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the quotes module. The caller supplies
// the orchestrator collaborators in deps; the persistence layer is wired
// here from the shared pool.
func NewModule(pool *pgxpool.Pool, deps service.Deps, val *validator.Validator, tenants *tenant.Registry) *Module {
	deps.Repo = repository.New(pool)
	svc := service.New(deps)
	h := handler.New(svc, val, tenants)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "quotes"
}

// Service returns the quote service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts quotes routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All quotes routes require authentication
	quotesGroup := ctx.Protected.Group("/quotes")
	m.handler.RegisterRoutes(quotesGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
