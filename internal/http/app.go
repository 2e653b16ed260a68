// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"
	"net/http"

	"agency_backend/internal/events"
	"agency_backend/platform/config"
	"agency_backend/platform/httpkit"
	"agency_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// MetricsCollector instruments requests and serves the scrape endpoint.
type MetricsCollector interface {
	Middleware() gin.HandlerFunc
	Handler() http.Handler
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP and JWT settings only).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness/health checks (e.g., DB ping).
	Health HealthChecker
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// Metrics is optional; without it /metrics is not served.
	Metrics MetricsCollector
	// PublicLimiter throttles the public group per client IP.
	PublicLimiter httpkit.Limiter
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
