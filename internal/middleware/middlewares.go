package middleware

import (
	"github.com/deppfellow/routekit/internal/server"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// Middlewares groups all middleware components used by the HTTP server so
// router setup receives one object.
type Middlewares struct {
	// Global holds CORS, request logging, recovery, secure headers, and the global error handler.
	Global *GlobalMiddlewares

	// Auth rejects requests without an Authorization header.
	Auth *AuthMiddleware

	// ContextEnhancer installs the request-scoped logger.
	ContextEnhancer *ContextEnhancer

	// Tracing starts New Relic transactions and annotates them.
	Tracing *TracingMiddleware

	// RateLimit consumes the public or private limiter per request.
	RateLimit *RateLimitMiddleware
}

// NewMiddlewares constructs all middleware components using the application
// container. Tracing is a no-op unless the server's LoggerService runs New Relic.
func NewMiddlewares(s *server.Server) *Middlewares {
	var nrApp *newrelic.Application
	if s.LoggerService != nil {
		nrApp = s.LoggerService.GetApplication()
	}

	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		Auth:            NewAuthMiddleware(s),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracingMiddleware(s, nrApp),
		RateLimit:       NewRateLimitMiddleware(s),
	}
}
