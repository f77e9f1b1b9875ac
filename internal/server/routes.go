package server

import (
	"github.com/fulmenhq/gofulmen/signals"
	"go.uber.org/zap"

	"github.com/namelens/genproxy/internal/observability"
	"github.com/namelens/genproxy/internal/server/handlers"
	servermw "github.com/namelens/genproxy/internal/server/middleware"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	s.health.RegisterChecker("upstream_credential", handlers.CredentialChecker(func() bool {
		return s.opts.Generator != nil && s.opts.Generator.Configured()
	}))

	s.router.Get("/", handlers.RootHandler(handlers.ServiceInfo{
		Name:        s.opts.Service,
		Version:     s.opts.Version,
		Description: s.opts.Description,
	}))
	s.router.Get("/health", s.health.HealthHandler)
	s.router.Get("/health/ready", s.health.ReadinessHandler)
	s.router.Get("/version", handlers.VersionHandler)
	s.router.Get("/metrics", MetricsHandler)

	generate := handlers.NewGenerateHandler(s.opts.Generator, s.opts.MaxPromptChars, s.opts.MaxBodyBytes)
	s.router.With(servermw.Admission(s.opts.Gate, HandleError)).
		Post("/api/generate", generate.ServeHTTP)

	s.registerAdminEndpoint()
}

// registerAdminEndpoint exposes POST /admin/signal when an admin token is configured.
func (s *Server) registerAdminEndpoint() {
	logger := observability.ServerLogger

	if s.opts.AdminToken == "" {
		if logger != nil {
			logger.Debug("Admin signal endpoint disabled (no admin token set)")
		}
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: s.opts.AdminToken,
		RateLimit: 10,
		RateBurst: 5,
		Manager:   nil,
	})
	s.router.Post("/admin/signal", handler.ServeHTTP)

	if logger != nil {
		logger.Info("Admin signal endpoint enabled",
			zap.String("path", "/admin/signal"),
			zap.String("rate_limit", "10/min, burst 5"))
		logger.Warn("Admin endpoint enabled - ensure this server is not exposed to public internet")
	}
}
