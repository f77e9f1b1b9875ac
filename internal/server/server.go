package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/namelens/genproxy/internal/core/admission"
	apperrors "github.com/namelens/genproxy/internal/errors"
	"github.com/namelens/genproxy/internal/observability"
	"github.com/namelens/genproxy/internal/server/handlers"
	servermw "github.com/namelens/genproxy/internal/server/middleware"
)

// Default http.Server timeouts. Writes allow for slow upstream generations.
const (
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 120 * time.Second
	DefaultIdleTimeout  = 120 * time.Second
)

// Options configures a Server.
type Options struct {
	Host string
	Port int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// TrustProxy derives the client IP from X-Real-IP / X-Forwarded-For.
	TrustProxy     bool
	AllowedOrigins []string

	Gate           *admission.Gate
	Generator      handlers.TextGenerator
	MaxPromptChars int
	MaxBodyBytes   int64

	Service     string
	Version     string
	Description string

	// AdminToken enables POST /admin/signal when set.
	AdminToken string
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	opts   Options
	health *handlers.HealthManager
	origin *servermw.OriginPolicy
}

// New creates a new HTTP server instance
func New(opts Options) *Server {
	if opts.Service == "" {
		opts.Service = "genproxy"
	}
	if opts.Gate == nil {
		opts.Gate = admission.New(admission.Config{})
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}

	origin := servermw.NewOriginPolicy(opts.AllowedOrigins)

	r := chi.NewRouter()

	if opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestMetrics)
	r.Use(servermw.Recovery)
	r.Use(servermw.OriginGuard(origin))
	r.Use(cors.Handler(corsOptions(origin)))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewNotFoundError("The requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"))
	})

	s := &Server{
		router: r,
		opts:   opts,
		health: handlers.NewHealthManager(opts.Service, opts.Version),
		origin: origin,
	}

	handlers.SetHTTPErrorResponder(HandleError)

	s.registerRoutes()

	return s
}

func corsOptions(policy *servermw.OriginPolicy) cors.Options {
	origins := policy.Origins()
	if policy.AllowsAll() {
		origins = []string{servermw.WildcardOrigin}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{
			servermw.RequestIDHeader,
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"Retry-After",
		},
		MaxAge: 300,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := s.Addr()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Starting HTTP server",
			zap.String("addr", addr),
			zap.Bool("trust_proxy", s.opts.TrustProxy),
			zap.Bool("origins_allow_all", s.origin.AllowsAll()),
			zap.Strings("allowed_origins", s.origin.Origins()))
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Shutting down HTTP server")
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
}

// Port returns the server port for testing
func (s *Server) Port() int {
	return s.opts.Port
}

// RegisterHealthChecker adds a readiness check reported by /health/ready.
func (s *Server) RegisterHealthChecker(name string, checker handlers.HealthChecker) {
	s.health.RegisterChecker(name, checker)
}
