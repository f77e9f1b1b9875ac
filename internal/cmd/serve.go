package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/namelens/genproxy/internal/ailink"
	"github.com/namelens/genproxy/internal/config"
	"github.com/namelens/genproxy/internal/core/admission"
	errwrap "github.com/namelens/genproxy/internal/errors"
	"github.com/namelens/genproxy/internal/metrics"
	"github.com/namelens/genproxy/internal/observability"
	"github.com/namelens/genproxy/internal/server"
	"github.com/namelens/genproxy/internal/server/handlers"
	servermw "github.com/namelens/genproxy/internal/server/middleware"
)

var (
	serverPort int
	serverHost string
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

// identityHealthChecker validates app identity metadata
type identityHealthChecker struct {
	binaryName string
	envPrefix  string
	configName string
}

func (i identityHealthChecker) CheckHealth(ctx context.Context) error {
	switch {
	case i.binaryName == "":
		return errwrap.NewConfigInvalidError("app identity missing binary name")
	case i.envPrefix == "":
		return errwrap.NewConfigInvalidError("app identity missing env prefix")
	case i.configName == "":
		return errwrap.NewConfigInvalidError("app identity missing config name")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the generation proxy with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Re-read and validate configuration

The server stops accepting connections, drains in-flight requests, stops the
rate limiter sweeper and flushes logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := loadConfig(ctx, serveOverrides(cmd))
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "failed to load configuration")
		}

		identity := GetAppIdentity()
		namespace := identity.TelemetryNamespace()

		observability.InitServerLogger(identity.BinaryName, cfg.Logging.Level, cfg.Mode, namespace)
		servermw.SetExposeErrorDetails(cfg.IsDevelopment())

		metricsPort := 0
		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(identity.BinaryName, cfg.Metrics.Port, namespace); err != nil {
				observability.ServerLogger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.WrapInternal(ctx, err, "metrics initialization failed")
			}
			metricsPort = observability.GetMetricsPort()
		}
		metrics.SetServerStartTime(time.Now().Unix())

		observability.ServerLogger.Info("Initializing server",
			zap.String("service", identity.BinaryName),
			zap.String("namespace", namespace),
			zap.String("version", versionInfo.Version),
			zap.String("mode", cfg.Mode),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.Int("metrics_port", metricsPort),
			zap.String("config_file", config.ConfigFileUsed()))

		gate := newGate(cfg.RateLimit)
		gate.Start(ctx)

		generator := ailink.NewGeneratorFromConfig(cfg.Upstream)
		if !generator.Configured() {
			observability.ServerLogger.Warn("Upstream API key is not set; generation requests will fail until it is configured")
		}

		handlers.SetAppIdentity(identity)
		handlers.SetUpstreamInfo(generator.Driver.Name(), generator.Model)

		srv := server.New(server.Options{
			Host:           cfg.Server.Host,
			Port:           cfg.Server.Port,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			IdleTimeout:    cfg.Server.IdleTimeout,
			TrustProxy:     cfg.Server.TrustProxy,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			Gate:           gate,
			Generator:      generator,
			MaxPromptChars: cfg.Limits.MaxPromptChars,
			MaxBodyBytes:   cfg.Limits.MaxBodyBytes,
			Service:        identity.BinaryName,
			Version:        versionInfo.Version,
			Description:    identity.Description,
			AdminToken:     cfg.AdminToken,
		})

		if cfg.Metrics.Enabled {
			srv.RegisterHealthChecker("telemetry", telemetryHealthChecker{})
		}
		srv.RegisterHealthChecker("app_identity", identityHealthChecker{
			binaryName: identity.BinaryName,
			envPrefix:  identity.EnvPrefix,
			configName: identity.ConfigName,
		})

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout <= 0 {
			shutdownTimeout = config.DefaultShutdownTimeout
		}

		// Shutdown handlers run LIFO: server first, logger last.
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Flushing logger...")
			if err := observability.ServerLogger.Sync(); err != nil {
				// Sync errors are often benign (stdout/stderr already closed)
				observability.ServerLogger.Warn("Logger sync returned error (may be benign)",
					zap.Error(err))
			}
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			if err := observability.StopMetrics(); err != nil {
				observability.ServerLogger.Warn("Metrics exporter stop returned error", zap.Error(err))
			}
			gate.Stop()
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			observability.ServerLogger.Info("HTTP server stopped gracefully")
			return nil
		})

		// Listener settings need a restart; reload only re-validates and
		// applies the error detail mode.
		signals.OnReload(func(ctx context.Context) error {
			observability.ServerLogger.Info("Received SIGHUP: re-validating configuration")

			reloaded, err := loadConfig(ctx, serveOverrides(cmd))
			if err != nil {
				observability.ServerLogger.Error("Config reload failed; keeping current configuration",
					zap.String("file", config.ConfigFileUsed()),
					zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}

			servermw.SetExposeErrorDetails(reloaded.IsDevelopment())
			observability.ServerLogger.Info("Configuration validated",
				zap.String("file", config.ConfigFileUsed()),
				zap.String("mode", reloaded.Mode))
			return nil
		})

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			observability.ServerLogger.Warn("Failed to enable double-tap force quit",
				zap.Error(err))
		}

		errChan := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

		go func() {
			if err := signals.Listen(ctx); err != nil {
				observability.ServerLogger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		if err := <-errChan; err != nil {
			gate.Stop()
			return errwrap.WrapInternal(ctx, err, "server error")
		}

		return nil
	},
}

// serveOverrides maps explicitly set flags onto config keys. Unset flags
// leave file and environment values in place.
func serveOverrides(cmd *cobra.Command) map[string]any {
	overrides := map[string]any{}
	if cmd.Flags().Changed("host") {
		overrides["server"] = map[string]any{"host": serverHost}
	}
	if cmd.Flags().Changed("port") {
		serverKeys, _ := overrides["server"].(map[string]any)
		if serverKeys == nil {
			serverKeys = map[string]any{}
			overrides["server"] = serverKeys
		}
		serverKeys["port"] = serverPort
	}
	return overrides
}

// newGate builds the admission gate and reports sweeps.
func newGate(cfg config.RateLimitConfig) *admission.Gate {
	gate := admission.New(admission.Config{
		Limit:         cfg.Requests,
		Window:        cfg.Window,
		SweepInterval: cfg.SweepInterval,
	})
	gate.OnSweep = func(evicted, tracked int) {
		metrics.RecordSweep(evicted, tracked)
		if observability.ServerLogger != nil {
			observability.ServerLogger.Debug("Rate limiter sweep",
				zap.Int("evicted", evicted),
				zap.Int("tracked", tracked))
		}
	}
	return gate
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "0.0.0.0", "server host (overrides config)")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 3001, "server port (overrides config)")
}
