package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/namelens/genproxy/internal/config"
	"github.com/namelens/genproxy/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display environment, configuration, and version information.",
	Run: func(cmd *cobra.Command, args []string) {
		version := crucible.GetVersion()

		observability.CLILogger.Info("=== genproxy Environment Information ===")
		observability.CLILogger.Info("")

		identity := GetAppIdentity()
		observability.CLILogger.Info("Application:")
		observability.CLILogger.Info("  Name:       " + identity.BinaryName)
		observability.CLILogger.Info("  Version:    " + versionInfo.Version)
		observability.CLILogger.Info("  Commit:     " + versionInfo.Commit)
		observability.CLILogger.Info("  Built:      " + versionInfo.BuildDate)
		observability.CLILogger.Info("  Env Prefix: " + identity.EnvPrefix)
		observability.CLILogger.Info("")

		observability.CLILogger.Info("SSOT:")
		observability.CLILogger.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		observability.CLILogger.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		observability.CLILogger.Info("")

		observability.CLILogger.Info("Runtime:")
		observability.CLILogger.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		observability.CLILogger.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		observability.CLILogger.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		observability.CLILogger.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		observability.CLILogger.Info("")

		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			observability.CLILogger.Warn("Config load failed", zap.Error(err))
			return
		}

		configFile := config.ConfigFileUsed()
		if configFile == "" {
			configFile = "(none, searched " + config.DefaultConfigPath() + ")"
		}

		observability.CLILogger.Info("Configuration:")
		observability.CLILogger.Info("  Mode:           "+cfg.Mode, zap.String("mode", cfg.Mode))
		observability.CLILogger.Info("  Server Host:    "+cfg.Server.Host, zap.String("host", cfg.Server.Host))
		observability.CLILogger.Info(fmt.Sprintf("  Server Port:    %d", cfg.Server.Port), zap.Int("port", cfg.Server.Port))
		observability.CLILogger.Info(fmt.Sprintf("  Trust Proxy:    %t", cfg.Server.TrustProxy))
		observability.CLILogger.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		observability.CLILogger.Info(fmt.Sprintf("  Metrics:        %t (port %d)", cfg.Metrics.Enabled, cfg.Metrics.Port), zap.Int("metrics_port", cfg.Metrics.Port))
		observability.CLILogger.Info("  Config File:    "+configFile, zap.String("config_file", configFile))
		observability.CLILogger.Info("")

		observability.CLILogger.Info("Admission:")
		observability.CLILogger.Info(fmt.Sprintf("  Quota:          %d per %s", cfg.RateLimit.Requests, cfg.RateLimit.Window))
		observability.CLILogger.Info("  Sweep Interval: " + cfg.RateLimit.SweepInterval.String())
		observability.CLILogger.Info("  Origins:        " + strings.Join(cfg.CORS.AllowedOrigins, ", "))
		observability.CLILogger.Info(fmt.Sprintf("  Max Prompt:     %d chars", cfg.Limits.MaxPromptChars))
		observability.CLILogger.Info("")

		observability.CLILogger.Info("Upstream:")
		observability.CLILogger.Info("  Base URL:       " + cfg.Upstream.BaseURL)
		observability.CLILogger.Info("  Model:          " + cfg.Upstream.Model)
		observability.CLILogger.Info(fmt.Sprintf("  Max Tokens:     %d", cfg.Upstream.MaxTokens))
		if strings.TrimSpace(cfg.Upstream.APIKey) != "" {
			observability.CLILogger.Info("  API Key:        (set)")
		} else {
			observability.CLILogger.Info("  API Key:        (not set)")
		}
		observability.CLILogger.Info("")

		observability.CLILogger.Info("=== End Environment Information ===")
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
