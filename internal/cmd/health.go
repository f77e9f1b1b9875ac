package cmd

import (
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	errwrap "github.com/namelens/genproxy/internal/errors"
	"github.com/namelens/genproxy/internal/observability"
)

var healthStrict bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long: `Run a self-health check to verify the server can start: version metadata,
logger, configuration and the upstream credential.

A missing credential is a warning by default; the server still starts and
answers generation requests with CONFIG_MISSING. Use --strict to fail instead.`,
	Run: func(cmd *cobra.Command, args []string) {
		observability.CLILogger.Info("Running health check...")

		if versionInfo.Version == "" {
			ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Version information missing", errwrap.NewConfigInvalidError("Version information missing"))
			return
		}
		observability.CLILogger.Debug("Version check passed", zap.String("version", versionInfo.Version))
		observability.CLILogger.Info("✅ Version information available")

		if observability.CLILogger == nil {
			ExitWithCodeStderr(foundry.ExitConfigInvalid, "Logger not initialized", errwrap.NewConfigInvalidError("Logger not initialized"))
			return
		}
		observability.CLILogger.Info("✅ Logger initialized")

		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Configuration invalid", errwrap.WrapConfigInvalid(cmd.Context(), err, "configuration invalid"))
			return
		}
		observability.CLILogger.Info("✅ Configuration valid", zap.String("mode", cfg.Mode))

		if strings.TrimSpace(cfg.Upstream.APIKey) == "" {
			if healthStrict {
				ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Upstream API key not set", errwrap.NewConfigInvalidError("upstream API key not set"))
				return
			}
			observability.CLILogger.Warn("⚠️  Upstream API key not set")
		} else {
			observability.CLILogger.Info("✅ Upstream credential present")
		}

		observability.CLILogger.Info("")
		observability.CLILogger.Info("✅ All health checks passed")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
	healthCmd.Flags().BoolVar(&healthStrict, "strict", false, "fail when the upstream API key is missing")
}
