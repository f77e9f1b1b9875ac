package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	errwrap "github.com/namelens/genproxy/internal/errors"
	"github.com/namelens/genproxy/internal/observability"
	"github.com/namelens/genproxy/internal/output"
)

var configFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration the server would run with after defaults, the
config file and environment variables are applied. Secrets are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(configFormat)
		if err != nil {
			return err
		}

		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Configuration invalid", errwrap.WrapConfigInvalid(cmd.Context(), err, "configuration invalid"))
			return nil
		}

		rendered, err := output.RenderConfig(format, cfg)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().StringVarP(&configFormat, "format", "f", "table", "output format: table, json, yaml")
}
