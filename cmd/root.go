package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sells-group/shopfloor/internal/config"
)

var (
	cfg *config.Config

	// started is set before each command runs, for the completion log line.
	started time.Time
)

var rootCmd = &cobra.Command{
	Use:   "shopfloor",
	Short: "Order history and parts-list lookups for the shop floor",
	Long: `Looks up production orders, invoices and parts lists in the ERP history
tables for operators on the factory floor.

"serve" runs the HTTP API behind the shop-floor app. "search", "parts" and
"lots" run the same lookups from a terminal. Settings come from config.yaml
in the working directory and SHOPFLOOR_* environment variables; DATABASE_URL,
JWT_SECRET and PORT are honored for existing deployments.`,
	Example: `  shopfloor serve --port 3001
  shopfloor search 12345 --limit 20
  shopfloor parts OP-900 --xlsx op-900.xlsx --locale en`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyLogFlags(cmd.Flags(), &c.Log)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		started = time.Now()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		zap.L().Debug("shopfloor: command finished",
			zap.String("command", cmd.CommandPath()),
			zap.Duration("elapsed", time.Since(started)),
		)
		// Sync fails on a terminal stderr; nothing is lost.
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

// applyLogFlags lets --log-level and --log-format override the configured
// logger for one invocation.
func applyLogFlags(flags *pflag.FlagSet, c *config.LogConfig) {
	if f := flags.Lookup("log-level"); f != nil && f.Changed {
		c.Level = f.Value.String()
	}
	if f := flags.Lookup("log-format"); f != nil && f.Changed {
		c.Format = f.Value.String()
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "override log.format (json, console)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
