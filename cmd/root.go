package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/water-atlas/internal/config"
	"github.com/sells-group/water-atlas/internal/runlog"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "water-atlas",
	Short: "Builds the JSON data files behind the Georgia water map",
	Long:  "Downloads GeoNames postal codes into a zip-code lookup and merges EPA SDWA extracts into one document keyed by public water system ID.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceErrors: true,
	SilenceUsage:  true,
}

// openRunLog opens the run history when runlog.path is set. Failures are
// logged and yield a nil store, which records nothing.
func openRunLog(ctx context.Context) *runlog.Store {
	if cfg == nil || !cfg.RunLog.Enabled() {
		return nil
	}
	st, err := runlog.Open(ctx, cfg.RunLog.Path, nil)
	if err != nil {
		zap.L().Warn("run history disabled", zap.String("path", cfg.RunLog.Path), zap.Error(err))
		return nil
	}
	return st
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}
