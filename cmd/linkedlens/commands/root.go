package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"LinkedLens/internal/config"
	"LinkedLens/internal/logging"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "linkedlens",
	Short:         "linkedlens labels engagement bait in a LinkedIn feed snapshot.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("LINKEDLENS_CONFIG"), "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
}

// ExecuteContext runs the CLI and exits non-zero on failure.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, *slog.Logger) {
	cfg := config.LoadFrom(configPath)
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, logging.NewWriter(os.Stderr, cfg.Logging.Level)
}
