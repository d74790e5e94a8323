package main

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/airqtools/airq/internal/config"
	"github.com/airqtools/airq/internal/observability"
)

// app carries the shared wiring every subcommand needs.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "airq",
		Short:         "Air-quality archive ETL and analytics",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// A .env file is a convenience for local runs; absence is fine.
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = cfg
			a.logger = observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
			a.metrics = observability.NewMetrics()
			return nil
		},
	}

	root.AddCommand(
		newFetchCmd(a),
		newNormalizeCmd(a),
		newLoadCmd(a),
		newAnalyzeCmd(a),
		newRunCmd(a),
		newVerifyCmd(a),
	)
	return root
}
