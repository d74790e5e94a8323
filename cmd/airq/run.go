package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/airqtools/airq/internal/domain"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run fetch, normalize, load, and analyze in sequence",
		Long: `Run executes the full pipeline. Stages run in order and the first
failure halts the run; later stages are not attempted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runAll(cmd.Context())
		},
	}
}

func (a *app) runAll(ctx context.Context) error {
	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"fetch", a.fetch},
		{"normalize", a.normalize},
		{"load", a.load},
		{"analyze", a.analyze},
	}

	for _, stage := range stages {
		start := domain.Now()
		a.logger.Info("stage starting", "stage", stage.name)

		if err := stage.fn(ctx); err != nil {
			a.logger.Error("stage failed, halting run", "stage", stage.name, "error", err)
			return fmt.Errorf("stage %s: %w", stage.name, err)
		}

		elapsed := domain.Now().Sub(start)
		a.metrics.StageDuration.WithLabelValues(stage.name).Observe(elapsed.Seconds())
		a.logger.Info("stage complete", "stage", stage.name, "elapsed", elapsed)
	}

	a.logger.Info("run complete")
	return nil
}
