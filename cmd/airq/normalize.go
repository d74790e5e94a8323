package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	httpadapter "github.com/airqtools/airq/internal/adapter/http"
	"github.com/airqtools/airq/internal/normalize"
	"github.com/airqtools/airq/internal/pipeline"
	"github.com/airqtools/airq/internal/reconcile"
)

func newNormalizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize",
		Short: "Clean raw batches into the three entity collections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.normalize(cmd.Context())
		},
	}
}

func (a *app) normalize(ctx context.Context) error {
	rec := reconcile.New(a.logger, a.metrics)
	runner := pipeline.NewRunner(
		pipeline.NewFileSource(a.cfg.RawDir),
		pipeline.NormalizerFunc(normalize.File),
		rec,
		a.logger,
		a.metrics,
	)

	// The ops surface is opt-in; batch runs usually go without it.
	if a.cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(a.cfg.HTTPAddr, runner, rec, a.logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("ops server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if _, err := runner.Run(ctx); err != nil {
		return err
	}

	snap := rec.Finalize()
	return reconcile.WriteSnapshot(a.cfg.CleanDir, snap)
}
