package main

import (
	"context"

	"github.com/spf13/cobra"

	kafkaadapter "github.com/airqtools/airq/internal/adapter/kafka"
	"github.com/airqtools/airq/internal/reconcile"
	"github.com/airqtools/airq/internal/store"
)

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load the cleaned entity collections into the store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd.Context())
		},
	}
}

func (a *app) load(ctx context.Context) error {
	snap, err := reconcile.ReadSnapshot(a.cfg.CleanDir)
	if err != nil {
		return err
	}

	st, err := store.OpenSQLite(a.cfg.DBPath, a.logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.LoadLocations(ctx, snap.Locations); err != nil {
		return err
	}
	if err := st.LoadSensors(ctx, snap.Sensors); err != nil {
		return err
	}
	if err := st.LoadMeasurements(ctx, snap.Measurements); err != nil {
		return err
	}

	a.logger.Info("loaded entity collections",
		"db", a.cfg.DBPath,
		"locations", len(snap.Locations),
		"sensors", len(snap.Sensors),
		"measurements", len(snap.Measurements),
	)

	if a.cfg.KafkaEnabled() {
		w := kafkaadapter.NewWriter(a.cfg.KafkaBrokers, a.cfg.KafkaTopic, a.logger)
		defer w.Close()
		if err := w.PublishBatch(ctx, snap.Measurements); err != nil {
			return err
		}
		a.logger.Info("published measurements",
			"topic", a.cfg.KafkaTopic, "count", len(snap.Measurements))
	}
	return nil
}
