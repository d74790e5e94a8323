package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/airqtools/airq/internal/analytics"
	"github.com/airqtools/airq/internal/report"
	"github.com/airqtools/airq/internal/store"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Compute the aggregate analytics and write result files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.analyze(cmd.Context())
		},
	}
}

func (a *app) analyze(ctx context.Context) error {
	st, err := store.OpenSQLite(a.cfg.DBPath, a.logger)
	if err != nil {
		return err
	}
	defer st.Close()

	engine := analytics.NewEngine(st, st, a.logger)
	renderer := report.NewSeriesWriter(filepath.Join(a.cfg.ResultsDir, "series"), a.logger)

	param := a.cfg.Parameter
	primary := a.cfg.LocationIDs[0]

	daily, err := engine.DailyAverage(ctx, param, primary)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("daily average %s %d", param, primary)
	if _, err := analytics.WriteResult(a.cfg.ResultsDir, name, daily); err != nil {
		return err
	}
	if err := renderer.Render(report.DailySeries(name, daily)); err != nil {
		return err
	}

	hotspots, err := engine.Hotspots(ctx, param, a.cfg.HotspotMinReadings)
	if err != nil {
		return err
	}
	name = fmt.Sprintf("hotspots %s", param)
	if _, err := analytics.WriteResult(a.cfg.ResultsDir, name, hotspots); err != nil {
		return err
	}
	if err := renderer.Render(report.HotspotSeries(name, hotspots)); err != nil {
		return err
	}

	exceedances, err := engine.DaysExceedingThreshold(ctx, param, primary, a.cfg.SafeLimit)
	if err != nil {
		return err
	}
	name = fmt.Sprintf("days exceeding %s %d", param, primary)
	if _, err := analytics.WriteResult(a.cfg.ResultsDir, name, exceedances); err != nil {
		return err
	}
	if err := renderer.Render(report.ExceedanceSeries(name, exceedances)); err != nil {
		return err
	}

	uptime, err := engine.SensorUptime(ctx, param)
	if err != nil {
		return err
	}
	name = fmt.Sprintf("sensor uptime %s", param)
	if _, err := analytics.WriteResult(a.cfg.ResultsDir, name, uptime); err != nil {
		return err
	}
	if err := renderer.Render(report.UptimeSeries(name, uptime)); err != nil {
		return err
	}

	compare, err := engine.CompareLocationsDaily(ctx, param, a.cfg.CompareLocationIDs)
	if err != nil {
		return err
	}
	name = fmt.Sprintf("compare locations %s", param)
	if _, err := analytics.WriteResult(a.cfg.ResultsDir, name, compare); err != nil {
		return err
	}
	for _, s := range report.CompareSeries(name, compare) {
		if err := renderer.Render(s); err != nil {
			return err
		}
	}

	global, err := engine.GlobalDailyAverage(ctx, param)
	if err != nil {
		return err
	}
	name = fmt.Sprintf("global daily average %s", param)
	if _, err := analytics.WriteResult(a.cfg.ResultsDir, name, global); err != nil {
		return err
	}
	if err := renderer.Render(report.GlobalSeries(name, global)); err != nil {
		return err
	}

	a.logger.Info("analytics complete",
		"results_dir", a.cfg.ResultsDir,
		"daily", len(daily),
		"hotspots", len(hotspots),
		"exceedances", len(exceedances),
		"uptime", len(uptime),
		"compare", len(compare),
		"global", len(global),
	)
	return nil
}
