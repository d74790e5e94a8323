package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/airqtools/airq/internal/archive"
)

func newFetchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Mirror the configured archive slices and unpack them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.fetch(cmd.Context())
		},
	}
}

func (a *app) fetch(ctx context.Context) error {
	client := archive.NewClient(a.cfg.ArchiveBaseURL, a.cfg.ArchiveTimeout, a.logger)

	for _, locationID := range a.cfg.LocationIDs {
		for _, year := range a.cfg.Years {
			if _, err := client.SyncLocationYear(ctx, a.cfg.RawDir, locationID, year); err != nil {
				return err
			}
		}
	}

	_, err := archive.ExtractAll(a.cfg.RawDir, a.logger)
	return err
}
