package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/airqtools/airq/internal/domain"
	"github.com/airqtools/airq/internal/reconcile"
)

const maxReportedErrors = 10

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the cleaned entity collections for integrity defects",
		Long: `Verify re-derives every measurement id from its fields, checks id
uniqueness, referential integrity against the location and sensor
collections, and the canonical timestamp format.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.verify()
		},
	}
}

// phase tracks pass/fail for one verification pass.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func (a *app) verify() error {
	snap, err := reconcile.ReadSnapshot(a.cfg.CleanDir)
	if err != nil {
		return err
	}

	phases := []*phase{
		verifyIdentifiers(snap),
		verifyReferences(snap),
		verifyTimestamps(snap),
	}

	failed := 0
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS %s\n", p.name)
			continue
		}
		failed++
		fmt.Printf("FAIL %s (%d errors)\n", p.name, len(p.errors))
		for i, msg := range p.errors {
			if i == maxReportedErrors {
				fmt.Printf("  ... %d more\n", len(p.errors)-maxReportedErrors)
				break
			}
			fmt.Printf("  %s\n", msg)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d verification phases failed", failed, len(phases))
	}
	fmt.Printf("verified %d locations, %d sensors, %d measurements\n",
		len(snap.Locations), len(snap.Sensors), len(snap.Measurements))
	return nil
}

// verifyIdentifiers re-derives every measurement id and checks uniqueness.
func verifyIdentifiers(snap reconcile.Snapshot) *phase {
	p := &phase{name: "identifiers"}
	seen := make(map[string]struct{}, len(snap.Measurements))

	for i := range snap.Measurements {
		m := &snap.Measurements[i]
		want := domain.MeasurementID(m.LocationID, m.SensorID, m.Parameter, m.Date.UTC, m.Value)
		if m.MeasurementID != want {
			p.errorf("measurement %s: id does not derive from fields (want %s)", m.MeasurementID, want)
		}
		if _, dup := seen[m.MeasurementID]; dup {
			p.errorf("measurement %s: duplicate id", m.MeasurementID)
		}
		seen[m.MeasurementID] = struct{}{}
	}
	return p
}

// verifyReferences checks that every measurement points at known entities
// and every sensor at a known location.
func verifyReferences(snap reconcile.Snapshot) *phase {
	p := &phase{name: "references"}

	locations := make(map[int]struct{}, len(snap.Locations))
	for _, l := range snap.Locations {
		locations[l.LocationID] = struct{}{}
	}
	sensors := make(map[int]struct{}, len(snap.Sensors))
	for _, s := range snap.Sensors {
		sensors[s.SensorID] = struct{}{}
		if _, ok := locations[s.LocationID]; !ok {
			p.errorf("sensor %d: unknown location %d", s.SensorID, s.LocationID)
		}
	}

	for i := range snap.Measurements {
		m := &snap.Measurements[i]
		if _, ok := locations[m.LocationID]; !ok {
			p.errorf("measurement %s: unknown location %d", m.MeasurementID, m.LocationID)
		}
		if _, ok := sensors[m.SensorID]; !ok {
			p.errorf("measurement %s: unknown sensor %d", m.MeasurementID, m.SensorID)
		}
	}
	return p
}

// verifyTimestamps checks the canonical YYYY-MM-DDTHH:MM:SSZ form.
func verifyTimestamps(snap reconcile.Snapshot) *phase {
	p := &phase{name: "timestamps"}

	for i := range snap.Measurements {
		m := &snap.Measurements[i]
		t, err := time.Parse("2006-01-02T15:04:05Z", m.Date.UTC)
		if err != nil || domain.CanonicalUTC(t) != m.Date.UTC {
			p.errorf("measurement %s: timestamp %q is not canonical", m.MeasurementID, m.Date.UTC)
		}
	}
	return p
}
