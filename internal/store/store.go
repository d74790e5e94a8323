// Package store provides the queryable measurement store contracts plus an
// embedded SQLite implementation and an in-memory one for tests.
package store

import (
	"context"

	"github.com/airqtools/airq/internal/domain"
)

// Filter narrows a measurement scan. Zero values mean "no constraint".
type Filter struct {
	Parameter   string
	LocationIDs []int
}

// Matches reports whether a measurement passes the filter.
func (f Filter) Matches(m *domain.Measurement) bool {
	if f.Parameter != "" && m.Parameter != f.Parameter {
		return false
	}
	if len(f.LocationIDs) > 0 {
		found := false
		for _, id := range f.LocationIDs {
			if m.LocationID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// MeasurementSource yields measurements for aggregation. An empty result is
// a normal outcome, never an error.
type MeasurementSource interface {
	Measurements(ctx context.Context, f Filter) ([]domain.Measurement, error)
}

// UnitResolver looks up the unit string of any one sensor reporting the
// parameter, optionally at a specific location (locationID 0 means any).
// The lookup is best-effort: when sensors disagree the first match by
// sensor id wins, and a missing match returns "" with a nil error.
type UnitResolver interface {
	SensorUnit(ctx context.Context, parameter string, locationID int) (string, error)
}

// Loader receives the normalized entity collections. Loads are idempotent:
// a record whose key already exists is left untouched.
type Loader interface {
	LoadLocations(ctx context.Context, locations []domain.Location) error
	LoadSensors(ctx context.Context, sensors []domain.Sensor) error
	LoadMeasurements(ctx context.Context, measurements []domain.Measurement) error
}
