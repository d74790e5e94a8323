package store_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airqtools/airq/internal/domain"
	"github.com/airqtools/airq/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func coords(lat, lon float64) *domain.Coordinates {
	return &domain.Coordinates{Latitude: lat, Longitude: lon}
}

func measurement(locID, sensorID int, parameter, utc string, value float64) domain.Measurement {
	return domain.Measurement{
		MeasurementID: domain.MeasurementID(locID, sensorID, parameter, utc, value),
		LocationID:    locID,
		SensorID:      sensorID,
		Parameter:     parameter,
		Value:         value,
		Date:          domain.UTCDate{UTC: utc},
	}
}

func TestFilter_Matches(t *testing.T) {
	m := measurement(749, 3917, "pm25", "2016-03-06T19:00:00Z", 4.9)

	tests := []struct {
		name   string
		filter store.Filter
		want   bool
	}{
		{"empty filter matches everything", store.Filter{}, true},
		{"parameter match", store.Filter{Parameter: "pm25"}, true},
		{"parameter mismatch", store.Filter{Parameter: "no2"}, false},
		{"location match", store.Filter{LocationIDs: []int{8132, 749}}, true},
		{"location mismatch", store.Filter{LocationIDs: []int{8132}}, false},
		{"both constraints", store.Filter{Parameter: "pm25", LocationIDs: []int{749}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(&m))
		})
	}
}

// loaderStore is the surface both implementations share.
type loaderStore interface {
	store.Loader
	store.MeasurementSource
	store.UnitResolver
}

// Both stores share load/query semantics, so they run the same suite.
func TestStores(t *testing.T) {
	ctx := context.Background()

	open := map[string]func(t *testing.T) loaderStore{
		"memory": func(t *testing.T) loaderStore { return store.NewMemory() },
		"sqlite": func(t *testing.T) loaderStore {
			s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "test.db"), testLogger())
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}

	for name, openStore := range open {
		t.Run(name, func(t *testing.T) {
			t.Run("load is idempotent", func(t *testing.T) {
				s := openStore(t)
				m := measurement(749, 3917, "pm25", "2016-03-06T19:00:00Z", 4.9)
				require.NoError(t, s.LoadMeasurements(ctx, []domain.Measurement{m}))
				require.NoError(t, s.LoadMeasurements(ctx, []domain.Measurement{m}))

				got, err := s.Measurements(ctx, store.Filter{})
				require.NoError(t, err)
				assert.Len(t, got, 1)
			})

			t.Run("filter by parameter and location", func(t *testing.T) {
				s := openStore(t)
				require.NoError(t, s.LoadMeasurements(ctx, []domain.Measurement{
					measurement(749, 3917, "pm25", "2016-03-06T19:00:00Z", 4.9),
					measurement(749, 3918, "no2", "2016-03-06T19:00:00Z", 12.0),
					measurement(8132, 25425, "pm25", "2016-03-06T20:00:00Z", 7.1),
				}))

				got, err := s.Measurements(ctx, store.Filter{Parameter: "pm25", LocationIDs: []int{749}})
				require.NoError(t, err)
				require.Len(t, got, 1)
				assert.Equal(t, 3917, got[0].SensorID)
			})

			t.Run("empty store yields empty result", func(t *testing.T) {
				s := openStore(t)
				got, err := s.Measurements(ctx, store.Filter{Parameter: "pm25"})
				require.NoError(t, err)
				assert.Empty(t, got)
			})

			t.Run("sensor unit lookup", func(t *testing.T) {
				s := openStore(t)
				require.NoError(t, s.LoadSensors(ctx, []domain.Sensor{
					{SensorID: 3918, LocationID: 749, Parameter: "no2", Unit: "ppm"},
					{SensorID: 3917, LocationID: 749, Parameter: "pm25", Unit: "µg/m³"},
					{SensorID: 25425, LocationID: 8132, Parameter: "pm25", Unit: "ug/m3"},
				}))

				unit, err := s.SensorUnit(ctx, "pm25", 0)
				require.NoError(t, err)
				assert.Equal(t, "µg/m³", unit, "lowest sensor id wins")

				unit, err = s.SensorUnit(ctx, "pm25", 8132)
				require.NoError(t, err)
				assert.Equal(t, "ug/m3", unit)

				unit, err = s.SensorUnit(ctx, "o3", 0)
				require.NoError(t, err)
				assert.Empty(t, unit, "unknown parameter resolves to empty, not error")
			})
		})
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	s, err := store.OpenSQLite(path, testLogger())
	require.NoError(t, err)

	require.NoError(t, s.LoadLocations(ctx, []domain.Location{
		{LocationID: 749, Name: "Oakridge", Coordinates: coords(43.45, -79.70)},
		{LocationID: 746, Name: "Downtown"},
	}))
	require.NoError(t, s.LoadMeasurements(ctx, []domain.Measurement{
		measurement(749, 3917, "pm25", "2016-03-06T19:00:00Z", 4.9),
	}))
	require.NoError(t, s.Close())

	s, err = store.OpenSQLite(path, testLogger())
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Measurements(ctx, store.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2016-03-06T19:00:00Z", got[0].Date.UTC)
}
