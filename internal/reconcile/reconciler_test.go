package reconcile

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airqtools/airq/internal/domain"
	"github.com/airqtools/airq/internal/normalize"
	"github.com/airqtools/airq/internal/observability"
)

func testReconciler() *Reconciler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(logger, observability.NewMetricsForTesting())
}

func ptr(v float64) *float64 { return &v }

func row(locationID, sensorID int, utc string, value float64) normalize.Row {
	return normalize.Row{
		LocationID:   locationID,
		SensorID:     sensorID,
		LocationName: "Saint John",
		Latitude:     ptr(45.27),
		Longitude:    ptr(-66.06),
		Parameter:    "pm25",
		Unit:         "µg/m³",
		Value:        value,
		UTC:          utc,
	}
}

func TestReconciler_RegistersEntitiesOnce(t *testing.T) {
	r := testReconciler()
	r.Ingest([]normalize.Row{
		row(749, 3917, "2016-03-06T19:00:00Z", 4.9),
		row(749, 3917, "2016-03-06T20:00:00Z", 5.1),
	})

	snap := r.Finalize()
	require.Len(t, snap.Locations, 1)
	require.Len(t, snap.Sensors, 1)
	assert.Len(t, snap.Measurements, 2)

	loc := snap.Locations[0]
	assert.Equal(t, 749, loc.LocationID)
	assert.Equal(t, "Saint John", loc.Name)
	require.NotNil(t, loc.Coordinates)
	assert.Equal(t, 45.27, loc.Coordinates.Latitude)

	s := snap.Sensors[0]
	assert.Equal(t, 3917, s.SensorID)
	assert.Equal(t, 749, s.LocationID)
	assert.Equal(t, "pm25", s.Parameter)
	assert.Equal(t, "µg/m³", s.Unit)
}

func TestReconciler_FirstSeenAttributesWin(t *testing.T) {
	r := testReconciler()

	first := row(749, 3917, "2016-03-06T19:00:00Z", 4.9)
	r.Ingest([]normalize.Row{first})

	// Same ids, different attributes, arriving in a later batch.
	second := row(749, 3917, "2016-03-07T19:00:00Z", 5.5)
	second.LocationName = "Saint John West"
	second.Unit = "ppm"
	r.Ingest([]normalize.Row{second})

	snap := r.Finalize()
	assert.Equal(t, "Saint John", snap.Locations[0].Name)
	assert.Equal(t, "µg/m³", snap.Sensors[0].Unit)
	assert.Equal(t, 1, snap.LocationConflicts)
	assert.Equal(t, 1, snap.SensorConflicts)
}

func TestReconciler_MatchingRecurrenceIsNotAConflict(t *testing.T) {
	r := testReconciler()
	r.Ingest([]normalize.Row{row(749, 3917, "2016-03-06T19:00:00Z", 4.9)})
	r.Ingest([]normalize.Row{row(749, 3917, "2016-03-07T19:00:00Z", 5.5)})

	snap := r.Finalize()
	assert.Zero(t, snap.LocationConflicts)
	assert.Zero(t, snap.SensorConflicts)
}

func TestReconciler_MissingCoordinatesStayNull(t *testing.T) {
	r := testReconciler()
	noCoords := row(746, 4001, "2016-03-06T19:00:00Z", 8.1)
	noCoords.Latitude = nil
	noCoords.Longitude = nil
	r.Ingest([]normalize.Row{noCoords})

	snap := r.Finalize()
	require.Len(t, snap.Locations, 1)
	assert.Nil(t, snap.Locations[0].Coordinates)
}

func TestReconciler_CrossBatchMeasurementDedup(t *testing.T) {
	r := testReconciler()

	// The same reading shows up in two overlapping archive files.
	r.Ingest([]normalize.Row{row(749, 3917, "2016-03-06T19:00:00Z", 4.9)})
	r.Ingest([]normalize.Row{row(749, 3917, "2016-03-06T19:00:00Z", 4.9)})

	snap := r.Finalize()
	assert.Len(t, snap.Measurements, 1)
	assert.Equal(t, 1, snap.DuplicateMeasurements)
}

func TestReconciler_SameKeyDifferentValueIsDistinct(t *testing.T) {
	r := testReconciler()
	r.Ingest([]normalize.Row{row(749, 3917, "2016-03-06T19:00:00Z", 4.9)})
	r.Ingest([]normalize.Row{row(749, 3917, "2016-03-06T19:00:00Z", 5.0)})

	// Different value hashes to a different id, so both survive here. The
	// normalizer's within-batch dedup is what collapses same-key rows.
	snap := r.Finalize()
	assert.Len(t, snap.Measurements, 2)
}

func TestReconciler_FinalizeSortsEntitiesByID(t *testing.T) {
	fixed := time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	defer domain.SetClock(nil)

	r := testReconciler()
	b := row(8132, 24601, "2016-03-06T19:00:00Z", 12.3)
	b.LocationName = "Fredericton"
	c := row(746, 4001, "2016-03-06T19:00:00Z", 8.1)
	c.LocationName = "Moncton"
	a := row(749, 3917, "2016-03-06T19:00:00Z", 4.9)
	r.Ingest([]normalize.Row{b, c, a})

	snap := r.Finalize()
	assert.Equal(t, []int{746, 749, 8132},
		[]int{snap.Locations[0].LocationID, snap.Locations[1].LocationID, snap.Locations[2].LocationID})
	assert.Equal(t, []int{3917, 4001, 24601},
		[]int{snap.Sensors[0].SensorID, snap.Sensors[1].SensorID, snap.Sensors[2].SensorID})

	// Measurements keep append order.
	assert.Equal(t, 8132, snap.Measurements[0].LocationID)
	assert.Equal(t, fixed, snap.FinalizedAt)
}

func TestReconciler_MeasurementFields(t *testing.T) {
	r := testReconciler()
	r.Ingest([]normalize.Row{row(749, 3917, "2016-03-06T19:00:00Z", 4.9)})

	snap := r.Finalize()
	m := snap.Measurements[0]
	assert.Equal(t, domain.MeasurementID(749, 3917, "pm25", "2016-03-06T19:00:00Z", 4.9), m.MeasurementID)
	assert.Equal(t, "2016-03-06T19:00:00Z", m.Date.UTC)
	assert.Equal(t, 4.9, m.Value)
}

func TestWriteSnapshot_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	r := testReconciler()
	noCoords := row(746, 4001, "2016-03-06T19:00:00Z", 8.1)
	noCoords.Latitude = nil
	noCoords.Longitude = nil
	r.Ingest([]normalize.Row{
		row(749, 3917, "2016-03-06T19:00:00Z", 4.9),
		noCoords,
	})
	snap := r.Finalize()

	require.NoError(t, WriteSnapshot(dir, snap))

	loaded, err := ReadSnapshot(dir)
	require.NoError(t, err)
	assert.Equal(t, snap.Locations, loaded.Locations)
	assert.Equal(t, snap.Sensors, loaded.Sensors)
	assert.Equal(t, snap.Measurements, loaded.Measurements)
}

func TestWriteSnapshot_NDJSONShape(t *testing.T) {
	dir := t.TempDir()

	r := testReconciler()
	noCoords := row(746, 4001, "2016-03-06T19:00:00Z", 8.1)
	noCoords.Latitude = nil
	noCoords.Longitude = nil
	r.Ingest([]normalize.Row{noCoords})
	require.NoError(t, WriteSnapshot(dir, r.Finalize()))

	data, err := os.ReadFile(filepath.Join(dir, LocationsFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	// Exact wire field names, coordinates null when unresolved.
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &doc))
	assert.Equal(t, float64(746), doc["locationId"])
	assert.Equal(t, "Saint John", doc["location"])
	assert.Contains(t, doc, "coordinates")
	assert.Nil(t, doc["coordinates"])

	data, err = os.ReadFile(filepath.Join(dir, MeasurementsFile))
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &m))
	assert.Contains(t, m, "measurementId")
	assert.Contains(t, m, "locationId")
	assert.Contains(t, m, "sensorId")
	assert.Contains(t, m, "parameter")
	assert.Contains(t, m, "value")
	date, ok := m["date"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2016-03-06T19:00:00Z", date["utc"])
}
