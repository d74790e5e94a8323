// Package reconcile merges normalized batches into the three entity
// collections: locations, sensors, and measurements.
package reconcile

import (
	"log/slog"
	"sort"
	"time"

	"github.com/airqtools/airq/internal/domain"
	"github.com/airqtools/airq/internal/normalize"
	"github.com/airqtools/airq/internal/observability"
)

// Reconciler accumulates entities across batches. Lifecycle:
// construct → Ingest per batch → Finalize once. It is not safe for
// concurrent use; batches are ingested sequentially.
type Reconciler struct {
	logger  *slog.Logger
	metrics *observability.Metrics

	locations map[int]domain.Location
	sensors   map[int]domain.Sensor

	// seen tracks measurement ids across batches. Overlapping archive files
	// produce the same id; only the first occurrence is kept.
	seen         map[string]struct{}
	measurements []domain.Measurement

	locationConflicts     int
	sensorConflicts       int
	duplicateMeasurements int
}

// Snapshot is the finalized, export-ready state of a reconciliation run.
type Snapshot struct {
	Locations    []domain.Location
	Sensors      []domain.Sensor
	Measurements []domain.Measurement

	LocationConflicts     int
	SensorConflicts       int
	DuplicateMeasurements int
	FinalizedAt           time.Time
}

// New creates an empty Reconciler.
func New(logger *slog.Logger, metrics *observability.Metrics) *Reconciler {
	return &Reconciler{
		logger:    logger,
		metrics:   metrics,
		locations: make(map[int]domain.Location),
		sensors:   make(map[int]domain.Sensor),
		seen:      make(map[string]struct{}),
	}
}

// Ingest registers one batch of cleaned rows. For every row the location and
// sensor are registered before the measurement is appended, so within a
// batch referential integrity holds by construction.
func (r *Reconciler) Ingest(rows []normalize.Row) {
	for i := range rows {
		row := &rows[i]
		r.registerLocation(row)
		r.registerSensor(row)
		r.appendMeasurement(row)
	}
}

// registerLocation creates the location on first encounter. Later
// occurrences never mutate it; a differing name is counted as a conflict so
// data-quality drift is visible without changing the outcome.
func (r *Reconciler) registerLocation(row *normalize.Row) {
	if existing, ok := r.locations[row.LocationID]; ok {
		if existing.Name != row.LocationName {
			r.locationConflicts++
			r.metrics.EntityConflicts.WithLabelValues(observability.ConflictLocation).Inc()
			r.logger.Debug("location attributes differ from first occurrence",
				"location_id", row.LocationID,
				"kept", existing.Name,
				"ignored", row.LocationName,
			)
		}
		return
	}

	loc := domain.Location{
		LocationID: row.LocationID,
		Name:       row.LocationName,
	}
	if row.Latitude != nil && row.Longitude != nil {
		loc.Coordinates = &domain.Coordinates{
			Latitude:  *row.Latitude,
			Longitude: *row.Longitude,
		}
	}
	r.locations[row.LocationID] = loc
}

// registerSensor creates the sensor on first encounter; first-seen
// attributes win, differing recurrences are counted.
func (r *Reconciler) registerSensor(row *normalize.Row) {
	if existing, ok := r.sensors[row.SensorID]; ok {
		if existing.LocationID != row.LocationID ||
			existing.Parameter != row.Parameter ||
			existing.Unit != row.Unit {
			r.sensorConflicts++
			r.metrics.EntityConflicts.WithLabelValues(observability.ConflictSensor).Inc()
			r.logger.Debug("sensor attributes differ from first occurrence",
				"sensor_id", row.SensorID,
				"kept_parameter", existing.Parameter,
				"ignored_parameter", row.Parameter,
			)
		}
		return
	}

	r.sensors[row.SensorID] = domain.Sensor{
		SensorID:   row.SensorID,
		LocationID: row.LocationID,
		Parameter:  row.Parameter,
		Unit:       row.Unit,
	}
}

// appendMeasurement derives the measurement id and appends the record unless
// the id was already accumulated in an earlier batch.
func (r *Reconciler) appendMeasurement(row *normalize.Row) {
	id := domain.MeasurementID(row.LocationID, row.SensorID, row.Parameter, row.UTC, row.Value)
	if _, dup := r.seen[id]; dup {
		r.duplicateMeasurements++
		r.metrics.DuplicateMeasurements.Inc()
		return
	}
	r.seen[id] = struct{}{}

	r.measurements = append(r.measurements, domain.Measurement{
		MeasurementID: id,
		LocationID:    row.LocationID,
		SensorID:      row.SensorID,
		Parameter:     row.Parameter,
		Value:         row.Value,
		Date:          domain.UTCDate{UTC: row.UTC},
	})
}

// RunStatus is the point-in-time accumulation state, served by the ops
// endpoint while a run is in progress.
type RunStatus struct {
	Locations             int `json:"locations"`
	Sensors               int `json:"sensors"`
	Measurements          int `json:"measurements"`
	LocationConflicts     int `json:"locationConflicts"`
	SensorConflicts       int `json:"sensorConflicts"`
	DuplicateMeasurements int `json:"duplicateMeasurements"`
}

// Status returns the current accumulation counts.
func (r *Reconciler) Status() any {
	return RunStatus{
		Locations:             len(r.locations),
		Sensors:               len(r.sensors),
		Measurements:          len(r.measurements),
		LocationConflicts:     r.locationConflicts,
		SensorConflicts:       r.sensorConflicts,
		DuplicateMeasurements: r.duplicateMeasurements,
	}
}

// Finalize sorts locations and sensors by id for deterministic output and
// returns the completed snapshot. Measurements keep append order.
func (r *Reconciler) Finalize() Snapshot {
	locations := make([]domain.Location, 0, len(r.locations))
	for _, l := range r.locations {
		locations = append(locations, l)
	}
	sort.Slice(locations, func(i, j int) bool {
		return locations[i].LocationID < locations[j].LocationID
	})

	sensors := make([]domain.Sensor, 0, len(r.sensors))
	for _, s := range r.sensors {
		sensors = append(sensors, s)
	}
	sort.Slice(sensors, func(i, j int) bool {
		return sensors[i].SensorID < sensors[j].SensorID
	})

	snap := Snapshot{
		Locations:             locations,
		Sensors:               sensors,
		Measurements:          r.measurements,
		LocationConflicts:     r.locationConflicts,
		SensorConflicts:       r.sensorConflicts,
		DuplicateMeasurements: r.duplicateMeasurements,
		FinalizedAt:           domain.Now(),
	}

	r.logger.Info("reconciliation finalized",
		"locations", len(snap.Locations),
		"sensors", len(snap.Sensors),
		"measurements", len(snap.Measurements),
		"location_conflicts", snap.LocationConflicts,
		"sensor_conflicts", snap.SensorConflicts,
		"duplicate_measurements", snap.DuplicateMeasurements,
	)
	return snap
}
