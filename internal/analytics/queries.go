package analytics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/airqtools/airq/internal/domain"
	"github.com/airqtools/airq/internal/store"
)

// Engine runs the named analytics against a measurement source. Every query
// is read-only, tolerates empty match sets, and annotates its rows with the
// parameter and a best-effort unit lookup (null when no sensor matches).
type Engine struct {
	source store.MeasurementSource
	units  store.UnitResolver
	logger *slog.Logger
}

// NewEngine creates an Engine over the given store.
func NewEngine(source store.MeasurementSource, units store.UnitResolver, logger *slog.Logger) *Engine {
	return &Engine{source: source, units: units, logger: logger}
}

// DailyAverageRow summarizes one calendar day at one location.
type DailyAverageRow struct {
	Date      string  `json:"date"`
	AvgValue  float64 `json:"avgValue"`
	MinValue  float64 `json:"minValue"`
	MaxValue  float64 `json:"maxValue"`
	Count     int     `json:"count"`
	Parameter string  `json:"parameter"`
	Unit      *string `json:"unit"`
}

// HotspotRow ranks one location by its overall average value.
type HotspotRow struct {
	LocationID int     `json:"locationId"`
	AvgValue   float64 `json:"avgValue"`
	MaxValue   float64 `json:"maxValue"`
	Readings   int     `json:"readings"`
	Parameter  string  `json:"parameter"`
	Unit       *string `json:"unit"`
}

// ExceedanceRow is one day whose daily average exceeded the safe limit.
type ExceedanceRow struct {
	Date      string  `json:"date"`
	DailyAvg  float64 `json:"dailyAvg"`
	Readings  int     `json:"readings"`
	Parameter string  `json:"parameter"`
	Unit      *string `json:"unit"`
}

// UptimeRow reports the reading volume and coverage window of one sensor.
type UptimeRow struct {
	SensorID      int     `json:"sensorId"`
	TotalReadings int     `json:"totalReadings"`
	FirstReading  string  `json:"firstReading"`
	LastReading   string  `json:"lastReading"`
	Parameter     string  `json:"parameter"`
	Unit          *string `json:"unit"`
}

// CompareRow is one (location, day) cell of a cross-location comparison.
type CompareRow struct {
	LocationID int     `json:"locationId"`
	Date       string  `json:"date"`
	AvgValue   float64 `json:"avgValue"`
	MinValue   float64 `json:"minValue"`
	MaxValue   float64 `json:"maxValue"`
	Count      int     `json:"count"`
	Parameter  string  `json:"parameter"`
	Unit       *string `json:"unit"`
}

// GlobalDailyRow summarizes one calendar day pooled across all locations.
type GlobalDailyRow struct {
	Date      string  `json:"date"`
	AvgValue  float64 `json:"avgValue"`
	MinValue  float64 `json:"minValue"`
	MaxValue  float64 `json:"maxValue"`
	Count     int     `json:"count"`
	Parameter string  `json:"parameter"`
	Unit      *string `json:"unit"`
}

// DailyAverage computes per-day avg/min/max/count for one parameter at one
// location, ordered by date ascending.
func (e *Engine) DailyAverage(ctx context.Context, parameter string, locationID int) ([]DailyAverageRow, error) {
	groups, err := e.run(ctx, store.Filter{Parameter: parameter, LocationIDs: []int{locationID}}, Pipeline{
		Key:  func(m *domain.Measurement) Key { return Key{Date: m.Day()} },
		Less: func(a, b *Group) bool { return a.Key.Date < b.Key.Date },
	})
	if err != nil {
		return nil, err
	}
	unit := e.resolveUnit(ctx, parameter, locationID)

	rows := make([]DailyAverageRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, DailyAverageRow{
			Date:      g.Key.Date,
			AvgValue:  g.Avg(),
			MinValue:  g.Min,
			MaxValue:  g.Max,
			Count:     g.Count,
			Parameter: parameter,
			Unit:      unit,
		})
	}
	return rows, nil
}

// Hotspots ranks locations by average value, highest first, keeping only
// those with at least minReadings readings.
func (e *Engine) Hotspots(ctx context.Context, parameter string, minReadings int) ([]HotspotRow, error) {
	groups, err := e.run(ctx, store.Filter{Parameter: parameter}, Pipeline{
		Key:    func(m *domain.Measurement) Key { return Key{LocationID: m.LocationID} },
		Having: func(g *Group) bool { return g.Count >= minReadings },
		Less: func(a, b *Group) bool {
			if a.Avg() != b.Avg() {
				return a.Avg() > b.Avg()
			}
			return a.Key.LocationID < b.Key.LocationID
		},
	})
	if err != nil {
		return nil, err
	}
	unit := e.resolveUnit(ctx, parameter, 0)

	rows := make([]HotspotRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, HotspotRow{
			LocationID: g.Key.LocationID,
			AvgValue:   g.Avg(),
			MaxValue:   g.Max,
			Readings:   g.Count,
			Parameter:  parameter,
			Unit:       unit,
		})
	}
	return rows, nil
}

// DaysExceedingThreshold lists the days at one location whose daily average
// exceeded safeLimit, ordered by date ascending.
func (e *Engine) DaysExceedingThreshold(ctx context.Context, parameter string, locationID int, safeLimit float64) ([]ExceedanceRow, error) {
	groups, err := e.run(ctx, store.Filter{Parameter: parameter, LocationIDs: []int{locationID}}, Pipeline{
		Key:    func(m *domain.Measurement) Key { return Key{Date: m.Day()} },
		Having: func(g *Group) bool { return g.Avg() > safeLimit },
		Less:   func(a, b *Group) bool { return a.Key.Date < b.Key.Date },
	})
	if err != nil {
		return nil, err
	}
	unit := e.resolveUnit(ctx, parameter, locationID)

	rows := make([]ExceedanceRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, ExceedanceRow{
			Date:      g.Key.Date,
			DailyAvg:  g.Avg(),
			Readings:  g.Count,
			Parameter: parameter,
			Unit:      unit,
		})
	}
	return rows, nil
}

// SensorUptime reports per-sensor reading counts and first/last reading
// timestamps, busiest sensor first.
func (e *Engine) SensorUptime(ctx context.Context, parameter string) ([]UptimeRow, error) {
	groups, err := e.run(ctx, store.Filter{Parameter: parameter}, Pipeline{
		Key: func(m *domain.Measurement) Key { return Key{SensorID: m.SensorID} },
		Less: func(a, b *Group) bool {
			if a.Count != b.Count {
				return a.Count > b.Count
			}
			return a.Key.SensorID < b.Key.SensorID
		},
	})
	if err != nil {
		return nil, err
	}
	unit := e.resolveUnit(ctx, parameter, 0)

	rows := make([]UptimeRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, UptimeRow{
			SensorID:      g.Key.SensorID,
			TotalReadings: g.Count,
			FirstReading:  g.FirstUTC,
			LastReading:   g.LastUTC,
			Parameter:     parameter,
			Unit:          unit,
		})
	}
	return rows, nil
}

// CompareLocationsDaily computes per-day statistics for each of the given
// locations, ordered by date then location id.
func (e *Engine) CompareLocationsDaily(ctx context.Context, parameter string, locationIDs []int) ([]CompareRow, error) {
	groups, err := e.run(ctx, store.Filter{Parameter: parameter, LocationIDs: locationIDs}, Pipeline{
		Key: func(m *domain.Measurement) Key {
			return Key{LocationID: m.LocationID, Date: m.Day()}
		},
		Less: func(a, b *Group) bool {
			if a.Key.Date != b.Key.Date {
				return a.Key.Date < b.Key.Date
			}
			return a.Key.LocationID < b.Key.LocationID
		},
	})
	if err != nil {
		return nil, err
	}
	unit := e.resolveUnit(ctx, parameter, 0)

	rows := make([]CompareRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, CompareRow{
			LocationID: g.Key.LocationID,
			Date:       g.Key.Date,
			AvgValue:   g.Avg(),
			MinValue:   g.Min,
			MaxValue:   g.Max,
			Count:      g.Count,
			Parameter:  parameter,
			Unit:       unit,
		})
	}
	return rows, nil
}

// GlobalDailyAverage computes per-day statistics pooled across every
// location, ordered by date ascending.
func (e *Engine) GlobalDailyAverage(ctx context.Context, parameter string) ([]GlobalDailyRow, error) {
	groups, err := e.run(ctx, store.Filter{Parameter: parameter}, Pipeline{
		Key:  func(m *domain.Measurement) Key { return Key{Date: m.Day()} },
		Less: func(a, b *Group) bool { return a.Key.Date < b.Key.Date },
	})
	if err != nil {
		return nil, err
	}
	unit := e.resolveUnit(ctx, parameter, 0)

	rows := make([]GlobalDailyRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, GlobalDailyRow{
			Date:      g.Key.Date,
			AvgValue:  g.Avg(),
			MinValue:  g.Min,
			MaxValue:  g.Max,
			Count:     g.Count,
			Parameter: parameter,
			Unit:      unit,
		})
	}
	return rows, nil
}

// run fetches the matching measurements and executes the pipeline.
func (e *Engine) run(ctx context.Context, f store.Filter, p Pipeline) ([]Group, error) {
	measurements, err := e.source.Measurements(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("fetch measurements: %w", err)
	}
	return Run(measurements, p), nil
}

// resolveUnit looks up the unit for the parameter and returns nil when no
// sensor matches. Lookup failures degrade to null rather than failing the
// query; the unit is an annotation, not a computed statistic.
func (e *Engine) resolveUnit(ctx context.Context, parameter string, locationID int) *string {
	unit, err := e.units.SensorUnit(ctx, parameter, locationID)
	if err != nil {
		e.logger.Warn("unit lookup failed", "parameter", parameter, "error", err)
		return nil
	}
	if unit == "" {
		return nil
	}
	return &unit
}
