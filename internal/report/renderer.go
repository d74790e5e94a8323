// Package report turns aggregation result sets into chart-ready series
// files for downstream plotting.
package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gosimple/slug"

	"github.com/airqtools/airq/internal/analytics"
)

// Series is one plottable line or bar group: parallel label/value slices
// plus the unit annotation carried over from the query.
type Series struct {
	Name   string    `json:"name"`
	Unit   *string   `json:"unit"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Empty reports whether the series has nothing to plot.
func (s Series) Empty() bool { return len(s.Values) == 0 }

// Renderer consumes a series. Implementations must tolerate empty series
// by skipping them rather than failing.
type Renderer interface {
	Render(s Series) error
}

// SeriesWriter renders each series as a JSON file under dir, named after
// the slugified series name. Empty series are skipped with a log line.
type SeriesWriter struct {
	dir    string
	logger *slog.Logger
}

// NewSeriesWriter creates a SeriesWriter targeting dir.
func NewSeriesWriter(dir string, logger *slog.Logger) *SeriesWriter {
	return &SeriesWriter{dir: dir, logger: logger}
}

func (w *SeriesWriter) Render(s Series) error {
	if s.Empty() {
		w.logger.Info("skipping empty series", "name", s.Name)
		return nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create series dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode series %s: %w", s.Name, err)
	}
	path := filepath.Join(w.dir, slug.Make(s.Name)+".series.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write series %s: %w", path, err)
	}
	w.logger.Debug("wrote series", "path", path, "points", len(s.Values))
	return nil
}

// DailySeries converts per-day averages into one dated series.
func DailySeries(name string, rows []analytics.DailyAverageRow) Series {
	s := Series{Name: name}
	for _, r := range rows {
		s.Labels = append(s.Labels, r.Date)
		s.Values = append(s.Values, r.AvgValue)
		s.Unit = r.Unit
	}
	return s
}

// HotspotSeries converts a hotspot ranking into a location-labeled series.
func HotspotSeries(name string, rows []analytics.HotspotRow) Series {
	s := Series{Name: name}
	for _, r := range rows {
		s.Labels = append(s.Labels, fmt.Sprintf("location %d", r.LocationID))
		s.Values = append(s.Values, r.AvgValue)
		s.Unit = r.Unit
	}
	return s
}

// ExceedanceSeries converts threshold exceedances into a dated series of
// daily averages.
func ExceedanceSeries(name string, rows []analytics.ExceedanceRow) Series {
	s := Series{Name: name}
	for _, r := range rows {
		s.Labels = append(s.Labels, r.Date)
		s.Values = append(s.Values, r.DailyAvg)
		s.Unit = r.Unit
	}
	return s
}

// UptimeSeries converts sensor uptime rows into a reading-count series.
func UptimeSeries(name string, rows []analytics.UptimeRow) Series {
	s := Series{Name: name}
	for _, r := range rows {
		s.Labels = append(s.Labels, fmt.Sprintf("sensor %d", r.SensorID))
		s.Values = append(s.Values, float64(r.TotalReadings))
	}
	return s
}

// CompareSeries splits a cross-location comparison into one dated series
// per location, in first-appearance order.
func CompareSeries(name string, rows []analytics.CompareRow) []Series {
	byLocation := make(map[int]*Series)
	var order []int
	for _, r := range rows {
		s, ok := byLocation[r.LocationID]
		if !ok {
			s = &Series{Name: fmt.Sprintf("%s location %d", name, r.LocationID), Unit: r.Unit}
			byLocation[r.LocationID] = s
			order = append(order, r.LocationID)
		}
		s.Labels = append(s.Labels, r.Date)
		s.Values = append(s.Values, r.AvgValue)
	}

	out := make([]Series, 0, len(order))
	for _, id := range order {
		out = append(out, *byLocation[id])
	}
	return out
}

// GlobalSeries converts pooled daily averages into one dated series.
func GlobalSeries(name string, rows []analytics.GlobalDailyRow) Series {
	s := Series{Name: name}
	for _, r := range rows {
		s.Labels = append(s.Labels, r.Date)
		s.Values = append(s.Values, r.AvgValue)
		s.Unit = r.Unit
	}
	return s
}
