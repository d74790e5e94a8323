package store

import (
	"context"
	"sort"

	"github.com/airqtools/airq/internal/domain"
)

// Memory is an in-memory store used by tests and small ad-hoc runs. It
// implements Loader, MeasurementSource, and UnitResolver with the same
// first-wins semantics as the SQLite store.
type Memory struct {
	locations    map[int]domain.Location
	sensors      map[int]domain.Sensor
	measurements []domain.Measurement
	seen         map[string]struct{}
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		locations: make(map[int]domain.Location),
		sensors:   make(map[int]domain.Sensor),
		seen:      make(map[string]struct{}),
	}
}

func (s *Memory) LoadLocations(_ context.Context, locations []domain.Location) error {
	for _, l := range locations {
		if _, ok := s.locations[l.LocationID]; !ok {
			s.locations[l.LocationID] = l
		}
	}
	return nil
}

func (s *Memory) LoadSensors(_ context.Context, sensors []domain.Sensor) error {
	for _, sn := range sensors {
		if _, ok := s.sensors[sn.SensorID]; !ok {
			s.sensors[sn.SensorID] = sn
		}
	}
	return nil
}

func (s *Memory) LoadMeasurements(_ context.Context, measurements []domain.Measurement) error {
	for _, m := range measurements {
		if _, ok := s.seen[m.MeasurementID]; ok {
			continue
		}
		s.seen[m.MeasurementID] = struct{}{}
		s.measurements = append(s.measurements, m)
	}
	return nil
}

func (s *Memory) Measurements(_ context.Context, f Filter) ([]domain.Measurement, error) {
	var out []domain.Measurement
	for i := range s.measurements {
		if f.Matches(&s.measurements[i]) {
			out = append(out, s.measurements[i])
		}
	}
	return out, nil
}

func (s *Memory) SensorUnit(_ context.Context, parameter string, locationID int) (string, error) {
	ids := make([]int, 0, len(s.sensors))
	for id := range s.sensors {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		sn := s.sensors[id]
		if sn.Parameter != parameter {
			continue
		}
		if locationID != 0 && sn.LocationID != locationID {
			continue
		}
		return sn.Unit, nil
	}
	return "", nil
}
