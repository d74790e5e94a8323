package reconcile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/airqtools/airq/internal/domain"
)

// Entity file names under the clean-data directory. One JSON object per line.
const (
	LocationsFile    = "locations.json"
	SensorsFile      = "sensors.json"
	MeasurementsFile = "measurements.json"
)

// WriteSnapshot serializes the three entity collections as newline-delimited
// JSON files under dir, creating it if needed.
func WriteSnapshot(dir string, snap Snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create clean dir: %w", err)
	}

	if err := writeNDJSON(filepath.Join(dir, LocationsFile), snap.Locations); err != nil {
		return err
	}
	if err := writeNDJSON(filepath.Join(dir, SensorsFile), snap.Sensors); err != nil {
		return err
	}
	return writeNDJSON(filepath.Join(dir, MeasurementsFile), snap.Measurements)
}

// ReadSnapshot loads a previously exported snapshot back from dir. Conflict
// counters are not persisted and come back zero.
func ReadSnapshot(dir string) (Snapshot, error) {
	var snap Snapshot

	locations, err := readNDJSON[domain.Location](filepath.Join(dir, LocationsFile))
	if err != nil {
		return Snapshot{}, err
	}
	sensors, err := readNDJSON[domain.Sensor](filepath.Join(dir, SensorsFile))
	if err != nil {
		return Snapshot{}, err
	}
	measurements, err := readNDJSON[domain.Measurement](filepath.Join(dir, MeasurementsFile))
	if err != nil {
		return Snapshot{}, err
	}

	snap.Locations = locations
	snap.Sensors = sensors
	snap.Measurements = measurements
	return snap, nil
}

func writeNDJSON[T any](path string, docs []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range docs {
		if err := enc.Encode(docs[i]); err != nil {
			return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readNDJSON[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var docs []T
	dec := json.NewDecoder(bufio.NewReader(f))
	for dec.More() {
		var doc T
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
