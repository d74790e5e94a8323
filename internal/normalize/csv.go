package normalize

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrEmptyBatch reports a batch with no data rows. Callers skip the batch
// and continue; it is not a row-level defect and not retried.
var ErrEmptyBatch = errors.New("batch contains no data rows")

// RawRecord is one unparsed CSV row keyed by the archive's fixed column set.
// Values may be empty or malformed; CleanBatch decides what survives.
type RawRecord struct {
	LocationID string
	SensorID   string
	Location   string
	Datetime   string
	Lat        string
	Lon        string
	Parameter  string
	Units      string
	Value      string
}

// archiveColumns are the fixed column names of an OpenAQ archive export.
// Heterogeneous headers are not handled; a missing column leaves its field
// empty on every record, and those rows fall out during cleaning.
var archiveColumns = []string{
	"location_id", "sensors_id", "location", "datetime",
	"lat", "lon", "parameter", "units", "value",
}

// ReadBatch parses one raw CSV batch into records. It returns ErrEmptyBatch
// when the file has a header but no rows, or no content at all.
func ReadBatch(r io.Reader) ([]RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrEmptyBatch
	}

	colIdx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		colIdx[strings.TrimSpace(h)] = i
	}

	recs := make([]RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		get := func(col string) string {
			i, ok := colIdx[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		recs = append(recs, RawRecord{
			LocationID: get(archiveColumns[0]),
			SensorID:   get(archiveColumns[1]),
			Location:   get(archiveColumns[2]),
			Datetime:   get(archiveColumns[3]),
			Lat:        get(archiveColumns[4]),
			Lon:        get(archiveColumns[5]),
			Parameter:  get(archiveColumns[6]),
			Units:      get(archiveColumns[7]),
			Value:      get(archiveColumns[8]),
		})
	}
	return recs, nil
}

// File reads and cleans a single raw CSV batch from disk.
func File(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open batch: %w", err)
	}
	defer f.Close()

	recs, err := ReadBatch(f)
	if err != nil {
		return Result{}, err
	}
	return CleanBatch(recs), nil
}
