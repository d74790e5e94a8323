// Package normalize cleans raw archive batches into standardized rows.
//
// The transform is pure and never aborts on a bad row: defects downgrade to
// drops, tracked in the Result counters. Only an entirely empty batch is
// reported to the caller (see ErrEmptyBatch).
package normalize

import (
	"sort"
	"strconv"

	"github.com/airqtools/airq/internal/domain"
)

// Row is a cleaned reading, ready for entity extraction. Latitude and
// Longitude stay nil when no value for the row's location could be
// recovered within the batch.
type Row struct {
	LocationID   int
	SensorID     int
	LocationName string
	Latitude     *float64
	Longitude    *float64
	Parameter    string
	Unit         string
	Value        float64
	UTC          string
}

// Result is the outcome of cleaning one batch.
type Result struct {
	Rows []Row

	Read                int
	DroppedMissing      int // missing or unparseable required field
	DroppedBadTimestamp int
	Deduplicated        int // within-batch duplicates discarded
	CoordinatesInferred int // rows whose lat/lon came from the group median
}

// dedupKey identifies a reading for within-batch deduplication. Value is
// deliberately excluded: two rows with the same key but different values
// still collapse, first occurrence wins.
type dedupKey struct {
	locationID int
	sensorID   int
	parameter  string
	utc        string
}

// CleanBatch standardizes one raw batch:
//
//  1. drop rows missing a required identifying field
//  2. drop rows whose timestamp does not parse
//  3. re-render timestamps as canonical UTC strings
//  4. deduplicate on (locationId, sensorId, parameter, utc), keeping the
//     first occurrence in batch order
//  5. fill missing coordinates with the per-location median within the batch
func CleanBatch(recs []RawRecord) Result {
	res := Result{Read: len(recs)}
	seen := make(map[dedupKey]struct{})

	for i := range recs {
		row, ok := parseRecord(&recs[i], &res)
		if !ok {
			continue
		}

		key := dedupKey{row.LocationID, row.SensorID, row.Parameter, row.UTC}
		if _, dup := seen[key]; dup {
			res.Deduplicated++
			continue
		}
		seen[key] = struct{}{}
		res.Rows = append(res.Rows, row)
	}

	fillCoordinates(&res)
	return res
}

// parseRecord validates and converts a single raw record. It returns false
// when the record is a row-level defect, after updating the drop counters.
func parseRecord(rec *RawRecord, res *Result) (Row, bool) {
	if rec.LocationID == "" || rec.SensorID == "" || rec.Datetime == "" ||
		rec.Parameter == "" || rec.Value == "" {
		res.DroppedMissing++
		return Row{}, false
	}

	locationID, err := strconv.Atoi(rec.LocationID)
	if err != nil {
		res.DroppedMissing++
		return Row{}, false
	}
	sensorID, err := strconv.Atoi(rec.SensorID)
	if err != nil {
		res.DroppedMissing++
		return Row{}, false
	}
	value, err := strconv.ParseFloat(rec.Value, 64)
	if err != nil {
		res.DroppedMissing++
		return Row{}, false
	}

	ts, err := domain.ParseTimestamp(rec.Datetime)
	if err != nil {
		res.DroppedBadTimestamp++
		return Row{}, false
	}

	return Row{
		LocationID:   locationID,
		SensorID:     sensorID,
		LocationName: rec.Location,
		Latitude:     parseCoord(rec.Lat),
		Longitude:    parseCoord(rec.Lon),
		Parameter:    rec.Parameter,
		Unit:         rec.Units,
		Value:        value,
		UTC:          domain.CanonicalUTC(ts),
	}, true
}

// parseCoord parses an optional coordinate; malformed values count as missing.
func parseCoord(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// fillCoordinates replaces missing lat/lon values with the median of the
// non-missing values for the same locationId within this batch. A location
// with no usable values at all keeps nil coordinates; there is no
// cross-batch or global fallback.
func fillCoordinates(res *Result) {
	lats := make(map[int][]float64)
	lons := make(map[int][]float64)
	for i := range res.Rows {
		r := &res.Rows[i]
		if r.Latitude != nil {
			lats[r.LocationID] = append(lats[r.LocationID], *r.Latitude)
		}
		if r.Longitude != nil {
			lons[r.LocationID] = append(lons[r.LocationID], *r.Longitude)
		}
	}

	for i := range res.Rows {
		r := &res.Rows[i]
		filled := false
		if r.Latitude == nil {
			if m, ok := median(lats[r.LocationID]); ok {
				r.Latitude = &m
				filled = true
			}
		}
		if r.Longitude == nil {
			if m, ok := median(lons[r.LocationID]); ok {
				r.Longitude = &m
				filled = true
			}
		}
		if filled {
			res.CoordinatesInferred++
		}
	}
}

// median returns the median of vs, averaging the two middle values for an
// even count. ok is false for an empty slice.
func median(vs []float64) (m float64, ok bool) {
	if len(vs) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(vs))
	copy(sorted, vs)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	return (sorted[mid-1] + sorted[mid]) / 2, true
}
