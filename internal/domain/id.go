package domain

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic use: short stable identifiers
	"encoding/hex"
	"fmt"
)

// measurementIDHexLen is the digest prefix length: 12 hex chars = 48 bits,
// collision-free in practice at archive scale (millions of readings).
const measurementIDHexLen = 12

// MeasurementID derives a deterministic identifier from a measurement's key
// fields. The same inputs always produce the same id, which makes
// re-ingestion idempotent: overlapping archive files collapse onto one
// record instead of duplicating it.
func MeasurementID(locationID, sensorID int, parameter, utc string, value float64) string {
	key := fmt.Sprintf("%d|%d|%s|%s|%g", locationID, sensorID, parameter, utc, value)
	sum := sha1.Sum([]byte(key)) //nolint:gosec
	return "m_" + hex.EncodeToString(sum[:])[:measurementIDHexLen]
}
