// Package domain models OpenAQ air-quality archive data.
//
// # Data Source
//
// Readings originate from the OpenAQ S3 data archive
// (s3://openaq-data-archive), which publishes one gzipped CSV per location
// per day under records/csv.gz/locationid=<id>/year=<year>/month=<mm>/.
// Each CSV row carries the columns:
//
//	location_id, sensors_id, location, datetime, lat, lon, parameter, units, value
//
// Column names are fixed; values may be missing or malformed. The archive
// overlaps across exports, so the same reading can appear in more than one
// file.
//
// # Timestamps
//
// Source timestamps are ISO-8601 with a local UTC offset, e.g.
// "2020-01-01T01:00:00-07:00". After normalization every timestamp is stored
// in exactly one form, the canonical UTC string:
//
//	YYYY-MM-DDTHH:MM:SSZ
//
// Seconds precision, always a "Z" suffix, never fractional seconds or an
// offset. Daily aggregations rely on this fixed width: the calendar day is
// the first 10 characters of the canonical string. See [CanonicalUTC].
//
// # Entities
//
// Three record kinds come out of normalization:
//
//	Location    — keyed by locationId, coordinates may be null
//	Sensor      — keyed by sensorId, carries parameter code and unit
//	Measurement — keyed by a derived measurementId, append-only
//
// Locations and sensors keep their first-seen attributes; later occurrences
// of the same id never mutate them.
//
// # ID Generation
//
// Measurement IDs are deterministic: "m_" plus the first 12 hex characters
// of the SHA-1 digest of locationId|sensorId|parameter|utc|value. Identical
// inputs always produce the identical id, so reprocessing the same archive
// files yields the same ids instead of duplicates, and downstream loads can
// upsert safely. See [MeasurementID].
package domain
