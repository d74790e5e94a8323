package domain

import "time"

// canonicalLayout renders the one permitted stored timestamp form:
// seconds precision, always "Z", no fractional seconds or offset notation.
const canonicalLayout = "2006-01-02T15:04:05Z"

// ParseTimestamp parses a raw archive timestamp. Source values are ISO-8601
// with an offset ("2020-01-01T01:00:00-07:00"); anything time.RFC3339
// rejects is a row-level defect for the caller to drop.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// CanonicalUTC converts an instant to the canonical UTC string.
func CanonicalUTC(t time.Time) string {
	return t.UTC().Format(canonicalLayout)
}

// DayOf truncates a canonical UTC string to its calendar day (YYYY-MM-DD).
// This is exact only because CanonicalUTC guarantees the fixed-width form.
func DayOf(utc string) string {
	if len(utc) < 10 {
		return utc
	}
	return utc[:10]
}
