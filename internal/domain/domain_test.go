package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasurementID(t *testing.T) {
	t.Run("has type tag and fixed length", func(t *testing.T) {
		id := MeasurementID(749, 3917, "pm25", "2016-03-06T19:00:00Z", 4.9)
		assert.True(t, strings.HasPrefix(id, "m_"))
		assert.Len(t, id, 2+12)
	})

	t.Run("deterministic", func(t *testing.T) {
		id1 := MeasurementID(749, 3917, "pm25", "2016-03-06T19:00:00Z", 4.9)
		id2 := MeasurementID(749, 3917, "pm25", "2016-03-06T19:00:00Z", 4.9)
		assert.Equal(t, id1, id2)
	})

	t.Run("changing any field changes the id", func(t *testing.T) {
		base := MeasurementID(749, 3917, "pm25", "2016-03-06T19:00:00Z", 4.9)

		variants := []string{
			MeasurementID(746, 3917, "pm25", "2016-03-06T19:00:00Z", 4.9),
			MeasurementID(749, 3918, "pm25", "2016-03-06T19:00:00Z", 4.9),
			MeasurementID(749, 3917, "pm10", "2016-03-06T19:00:00Z", 4.9),
			MeasurementID(749, 3917, "pm25", "2016-03-06T20:00:00Z", 4.9),
			MeasurementID(749, 3917, "pm25", "2016-03-06T19:00:00Z", 5.0),
		}
		for _, v := range variants {
			assert.NotEqual(t, base, v)
		}
	})
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"negative offset", "2020-01-01T01:00:00-07:00", false},
		{"positive offset", "2017-06-01T09:30:00+02:00", false},
		{"already UTC", "2016-03-06T19:00:00Z", false},
		{"date only", "2020-01-01", true},
		{"garbage", "not-a-time", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTimestamp(tt.input)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCanonicalUTC(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"offset converted to UTC", "2020-01-01T01:00:00-07:00", "2020-01-01T08:00:00Z"},
		{"crosses midnight", "2015-12-31T20:00:00-05:00", "2016-01-01T01:00:00Z"},
		{"already UTC unchanged", "2016-03-06T19:00:00Z", "2016-03-06T19:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, CanonicalUTC(parsed))
		})
	}
}

func TestDayOf(t *testing.T) {
	assert.Equal(t, "2016-03-06", DayOf("2016-03-06T19:00:00Z"))
	assert.Equal(t, "short", DayOf("short"))
	assert.Equal(t, "", DayOf(""))
}

func TestMeasurementDay(t *testing.T) {
	m := Measurement{Date: UTCDate{UTC: "2020-01-01T08:00:00Z"}}
	assert.Equal(t, "2020-01-01", m.Day())
}

func TestSetClock(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	defer SetClock(nil)

	assert.Equal(t, fixed, Now())

	SetClock(nil)
	assert.True(t, time.Since(Now()) < time.Second)
}
