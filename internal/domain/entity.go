package domain

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is a monitoring site. Coordinates is nil when no row for the
// location carried usable lat/lon values.
type Location struct {
	LocationID  int          `json:"locationId"`
	Name        string       `json:"location"`
	Coordinates *Coordinates `json:"coordinates"`
}

// Sensor is one measuring instrument at a location. A sensor reports a
// single parameter in a single unit.
type Sensor struct {
	SensorID   int    `json:"sensorId"`
	LocationID int    `json:"locationId"`
	Parameter  string `json:"parameter"`
	Unit       string `json:"unit"`
}

// UTCDate wraps the canonical UTC timestamp string. The nesting mirrors the
// stored document shape ({"date": {"utc": ...}}).
type UTCDate struct {
	UTC string `json:"utc"`
}

// Measurement is a single normalized reading.
type Measurement struct {
	MeasurementID string  `json:"measurementId"`
	LocationID    int     `json:"locationId"`
	SensorID      int     `json:"sensorId"`
	Parameter     string  `json:"parameter"`
	Value         float64 `json:"value"`
	Date          UTCDate `json:"date"`
}

// Day returns the measurement's UTC calendar day (YYYY-MM-DD).
func (m *Measurement) Day() string {
	return DayOf(m.Date.UTC)
}
