package store

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/airqtools/airq/internal/domain"
)

const loadBatchSize = 500

// locationRow is the locations table. Coordinates are flattened into
// nullable columns so a location without any usable coordinates stays null
// rather than defaulting to (0, 0).
type locationRow struct {
	LocationID int    `gorm:"column:location_id;primaryKey"`
	Name       string `gorm:"column:name"`
	Latitude   *float64
	Longitude  *float64
}

func (locationRow) TableName() string { return "locations" }

type sensorRow struct {
	SensorID   int    `gorm:"column:sensor_id;primaryKey"`
	LocationID int    `gorm:"column:location_id;index"`
	Parameter  string `gorm:"index"`
	Unit       string
}

func (sensorRow) TableName() string { return "sensors" }

// measurementRow carries a derived date_only column so day-bucketed
// aggregation queries can hit an index instead of substringing timestamps.
type measurementRow struct {
	MeasurementID string `gorm:"column:measurement_id;primaryKey"`
	LocationID    int    `gorm:"column:location_id;index"`
	SensorID      int    `gorm:"column:sensor_id;index"`
	Parameter     string `gorm:"index:idx_measurements_param_date"`
	Value         float64
	UTC           string `gorm:"column:utc"`
	DateOnly      string `gorm:"column:date_only;index:idx_measurements_param_date"`
}

func (measurementRow) TableName() string { return "measurements" }

// SQLite is the embedded document store for cleaned entities. It implements
// Loader, MeasurementSource, and UnitResolver.
type SQLite struct {
	db     *gorm.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at path and migrates
// the schema.
func OpenSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(&locationRow{}, &sensorRow{}, &measurementRow{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &SQLite{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLite) LoadLocations(ctx context.Context, locations []domain.Location) error {
	if len(locations) == 0 {
		return nil
	}
	rows := make([]locationRow, 0, len(locations))
	for _, l := range locations {
		row := locationRow{LocationID: l.LocationID, Name: l.Name}
		if l.Coordinates != nil {
			lat, lon := l.Coordinates.Latitude, l.Coordinates.Longitude
			row.Latitude, row.Longitude = &lat, &lon
		}
		rows = append(rows, row)
	}
	return s.insert(ctx, rows, "locations")
}

func (s *SQLite) LoadSensors(ctx context.Context, sensors []domain.Sensor) error {
	if len(sensors) == 0 {
		return nil
	}
	rows := make([]sensorRow, 0, len(sensors))
	for _, sn := range sensors {
		rows = append(rows, sensorRow{
			SensorID:   sn.SensorID,
			LocationID: sn.LocationID,
			Parameter:  sn.Parameter,
			Unit:       sn.Unit,
		})
	}
	return s.insert(ctx, rows, "sensors")
}

func (s *SQLite) LoadMeasurements(ctx context.Context, measurements []domain.Measurement) error {
	if len(measurements) == 0 {
		return nil
	}
	rows := make([]measurementRow, 0, len(measurements))
	for _, m := range measurements {
		rows = append(rows, measurementRow{
			MeasurementID: m.MeasurementID,
			LocationID:    m.LocationID,
			SensorID:      m.SensorID,
			Parameter:     m.Parameter,
			Value:         m.Value,
			UTC:           m.Date.UTC,
			DateOnly:      m.Day(),
		})
	}
	return s.insert(ctx, rows, "measurements")
}

// insert bulk-writes rows, silently skipping primary-key collisions so
// repeated loads stay idempotent.
func (s *SQLite) insert(ctx context.Context, rows any, table string) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, loadBatchSize).Error
	if err != nil {
		return fmt.Errorf("load %s: %w", table, err)
	}
	return nil
}

func (s *SQLite) Measurements(ctx context.Context, f Filter) ([]domain.Measurement, error) {
	q := s.db.WithContext(ctx).Model(&measurementRow{})
	if f.Parameter != "" {
		q = q.Where("parameter = ?", f.Parameter)
	}
	if len(f.LocationIDs) > 0 {
		q = q.Where("location_id IN ?", f.LocationIDs)
	}

	var rows []measurementRow
	if err := q.Order("utc, measurement_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query measurements: %w", err)
	}

	out := make([]domain.Measurement, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Measurement{
			MeasurementID: r.MeasurementID,
			LocationID:    r.LocationID,
			SensorID:      r.SensorID,
			Parameter:     r.Parameter,
			Value:         r.Value,
			Date:          domain.UTCDate{UTC: r.UTC},
		})
	}
	return out, nil
}

func (s *SQLite) SensorUnit(ctx context.Context, parameter string, locationID int) (string, error) {
	q := s.db.WithContext(ctx).Model(&sensorRow{}).Where("parameter = ?", parameter)
	if locationID != 0 {
		q = q.Where("location_id = ?", locationID)
	}

	var rows []sensorRow
	if err := q.Order("sensor_id").Limit(1).Find(&rows).Error; err != nil {
		return "", fmt.Errorf("query sensor unit: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].Unit, nil
}
