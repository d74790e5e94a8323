package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all settings, populated from environment variables.
type Config struct {
	RawDir     string
	CleanDir   string
	ResultsDir string
	DBPath     string

	// Archive fetch.
	ArchiveBaseURL string
	ArchiveTimeout time.Duration
	LocationIDs    []int
	Years          []int

	// Analytics parameters.
	Parameter          string
	HotspotMinReadings int
	SafeLimit          float64
	CompareLocationIDs []int

	// Optional sinks and surfaces.
	KafkaBrokers []string
	KafkaTopic   string
	HTTPAddr     string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	locationIDs, err := parseIntList(envOrDefault("LOCATION_IDS", "749,8132,746"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOCATION_IDS: %w", err)
	}

	years, err := parseIntList(envOrDefault("YEARS", "2015,2016,2017,2018,2019,2020"))
	if err != nil {
		return nil, fmt.Errorf("invalid YEARS: %w", err)
	}

	compareIDs, err := parseIntList(envOrDefault("COMPARE_LOCATION_IDS", "749,8132"))
	if err != nil {
		return nil, fmt.Errorf("invalid COMPARE_LOCATION_IDS: %w", err)
	}

	archiveTimeout, err := time.ParseDuration(envOrDefault("ARCHIVE_TIMEOUT", "60s"))
	if err != nil || archiveTimeout <= 0 {
		return nil, errors.New("invalid ARCHIVE_TIMEOUT")
	}

	minReadings, err := strconv.Atoi(envOrDefault("HOTSPOT_MIN_READINGS", "24"))
	if err != nil || minReadings < 1 {
		return nil, errors.New("invalid HOTSPOT_MIN_READINGS")
	}

	safeLimit, err := strconv.ParseFloat(envOrDefault("SAFE_LIMIT", "25"), 64)
	if err != nil {
		return nil, errors.New("invalid SAFE_LIMIT")
	}

	cfg := &Config{
		RawDir:     envOrDefault("RAW_DIR", "data_raw"),
		CleanDir:   envOrDefault("CLEAN_DIR", "data_clean"),
		ResultsDir: envOrDefault("RESULTS_DIR", "results"),
		DBPath:     envOrDefault("DB_PATH", "air_quality.db"),

		ArchiveBaseURL: envOrDefault("ARCHIVE_BASE_URL", "https://openaq-data-archive.s3.amazonaws.com"),
		ArchiveTimeout: archiveTimeout,
		LocationIDs:    locationIDs,
		Years:          years,

		Parameter:          envOrDefault("PARAMETER", "pm25"),
		HotspotMinReadings: minReadings,
		SafeLimit:          safeLimit,
		CompareLocationIDs: compareIDs,

		KafkaBrokers: parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "air-quality-measurements"),
		HTTPAddr:     os.Getenv("HTTP_ADDR"),

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),
	}

	if len(cfg.LocationIDs) == 0 {
		return nil, errors.New("LOCATION_IDS is required")
	}
	if len(cfg.Years) == 0 {
		return nil, errors.New("YEARS is required")
	}
	if cfg.Parameter == "" {
		return nil, errors.New("PARAMETER is required")
	}
	if len(cfg.CompareLocationIDs) != 2 {
		return nil, errors.New("COMPARE_LOCATION_IDS must name exactly two locations")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_TOPIC is empty")
	}

	return cfg, nil
}

// KafkaEnabled reports whether the optional measurement publisher is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseIntList(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", part)
		}
		out = append(out, n)
	}
	return out, nil
}
