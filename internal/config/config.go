package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	LogLevel        string
	LogFormat       string
	HTTPAddr        string
	ServeAfterRun   bool
	ShutdownTimeout time.Duration

	// Forecast request.
	ForecastDays     int
	ForecastTimezone string
	Catalog          Catalog

	// Fetch fan-out and resilience.
	FetchTimeout     time.Duration
	FetchConcurrency int
	FetchMaxRetries  int
	FetchRateLimit   float64

	// Report artifacts.
	OutputDir      string
	XLSXEnabled    bool
	ParquetEnabled bool

	// Object storage; artifacts go to S3Bucket instead of OutputDir when S3Endpoint is set.
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool

	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	PushgatewayURL string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is read first if present;
// it never overrides variables already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	days, err := parseIntInRange("FORECAST_DAYS", 7, 1, 16)
	if err != nil {
		return nil, err
	}
	concurrency, err := parseIntInRange("FETCH_CONCURRENCY", 4, 1, 64)
	if err != nil {
		return nil, err
	}
	retries, err := parseIntInRange("FETCH_MAX_RETRIES", 2, 0, 10)
	if err != nil {
		return nil, err
	}
	rateLimit, err := parseRate("FETCH_RATE_LIMIT", 5)
	if err != nil {
		return nil, err
	}

	timezone := sharedcfg.EnvOrDefault("FORECAST_TIMEZONE", "Europe/Warsaw")
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("invalid FORECAST_TIMEZONE: %w", err)
	}

	catalog, err := LoadCatalog(os.Getenv("CATALOG_FILE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		ServeAfterRun:   os.Getenv("SERVE_AFTER_RUN") == "true",
		ShutdownTimeout: shutdownTimeout,

		ForecastDays:     days,
		ForecastTimezone: timezone,
		Catalog:          catalog,

		FetchTimeout:     fetchTimeout,
		FetchConcurrency: concurrency,
		FetchMaxRetries:  retries,
		FetchRateLimit:   rateLimit,

		OutputDir:      sharedcfg.EnvOrDefault("OUTPUT_DIR", "reports"),
		XLSXEnabled:    os.Getenv("XLSX_ENABLED") == "true",
		ParquetEnabled: os.Getenv("PARQUET_ENABLED") == "true",

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    sharedcfg.EnvOrDefault("S3_BUCKET", "forecast-reports"),
		S3Region:    sharedcfg.EnvOrDefault("S3_REGION", "us-east-1"),
		S3UseSSL:    os.Getenv("S3_USE_SSL") == "true",

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "forecast-dayparts"),

		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
	}

	if cfg.ServeAfterRun && cfg.HTTPAddr == "" {
		return nil, errors.New("SERVE_AFTER_RUN is true but HTTP_ADDR is not set")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
		}
	}
	if cfg.S3Endpoint != "" && (cfg.S3AccessKey == "" || cfg.S3SecretKey == "") {
		return nil, errors.New("S3_ENDPOINT is set but S3_ACCESS_KEY or S3_SECRET_KEY is missing")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseIntInRange(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be an integer in [%d, %d]", key, lo, hi)
	}
	return n, nil
}

func parseRate(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive number", key)
	}
	return v, nil
}
