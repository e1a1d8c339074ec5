package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	SoundingPath       string
	SoundingHeaderRows int
	OutputPath         string
	ChartWidth         float64 // inches
	ChartHeight        float64 // inches

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	TracingEnabled  bool

	// Kafka publishing is disabled when KafkaBrokers is empty.
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// KafkaEnabled reports whether analyses should be published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// ServeHTTP reports whether the HTTP server should be started.
func (c *Config) ServeHTTP() bool {
	return c.HTTPAddr != ""
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	headerRows, err := parseInt("SOUNDING_HEADER_ROWS", 5)
	if err != nil {
		return nil, err
	}
	if headerRows < 0 {
		return nil, errors.New("invalid SOUNDING_HEADER_ROWS: must not be negative")
	}

	width, err := parseInches("CHART_WIDTH", 9)
	if err != nil {
		return nil, err
	}
	height, err := parseInches("CHART_HEIGHT", 9)
	if err != nil {
		return nil, err
	}

	tracing, err := strconv.ParseBool(sharedcfg.EnvOrDefault("TRACING_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRACING_ENABLED: %w", err)
	}

	cfg := &Config{
		SoundingPath:       sharedcfg.EnvOrDefault("SOUNDING_PATH", "data/may4_sounding.txt"),
		SoundingHeaderRows: headerRows,
		OutputPath:         envOrDefault("OUTPUT_PATH", "skewt.png"),
		ChartWidth:         width,
		ChartHeight:        height,
		HTTPAddr:           os.Getenv("HTTP_ADDR"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		TracingEnabled:     tracing,
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "sounding-analyses"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); strings.TrimSpace(brokers) != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if cfg.SoundingPath == "" {
		return nil, errors.New("SOUNDING_PATH is required")
	}
	if cfg.OutputPath != "" {
		switch strings.ToLower(filepath.Ext(cfg.OutputPath)) {
		case ".png", ".svg", ".pdf", ".jpg", ".jpeg":
		default:
			return nil, fmt.Errorf("invalid OUTPUT_PATH %q: extension must be png, svg, pdf or jpg", cfg.OutputPath)
		}
	}
	if cfg.KafkaEnabled() && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// envOrDefault is like sharedcfg.EnvOrDefault but honours an explicitly empty value.
func envOrDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseInches(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive number of inches", key)
	}
	return v, nil
}
