package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/smhi-observations/internal/weather"
	"github.com/i474232898/smhi-observations/internal/weather/providers"
)

var validate = validator.New()

type AppConfig struct {
	AppEnv   string     `validate:"oneof=dev prod"`
	LogLevel slog.Level `validate:"-"`

	// Upstream API.
	BaseURL     string `validate:"required,url"`
	Format      string
	ParameterID string `validate:"required,numeric"`

	HTTPTimeout time.Duration `validate:"gt=0"`

	// FetchWorkers bounds concurrent station requests.
	FetchWorkers    int `validate:"min=1,max=64"`
	FetchMaxRetries int `validate:"min=0,max=10"`

	// WatchInterval controls how often --watch recomputes the extremes.
	WatchInterval time.Duration `validate:"gte=1m"`

	Port string `validate:"required,numeric"`

	// Optional MQTT sink for watch results; empty broker disables it.
	MQTTBroker   string `validate:"omitempty,url"`
	MQTTTopic    string `validate:"required"`
	MQTTClientID string `validate:"required"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}
	cfg := &AppConfig{}

	cfg.AppEnv = getenvDefault("APP_ENV", "dev")

	level, err := parseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	cfg.BaseURL = strings.TrimRight(getenvDefault("SMHI_BASE_URL", providers.DefaultSMHIBaseURL), "/")
	cfg.Format = getenvDefault("SMHI_FORMAT", ".json")
	cfg.ParameterID = getenvDefault("SMHI_PARAMETER_ID", weather.AirTemperatureParameter)

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.FetchWorkers, err = getenvInt("FETCH_WORKERS", 8); err != nil {
		return nil, err
	}
	if cfg.FetchMaxRetries, err = getenvInt("FETCH_MAX_RETRIES", 2); err != nil {
		return nil, err
	}
	if cfg.WatchInterval, err = getenvDuration("WATCH_INTERVAL", "1h"); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")

	cfg.MQTTBroker = os.Getenv("MQTT_BROKER")
	cfg.MQTTTopic = getenvDefault("MQTT_TOPIC", "smhi/temperature/extremes")
	cfg.MQTTClientID = getenvDefault("MQTT_CLIENT_ID", "smhi-observations")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SMHI returns the client configuration derived from cfg.
func (cfg *AppConfig) SMHI() providers.SMHIConfig {
	smhi := providers.DefaultSMHIConfig()
	smhi.BaseURL = cfg.BaseURL
	smhi.Format = cfg.Format
	smhi.ParameterID = cfg.ParameterID
	smhi.Workers = cfg.FetchWorkers
	smhi.Backoff.MaxRetries = cfg.FetchMaxRetries
	return smhi
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
