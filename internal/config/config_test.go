package config

import (
	"log/slog"
	"testing"
	"time"
)

var configEnv = []string{
	"APP_ENV", "LOG_LEVEL", "SMHI_BASE_URL", "SMHI_FORMAT", "SMHI_PARAMETER_ID",
	"HTTP_TIMEOUT", "FETCH_WORKERS", "FETCH_MAX_RETRIES", "WATCH_INTERVAL", "PORT",
	"MQTT_BROKER", "MQTT_TOPIC", "MQTT_CLIENT_ID",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.BaseURL != "https://opendata-download-metobs.smhi.se/api" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Format != ".json" {
		t.Errorf("Format = %q, want .json", cfg.Format)
	}
	if cfg.ParameterID != "2" {
		t.Errorf("ParameterID = %q, want 2", cfg.ParameterID)
	}
	if cfg.FetchWorkers != 8 {
		t.Errorf("FetchWorkers = %d, want 8", cfg.FetchWorkers)
	}
	if cfg.WatchInterval != time.Hour {
		t.Errorf("WatchInterval = %v, want 1h", cfg.WatchInterval)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.MQTTBroker != "" {
		t.Errorf("MQTTBroker = %q, want empty", cfg.MQTTBroker)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SMHI_BASE_URL", "http://localhost:9000/api/")
	t.Setenv("SMHI_PARAMETER_ID", "1")
	t.Setenv("FETCH_WORKERS", "3")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MQTT_BROKER", "tcp://localhost:1883")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.BaseURL != "http://localhost:9000/api" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.BaseURL)
	}

	smhi := cfg.SMHI()
	if smhi.ParameterID != "1" || smhi.Workers != 3 || smhi.Format != ".json" {
		t.Errorf("SMHI() = %+v", smhi)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "base url", key: "SMHI_BASE_URL", value: "not a url"},
		{name: "parameter id", key: "SMHI_PARAMETER_ID", value: "air"},
		{name: "workers zero", key: "FETCH_WORKERS", value: "0"},
		{name: "workers not int", key: "FETCH_WORKERS", value: "many"},
		{name: "negative retries", key: "FETCH_MAX_RETRIES", value: "-1"},
		{name: "timeout", key: "HTTP_TIMEOUT", value: "soon"},
		{name: "watch too short", key: "WATCH_INTERVAL", value: "10s"},
		{name: "app env", key: "APP_ENV", value: "staging"},
		{name: "log level", key: "LOG_LEVEL", value: "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Fatalf("Load() error = nil, want non-nil for %s=%q", tt.key, tt.value)
			}
		})
	}
}
