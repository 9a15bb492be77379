package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/quentinrf/plant-monitor/services/envsensor/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// clearEnv blanks every override so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "WS_ADDR", "SENSOR_TYPE", "SENSOR_KIND", "REPO_TYPE", "DB_PATH",
		"LOG_LEVEL", "TLS_CERT", "TLS_KEY", "TLS_CA", "RECORD_INTERVAL", "BUFFER_SIZE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "50051" {
		t.Errorf("expected default port 50051, got %q", cfg.Server.Port)
	}
	if cfg.Sensor.BufferSize != 10 {
		t.Errorf("expected default buffer size 10, got %d", cfg.Sensor.BufferSize)
	}
	if cfg.SensorType() != domain.SensorTypeLight {
		t.Errorf("expected light sensor, got %v", cfg.SensorType())
	}
	if cfg.Recorder.Interval != 5*time.Minute {
		t.Errorf("expected 5m interval, got %v", cfg.Recorder.Interval)
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  port: "6000"
sensor:
  type: pressure
  buffer_size: 4
  base_value: 1013
recorder:
  interval: 30s
storage:
  type: sqlite
  db_path: /tmp/x.db
log_level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "6000" {
		t.Errorf("expected port 6000, got %q", cfg.Server.Port)
	}
	// Unset fields keep their defaults
	if cfg.Server.WSAddr != ":8080" {
		t.Errorf("expected default ws addr, got %q", cfg.Server.WSAddr)
	}
	if cfg.SensorType() != domain.SensorTypePressure {
		t.Errorf("expected pressure sensor, got %v", cfg.SensorType())
	}
	if cfg.Sensor.BufferSize != 4 {
		t.Errorf("expected buffer size 4, got %d", cfg.Sensor.BufferSize)
	}
	if cfg.Recorder.Interval != 30*time.Second {
		t.Errorf("expected 30s interval, got %v", cfg.Recorder.Interval)
	}
	if cfg.Storage.Type != "sqlite" {
		t.Errorf("expected sqlite storage, got %q", cfg.Storage.Type)
	}
	if cfg.Level() != zerolog.DebugLevel {
		t.Errorf("expected debug level, got %v", cfg.Level())
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":            "7000",
		"RECORD_INTERVAL": "1m",
		"BUFFER_SIZE":     "3",
		"REPO_TYPE":       "sqlite",
		"SENSOR_KIND":     "ambient_temperature",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatalf("applyEnv failed: %v", err)
	}
	if cfg.Server.Port != "7000" {
		t.Errorf("expected port 7000, got %q", cfg.Server.Port)
	}
	if cfg.Recorder.Interval != time.Minute {
		t.Errorf("expected 1m interval, got %v", cfg.Recorder.Interval)
	}
	if cfg.Sensor.BufferSize != 3 {
		t.Errorf("expected buffer size 3, got %d", cfg.Sensor.BufferSize)
	}
	if cfg.Storage.Type != "sqlite" {
		t.Errorf("expected sqlite, got %q", cfg.Storage.Type)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "bad interval", key: "RECORD_INTERVAL", val: "soon"},
		{name: "bad buffer size", key: "BUFFER_SIZE", val: "ten"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := func(k string) (string, bool) {
				if k == tt.key {
					return tt.val, true
				}
				return "", false
			}
			if err := Default().applyEnv(lookup); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.val)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown sensor type", mutate: func(c *Config) { c.Sensor.Type = "gyroscope" }},
		{name: "zero buffer", mutate: func(c *Config) { c.Sensor.BufferSize = 0 }},
		{name: "zero interval", mutate: func(c *Config) { c.Recorder.Interval = 0 }},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }},
		{name: "cert without key", mutate: func(c *Config) { c.TLS.Cert = "cert.pem" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
