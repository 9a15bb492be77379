package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/quentinrf/plant-monitor/services/envsensor/internal/averaging"
	"github.com/quentinrf/plant-monitor/services/envsensor/internal/domain"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Sensor   SensorConfig   `yaml:"sensor"`
	Recorder RecorderConfig `yaml:"recorder"`
	Storage  StorageConfig  `yaml:"storage"`
	TLS      TLSConfig      `yaml:"tls"`
	LogLevel string         `yaml:"log_level"`
}

type ServerConfig struct {
	Port   string `yaml:"port"`
	WSAddr string `yaml:"ws_addr"`
}

type SensorConfig struct {
	Source     string  `yaml:"source"` // "mock" | "gpio"
	Type       string  `yaml:"type"`   // light | pressure | relative_humidity | ambient_temperature
	BufferSize int     `yaml:"buffer_size"`
	BaseValue  float64 `yaml:"base_value"`
	Variation  float64 `yaml:"variation"`
}

type RecorderConfig struct {
	Interval  time.Duration `yaml:"interval"`
	Retention time.Duration `yaml:"retention"`
}

type StorageConfig struct {
	Type   string `yaml:"type"`    // "memory" | "sqlite"
	DBPath string `yaml:"db_path"` // used when Type=sqlite
}

type TLSConfig struct {
	Cert string `yaml:"cert"` // path to this service's certificate
	Key  string `yaml:"key"`  // path to this service's private key
	CA   string `yaml:"ca"`   // path to the CA certificate
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:   "50051",
			WSAddr: ":8080",
		},
		Sensor: SensorConfig{
			Source:     "mock",
			Type:       domain.SensorTypeLight.String(),
			BufferSize: averaging.DefaultCapacity,
			BaseValue:  500, // indoor lighting
			Variation:  100,
		},
		Recorder: RecorderConfig{
			Interval:  5 * time.Minute,
			Retention: 30 * 24 * time.Hour,
		},
		Storage: StorageConfig{
			Type:   "memory",
			DBPath: "./envsensor.db",
		},
		LogLevel: "info",
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("PORT", &c.Server.Port)
	str("WS_ADDR", &c.Server.WSAddr)
	str("SENSOR_TYPE", &c.Sensor.Source)
	str("SENSOR_KIND", &c.Sensor.Type)
	str("REPO_TYPE", &c.Storage.Type)
	str("DB_PATH", &c.Storage.DBPath)
	str("LOG_LEVEL", &c.LogLevel)
	str("TLS_CERT", &c.TLS.Cert)
	str("TLS_KEY", &c.TLS.Key)
	str("TLS_CA", &c.TLS.CA)

	if v, ok := lookup("RECORD_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("RECORD_INTERVAL: %w", err)
		}
		c.Recorder.Interval = d
	}

	if v, ok := lookup("BUFFER_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BUFFER_SIZE: %w", err)
		}
		c.Sensor.BufferSize = n
	}

	return nil
}

// Validate checks values that would otherwise fail later at startup
func (c *Config) Validate() error {
	if _, err := domain.ParseSensorType(c.Sensor.Type); err != nil {
		return fmt.Errorf("sensor.type: %w", err)
	}
	if c.Sensor.BufferSize < 1 {
		return fmt.Errorf("sensor.buffer_size: %w", averaging.ErrInvalidCapacity)
	}
	if c.Recorder.Interval <= 0 {
		return fmt.Errorf("recorder.interval must be positive, got %v", c.Recorder.Interval)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.TLS.Cert != "" && (c.TLS.Key == "" || c.TLS.CA == "") {
		return fmt.Errorf("tls: cert requires key and ca")
	}
	return nil
}

// SensorType returns the parsed sensor type. Validate must have passed.
func (c *Config) SensorType() domain.SensorType {
	t, _ := domain.ParseSensorType(c.Sensor.Type)
	return t
}

// Level returns the parsed log level, defaulting to info
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
