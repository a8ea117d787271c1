// Package config loads the dashboard configuration from a YAML file
// with environment-variable overrides for deployment-specific values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full dashboard configuration.
type Config struct {
	Relay     RelayConfig     `yaml:"relay"`
	Poll      PollConfig      `yaml:"poll"`
	Store     StoreConfig     `yaml:"store"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// RelayConfig points at the relay backend.
type RelayConfig struct {
	BaseURL        string `yaml:"base_url" validate:"required,url"`
	PushURL        string `yaml:"push_url" validate:"required"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gte=1,lte=120"`
}

// PollConfig tunes the connection liveness poller.
type PollConfig struct {
	IntervalSeconds       int `yaml:"interval_seconds" validate:"gte=1,lte=300"`
	HeartbeatStaleSeconds int `yaml:"heartbeat_stale_seconds" validate:"gte=0"`
}

// StoreConfig tunes the link store.
type StoreConfig struct {
	DebounceWindowMillis int `yaml:"debounce_window_millis" validate:"gte=50,lte=5000"`
}

// DashboardConfig tunes the orchestrator and layout.
type DashboardConfig struct {
	TouchCapable        bool    `yaml:"touch_capable"`
	RelayoutDelayMillis int     `yaml:"relayout_delay_millis" validate:"gte=1,lte=1000"`
	CanvasWidth         float64 `yaml:"canvas_width" validate:"gte=0"`
}

// ServerConfig is the local HTTP surface for metrics and health.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr" validate:"required"`
}

// LogConfig selects handler and level.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json pretty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Relay: RelayConfig{
			BaseURL:        "http://localhost:8080",
			PushURL:        "ws://localhost:8080/events",
			TimeoutSeconds: 10,
		},
		Poll: PollConfig{
			IntervalSeconds:       5,
			HeartbeatStaleSeconds: 30,
		},
		Store: StoreConfig{
			DebounceWindowMillis: 300,
		},
		Dashboard: DashboardConfig{
			RelayoutDelayMillis: 50,
			CanvasWidth:         1200,
		},
		Server: ServerConfig{
			ListenAddr: ":9090",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path, applies environment overrides, and
// validates the result. An empty path yields the defaults plus
// overrides.
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

	applyEnv(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// applyEnv layers COPIER_* variables over the file values.
func applyEnv(cfg *Config) {
	if v := os.Getenv("COPIER_RELAY_URL"); v != "" {
		cfg.Relay.BaseURL = v
	}
	if v := os.Getenv("COPIER_PUSH_URL"); v != "" {
		cfg.Relay.PushURL = v
	}
	if v := os.Getenv("COPIER_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("COPIER_POLL_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Poll.IntervalSeconds = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// RelayTimeout returns the relay HTTP timeout.
func (c *Config) RelayTimeout() time.Duration {
	return time.Duration(c.Relay.TimeoutSeconds) * time.Second
}

// PollInterval returns the liveness poll cadence.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalSeconds) * time.Second
}

// HeartbeatStaleAfter returns the stale-heartbeat warning bound.
func (c *Config) HeartbeatStaleAfter() time.Duration {
	return time.Duration(c.Poll.HeartbeatStaleSeconds) * time.Second
}

// DebounceWindow returns the toggle debounce window.
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.Store.DebounceWindowMillis) * time.Millisecond
}

// RelayoutDelay returns the rebuild coalescing delay.
func (c *Config) RelayoutDelay() time.Duration {
	return time.Duration(c.Dashboard.RelayoutDelayMillis) * time.Millisecond
}
