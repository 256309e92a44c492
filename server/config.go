package server

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixture seeds an attribute value into every new session's store, so
// a freshly connected client sees a simulated device with state.
type Fixture struct {
	Destination string `yaml:"destination"` // e.g. "0x12344321"
	Endpoint    uint16 `yaml:"endpoint"`
	Attribute   string `yaml:"attribute"` // specifier name, e.g. "on-time"
	Value       string `yaml:"value"`
}

type Config struct {
	ListenAddr string    `yaml:"listen_addr"`
	StatusAddr string    `yaml:"status_addr"`
	MaxClients int       `yaml:"max_clients"`
	LogLevel   string    `yaml:"log_level"`
	Fixtures   []Fixture `yaml:"fixtures"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddr: ":9002",
		StatusAddr: ":8080",
		MaxClients: 16,
		LogLevel:   "info",
	}
}

// LoadConfig reads a YAML config file, filling unset fields with
// defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultConfig().ListenAddr
	}
	if _, err := cfg.SlogLevel(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
}
