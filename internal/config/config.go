// Package config loads and saves cadence settings from an XDG TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/cadence/internal/cadence"
	"github.com/theirongolddev/cadence/internal/model"
)

// Environment overrides. They win over the config file.
const (
	EnvFrequency  = "CADENCE_FREQUENCY"
	EnvDB         = "CADENCE_DB"
	EnvLogLevel   = "CADENCE_LOG_LEVEL"
	EnvServerAddr = "CADENCE_SERVER_ADDR"
)

// Config holds all cadence configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Export     ExportConfig     `toml:"export"`
	Server     ServerConfig     `toml:"server"`
	Appearance AppearanceConfig `toml:"appearance"`
	Logging    LoggingConfig    `toml:"logging"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DisplayFrequency string `toml:"display_frequency"`
	SeedDefaults     bool   `toml:"seed_defaults"`
	DBPath           string `toml:"db_path,omitempty"`
}

// ExportConfig controls where CSV exports go.
type ExportConfig struct {
	Dir string `toml:"dir,omitempty"`
	// Schedule is a cron spec; empty disables scheduled exports.
	Schedule string `toml:"schedule,omitempty"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	EventsBuffer int    `toml:"events_buffer"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DisplayFrequency: string(model.Monthly),
			SeedDefaults:     true,
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8788",
			EventsBuffer: 200,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cadence")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cadence")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "cadence")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "cadence")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// Frequency returns the display frequency from env var or config, in that
// order. Unknown values fall back to monthly with an error describing why.
func Frequency(cfg Config) (model.Frequency, error) {
	raw := cfg.General.DisplayFrequency
	if v := os.Getenv(EnvFrequency); v != "" {
		raw = v
	}
	if raw == "" {
		return model.Monthly, nil
	}
	f, err := cadence.Parse(raw)
	if err != nil {
		return model.Monthly, fmt.Errorf("display frequency: %w", err)
	}
	return f, nil
}

// FrequencyOverride returns the display frequency set in the environment.
// ok is false when the variable is unset or names no known frequency.
func FrequencyOverride() (f model.Frequency, ok bool) {
	v := os.Getenv(EnvFrequency)
	if v == "" {
		return "", false
	}
	f, err := cadence.Parse(v)
	if err != nil {
		return "", false
	}
	return f, true
}

// DBPath returns the SQLite path from env var or config, defaulting to the
// data directory.
func DBPath(cfg Config) string {
	if v := os.Getenv(EnvDB); v != "" {
		return v
	}
	if cfg.General.DBPath != "" {
		return cfg.General.DBPath
	}
	return filepath.Join(DataDir(), "budget.db")
}

// LogLevel returns the log level from env var or config.
func LogLevel(cfg Config) string {
	if v := os.Getenv(EnvLogLevel); v != "" {
		return v
	}
	return cfg.Logging.Level
}

// ServerAddr returns the listen address from env var or config.
func ServerAddr(cfg Config) string {
	if v := os.Getenv(EnvServerAddr); v != "" {
		return v
	}
	return cfg.Server.Addr
}
