package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// SettingsFile is the optional YAML file read from the settings directory
const SettingsFile = "avatarchat.yaml"

// Store backends
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// MatchConfig tunes the stand-in face matcher
type MatchConfig struct {
	Rate float64 `yaml:"rate"`
	Seed uint64  `yaml:"seed"`
}

// Config holds all application configuration
type Config struct {
	StoreBackend     string      `yaml:"store_backend"`
	LogLevel         string      `yaml:"log_level"`
	LogFormat        string      `yaml:"log_format"`
	CameraPermission string      `yaml:"camera_permission"`
	RecordingsDir    string      `yaml:"recordings_dir"`
	Match            MatchConfig `yaml:"match"`
	SettingsDir      string      `yaml:"-"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		StoreBackend:     BackendMemory,
		LogLevel:         "info",
		LogFormat:        "console",
		CameraPermission: "granted",
		Match:            MatchConfig{Rate: 0.5},
		SettingsDir:      "settings",
	}
}

// Load loads configuration from the settings file and the environment. The
// environment wins over the file. settingsDir overrides SETTINGS_DIR when set.
func Load(settingsDir string) (*Config, error) {
	cfg := Default()

	if settingsDir == "" {
		settingsDir = os.Getenv("SETTINGS_DIR")
	}
	if settingsDir != "" {
		cfg.SettingsDir = settingsDir
	}

	if err := loadSettingsFile(filepath.Join(cfg.SettingsDir, SettingsFile), cfg); err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadSettingsFile merges a YAML file into cfg. A missing file is not an error.
func loadSettingsFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		cfg.StoreBackend = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("CAMERA_PERMISSION"); v != "" {
		cfg.CameraPermission = v
	}
	if v := os.Getenv("RECORDINGS_DIR"); v != "" {
		cfg.RecordingsDir = v
	}

	if v := os.Getenv("MATCH_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid MATCH_RATE: %w", err)
		}
		cfg.Match.Rate = rate
	}
	if v := os.Getenv("MATCH_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MATCH_SEED: %w", err)
		}
		cfg.Match.Seed = seed
	}

	return nil
}

// Validate checks that every setting has a supported value
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.StoreBackend, validation.Required, validation.In(BackendMemory, BackendSQLite)),
		validation.Field(&c.LogLevel, validation.Required, validation.In("trace", "debug", "info", "warn", "error")),
		validation.Field(&c.LogFormat, validation.Required, validation.In("console", "json")),
		validation.Field(&c.CameraPermission, validation.Required, validation.In("granted", "denied")),
		validation.Field(&c.Match),
	)
}

// Validate checks the rate is a probability
func (m MatchConfig) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Rate, validation.Min(0.0), validation.Max(1.0)),
	)
}
