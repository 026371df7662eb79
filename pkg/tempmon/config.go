package tempmon

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/app/config"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	DeviceConfig    = config.DeviceConfig
	HistoryConfig   = config.HistoryConfig
	Policy          = ports.Policy
	AlertsConfig    = config.AlertsConfig
	NotifiersConfig = config.NotifiersConfig
	ArchiveConfig   = config.ArchiveConfig
	MetricsConfig   = config.MetricsConfig
	APIConfig       = config.APIConfig
	AlertSettings   = config.AlertSettings
)

const (
	ModeStream = config.ModeStream
	ModePoll   = config.ModePoll
)

// DefaultConfig returns a Config with defaults applied and no device host.
func DefaultConfig() *Config {
	return config.Default()
}

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// ParseConfig loads YAML with defaults applied but does not validate, so
// callers can overlay flags first.
func ParseConfig(path string) (*Config, error) {
	return config.Parse(path)
}

// ApplySettingsFile overlays cfg with the alert settings file it names. A
// missing file leaves cfg untouched and reports false.
func ApplySettingsFile(cfg *Config) (bool, error) {
	path := cfg.Alerts.SettingsFile
	if path == "" {
		return false, nil
	}
	s, err := config.LoadAlertSettings(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("alert settings: %w", err)
	}
	cfg.ApplyAlertSettings(s)
	return true, nil
}
