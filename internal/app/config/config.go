package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/adapters/notifier"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/adapters/queue"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/adapters/transport"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/alert"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/buffer"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/ports"
)

const (
	ModeStream = "stream"
	ModePoll   = "poll"

	ArchiveNone      = "none"
	ArchiveTimescale = "timescale"
	ArchiveCSV       = "csv"

	DefaultDrainInterval = 250 * time.Millisecond
)

type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	History   HistoryConfig   `yaml:"history"`
	Policy    ports.Policy    `yaml:"policy"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Notifiers NotifiersConfig `yaml:"notifiers"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	API       APIConfig       `yaml:"api"`
}

type DeviceConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Mode           string        `yaml:"mode"`
	Path           string        `yaml:"path"`
	Interval       time.Duration `yaml:"interval"`
	Timeout        time.Duration `yaml:"timeout"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

type HistoryConfig struct {
	Seconds          int `yaml:"seconds"`
	SamplesPerSecond int `yaml:"samples_per_second"`
}

// Capacity is the per-channel buffer size.
func (h HistoryConfig) Capacity() int {
	return buffer.Capacity(h.Seconds, h.SamplesPerSecond)
}

type AlertsConfig struct {
	Max          *float64                    `yaml:"max"`
	Min          *float64                    `yaml:"min"`
	Cooldown     time.Duration               `yaml:"cooldown"`
	Channels     map[string]domain.Threshold `yaml:"channels"`
	SettingsFile string                      `yaml:"settings_file"`
	Backlog      int                         `yaml:"backlog"`
}

// Threshold is the global bound pair.
func (a AlertsConfig) Threshold() domain.Threshold {
	return domain.Threshold{Max: a.Max, Min: a.Min}
}

type NotifiersConfig struct {
	DisableLog bool                   `yaml:"disable_log"`
	SMTP       notifier.SMTPConfig    `yaml:"smtp"`
	Webhook    notifier.WebhookConfig `yaml:"webhook"`
	MQTT       notifier.MQTTConfig    `yaml:"mqtt"`
	NATS       notifier.NATSConfig    `yaml:"nats"`
}

type ArchiveConfig struct {
	Driver     string `yaml:"driver"`
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
	Dir        string `yaml:"dir"`
	BatchSize  int    `yaml:"batch_size"`
}

type MetricsConfig struct {
	Addr     string `yaml:"addr"`
	Disabled bool   `yaml:"disabled"`
}

type APIConfig struct {
	Disabled      bool          `yaml:"disabled"`
	DefaultWindow time.Duration `yaml:"default_window"`
	LiveBuffer    int           `yaml:"live_buffer"`
}

// Default returns a configuration with every default applied and no host.
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}

func Load(path string) (*Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads and defaults a file without validating it, so callers can
// overlay flags before Validate.
func Parse(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Device.Mode == "" {
		c.Device.Mode = ModeStream
	}
	if c.Device.Port == 0 {
		c.Device.Port = DefaultPort(c.Device.Mode)
	}
	if c.Device.Path == "" {
		c.Device.Path = transport.DefaultPollPath
	}
	if c.Device.Interval == 0 {
		c.Device.Interval = transport.DefaultPollInterval
	}
	if c.Device.Timeout == 0 {
		c.Device.Timeout = transport.DefaultPollTimeout
	}
	if c.Device.DialTimeout == 0 {
		c.Device.DialTimeout = transport.DefaultDialTimeout
	}
	if c.Device.ReadTimeout == 0 {
		c.Device.ReadTimeout = transport.DefaultReadTimeout
	}
	if c.Device.ReconnectDelay == 0 {
		c.Device.ReconnectDelay = transport.DefaultReconnectDelay
	}
	if c.History.Seconds == 0 {
		c.History.Seconds = buffer.DefaultHistorySeconds
	}
	if c.History.SamplesPerSecond == 0 {
		c.History.SamplesPerSecond = buffer.DefaultSamplesPerSecond
	}
	if c.Policy.SampleCapacity == 0 {
		c.Policy.SampleCapacity = queue.DefaultSampleCapacity
	}
	if c.Policy.StatusCapacity == 0 {
		c.Policy.StatusCapacity = queue.DefaultStatusCapacity
	}
	if c.Policy.DrainInterval == 0 {
		c.Policy.DrainInterval = DefaultDrainInterval
	}
	if c.Alerts.Cooldown == 0 {
		c.Alerts.Cooldown = alert.DefaultCooldown
	}
	if c.Alerts.Backlog == 0 {
		c.Alerts.Backlog = notifier.DefaultBacklog
	}
	if c.Archive.Driver == "" {
		c.Archive.Driver = ArchiveNone
	}
	if c.Archive.Table == "" {
		c.Archive.Table = "temperature_samples"
	}
	if c.Archive.Dir == "" {
		c.Archive.Dir = "./data/archive"
	}
	if c.Archive.BatchSize == 0 {
		c.Archive.BatchSize = 500
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.API.DefaultWindow == 0 {
		c.API.DefaultWindow = time.Duration(c.History.Seconds) * time.Second
	}
	if c.API.LiveBuffer == 0 {
		c.API.LiveBuffer = 256
	}
}

// DefaultPort is the device port used when none is configured.
func DefaultPort(mode string) int {
	if mode == ModePoll {
		return transport.DefaultPollPort
	}
	return transport.DefaultStreamPort
}

func (c *Config) Validate() error {
	if c.Device.Host == "" {
		return fmt.Errorf("device.host is required")
	}
	if c.Device.Mode != ModeStream && c.Device.Mode != ModePoll {
		return fmt.Errorf("device.mode must be %q or %q, got %q", ModeStream, ModePoll, c.Device.Mode)
	}
	if c.Device.Port < 1 || c.Device.Port > 65535 {
		return fmt.Errorf("device.port out of range: %d", c.Device.Port)
	}
	if c.Device.Interval < 0 || c.Device.Timeout < 0 || c.Device.ReconnectDelay < 0 {
		return fmt.Errorf("device durations must not be negative")
	}
	if c.History.Seconds < 0 || c.History.SamplesPerSecond < 0 {
		return fmt.Errorf("history values must be positive")
	}
	if c.Policy.SampleCapacity < 0 || c.Policy.StatusCapacity < 0 || c.Policy.DrainInterval < 0 {
		return fmt.Errorf("policy values must not be negative")
	}
	if c.Alerts.Cooldown < 0 {
		return fmt.Errorf("alerts.cooldown must not be negative")
	}
	switch c.Archive.Driver {
	case ArchiveNone:
	case ArchiveTimescale:
		if c.Archive.ConnString == "" {
			return fmt.Errorf("archive.conn_string is required for the timescale driver")
		}
	case ArchiveCSV:
		if c.Archive.Dir == "" {
			return fmt.Errorf("archive.dir is required for the csv driver")
		}
	default:
		return fmt.Errorf("archive.driver must be none, timescale or csv, got %q", c.Archive.Driver)
	}
	for name, enc := range map[string]string{"mqtt": c.Notifiers.MQTT.Encoding, "nats": c.Notifiers.NATS.Encoding} {
		if enc != "" && enc != notifier.EncodingJSON && enc != notifier.EncodingMsgpack {
			return fmt.Errorf("notifiers.%s.encoding must be json or msgpack, got %q", name, enc)
		}
	}
	if !c.Metrics.Disabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	return nil
}
