// Package tempmon re-exports pkg/tempmon so consumers can import the module
// root directly.
package tempmon

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	base "github.com/NoahOriano/SeniorDesignTeam8/pkg/tempmon"
)

// Re-exported errors for convenience.
var (
	ErrQueueFull         = base.ErrQueueFull
	ErrSourceStopped     = base.ErrSourceStopped
	ErrInvalidSample     = base.ErrInvalidSample
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
)

// Type aliases so consumers can import github.com/NoahOriano/SeniorDesignTeam8 directly.
type (
	Config          = base.Config
	Policy          = base.Policy
	DeviceConfig    = base.DeviceConfig
	HistoryConfig   = base.HistoryConfig
	AlertsConfig    = base.AlertsConfig
	NotifiersConfig = base.NotifiersConfig
	ArchiveConfig   = base.ArchiveConfig
	MetricsConfig   = base.MetricsConfig
	APIConfig       = base.APIConfig
	Flow            = base.Flow
	FlowOption      = base.FlowOption
	StreamInOption  = base.StreamInOption
	StreamOutOption = base.StreamOutOption
	Runtime         = base.Runtime
	Option          = base.Option
	Sample          = base.Sample
	Event           = base.Event
	StatusEvent     = base.StatusEvent
	StatusSnapshot  = base.StatusSnapshot
	AlertEvent      = base.AlertEvent
	Threshold       = base.Threshold
	Command         = base.Command
	Point           = base.Point
	Record          = base.Record
	RecordBatchSink = base.RecordBatchSink
	Transport       = base.Transport
	Sink            = base.Sink
	Notifier        = base.Notifier
	Observability   = base.Observability
	Field           = base.Field
	ExternalSource  = base.ExternalSource
)

// Config helpers.
func DefaultConfig() *Config {
	return base.DefaultConfig()
}

func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func ApplySettingsFile(cfg *Config) (bool, error) {
	return base.ApplySettingsFile(cfg)
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...Option) FlowOption {
	return base.WithFlowOptions(opts...)
}

func StreamInTransport(tr Transport) StreamInOption {
	return base.StreamInTransport(tr)
}

func StreamInHost(host string, port int) StreamInOption {
	return base.StreamInHost(host, port)
}

func StreamInObservability(obs Observability) StreamInOption {
	return base.StreamInObservability(obs)
}

func StreamOutSink(s Sink) StreamOutOption {
	return base.StreamOutSink(s)
}

func StreamOutNotifier(n Notifier) StreamOutOption {
	return base.StreamOutNotifier(n)
}

func StreamOutObservability(obs Observability) StreamOutOption {
	return base.StreamOutObservability(obs)
}

func StreamOutCallback(name string, fn RecordBatchSink) StreamOutOption {
	return base.StreamOutCallback(name, fn)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...Option) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithTransport(tr Transport) Option {
	return base.WithTransport(tr)
}

func WithNotifier(n Notifier) Option {
	return base.WithNotifier(n)
}

func WithSink(s Sink) Option {
	return base.WithSink(s)
}

func WithObservability(obs Observability) Option {
	return base.WithObservability(obs)
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return base.WithRegisterer(reg)
}

func WithLogger(l *slog.Logger) Option {
	return base.WithLogger(l)
}

func WithClock(now func() time.Time) Option {
	return base.WithClock(now)
}

// Adapters.
func NewCallbackSink(name string, fn RecordBatchSink) Sink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (Sink, <-chan []Record, func()) {
	return base.NewChannelSink(name, buffer)
}

func NewCallbackNotifier(name string, fn func(context.Context, AlertEvent) error) (Notifier, error) {
	return base.NewCallbackNotifier(name, fn)
}

func NewExternalSource(name string) *ExternalSource {
	return base.NewExternalSource(name)
}
