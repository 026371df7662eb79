package observability

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/ports"
)

const (
	SamplesReceived  = "tempmon_samples_received_total"
	SamplesBuffered  = "tempmon_samples_buffered_total"
	SamplesRestamped = "tempmon_samples_restamped_total"
	SamplesRejected  = "tempmon_samples_rejected_total"
	DecodeErrors     = "tempmon_decode_errors_total"
	QueueDropped     = "tempmon_queue_dropped_total"
	Reconnects       = "tempmon_reconnects_total"
	AlertsSent       = "tempmon_alerts_sent_total"
	AlertsSuppressed = "tempmon_alerts_suppressed_total"
	NotifyFailures   = "tempmon_notify_failures_total"
	ArchiveWritten   = "tempmon_archive_written_total"

	QueueLength     = "tempmon_queue_length"
	ConnectionState = "tempmon_connection_state"

	ArchiveLatency = "tempmon_archive_latency_seconds"
)

type PromObs struct {
	log      *slog.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs registers the tempmon collectors with reg, or with the default
// registerer when reg is nil.
func NewPromObs(reg prometheus.Registerer, logger *slog.Logger) *PromObs {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = slog.Default()
	}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	}
	counters := map[string]prometheus.Counter{
		SamplesReceived:  counter(SamplesReceived, "Samples decoded from the device."),
		SamplesBuffered:  counter(SamplesBuffered, "Samples appended to channel buffers."),
		SamplesRestamped: counter(SamplesRestamped, "Samples buffered at a time other than their own because the device clock disagreed."),
		SamplesRejected:  counter(SamplesRejected, "Samples the channel buffers refused."),
		DecodeErrors:     counter(DecodeErrors, "Wire units that could not be decoded."),
		QueueDropped:     counter(QueueDropped, "Events dropped because the dispatch queue was full."),
		Reconnects:       counter(Reconnects, "Transport failures followed by a reconnect attempt."),
		AlertsSent:       counter(AlertsSent, "Alerts that passed the cooldown gate."),
		AlertsSuppressed: counter(AlertsSuppressed, "Threshold breaches suppressed by cooldown."),
		NotifyFailures:   counter(NotifyFailures, "Alert deliveries that failed."),
		ArchiveWritten:   counter(ArchiveWritten, "Records written to the archive sink."),
	}
	queueGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: QueueLength,
		Help: "Events waiting in the dispatch queue after the last drain.",
	})
	stateGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ConnectionState,
		Help: "Transport state: 0 disconnected, 1 connecting, 2 connected.",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    ArchiveLatency,
		Help:    "Time spent writing one batch to the archive sink.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	collectors := []prometheus.Collector{queueGauge, stateGauge, latency}
	for _, c := range counters {
		collectors = append(collectors, c)
	}
	reg.MustRegister(collectors...)

	return &PromObs{
		log:      logger,
		counters: counters,
		gauges: map[string]prometheus.Gauge{
			QueueLength:     queueGauge,
			ConnectionState: stateGauge,
		},
		histos: map[string]prometheus.Observer{
			ArchiveLatency: latency,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.log.Info(msg, attrs(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		p.log.Error(msg, append(attrs(fields), "error", err)...)
	}
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	if err != nil {
		p.log.Error(msg, append(attrs(fields), "error", err, "critical", true)...)
	}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func attrs(fields []ports.Field) []any {
	out := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f.Key, f.Value)
	}
	return out
}

var _ ports.Observability = (*PromObs)(nil)
