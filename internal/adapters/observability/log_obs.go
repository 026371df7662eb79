package observability

import (
	"log/slog"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/ports"
)

// LogObs logs through slog and discards metrics. Used when no metrics
// endpoint is configured and as the default for components built without one.
type LogObs struct {
	log *slog.Logger
}

func NewLogObs(logger *slog.Logger) *LogObs {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObs{log: logger}
}

func (o *LogObs) LogInfo(msg string, fields ...ports.Field) {
	o.log.Info(msg, attrs(fields)...)
}

func (o *LogObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		o.log.Error(msg, append(attrs(fields), "error", err)...)
	}
}

func (o *LogObs) LogCritical(msg string, err error, fields ...ports.Field) {
	if err != nil {
		o.log.Error(msg, append(attrs(fields), "error", err, "critical", true)...)
	}
}

func (o *LogObs) IncCounter(string, float64)     {}
func (o *LogObs) ObserveLatency(string, float64) {}
func (o *LogObs) SetGauge(string, float64)       {}

var _ ports.Observability = (*LogObs)(nil)
