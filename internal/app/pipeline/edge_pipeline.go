package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/adapters/transport"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/app/config"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/ports"
)

// BuildTransport returns the transport selected by dev.Mode. observer runs
// inline on every decoded sample; now stamps receipt and gap times.
func BuildTransport(dev config.DeviceConfig, observer ports.SampleObserver, obs ports.Observability, logger *slog.Logger, now func() time.Time) (ports.Transport, error) {
	switch dev.Mode {
	case config.ModeStream, "":
		return transport.NewStreamTransport(transport.StreamConfig{
			Host:           dev.Host,
			Port:           dev.Port,
			DialTimeout:    dev.DialTimeout,
			ReadTimeout:    dev.ReadTimeout,
			ReconnectDelay: dev.ReconnectDelay,
			Observer:       observer,
			Obs:            obs,
			Logger:         logger,
			Now:            now,
		})
	case config.ModePoll:
		return transport.NewPollTransport(transport.PollConfig{
			Host:     dev.Host,
			Port:     dev.Port,
			Path:     dev.Path,
			Interval: dev.Interval,
			Timeout:  dev.Timeout,
			Observer: observer,
			Obs:      obs,
			Logger:   logger,
			Now:      now,
		})
	default:
		return nil, fmt.Errorf("unknown device mode %q", dev.Mode)
	}
}

// RunEdgePipeline starts tr feeding q. The transport owns its goroutine;
// tr.Stop ends it.
func RunEdgePipeline(tr ports.Transport, q ports.EventSink, obs ports.Observability) error {
	if err := tr.Start(q); err != nil {
		return fmt.Errorf("start %s transport: %w", tr.Name(), err)
	}
	obs.LogInfo("transport_started", ports.F("transport", tr.Name()))
	return nil
}
