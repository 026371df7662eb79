// Package transport pulls temperature readings from the device, either over
// a newline-framed TCP stream or by polling an HTTP endpoint.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/adapters/observability"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/ports"
)

// worker owns the goroutine lifecycle and connection state shared by both transports.
type worker struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	state   atomic.Int32

	obs      ports.Observability
	log      *slog.Logger
	observer ports.SampleObserver
	now      func() time.Time
}

func (w *worker) init(name string, obs ports.Observability, logger *slog.Logger, observer ports.SampleObserver, now func() time.Time) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "transport", "transport", name)
	if obs == nil {
		obs = observability.NewLogObs(logger)
	}
	if now == nil {
		now = time.Now
	}
	w.obs = obs
	w.log = logger
	w.observer = observer
	w.now = now
}

func (w *worker) start(name string, run func(ctx context.Context)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return fmt.Errorf("%s transport already started", name)
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.started = true
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		run(ctx)
	}()
	return nil
}

// stop cancels the worker and waits for it. Nothing is enqueued after it returns.
func (w *worker) stop() error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	cancel := w.cancel
	w.started = false
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
	w.setState(domain.Disconnected)
	return nil
}

func (w *worker) State() domain.ConnectionState {
	return domain.ConnectionState(w.state.Load())
}

func (w *worker) setState(s domain.ConnectionState) {
	w.state.Store(int32(s))
	w.obs.SetGauge(observability.ConnectionState, float64(s))
}

func (w *worker) status(sink ports.EventSink, st domain.StatusEvent) {
	if !sink.Put(domain.StatusOf(st)) {
		w.obs.IncCounter(observability.QueueDropped, 1)
	}
}

// deliver enqueues decoded samples and runs the inline observer on each.
func (w *worker) deliver(sink ports.EventSink, samples []domain.Sample) {
	for _, s := range samples {
		w.obs.IncCounter(observability.SamplesReceived, 1)
		if !sink.Put(domain.SampleEvent(s)) {
			w.obs.IncCounter(observability.QueueDropped, 1)
		}
		if w.observer != nil {
			w.observer.OnSample(s)
		}
	}
}

func (w *worker) malformed(sink ports.EventSink, err error) {
	w.obs.IncCounter(observability.DecodeErrors, 1)
	w.log.Warn("skipping malformed record", "error", err)
	w.status(sink, domain.InfoStatus(w.now(), "Skipping malformed record: %v", err))
}

// sleep waits d or until ctx is done; it reports whether the wait completed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
