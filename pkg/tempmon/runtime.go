package tempmon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/adapters/notifier"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/adapters/observability"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/adapters/queue"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/adapters/sink"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/alert"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/app/api"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/app/config"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/app/control"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/app/pipeline"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/buffer"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/ports"
)

const connectTimeout = 5 * time.Second

// Option customizes the dependencies used by Runtime.
type Option func(*runtimeOverrides)

type runtimeOverrides struct {
	transport     Transport
	notifiers     []Notifier
	sink          Sink
	observability Observability
	registerer    prometheus.Registerer
	logger        *slog.Logger
	now           func() time.Time
}

// WithTransport replaces the device transport selected by device.mode, for
// example with an ExternalSource.
func WithTransport(tr Transport) Option {
	return func(o *runtimeOverrides) {
		o.transport = tr
	}
}

// WithNotifier adds a notifier next to the configured ones. It may be given
// more than once.
func WithNotifier(n Notifier) Option {
	return func(o *runtimeOverrides) {
		if n != nil {
			o.notifiers = append(o.notifiers, n)
		}
	}
}

// WithSink replaces the archive sink selected by archive.driver.
func WithSink(s Sink) Option {
	return func(o *runtimeOverrides) {
		o.sink = s
	}
}

// WithObservability plugs in a custom observability backend instead of Prometheus.
func WithObservability(obs Observability) Option {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithRegisterer registers the Prometheus collectors somewhere other than the
// default registry. When reg is also a Gatherer, /metrics serves from it.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *runtimeOverrides) {
		o.registerer = reg
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *runtimeOverrides) {
		o.logger = l
	}
}

// WithClock overrides time.Now for alert cooldowns, windows and status stamps.
func WithClock(now func() time.Time) Option {
	return func(o *runtimeOverrides) {
		o.now = now
	}
}

// Runtime wires transport → dispatch queue → consumer → buffers/archive/feed,
// with the alert engine running inline on the transport and notifications
// delivered off to the side. It exposes lifecycle hooks for embedding tempmon
// inside any Go service.
type Runtime struct {
	cfg *Config
	log *slog.Logger
	obs ports.Observability
	now func() time.Time

	queue      *queue.DispatchQueue
	buffers    *buffer.Set
	engine     *alert.Engine
	dispatcher *notifier.Dispatcher
	transport  ports.Transport
	sink       ports.Sink
	consumer   *pipeline.Consumer
	feed       *pipeline.Feed
	recorder   *control.Recorder
	api        *api.Server
	gatherer   prometheus.Gatherer
	closers    []func() error

	mu             sync.Mutex
	started        bool
	metricsSrv     *http.Server
	metricsAddr    string
	gaugeStopCh    chan struct{}
	consumerCancel context.CancelFunc
	consumerDone   chan struct{}
}

// NewRuntime bootstraps the default adapters (stream or poll transport,
// configured notifiers, archive sink, Prometheus observability). Options can
// override any of them.
func NewRuntime(cfg *Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}
	if overrides.transport == nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger := overrides.logger
	if logger == nil {
		logger = slog.Default()
	}
	now := overrides.now
	if now == nil {
		now = time.Now
	}

	rt := &Runtime{cfg: cfg, log: logger.With("component", "runtime"), now: now}

	rt.obs = overrides.observability
	if rt.obs == nil {
		reg := overrides.registerer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		rt.obs = observability.NewPromObs(reg, logger)
		if g, ok := reg.(prometheus.Gatherer); ok {
			rt.gatherer = g
		}
	}

	rt.queue = queue.NewDispatchQueue(cfg.Policy.SampleCapacity, cfg.Policy.StatusCapacity)
	rt.buffers = buffer.NewSet(cfg.History.Capacity(), buffer.WithClock(now, buffer.DefaultMaxAhead))

	ok := false
	defer func() {
		if !ok {
			_ = rt.close()
		}
	}()

	if err := rt.buildNotifiers(cfg, overrides.notifiers, logger); err != nil {
		return nil, err
	}

	engineCfg := alert.Config{
		Global:     cfg.Alerts.Threshold(),
		PerChannel: cfg.Alerts.Channels,
		Cooldown:   cfg.Alerts.Cooldown,
		Status:     rt.queue,
		Obs:        rt.obs,
		Logger:     logger.With("component", "alert"),
		Now:        now,
	}
	if rt.dispatcher != nil {
		engineCfg.Publisher = rt.dispatcher
	}
	rt.engine = alert.NewEngine(engineCfg)

	if err := rt.buildSink(cfg, overrides.sink); err != nil {
		return nil, err
	}

	if overrides.transport != nil {
		rt.transport = &observedTransport{Transport: overrides.transport, observer: rt.engine}
	} else {
		tr, err := pipeline.BuildTransport(cfg.Device, rt.engine, rt.obs, logger, now)
		if err != nil {
			return nil, err
		}
		rt.transport = tr
	}

	rt.feed = pipeline.NewFeed()
	consumer, err := pipeline.NewConsumer(pipeline.ConsumerConfig{
		Queue:     rt.queue,
		Buffers:   rt.buffers,
		Sink:      rt.sink,
		BatchSize: cfg.Archive.BatchSize,
		Interval:  cfg.Policy.DrainInterval,
		Feed:      rt.feed,
		Obs:       rt.obs,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	rt.consumer = consumer
	rt.recorder = control.NewRecorder(control.RecorderConfig{Status: rt.queue, Logger: logger, Now: now})

	if !cfg.API.Disabled {
		rt.api, err = api.New(api.Config{
			Buffers:       rt.buffers,
			Consumer:      rt.consumer,
			Recorder:      rt.recorder,
			Feed:          rt.feed,
			DefaultWindow: cfg.API.DefaultWindow,
			LiveBuffer:    cfg.API.LiveBuffer,
			Logger:        logger,
			Now:           now,
		})
		if err != nil {
			return nil, err
		}
	}

	ok = true
	return rt, nil
}

func (r *Runtime) buildNotifiers(cfg *Config, extra []Notifier, logger *slog.Logger) error {
	var list []ports.Notifier
	if !cfg.Notifiers.DisableLog {
		list = append(list, notifier.NewLog(logger))
	}
	if cfg.MailReady() {
		list = append(list, notifier.NewSMTP(cfg.Notifiers.SMTP))
	}
	if cfg.Notifiers.Webhook.URL != "" {
		wh, err := notifier.NewWebhook(cfg.Notifiers.Webhook)
		if err != nil {
			return err
		}
		list = append(list, wh)
	}
	if cfg.Notifiers.MQTT.Broker != "" {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		m, err := notifier.NewMQTT(ctx, cfg.Notifiers.MQTT, logger)
		cancel()
		if err != nil {
			return err
		}
		r.closers = append(r.closers, func() error { m.Close(); return nil })
		list = append(list, m)
	}
	if cfg.Notifiers.NATS.URL != "" {
		n, err := notifier.NewNATS(cfg.Notifiers.NATS, logger)
		if err != nil {
			return err
		}
		r.closers = append(r.closers, func() error { n.Close(); return nil })
		list = append(list, n)
	}
	list = append(list, extra...)
	if len(list) == 0 {
		return nil
	}

	var target ports.Notifier = list[0]
	if len(list) > 1 {
		target = notifier.NewMulti(list...)
	}
	d, err := notifier.NewDispatcher(notifier.DispatcherConfig{
		Notifier: target,
		Backlog:  cfg.Alerts.Backlog,
		Status:   r.queue,
		Obs:      r.obs,
		Logger:   logger,
		Now:      r.now,
	})
	if err != nil {
		return err
	}
	r.dispatcher = d
	return nil
}

func (r *Runtime) buildSink(cfg *Config, override Sink) error {
	if override != nil {
		r.sink = override
		return nil
	}
	switch cfg.Archive.Driver {
	case config.ArchiveNone, "":
		return nil
	case config.ArchiveTimescale:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		ts, err := sink.OpenTimescale(ctx, cfg.Archive.ConnString, cfg.Archive.Table)
		if err != nil {
			return err
		}
		r.closers = append(r.closers, ts.Close)
		if err := ts.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("timescale schema: %w", err)
		}
		r.sink = ts
	case config.ArchiveCSV:
		cs, err := sink.NewCSVSink(cfg.Archive.Dir)
		if err != nil {
			return err
		}
		r.closers = append(r.closers, cs.Close)
		r.sink = cs
	default:
		return fmt.Errorf("unknown archive driver %q", cfg.Archive.Driver)
	}
	return nil
}

// Start launches notification delivery, the consumer, the transport and the
// metrics/API server. It returns immediately; call Run to block on a context instead.
func (r *Runtime) Start() error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return fmt.Errorf("runtime already started")
	}

	if r.dispatcher != nil {
		if err := r.dispatcher.Start(context.Background()); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.consumerCancel = cancel
	r.consumerDone = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		r.consumer.Run(ctx)
	}(r.consumerDone)

	if err := pipeline.RunEdgePipeline(r.transport, r.queue, r.obs); err != nil {
		cancel()
		<-r.consumerDone
		return err
	}

	if !r.cfg.Metrics.Disabled {
		if err := r.startMetrics(); err != nil {
			_ = r.transport.Stop()
			cancel()
			<-r.consumerDone
			return err
		}
	}

	r.gaugeStopCh = make(chan struct{})
	go r.recordGauges(r.gaugeStopCh, time.Second)

	r.started = true
	r.log.Info("runtime started", "transport", r.transport.Name(), "buffer_capacity", r.buffers.Capacity())
	return nil
}

// Run starts the runtime and blocks until the provided context is cancelled.
// Upon cancellation it attempts a graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown stops the transport first so nothing new is enqueued, lets the
// consumer drain what is left, flushes pending alerts and closes the
// metrics server and archive.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return r.close()
	}
	r.started = false

	var errs []error

	if err := r.transport.Stop(); err != nil {
		errs = append(errs, err)
	}

	r.consumerCancel()
	select {
	case <-r.consumerDone:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("consumer drain: %w", ctx.Err()))
	}

	if r.dispatcher != nil {
		if err := r.dispatcher.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if r.gaugeStopCh != nil {
		close(r.gaugeStopCh)
		r.gaugeStopCh = nil
	}

	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
		r.metricsSrv = nil
	}

	if err := r.close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (r *Runtime) close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Handler returns the metrics, health and API routes served on metrics.addr.
func (r *Runtime) Handler() http.Handler {
	mux := http.NewServeMux()
	if r.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))
	} else {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if r.api != nil {
		r.api.Register(mux)
	}
	return mux
}

func (r *Runtime) startMetrics() error {
	ln, err := net.Listen("tcp", r.cfg.Metrics.Addr)
	if err != nil {
		return fmt.Errorf("metrics listen %s: %w", r.cfg.Metrics.Addr, err)
	}
	r.metricsAddr = ln.Addr().String()
	r.metricsSrv = &http.Server{
		Handler:           r.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv := r.metricsSrv
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.log.Error("metrics server exited", "error", err)
		}
	}()
	r.log.Info("metrics server listening", "addr", r.metricsAddr)
	return nil
}

func (r *Runtime) recordGauges(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.obs.SetGauge(observability.ConnectionState, float64(r.transport.State()))
			r.obs.SetGauge(observability.QueueLength, float64(r.queue.Len()))
		}
	}
}

// MetricsAddr is the address the metrics server bound to, once started.
func (r *Runtime) MetricsAddr() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metricsAddr
}

// Window returns each channel's points from the last d, gaps included.
func (r *Runtime) Window(d time.Duration) map[string][]Point {
	return r.buffers.Window(r.now(), d)
}

// Latest returns the newest point per channel.
func (r *Runtime) Latest() map[string]Point {
	return r.buffers.Latest()
}

func (r *Runtime) Status() StatusSnapshot {
	return r.consumer.Status()
}

// TransportState is the transport's own view of connectivity, which can be
// ahead of Status by up to one drain interval.
func (r *Runtime) TransportState() ConnectionState {
	return r.transport.State()
}

// ToggleSensor records an on/off intent for channel. Nothing is sent to the device.
func (r *Runtime) ToggleSensor(channel string) (Command, error) {
	return r.recorder.Toggle(channel)
}

func (r *Runtime) Commands() []Command {
	return r.recorder.History()
}

// SetThresholds replaces the alert bounds without resetting the cooldown.
func (r *Runtime) SetThresholds(global Threshold, perChannel map[string]Threshold) {
	r.engine.SetThresholds(global, perChannel)
}

// Subscribe streams consumer events as they are drained. Call cancel when done.
func (r *Runtime) Subscribe(buffer int) (<-chan Event, func()) {
	return r.feed.Subscribe(buffer)
}

// observedTransport runs the alert engine inline on samples pushed by a
// caller-supplied transport, as the built-in transports do.
type observedTransport struct {
	Transport
	observer ports.SampleObserver
}

func (t *observedTransport) Start(sink EventSink) error {
	return t.Transport.Start(ports.EventSinkFunc(func(ev domain.Event) bool {
		ok := sink.Put(ev)
		if ev.Kind == domain.EventSample {
			t.observer.OnSample(ev.Sample)
		}
		return ok
	}))
}
