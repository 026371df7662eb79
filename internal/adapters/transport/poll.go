package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/adapters/decode"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/adapters/observability"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/ports"
)

const (
	DefaultPollPort     = 80
	DefaultPollPath     = "/temp"
	DefaultPollInterval = 500 * time.Millisecond
	DefaultPollTimeout  = 5 * time.Second

	maxPollBody = 64 << 10
)

type PollConfig struct {
	Host     string
	Port     int
	Path     string
	Interval time.Duration
	Timeout  time.Duration
	Client   *http.Client

	Observer ports.SampleObserver
	Obs      ports.Observability
	Logger   *slog.Logger
	Resolver Resolver
	Now      func() time.Time
}

func (c *PollConfig) applyDefaults() {
	if c.Port <= 0 {
		c.Port = DefaultPollPort
	}
	if c.Path == "" {
		c.Path = DefaultPollPath
	}
	if c.Interval <= 0 {
		c.Interval = DefaultPollInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultPollTimeout
	}
	if c.Client == nil {
		c.Client = &http.Client{}
	}
	if c.Resolver == nil {
		c.Resolver = net.DefaultResolver
	}
}

// PollTransport requests the device's JSON reading on a fixed interval.
// Connectivity is tracked per request: one Connected status on each
// failure-to-success edge and one Disconnected on each success-to-failure edge.
type PollTransport struct {
	worker
	cfg    PollConfig
	lastOK bool
}

func NewPollTransport(cfg PollConfig) (*PollTransport, error) {
	cfg.applyDefaults()
	if cfg.Host == "" {
		return nil, errors.New("poll transport: host is required")
	}
	t := &PollTransport{cfg: cfg}
	t.init("poll", cfg.Obs, cfg.Logger, cfg.Observer, cfg.Now)
	return t, nil
}

func (p *PollTransport) Name() string { return "poll" }

func (p *PollTransport) Start(sink ports.EventSink) error {
	return p.start("poll", func(ctx context.Context) { p.run(ctx, sink) })
}

func (p *PollTransport) Stop() error { return p.stop() }

func (p *PollTransport) run(ctx context.Context, sink ports.EventSink) {
	p.lastOK = false
	for {
		p.pollOnce(ctx, sink)
		if !sleep(ctx, p.cfg.Interval) {
			return
		}
	}
}

func (p *PollTransport) url(ctx context.Context) string {
	host := resolveWith(ctx, p.cfg.Resolver, p.cfg.Host)
	return "http://" + net.JoinHostPort(host, strconv.Itoa(p.cfg.Port)) + p.cfg.Path
}

func (p *PollTransport) pollOnce(ctx context.Context, sink ports.EventSink) {
	if !p.lastOK {
		p.setState(domain.Connecting)
	}
	url := p.url(ctx)
	code, samples, err := p.fetch(ctx, url)
	if ctx.Err() != nil {
		return
	}
	now := p.now()
	if err != nil {
		if p.lastOK {
			p.lastOK = false
			p.status(sink, domain.DisconnectedStatus(now))
			p.obs.IncCounter(observability.Reconnects, 1)
		}
		p.setState(domain.Disconnected)
		p.log.Debug("poll failed", "url", url, "error", err)
		p.status(sink, domain.StatusEvent{
			Kind:    domain.StatusTransportError,
			At:      now,
			Message: fmt.Sprintf("HTTP error: %v. Retrying...", err),
		})
		return
	}
	if !p.lastOK {
		p.lastOK = true
		p.setState(domain.Connected)
		p.log.Info("connected", "url", url, "status", code)
		p.status(sink, domain.ConnectedStatus(now, fmt.Sprintf("Connected (HTTP %d) to %s", code, url)))
	}
	p.deliver(sink, samples)
}

// fetch performs one GET. Any non-2xx answer or undecodable body is a failure.
func (p *PollTransport) fetch(ctx context.Context, url string) (int, []domain.Sample, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, &domain.TransportError{Op: "GET " + url, Err: err}
	}
	resp, err := p.cfg.Client.Do(req)
	if err != nil {
		return 0, nil, &domain.TransportError{Op: "GET " + url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPollBody))
		return resp.StatusCode, nil, &domain.TransportError{
			Op:  "GET " + url,
			Err: fmt.Errorf("unexpected status %s", resp.Status),
		}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPollBody))
	if err != nil {
		return resp.StatusCode, nil, &domain.TransportError{Op: "read body " + url, Err: err}
	}
	samples, err := decode.DecodePoll(body, p.now())
	if err != nil {
		p.obs.IncCounter(observability.DecodeErrors, 1)
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, samples, nil
}

var _ ports.Transport = (*PollTransport)(nil)
