package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/adapters/decode"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/adapters/observability"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/ports"
)

const (
	DefaultStreamPort     = 5000
	DefaultDialTimeout    = 5 * time.Second
	DefaultReadTimeout    = 10 * time.Second
	DefaultReconnectDelay = 3 * time.Second
	DefaultMaxRecord      = 64 << 10

	readChunk = 4096
)

var (
	errPeerClosed = errors.New("connection closed by peer")
	errIdle       = errors.New("no data within read timeout")
	errOversize   = errors.New("record exceeds maximum length without newline")
)

type StreamConfig struct {
	Host           string
	Port           int
	DialTimeout    time.Duration
	ReadTimeout    time.Duration // zero disables the idle check
	ReconnectDelay time.Duration
	MaxRecord      int

	Observer ports.SampleObserver
	Obs      ports.Observability
	Logger   *slog.Logger
	Resolver Resolver
	Now      func() time.Time
}

func (c *StreamConfig) applyDefaults() {
	if c.Port <= 0 {
		c.Port = DefaultStreamPort
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.ReadTimeout < 0 {
		c.ReadTimeout = 0
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = DefaultReconnectDelay
	}
	if c.MaxRecord <= 0 {
		c.MaxRecord = DefaultMaxRecord
	}
	if c.Resolver == nil {
		c.Resolver = net.DefaultResolver
	}
}

// StreamTransport keeps a TCP connection to the device open and decodes
// newline-delimited JSON records from it, reconnecting after a fixed delay.
type StreamTransport struct {
	worker
	cfg StreamConfig
}

func NewStreamTransport(cfg StreamConfig) (*StreamTransport, error) {
	cfg.applyDefaults()
	if cfg.Host == "" {
		return nil, errors.New("stream transport: host is required")
	}
	t := &StreamTransport{cfg: cfg}
	t.init("stream", cfg.Obs, cfg.Logger, cfg.Observer, cfg.Now)
	return t, nil
}

func (s *StreamTransport) Name() string { return "stream" }

func (s *StreamTransport) Start(sink ports.EventSink) error {
	return s.start("stream", func(ctx context.Context) { s.run(ctx, sink) })
}

func (s *StreamTransport) Stop() error { return s.stop() }

func (s *StreamTransport) run(ctx context.Context, sink ports.EventSink) {
	for {
		if ctx.Err() != nil {
			return
		}
		wasConnected, err := s.session(ctx, sink)
		if ctx.Err() != nil {
			return
		}
		now := s.now()
		s.setState(domain.Disconnected)
		if wasConnected {
			s.status(sink, domain.DisconnectedStatus(now))
		}
		s.obs.IncCounter(observability.Reconnects, 1)
		s.log.Warn("stream failed, retrying", "error", err, "delay", s.cfg.ReconnectDelay)
		s.status(sink, domain.StatusEvent{
			Kind:    domain.StatusTransportError,
			At:      now,
			Message: fmt.Sprintf("Connection error: %v. Retrying in %s...", err, s.cfg.ReconnectDelay),
		})
		if !sleep(ctx, s.cfg.ReconnectDelay) {
			return
		}
	}
}

// session runs one connection until it fails. connected reports whether the
// dial succeeded, so the caller knows a gap must be marked.
func (s *StreamTransport) session(ctx context.Context, sink ports.EventSink) (connected bool, err error) {
	s.setState(domain.Connecting)
	addr := net.JoinHostPort(resolveWith(ctx, s.cfg.Resolver, s.cfg.Host), strconv.Itoa(s.cfg.Port))

	dialer := net.Dialer{Timeout: s.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false, &domain.TransportError{Op: "dial " + addr, Err: err}
	}
	defer conn.Close()
	// Stop unblocks a pending Read by closing the connection.
	release := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer release()

	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	s.setState(domain.Connected)
	s.log.Info("connected", "addr", addr)
	s.status(sink, domain.ConnectedStatus(s.now(), "Connected to "+addr))

	buf := make([]byte, readChunk)
	fr := &framer{acc: make([]byte, 0, readChunk)}
	for {
		if s.cfg.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		n, rerr := conn.Read(buf)
		if n > 0 {
			fr.acc = append(fr.acc, buf[:n]...)
			s.extract(ctx, sink, fr)
		}
		if ctx.Err() != nil {
			return true, ctx.Err()
		}
		switch {
		case rerr == nil && n == 0:
			return true, &domain.TransportError{Op: "read " + addr, Err: errPeerClosed}
		case rerr == nil:
			continue
		case errors.Is(rerr, io.EOF):
			return true, &domain.TransportError{Op: "read " + addr, Err: errPeerClosed}
		case errors.Is(rerr, os.ErrDeadlineExceeded):
			return true, &domain.TransportError{Op: "read " + addr, Err: errIdle}
		default:
			return true, &domain.TransportError{Op: "read " + addr, Err: rerr}
		}
	}
}

// framer holds the bytes of an unfinished record. discarding is set while
// the rest of an oversize record is skipped up to its newline.
type framer struct {
	acc        []byte
	discarding bool
}

// extract decodes every complete record in fr and keeps the unconsumed tail.
func (s *StreamTransport) extract(ctx context.Context, sink ports.EventSink, fr *framer) {
	acc := fr.acc
	start := 0
	for {
		i := bytes.IndexByte(acc[start:], '\n')
		if i < 0 {
			break
		}
		line := acc[start : start+i]
		start += i + 1
		if fr.discarding {
			fr.discarding = false
			continue
		}
		if ctx.Err() != nil {
			fr.acc = acc[:0]
			return
		}
		samples, err := decode.DecodeLine(line, s.now())
		if err != nil {
			s.malformed(sink, err)
			continue
		}
		s.deliver(sink, samples)
	}
	rest := append(acc[:0], acc[start:]...)
	if len(rest) > s.cfg.MaxRecord {
		if !fr.discarding {
			s.malformed(sink, domain.NewDecodeError(rest, errOversize))
		}
		fr.discarding = true
		rest = rest[:0]
	}
	fr.acc = rest
}

var _ ports.Transport = (*StreamTransport)(nil)
