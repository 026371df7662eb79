package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
)

type NATSConfig struct {
	URL      string `yaml:"url"`
	Subject  string `yaml:"subject"`
	Encoding string `yaml:"encoding"`
}

// natsConn is the part of *nats.Conn the notifier uses.
type natsConn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATS publishes alerts to <subject>.<channel>.
type NATS struct {
	cfg  NATSConfig
	conn natsConn
}

func NewNATS(cfg NATSConfig, logger *slog.Logger) (*NATS, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats notifier: url is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "notifier", "notifier", "nats")
	conn, err := nats.Connect(cfg.URL,
		nats.Name("tempmon"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", cfg.URL, err)
	}
	return newNATSWithConn(cfg, conn), nil
}

func newNATSWithConn(cfg NATSConfig, conn natsConn) *NATS {
	if cfg.Subject == "" {
		cfg.Subject = "tempmon.alerts"
	}
	return &NATS{cfg: cfg, conn: conn}
}

func (n *NATS) Name() string { return "nats" }

func (n *NATS) Notify(ctx context.Context, ev domain.AlertEvent) error {
	payload, err := Encode(ev, n.cfg.Encoding)
	if err != nil {
		return &domain.NotifierError{Notifier: n.Name(), Err: err}
	}
	subject := n.cfg.Subject + "." + ev.ChannelID
	if err := n.conn.Publish(subject, payload); err != nil {
		return &domain.NotifierError{Notifier: n.Name(), Err: err}
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return &domain.NotifierError{Notifier: n.Name(), Err: err}
	}
	return nil
}

func (n *NATS) Close() {
	n.conn.Close()
}
