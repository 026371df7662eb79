package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
)

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
	Encoding string `yaml:"encoding"`
}

// MQTT publishes alerts to <topic>/<channel>.
type MQTT struct {
	cfg    MQTTConfig
	client mqtt.Client
	log    *slog.Logger
}

// NewMQTT connects to the broker. The paho client reconnects on its own afterwards.
func NewMQTT(ctx context.Context, cfg MQTTConfig, logger *slog.Logger) (*MQTT, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt notifier: broker is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "notifier", "notifier", "mqtt", "broker", cfg.Broker)
	if cfg.ClientID == "" {
		cfg.ClientID = "tempmon"
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		logger.Info("mqtt connection established")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost, will auto-reconnect", "error", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		client.Disconnect(0)
		return nil, fmt.Errorf("mqtt connect: %w", ctx.Err())
	case <-time.After(5 * time.Second):
		client.Disconnect(0)
		return nil, errors.New("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}
	return newMQTTWithClient(cfg, client, logger), nil
}

func newMQTTWithClient(cfg MQTTConfig, client mqtt.Client, logger *slog.Logger) *MQTT {
	if cfg.Topic == "" {
		cfg.Topic = "tempmon/alerts"
	}
	return &MQTT{cfg: cfg, client: client, log: logger}
}

func (m *MQTT) Name() string { return "mqtt" }

func (m *MQTT) Notify(ctx context.Context, ev domain.AlertEvent) error {
	if !m.client.IsConnectionOpen() {
		return &domain.NotifierError{Notifier: m.Name(), Err: errors.New("mqtt not connected")}
	}
	payload, err := Encode(ev, m.cfg.Encoding)
	if err != nil {
		return &domain.NotifierError{Notifier: m.Name(), Err: err}
	}
	topic := fmt.Sprintf("%s/%s", m.cfg.Topic, ev.ChannelID)
	token := m.client.Publish(topic, m.cfg.QoS, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return &domain.NotifierError{Notifier: m.Name(), Err: ctx.Err()}
	}
	if err := token.Error(); err != nil {
		return &domain.NotifierError{Notifier: m.Name(), Err: err}
	}
	m.log.Debug("alert published", "topic", topic, "alert_id", ev.ID)
	return nil
}

func (m *MQTT) Close() {
	m.client.Disconnect(250)
}
