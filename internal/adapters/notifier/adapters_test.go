package notifier

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
)

func TestSMTPBuildsOriginalMessage(t *testing.T) {
	var sent []byte
	var sentCfg SMTPConfig
	s := NewSMTP(SMTPConfig{Sender: "lab@example.com", Password: "app-pass", Recipient: "ops@example.com"})
	s.send = func(_ context.Context, cfg SMTPConfig, msg []byte) error {
		sentCfg = cfg
		sent = msg
		return nil
	}

	require.NoError(t, s.Notify(context.Background(), testAlert("S1")))
	assert.Equal(t, DefaultSMTPHost, sentCfg.Host)
	assert.Equal(t, DefaultSMTPPort, sentCfg.Port)

	msg := string(sent)
	assert.Contains(t, msg, "Subject: Temperature Alert: S1 max\r\n")
	assert.Contains(t, msg, "To: ops@example.com\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nALERT: Sensor S1 is above max threshold at 31.00°C.\r\n"))
}

func TestSMTPRequiresCredentials(t *testing.T) {
	s := NewSMTP(SMTPConfig{Sender: "lab@example.com", Password: "x"})
	err := s.Notify(context.Background(), testAlert("S1"))
	assert.ErrorIs(t, err, domain.ErrNoRecipient)
	assert.ErrorIs(t, err, domain.ErrNotifier)

	s = NewSMTP(SMTPConfig{Recipient: "ops@example.com"})
	assert.Error(t, s.Ready())

	s = NewSMTP(SMTPConfig{Sender: "a", Password: "b", Recipient: "c"})
	s.send = func(context.Context, SMTPConfig, []byte) error { return errors.New("535 auth failed") }
	err = s.Notify(context.Background(), testAlert("S1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "535 auth failed")
}

func TestWebhookRetriesThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	var body []byte
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Token"))
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		mu.Lock()
		body = buf.Bytes()
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	wh, err := NewWebhook(WebhookConfig{URL: srv.URL, RetryCount: 3, Headers: map[string]string{"X-Token": "secret"}})
	require.NoError(t, err)
	wh.backoff = func(int) time.Duration { return time.Millisecond }

	require.NoError(t, wh.Notify(context.Background(), testAlert("S2")))
	assert.Equal(t, int32(3), hits.Load())

	mu.Lock()
	ev, err := Decode(body, EncodingJSON)
	mu.Unlock()
	require.NoError(t, err)
	assert.Equal(t, "S2", ev.ChannelID)
	assert.Equal(t, domain.AboveMax, ev.Kind)
}

func TestWebhookGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	wh, err := NewWebhook(WebhookConfig{URL: srv.URL, RetryCount: 1})
	require.NoError(t, err)
	wh.backoff = func(int) time.Duration { return time.Millisecond }

	err = wh.Notify(context.Background(), testAlert("S1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotifier)
	assert.Contains(t, err.Error(), "HTTP 500")

	_, err = NewWebhook(WebhookConfig{})
	assert.Error(t, err)
	_, err = NewWebhook(WebhookConfig{URL: srv.URL, RetryCount: 11})
	assert.Error(t, err)
}

func TestEncodeMsgpack(t *testing.T) {
	in := testAlert("S1")
	data, err := Encode(in, EncodingMsgpack)
	require.NoError(t, err)
	out, err := Decode(data, EncodingMsgpack)
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Value, out.Value)
	assert.True(t, in.Timestamp.Equal(out.Timestamp))

	_, err = Encode(in, "xml")
	assert.Error(t, err)
}

type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

// fakeMQTT overrides the calls the notifier makes; the embedded interface is nil.
type fakeMQTT struct {
	mqtt.Client
	open    bool
	topic   string
	payload []byte
	err     error
}

func (f *fakeMQTT) IsConnectionOpen() bool { return f.open }

func (f *fakeMQTT) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	f.topic = topic
	f.payload = payload.([]byte)
	return newFakeToken(f.err)
}

func TestMQTTPublishesPerChannelTopic(t *testing.T) {
	client := &fakeMQTT{open: true}
	m := newMQTTWithClient(MQTTConfig{Encoding: EncodingMsgpack}, client, slog.Default())

	require.NoError(t, m.Notify(context.Background(), testAlert("S2")))
	assert.Equal(t, "tempmon/alerts/S2", client.topic)
	ev, err := Decode(client.payload, EncodingMsgpack)
	require.NoError(t, err)
	assert.Equal(t, "S2", ev.ChannelID)

	client.err = errors.New("not authorized")
	assert.ErrorIs(t, m.Notify(context.Background(), testAlert("S2")), domain.ErrNotifier)

	client.open = false
	err = m.Notify(context.Background(), testAlert("S2"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mqtt not connected")
}

type fakeNATS struct {
	subject string
	data    []byte
	flushed bool
	err     error
}

func (f *fakeNATS) Publish(subject string, data []byte) error {
	f.subject = subject
	f.data = data
	return f.err
}

func (f *fakeNATS) FlushWithContext(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("context requires a deadline")
	}
	f.flushed = true
	return nil
}

func (f *fakeNATS) Close() {}

func TestNATSPublishesPerChannelSubject(t *testing.T) {
	conn := &fakeNATS{}
	n := newNATSWithConn(NATSConfig{}, conn)

	require.NoError(t, n.Notify(context.Background(), testAlert("S1")))
	assert.Equal(t, "tempmon.alerts.S1", conn.subject)
	assert.True(t, conn.flushed)
	ev, err := Decode(conn.data, EncodingJSON)
	require.NoError(t, err)
	assert.Equal(t, 31.0, ev.Value)

	conn.err = errors.New("connection closed")
	assert.ErrorIs(t, n.Notify(context.Background(), testAlert("S1")), domain.ErrNotifier)

	_, err = NewNATS(NATSConfig{}, nil)
	assert.Error(t, err)
}

func TestLogNotifierNeverFails(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, l.Notify(context.Background(), testAlert("S1")))
	assert.Contains(t, buf.String(), "ALERT: Sensor S1 is above max threshold at 31.00°C.")
	assert.Contains(t, buf.String(), "channel=S1")
}
