package transport

import (
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
)

func hostPort(t *testing.T, rawURL string) (string, int) {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func newTestPoll(t *testing.T, srv *httptest.Server, observer observerFunc) *PollTransport {
	t.Helper()
	host, port := hostPort(t, srv.URL)
	cfg := PollConfig{
		Host:     host,
		Port:     port,
		Interval: 10 * time.Millisecond,
		Timeout:  50 * time.Millisecond,
	}
	if observer != nil {
		cfg.Observer = observer
	}
	p, err := NewPollTransport(cfg)
	require.NoError(t, err)
	return p
}

func TestPollTimeoutAfterSuccessesDisconnectsOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/temp", r.URL.Path)
		if hits.Add(1) <= 5 {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"en1":true,"en2":true,"c1":21.5,"c2":null,"shown":21.5,"ip":"127.0.0.1"}`))
			return
		}
		// hang past the client timeout
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	p := newTestPoll(t, srv, nil)
	sink := &recordingSink{}
	require.NoError(t, p.Start(sink))
	waitFor(t, 3*time.Second, func() bool { return len(sink.statuses(domain.StatusTransportError)) >= 4 }, "repeated poll failures")
	require.NoError(t, p.Stop())

	assert.Len(t, sink.samples(), 5)
	assert.Len(t, sink.statuses(domain.StatusConnected), 1)
	assert.Len(t, sink.statuses(domain.StatusDisconnected), 1)

	msg := sink.statuses(domain.StatusTransportError)[0].Message
	assert.Contains(t, msg, "HTTP error:")
	assert.Contains(t, msg, "Retrying...")

	// the disconnect sits between the last sample and the first failure report
	events := sink.snapshot()
	var idx int
	for i, ev := range events {
		if ev.Kind == domain.EventStatus && ev.Status.Kind == domain.StatusDisconnected {
			idx = i
		}
	}
	assert.Equal(t, domain.EventSample, events[idx-1].Kind)
	assert.Equal(t, domain.StatusTransportError, events[idx+1].Status.Kind)
}

func TestPollRecoveryEmitsConnectedPerEdge(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		switch {
		case n <= 2:
			http.Error(w, "booting", http.StatusServiceUnavailable)
		case n <= 4:
			_, _ = w.Write([]byte(`{"c1":20.0,"c2":30.0}`))
		case n <= 6:
			_, _ = w.Write([]byte(`<html>oops</html>`))
		default:
			_, _ = w.Write([]byte(`{"c1":20.5,"c2":null}`))
		}
	}))
	defer srv.Close()

	var observed atomic.Int32
	p := newTestPoll(t, srv, func(domain.Sample) { observed.Add(1) })
	sink := &recordingSink{}
	require.NoError(t, p.Start(sink))
	waitFor(t, 3*time.Second, func() bool { return hits.Load() >= 9 }, "nine polls")
	require.NoError(t, p.Stop())

	// fail, fail, ok, ok, bad, bad, ok, ok, ok...
	connected := sink.statuses(domain.StatusConnected)
	require.Len(t, connected, 2)
	assert.Contains(t, connected[0].Message, "HTTP 200")
	assert.Len(t, sink.statuses(domain.StatusDisconnected), 1)

	samples := sink.samples()
	require.GreaterOrEqual(t, len(samples), 6)
	assert.Equal(t, "S1", samples[0].ChannelID)
	assert.Equal(t, "S2", samples[1].ChannelID)
	assert.Equal(t, 30.0, samples[1].Value)
	assert.Equal(t, int32(len(samples)), observed.Load())
}

func TestPollRetryPassesThroughConnecting(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch hits.Add(1) {
		case 1:
			http.Error(w, "booting", http.StatusServiceUnavailable)
			return
		case 2:
			select {
			case <-release:
			case <-r.Context().Done():
				return
			}
		}
		_, _ = w.Write([]byte(`{"c1":20.0}`))
	}))
	defer srv.Close()

	host, port := hostPort(t, srv.URL)
	p, err := NewPollTransport(PollConfig{Host: host, Port: port, Interval: 10 * time.Millisecond, Timeout: 2 * time.Second})
	require.NoError(t, err)
	sink := &recordingSink{}
	require.NoError(t, p.Start(sink))
	defer func() { _ = p.Stop() }()

	waitFor(t, 2*time.Second, func() bool { return hits.Load() == 2 }, "retry after failure")
	require.Len(t, sink.statuses(domain.StatusTransportError), 1)
	assert.Equal(t, domain.Connecting, p.State())

	close(release)
	waitFor(t, 2*time.Second, func() bool { return p.State() == domain.Connected }, "recovery")
	assert.Len(t, sink.statuses(domain.StatusConnected), 1)
}

func TestPollStopHaltsEnqueue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"c1":20.0,"c2":21.0}`))
	}))
	defer srv.Close()

	p := newTestPoll(t, srv, nil)
	sink := &recordingSink{}
	require.NoError(t, p.Start(sink))
	waitFor(t, 2*time.Second, func() bool { return len(sink.samples()) >= 4 }, "poll samples")
	require.NoError(t, p.Stop())

	n := len(sink.snapshot())
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, n, len(sink.snapshot()))
	assert.Equal(t, domain.Disconnected, p.State())
}

func TestNewPollTransportDefaults(t *testing.T) {
	p, err := NewPollTransport(PollConfig{Host: "esp32.local"})
	require.NoError(t, err)
	assert.Equal(t, DefaultPollPort, p.cfg.Port)
	assert.Equal(t, DefaultPollPath, p.cfg.Path)
	assert.Equal(t, DefaultPollInterval, p.cfg.Interval)
	assert.Equal(t, DefaultPollTimeout, p.cfg.Timeout)
	assert.Equal(t, "poll", p.Name())

	_, err = NewPollTransport(PollConfig{})
	assert.Error(t, err)
}
