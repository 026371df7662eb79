package sim

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/adapters/decode"
)

func TestReadingStaysInBounds(t *testing.T) {
	s := New(Config{Sensors: []string{"S1", "S2"}, Seed: 7, Jitter: 0.5})
	now := time.Unix(1_700_000_000, 0)
	for i := 0; i < 500; i++ {
		for _, name := range []string{"S1", "S2"} {
			v := s.Reading(name, now.Add(time.Duration(i)*time.Second), 1.0)
			lo, hi := s.Bounds(name)
			require.GreaterOrEqual(t, v, lo)
			require.LessOrEqual(t, v, hi)
		}
	}
	lo1, _ := s.Bounds("S1")
	lo2, _ := s.Bounds("S2")
	assert.InDelta(t, sensorStep, lo2-lo1, 1e-9)
}

func TestServeStreamsDecodableRecords(t *testing.T) {
	s := New(Config{Sensors: []string{"S1", "S2"}, Hz: 50, Seed: 1})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	r := bufio.NewReader(conn)
	seen := map[string]int{}
	for i := 0; i < 4; i++ {
		line, err := r.ReadBytes('\n')
		require.NoError(t, err)
		samples, err := decode.DecodeLine(line, time.Now())
		require.NoError(t, err)
		require.Len(t, samples, 1)
		seen[samples[0].ChannelID]++
		lo, hi := s.Bounds(samples[0].ChannelID)
		assert.True(t, samples[0].Value >= lo && samples[0].Value <= hi)
		assert.WithinDuration(t, time.Now(), samples[0].Timestamp, 5*time.Second)
	}
	assert.Equal(t, 2, seen["S1"])
	assert.Equal(t, 2, seen["S2"])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestHTTPHandlerMatchesDeviceBody(t *testing.T) {
	s := New(Config{Seed: 3})
	srv := httptest.NewServer(s.HTTPHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/temp")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	samples, err := decode.DecodePoll(body, time.Now())
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, "S1", samples[0].ChannelID)
	assert.Equal(t, "S2", samples[1].ChannelID)
	assert.Contains(t, string(body), `"ip":"127.0.0.1"`)
}
