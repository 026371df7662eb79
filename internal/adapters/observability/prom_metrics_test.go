package observability

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/ports"
)

func TestPromObsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewPromObs(reg, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	obs.IncCounter(SamplesReceived, 5)
	if got := testutil.ToFloat64(obs.counters[SamplesReceived]); got != 5 {
		t.Fatalf("expected received counter 5, got %f", got)
	}

	obs.IncCounter(QueueDropped, 2)
	if got := testutil.ToFloat64(obs.counters[QueueDropped]); got != 2 {
		t.Fatalf("expected queue drop counter 2, got %f", got)
	}

	obs.SetGauge(ConnectionState, 2)
	if got := testutil.ToFloat64(obs.gauges[ConnectionState]); got != 2 {
		t.Fatalf("expected state gauge 2, got %f", got)
	}

	obs.ObserveLatency(ArchiveLatency, 0.5)
	hCollector := obs.histos[ArchiveLatency].(prometheus.Collector)
	if samples := testutil.CollectAndCount(hCollector); samples != 1 {
		t.Fatalf("expected latency histogram to record 1 sample, got %d", samples)
	}

	// unknown names are ignored
	obs.IncCounter("tempmon_unknown_total", 1)
	obs.SetGauge("tempmon_unknown", 1)

	n, err := testutil.GatherAndCount(reg)
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 14 {
		t.Fatalf("expected 14 registered series, got %d", n)
	}
}

func TestPromObsLogsThroughSlog(t *testing.T) {
	var buf bytes.Buffer
	obs := NewPromObs(prometheus.NewRegistry(), slog.New(slog.NewTextHandler(&buf, nil)))

	obs.LogError("archive write failed", errors.New("boom"), ports.F("sink", "csv"))
	out := buf.String()
	if !strings.Contains(out, "archive write failed") || !strings.Contains(out, "sink=csv") || !strings.Contains(out, "error=boom") {
		t.Fatalf("unexpected log output: %q", out)
	}

	buf.Reset()
	obs.LogError("ignored", nil)
	if buf.Len() != 0 {
		t.Fatalf("nil error should not log, got %q", buf.String())
	}
}

func TestLogObsDiscardsMetrics(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogObs(slog.New(slog.NewTextHandler(&buf, nil)))
	obs.IncCounter(SamplesReceived, 1)
	obs.SetGauge(QueueLength, 3)
	obs.LogInfo("connected", ports.F("addr", "10.0.0.2:5000"))
	if !strings.Contains(buf.String(), "addr=10.0.0.2:5000") {
		t.Fatalf("unexpected log output: %q", buf.String())
	}
}
