package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func parseRunFlags(t *testing.T, args ...string) *runFlags {
	t.Helper()
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	var f runFlags
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return &f
}

func TestRunFlagsOverrideDefaults(t *testing.T) {
	f := parseRunFlags(t, "-host", "esp32.local", "-mode", "poll", "-history", "120", "-interval", "0.25")
	cfg, err := f.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Device.Host != "esp32.local" || cfg.Device.Mode != "poll" {
		t.Fatalf("unexpected device: %+v", cfg.Device)
	}
	if cfg.Device.Port != 80 {
		t.Fatalf("expected poll default port 80, got %d", cfg.Device.Port)
	}
	if cfg.Device.Interval != 250*time.Millisecond {
		t.Fatalf("unexpected interval %v", cfg.Device.Interval)
	}
	if cfg.History.Seconds != 120 || cfg.API.DefaultWindow != 120*time.Second {
		t.Fatalf("unexpected history: %+v / %v", cfg.History, cfg.API.DefaultWindow)
	}
}

func TestRunFlagsOverlayConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tempmon.yaml")
	body := "device:\n  host: 10.0.0.5\n  port: 6000\nmetrics:\n  addr: 127.0.0.1:9200\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	f := parseRunFlags(t, "-config", path, "-port", "7000")
	cfg, err := f.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Device.Host != "10.0.0.5" || cfg.Device.Port != 7000 {
		t.Fatalf("unexpected device: %+v", cfg.Device)
	}
	if cfg.Metrics.Addr != "127.0.0.1:9200" {
		t.Fatalf("unexpected metrics addr %q", cfg.Metrics.Addr)
	}
}

func TestRunFlagsRequireHost(t *testing.T) {
	if _, err := parseRunFlags(t).loadConfig(); err == nil {
		t.Fatalf("expected error without host")
	}
}

func TestParseMetrics(t *testing.T) {
	text := `# HELP tempmon_samples_buffered_total Samples appended to channel buffers.
# TYPE tempmon_samples_buffered_total counter
tempmon_samples_buffered_total 42
tempmon_samples_received_total 43
tempmon_connection_state 2
tempmon_queue_length 0
go_goroutines 12
`
	m, err := parseMetrics(strings.NewReader(text))
	if err != nil {
		t.Fatalf("parseMetrics: %v", err)
	}
	if m["tempmon_samples_buffered_total"] != 42 || m["tempmon_samples_received_total"] != 43 {
		t.Fatalf("unexpected values: %v", m)
	}
	if _, ok := m["go_goroutines"]; ok {
		t.Fatalf("unexpected non-tempmon series")
	}

	line := formatSnapshot(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), m)
	if !strings.Contains(line, "connected received=43 buffered=42") {
		t.Fatalf("unexpected snapshot line %q", line)
	}
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, "warn", "json")
	logger.Info("hidden")
	logger.Warn("shown", "channel", "S1")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"service":"tempmon"`) || !strings.Contains(out, `"channel":"S1"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" S1, ,S2,")
	if len(got) != 2 || got[0] != "S1" || got[1] != "S2" {
		t.Fatalf("unexpected list %v", got)
	}
}
