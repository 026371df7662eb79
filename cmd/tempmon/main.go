package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/sim"
	"github.com/NoahOriano/SeniorDesignTeam8/pkg/tempmon"
)

// Version is set at build time with -ldflags.
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "simulate":
		err = simulateCommand(os.Args[2:])
	case "version":
		fmt.Println(Version)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
		return
	default:
		printUsage(os.Stderr)
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "tempmon %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

type runFlags struct {
	config    string
	settings  string
	host      string
	port      int
	mode      string
	history   int
	interval  float64
	metrics   string
	archive   string
	logLevel  string
	logFormat string
}

func (f *runFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.config, "config", "", "Path to YAML configuration (optional)")
	fs.StringVar(&f.settings, "settings", "", "Alert settings JSON file (thresholds, mail credentials)")
	fs.StringVar(&f.host, "host", "", "Device hostname or IP")
	fs.IntVar(&f.port, "port", 0, "Device port (default 5000 for stream, 80 for poll)")
	fs.StringVar(&f.mode, "mode", "", "Transport: stream or poll")
	fs.IntVar(&f.history, "history", 0, "History window in seconds (default 300)")
	fs.Float64Var(&f.interval, "interval", 0, "Polling interval in seconds (default 0.5)")
	fs.StringVar(&f.metrics, "metrics-addr", "", "Metrics and API listen address (default :9100)")
	fs.StringVar(&f.archive, "archive", "", "Archive driver: none, timescale or csv")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "text", "Log format: text or json")
}

// loadConfig reads the optional file and overlays flags that were set.
func (f *runFlags) loadConfig() (*tempmon.Config, error) {
	cfg := tempmon.DefaultConfig()
	if f.config != "" {
		var err error
		cfg, err = tempmon.ParseConfig(f.config)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if f.host != "" {
		cfg.Device.Host = f.host
	}
	if f.mode != "" {
		if cfg.Device.Mode != f.mode && f.port == 0 {
			cfg.Device.Port = 0
		}
		cfg.Device.Mode = f.mode
	}
	if f.port != 0 {
		cfg.Device.Port = f.port
	}
	if f.history > 0 {
		cfg.History.Seconds = f.history
		cfg.API.DefaultWindow = time.Duration(f.history) * time.Second
	}
	if f.interval > 0 {
		cfg.Device.Interval = time.Duration(f.interval * float64(time.Second))
	}
	if f.metrics != "" {
		cfg.Metrics.Addr = f.metrics
	}
	if f.archive != "" {
		cfg.Archive.Driver = f.archive
	}
	if f.settings != "" {
		cfg.Alerts.SettingsFile = f.settings
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	var f runFlags
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := setupLogger(os.Stdout, f.logLevel, f.logFormat)
	slog.SetDefault(logger)

	cfg, err := f.loadConfig()
	if err != nil {
		return err
	}
	applied, err := tempmon.ApplySettingsFile(cfg)
	if err != nil {
		return err
	}
	if cfg.Alerts.SettingsFile != "" && !applied {
		logger.Warn("alert settings file not found; using configured thresholds", "path", cfg.Alerts.SettingsFile)
	}
	if !cfg.MailReady() {
		logger.Info("email alerts disabled; sender, password and recipient are all required")
	}

	rt, err := tempmon.NewRuntime(cfg, tempmon.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", "device", fmt.Sprintf("%s:%d", cfg.Device.Host, cfg.Device.Port), "mode", cfg.Device.Mode, "history_s", cfg.History.Seconds)
	return rt.Run(ctx)
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := tempmon.LoadConfig(*cfgPath); err != nil {
		return err
	}
	fmt.Printf("config %s looks good\n", *cfgPath)
	return nil
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			snap, err := fetchMetrics(ctx, *url)
			if err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
				continue
			}
			fmt.Println(formatSnapshot(time.Now(), snap))
		}
	}
}

var statsTargets = []string{
	"tempmon_samples_received_total",
	"tempmon_samples_buffered_total",
	"tempmon_samples_restamped_total",
	"tempmon_decode_errors_total",
	"tempmon_queue_dropped_total",
	"tempmon_queue_length",
	"tempmon_connection_state",
	"tempmon_alerts_sent_total",
	"tempmon_archive_written_total",
}

func fetchMetrics(ctx context.Context, url string) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics picks the tempmon series out of a Prometheus text exposition.
func parseMetrics(r io.Reader) (map[string]float64, error) {
	out := make(map[string]float64, len(statsTargets))
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for _, key := range statsTargets {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %g", &value); err == nil {
					out[key] = value
				}
			}
		}
	}
	return out, scanner.Err()
}

func formatSnapshot(at time.Time, m map[string]float64) string {
	state := "disconnected"
	switch m["tempmon_connection_state"] {
	case 1:
		state = "connecting"
	case 2:
		state = "connected"
	}
	return fmt.Sprintf("[%s] %s received=%.0f buffered=%.0f restamped=%.0f malformed=%.0f dropped=%.0f queue=%.0f alerts=%.0f archived=%.0f",
		at.Format(time.RFC3339),
		state,
		m["tempmon_samples_received_total"],
		m["tempmon_samples_buffered_total"],
		m["tempmon_samples_restamped_total"],
		m["tempmon_decode_errors_total"],
		m["tempmon_queue_dropped_total"],
		m["tempmon_queue_length"],
		m["tempmon_alerts_sent_total"],
		m["tempmon_archive_written_total"],
	)
}

func simulateCommand(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	listen := fs.String("listen", ":5000", "TCP address for the newline JSON stream")
	httpAddr := fs.String("http", "", "Also serve GET /temp on this address")
	sensors := fs.String("sensors", "S1,S2", "Comma separated sensor names")
	hz := fs.Float64("hz", sim.DefaultHz, "Samples per second per sensor")
	base := fs.Float64("base", sim.DefaultBase, "Base temperature in °C")
	jitter := fs.Float64("jitter", sim.DefaultJitter, "Random-walk step size in °C")
	logLevel := fs.String("log-level", "info", "Log level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := setupLogger(os.Stdout, *logLevel, "text")
	srv := sim.New(sim.Config{
		Sensors: splitList(*sensors),
		Hz:      *hz,
		Base:    *base,
		Jitter:  *jitter,
		Logger:  logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *httpAddr != "" {
		hs := &http.Server{Addr: *httpAddr, Handler: srv.HTTPHandler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http simulator exited", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = hs.Shutdown(shutdownCtx)
		}()
		logger.Info("serving GET /temp", "addr", *httpAddr)
	}
	return srv.ListenAndServe(ctx, *listen)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `tempmon - live temperature telemetry

Usage:
  tempmon <command> [flags]

Commands:
  run        Connect to the device, buffer readings, raise alerts, serve metrics and API
  validate   Load and validate a config file without starting the runtime
  stats      Poll the Prometheus metrics endpoint and print live counters
  simulate   Run a fake device (TCP stream and optional HTTP /temp)
  version    Print the build version

Examples:
  tempmon run -host 192.168.4.1 -mode poll -interval 0.5
  tempmon run -config ./data/config.yaml -settings ./alert_settings.json
  tempmon validate -config ./data/config.yaml
  tempmon stats -url http://localhost:9100/metrics -interval 1s
  tempmon simulate -listen :5000 -http :8080 -sensors S1,S2 -hz 2
`)
}
