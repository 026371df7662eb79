// Package sim is a fake temperature device for manual runs and tests. It
// streams newline-delimited JSON over TCP and answers GET /temp like the
// device's HTTP firmware.
package sim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	DefaultHz     = 2.0
	DefaultBase   = 23.5
	DefaultJitter = 0.02

	maxDrift   = 1.5
	waveAmp    = 0.4
	waveFreq   = 0.15
	sensorStep = 0.6
	minHz      = 0.1
)

type Config struct {
	Sensors []string
	Hz      float64
	Base    float64
	Jitter  float64
	Seed    uint64
	Logger  *slog.Logger
	Now     func() time.Time
}

// Server serves simulated readings. Readings share one random walk per
// sensor; each TCP client gets its own sinusoid phase.
type Server struct {
	cfg Config
	log *slog.Logger

	mu    sync.Mutex
	rng   *rand.Rand
	base  map[string]float64
	drift map[string]float64

	wg sync.WaitGroup
}

func New(cfg Config) *Server {
	if len(cfg.Sensors) == 0 {
		cfg.Sensors = []string{"S1", "S2"}
	}
	if cfg.Hz < minHz {
		cfg.Hz = DefaultHz
	}
	if cfg.Base == 0 {
		cfg.Base = DefaultBase
	}
	if cfg.Jitter <= 0 {
		cfg.Jitter = DefaultJitter
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	s := &Server{
		cfg:   cfg,
		log:   cfg.Logger.With("component", "sim"),
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		base:  make(map[string]float64, len(cfg.Sensors)),
		drift: make(map[string]float64, len(cfg.Sensors)),
	}
	for i, name := range cfg.Sensors {
		s.base[name] = cfg.Base + float64(i)*sensorStep
	}
	return s
}

// Reading advances sensor's random walk and returns its value at now,
// rounded to hundredths.
func (s *Server) Reading(sensor string, now time.Time, phase float64) float64 {
	s.mu.Lock()
	d := s.drift[sensor] + (s.rng.Float64()*2-1)*s.cfg.Jitter
	d = math.Max(-maxDrift, math.Min(maxDrift, d))
	s.drift[sensor] = d
	base := s.base[sensor]
	s.mu.Unlock()

	secs := float64(now.UnixNano()) / 1e9
	v := base + d + waveAmp*math.Sin(secs*waveFreq+phase)
	return math.Round(v*100) / 100
}

func (s *Server) phase() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() * 2 * math.Pi
}

// Bounds returns the range every reading of sensor falls in.
func (s *Server) Bounds(sensor string) (lo, hi float64) {
	b := s.base[sensor]
	return b - maxDrift - waveAmp - 0.01, b + maxDrift + waveAmp + 0.01
}

type record struct {
	TempC  float64 `json:"t_c"`
	Sensor string  `json:"sensor"`
	TS     float64 `json:"ts"`
}

// Serve accepts stream clients on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	s.log.Info("serving fake temps", "addr", ln.Addr().String(), "sensors", s.cfg.Sensors, "hz", s.cfg.Hz)
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.wg.Wait()
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.stream(ctx, conn)
		}()
	}
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) stream(ctx context.Context, conn net.Conn) {
	peer := conn.RemoteAddr().String()
	s.log.Info("client connected", "peer", peer)
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	// Reads only detect the peer going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		buf := make([]byte, 64)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	}()

	phase := s.phase()
	ticker := time.NewTicker(time.Duration(float64(time.Second) / s.cfg.Hz))
	defer ticker.Stop()
	enc := json.NewEncoder(conn)
	for {
		select {
		case <-ctx.Done():
			return
		case <-gone:
			s.log.Info("client disconnected", "peer", peer)
			return
		case <-ticker.C:
			now := s.cfg.Now()
			for _, name := range s.cfg.Sensors {
				rec := record{TempC: s.Reading(name, now, phase), Sensor: name, TS: float64(now.UnixNano()) / 1e9}
				if err := enc.Encode(rec); err != nil {
					s.log.Info("client disconnected", "peer", peer, "error", err)
					return
				}
			}
		}
	}
}

type pollBody struct {
	C1    *float64 `json:"c1"`
	C2    *float64 `json:"c2"`
	En1   bool     `json:"en1"`
	En2   bool     `json:"en2"`
	Shown *float64 `json:"shown"`
	IP    string   `json:"ip"`
}

// HTTPHandler serves GET /temp with the first two sensors as c1 and c2.
func (s *Server) HTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /temp", func(w http.ResponseWriter, r *http.Request) {
		now := s.cfg.Now()
		var body pollBody
		if len(s.cfg.Sensors) > 0 {
			v := s.Reading(s.cfg.Sensors[0], now, 0)
			body.C1, body.En1, body.Shown = &v, true, &v
		}
		if len(s.cfg.Sensors) > 1 {
			v := s.Reading(s.cfg.Sensors[1], now, 0)
			body.C2, body.En2 = &v, true
		}
		if host, _, err := net.SplitHostPort(r.Host); err == nil {
			body.IP = host
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})
	return mux
}
