// Package api serves the buffered telemetry, connection status and command
// history over HTTP, plus a websocket feed of live consumer events.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/app/control"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/app/pipeline"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/buffer"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
)

const (
	DefaultWindow     = 300 * time.Second
	DefaultLiveBuffer = 256

	maxWindow = 24 * time.Hour
)

type Config struct {
	Buffers  *buffer.Set
	Consumer *pipeline.Consumer
	Recorder *control.Recorder
	Feed     *pipeline.Feed

	DefaultWindow time.Duration
	LiveBuffer    int

	Logger *slog.Logger
	Now    func() time.Time
}

type Server struct {
	cfg Config
	log *slog.Logger
}

func New(cfg Config) (*Server, error) {
	if cfg.Buffers == nil {
		return nil, errors.New("api: buffers are required")
	}
	if cfg.DefaultWindow <= 0 {
		cfg.DefaultWindow = DefaultWindow
	}
	if cfg.LiveBuffer <= 0 {
		cfg.LiveBuffer = DefaultLiveBuffer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Server{cfg: cfg, log: cfg.Logger.With("component", "api")}, nil
}

// Register mounts the API routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/window", s.handleWindow)
	mux.HandleFunc("GET /api/latest", s.handleLatest)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/commands", s.handleCommands)
	mux.HandleFunc("POST /api/commands", s.handleToggle)
	if s.cfg.Feed != nil {
		mux.HandleFunc("GET /api/live", s.handleLive)
	}
}

// point is the wire form of buffer.Point; gaps carry a null value.
type point struct {
	T   time.Time `json:"t"`
	V   *float64  `json:"v"`
	Gap bool      `json:"gap,omitempty"`
}

func toWire(p buffer.Point) point {
	if p.IsGap() {
		return point{T: p.Time, Gap: true}
	}
	v := p.Value
	return point{T: p.Time, V: &v}
}

type windowResponse struct {
	Now      time.Time          `json:"now"`
	Seconds  float64            `json:"seconds"`
	Channels map[string][]point `json:"channels"`
}

func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	d := s.cfg.DefaultWindow
	if raw := r.URL.Query().Get("seconds"); raw != "" {
		secs, err := strconv.ParseFloat(raw, 64)
		if err != nil || secs <= 0 {
			writeError(w, http.StatusBadRequest, "seconds must be a positive number")
			return
		}
		d = time.Duration(secs * float64(time.Second))
		if d > maxWindow {
			d = maxWindow
		}
	}
	now := s.cfg.Now()
	resp := windowResponse{Now: now, Seconds: d.Seconds(), Channels: map[string][]point{}}
	only := r.URL.Query().Get("channel")
	for ch, pts := range s.cfg.Buffers.Window(now, d) {
		if only != "" && ch != only {
			continue
		}
		out := make([]point, len(pts))
		for i, p := range pts {
			out[i] = toWire(p)
		}
		resp.Channels[ch] = out
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLatest(w http.ResponseWriter, _ *http.Request) {
	latest := s.cfg.Buffers.Latest()
	out := make(map[string]point, len(latest))
	for ch, p := range latest {
		out[ch] = toWire(p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if s.cfg.Consumer == nil {
		writeError(w, http.StatusServiceUnavailable, "status unavailable")
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.Consumer.Status())
}

func (s *Server) handleCommands(w http.ResponseWriter, _ *http.Request) {
	if s.cfg.Recorder == nil {
		writeJSON(w, http.StatusOK, []domain.Command{})
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.Recorder.History())
}

type toggleRequest struct {
	Sensor string `json:"sensor"`
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Recorder == nil {
		writeError(w, http.StatusServiceUnavailable, "command recording disabled")
		return
	}
	req := toggleRequest{Sensor: r.URL.Query().Get("sensor")}
	if req.Sensor == "" && r.Body != nil {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "body must be {\"sensor\": \"S1\"}")
			return
		}
	}
	cmd, err := s.cfg.Recorder.Toggle(req.Sensor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, cmd)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
