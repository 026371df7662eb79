package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// liveMessage is one consumer event as sent to websocket clients.
type liveMessage struct {
	Type   string              `json:"type"`
	Sample *liveSample         `json:"sample,omitempty"`
	Status *domain.StatusEvent `json:"status,omitempty"`
}

type liveSample struct {
	Channel string    `json:"channel"`
	T       time.Time `json:"t"`
	V       float64   `json:"v"`
}

func toLive(ev domain.Event) liveMessage {
	switch ev.Kind {
	case domain.EventSample:
		return liveMessage{Type: "sample", Sample: &liveSample{Channel: ev.Sample.ChannelID, T: ev.Sample.Timestamp, V: ev.Sample.Value}}
	default:
		st := ev.Status
		return liveMessage{Type: "status", Status: &st}
	}
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := s.cfg.Feed.Subscribe(s.cfg.LiveBuffer)
	defer cancel()
	s.log.Info("live client connected", "remote", r.RemoteAddr)

	// Clients only send control frames; reading keeps pongs flowing and
	// notices the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			s.log.Info("live client disconnected", "remote", r.RemoteAddr)
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(toLive(ev)); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
