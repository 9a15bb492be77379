package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/quentinrf/plant-monitor/services/envsensor/internal/ports"
)

const snapshotTimeout = 2 * time.Second

// Server upgrades HTTP connections and attaches them to a Broadcaster
type Server struct {
	broadcaster *Broadcaster
	sensor      ports.SensorController
	upgrader    websocket.Upgrader
}

func NewServer(broadcaster *Broadcaster, sensor ports.SensorController) *Server {
	return &Server{
		broadcaster: broadcaster,
		sensor:      sensor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP routes served by s
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := s.broadcaster.AddClient(conn, s.snapshotMessage(r.Context()))
	log.Info().
		Str("remote", r.RemoteAddr).
		Int("clients", s.broadcaster.ClientCount()).
		Msg("ws client connected")

	// Drain reads so close frames are processed; the stream is one-way
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.broadcaster.RemoveClient(c)
	log.Info().Str("remote", r.RemoteAddr).Msg("ws client disconnected")
}

func (s *Server) snapshotMessage(ctx context.Context) WSMessage {
	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	snap, err := s.sensor.Snapshot(ctx)
	if err != nil {
		return WSMessage{Type: MsgError, Payload: ErrorPayload{Message: err.Error()}}
	}
	return WSMessage{
		Type: MsgSnapshot,
		Payload: SnapshotPayload{
			ID:         snap.ID,
			SensorType: snap.SensorType.String(),
			Unit:       snap.SensorType.Unit(),
			Enabled:    snap.Enabled,
			State:      snap.State,
			Available:  snap.Available,
			Value:      snap.Value,
			Samples:    snap.Samples,
		},
	}
}
