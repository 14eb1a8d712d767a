package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	"github.com/gorilla/websocket"
	"github.com/lightcycle-arena/match-server/service/i"
)

// sseKeepAlive is how often an idle event stream emits a comment line so
// intermediaries don't drop the connection.
const sseKeepAlive = 15 * time.Second

// Server pushes match snapshots to spectators. The canonical transport is
// the "/watch" server-sent event stream; "/ws" carries the same render
// events over a websocket for consumers that prefer one.
type Server struct {
	broadcaster i.Broadcaster
	logger      general_i.Logger
	upgrader    websocket.Upgrader
}

// wsEvent is the websocket envelope: the SSE event name plus the raw
// snapshot JSON.
type wsEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func New(b i.Broadcaster, l general_i.Logger) *Server {
	return &Server{
		broadcaster: b,
		logger:      l,
		upgrader: websocket.Upgrader{
			// Spectators are read-only and anonymous; any origin may watch.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Router returns the spectator route table.
func (s *Server) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", s.handleWatch)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Start serves spectator connections until the listener fails.
func (s *Server) Start(addr string) error {
	s.logger.Info(fmt.Sprintf("running visualizer on http://%s/", addr))
	return http.ListenAndServe(addr, s.Router())
}

// handleWatch streams "render" events until the spectator goes away.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	id, frames := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(id)
	s.logger.Info(fmt.Sprintf("spectator %d connected to event stream", id))

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case <-r.Context().Done():
			s.logger.Info(fmt.Sprintf("spectator %d disconnected", id))
			return
		case payload := <-frames:
			if _, err := fmt.Fprintf(w, "event: render\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// handleWS streams the same render events as websocket JSON envelopes.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warning(fmt.Sprintf("websocket upgrade failed: %v", err))
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	id, frames := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(id)
	s.logger.Info(fmt.Sprintf("spectator %d connected over websocket", id))

	for {
		select {
		case <-r.Context().Done():
			return
		case payload := <-frames:
			if err := conn.WriteJSON(wsEvent{Event: "render", Data: payload}); err != nil {
				s.logger.Info(fmt.Sprintf("spectator %d disconnected: %v", id, err))
				return
			}
		}
	}
}
