package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/dogsport-ua/competition-engine/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// liveConn wraps a websocket connection with a write lock, since the hub
// may publish from multiple request goroutines
type liveConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *liveConn) send(event models.LiveEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(event)
}

// LiveHub fans review-page events out to websocket subscribers, keyed by
// competition id. It satisfies the engine's Notifier interface.
type LiveHub struct {
	mu   sync.RWMutex
	subs map[string]map[*liveConn]bool
}

// NewLiveHub creates an empty hub
func NewLiveHub() *LiveHub {
	return &LiveHub{
		subs: make(map[string]map[*liveConn]bool),
	}
}

func (h *LiveHub) subscribe(competitionID string, c *liveConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[competitionID] == nil {
		h.subs[competitionID] = make(map[*liveConn]bool)
	}
	h.subs[competitionID][c] = true
}

func (h *LiveHub) unsubscribe(competitionID string, c *liveConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs[competitionID], c)
	if len(h.subs[competitionID]) == 0 {
		delete(h.subs, competitionID)
	}
}

// Publish sends an event to every subscriber of the competition. Dead
// connections are dropped on write failure.
func (h *LiveHub) Publish(competitionID string, event models.LiveEvent) {
	h.mu.RLock()
	conns := make([]*liveConn, 0, len(h.subs[competitionID]))
	for c := range h.subs[competitionID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.send(event); err != nil {
			slog.Debug("dropping live subscriber", "competitionId", competitionID, "error", err)
			c.conn.Close()
			h.unsubscribe(competitionID, c)
		}
	}
}

// handleLiveResults upgrades the organizer review page to a websocket that
// receives participant and placement updates as they happen
func (s *Server) handleLiveResults(w http.ResponseWriter, r *http.Request) {
	competitionID := chi.URLParam(r, "id")
	if competitionID == "" {
		http.Error(w, "competition id required", http.StatusBadRequest)
		return
	}

	comp, err := s.service.GetCompetition(r.Context(), competitionID)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	actor := UserFromContext(r.Context())
	if !actor.CanManage(comp) {
		respondError(w, http.StatusForbidden, "forbidden", "only the organizer or an admin may watch the live feed")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}

	c := &liveConn{conn: conn}
	s.live.subscribe(competitionID, c)
	slog.Info("live feed connected", "competitionId", competitionID, "user", actor.UserID)

	defer func() {
		s.live.unsubscribe(competitionID, c)
		conn.Close()
		slog.Info("live feed disconnected", "competitionId", competitionID, "user", actor.UserID)
	}()

	c.send(models.LiveEvent{Type: "connected"})

	// Consume control frames until the client goes away; the feed is
	// write-only from the client's point of view
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
