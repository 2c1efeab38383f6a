// Package events pushes dispatcher state transitions and completed turns to
// connected GUIs over websocket, replacing the status polling the desktop
// shell would otherwise do.
package events

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/auraproject/aura/internal/model/turn"
	"github.com/auraproject/aura/internal/service/dispatch"
)

const writeTimeout = 5 * time.Second

// Event is one message on the feed.
type Event struct {
	Type   string                 `json:"type"` // "state" or "turn"
	State  string                 `json:"state,omitempty"`
	Detail string                 `json:"detail,omitempty"`
	Turn   *turn.ConversationTurn `json:"turn,omitempty"`
	Time   time.Time              `json:"time"`
}

// Hub fans events out to every connected client.
type Hub struct {
	mu       sync.Mutex
	clients  map[string]*websocket.Conn
	upgrader websocket.Upgrader
	// writeMu serializes broadcasts; websocket connections allow only one
	// concurrent writer.
	writeMu sync.Mutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*websocket.Conn),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Hub) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[events] websocket upgrade failed: %v", err)
		return
	}

	clientID := uuid.NewString()
	h.mu.Lock()
	h.clients[clientID] = conn
	active := len(h.clients)
	h.mu.Unlock()
	log.Printf("[events] client %s connected (%d active)", clientID, active)

	// Drain reads until the peer goes away; the feed is one-directional.
	go func() {
		defer h.drop(clientID)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) drop(clientID string) {
	h.mu.Lock()
	if conn, ok := h.clients[clientID]; ok {
		delete(h.clients, clientID)
		conn.Close()
		log.Printf("[events] client %s disconnected (%d active)", clientID, len(h.clients))
	}
	h.mu.Unlock()
}

// PublishState broadcasts a dispatcher state transition.
func (h *Hub) PublishState(state dispatch.State, detail string) {
	h.broadcast(Event{Type: "state", State: string(state), Detail: detail, Time: time.Now().UTC()})
}

// PublishTurn broadcasts a completed turn with its envelope.
func (h *Hub) PublishTurn(ct turn.ConversationTurn) {
	h.broadcast(Event{Type: "turn", Turn: &ct, Time: time.Now().UTC()})
}

func (h *Hub) broadcast(event Event) {
	h.mu.Lock()
	conns := make(map[string]*websocket.Conn, len(h.clients))
	for id, conn := range h.clients {
		conns[id] = conn
	}
	h.mu.Unlock()

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for id, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("[events] dropping slow client %s: %v", id, err)
			h.drop(id)
		}
	}
}
