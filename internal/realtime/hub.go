package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/gabrieldeelay/jnducorte2/internal/domain"
)

// Hub fans change events and booking alerts out to connected dashboard
// viewers over websocket. Delivery is at-least-once; viewers de-duplicate
// by record id.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *log.Logger

	// onAttach/onDetach track admin viewers for the alert gating rule.
	onAttach func()
	onDetach func()

	mu    sync.Mutex
	conns []*websocket.Conn
}

func NewHub(logger *log.Logger, onAttach, onDetach func()) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:   logger,
		onAttach: onAttach,
		onDetach: onDetach,
	}
}

type wsMessage struct {
	Type string              `json:"type"`
	Op   domain.ChangeOp     `json:"op,omitempty"`
	New  *domain.Reservation `json:"new,omitempty"`
	Old  *domain.Reservation `json:"old,omitempty"`
}

// ServeHTTP upgrades the connection and holds it open until the viewer
// leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}

	h.mu.Lock()
	h.conns = append(h.conns, conn)
	h.mu.Unlock()
	if h.onAttach != nil {
		h.onAttach()
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(conn)
	if h.onDetach != nil {
		h.onDetach()
	}
	_ = conn.Close()
}

// BroadcastChange sends one reconciled change event to every viewer.
func (h *Hub) BroadcastChange(ev domain.ChangeEvent) {
	h.send(wsMessage{Type: "change", Op: ev.Op, New: ev.New, Old: ev.Old})
}

// NotifyNewReservation sends a deduplicated new-booking alert.
func (h *Hub) NotifyNewReservation(rec domain.Reservation) {
	h.send(wsMessage{Type: "new_booking", New: &rec})
}

// ViewerCount reports the number of attached viewers.
func (h *Hub) ViewerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) send(msg wsMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Printf("hub: marshal message: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Prune connections that fail to take the write.
	alive := h.conns[:0]
	for _, conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err == nil {
			alive = append(alive, conn)
		} else {
			_ = conn.Close()
		}
	}
	h.conns = alive
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	alive := make([]*websocket.Conn, 0, len(h.conns))
	for _, c := range h.conns {
		if c != conn {
			alive = append(alive, c)
		}
	}
	h.conns = alive
}
