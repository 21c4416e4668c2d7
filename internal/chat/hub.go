package chat

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub fans messages out to every connection joined to the same room. It is
// a single-process relay with no delivery guarantees beyond best effort.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{rooms: map[string]map[*websocket.Conn]bool{}}
}

func (h *Hub) Join(room string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[room]
	if !ok {
		clients = map[*websocket.Conn]bool{}
		h.rooms[room] = clients
	}
	clients[conn] = true
}

func (h *Hub) Leave(room string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(clients, conn)
	if len(clients) == 0 {
		delete(h.rooms, room)
	}
}

// Broadcast writes the payload to every member of the room. Connections
// that fail to accept the write are dropped from the room.
func (h *Hub) Broadcast(room string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.rooms[room] {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("chat broadcast to room %q failed: %v", room, err)
			delete(h.rooms[room], conn)
			_ = conn.Close()
		}
	}
}

// RoomSize reports the current number of members in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
