package rooms

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub delivers room events to websocket subscribers. Clients join a room
// by connecting to its websocket endpoint; a failed write drops the client.
type Hub struct {
	mu       sync.Mutex
	clients  map[string]map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Join upgrades the request to a websocket and subscribes it to the room.
// The connection is read in the background solely to notice disconnects.
func (h *Hub) Join(room string, w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	h.mu.Lock()
	if h.clients[room] == nil {
		h.clients[room] = make(map[*websocket.Conn]struct{})
	}
	h.clients[room][conn] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("Websocket client joined", zap.String("room", room))

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.leave(room, conn)
				return
			}
		}
	}()
	return nil
}

func (h *Hub) leave(room string, conn *websocket.Conn) {
	h.mu.Lock()
	if conns, ok := h.clients[room]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.clients, room)
		}
	}
	h.mu.Unlock()
	conn.Close()
}

// Publish sends the event to every subscriber of the room. Write failures
// only drop the failing client, never the publish.
func (h *Hub) Publish(room string, event Event) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients[room]))
	for conn := range h.clients[room] {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(event); err != nil {
			h.logger.Warn("Dropping websocket client",
				zap.String("room", room), zap.Error(err))
			h.leave(room, conn)
		}
	}
}

// Close tears down every connection. Used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, conns := range h.clients {
		for conn := range conns {
			conn.Close()
		}
		delete(h.clients, room)
	}
}
