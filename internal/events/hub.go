package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub fans scan events out to websocket clients subscribed per scan.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[uuid.UUID]map[*websocket.Conn]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[uuid.UUID]map[*websocket.Conn]struct{}),
	}
}

func (h *Hub) Subscribe(scanID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[scanID] == nil {
		h.clients[scanID] = make(map[*websocket.Conn]struct{})
	}
	h.clients[scanID][conn] = struct{}{}
}

func (h *Hub) Unsubscribe(scanID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[scanID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.clients, scanID)
		}
	}
}

func (h *Hub) Broadcast(event ScanEvent) {
	h.mu.RLock()
	conns := h.clients[event.ScanID]
	h.mu.RUnlock()

	if len(conns) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	for conn := range conns {
		if err := conn.Write(context.Background(), websocket.MessageText, data); err != nil {
			h.logger.Debug("ws write error", "error", err)
			h.Unsubscribe(event.ScanID, conn)
			conn.Close(websocket.StatusNormalClosure, "")
		}
	}
}

// Run consumes the redis event channel and feeds the hub until ctx ends.
func (h *Hub) Run(ctx context.Context, redisClient *redis.Client) {
	if redisClient == nil {
		return
	}
	sub := redisClient.Subscribe(ctx, Channel)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			var event ScanEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			h.Broadcast(event)
		}
	}
}

// ServeScan upgrades the request and streams events for one scan until the
// client goes away.
func (h *Hub) ServeScan(w http.ResponseWriter, r *http.Request, scanID uuid.UUID) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Debug("ws accept error", "error", err)
		return
	}
	defer conn.CloseNow()

	h.Subscribe(scanID, conn)
	defer h.Unsubscribe(scanID, conn)

	// Block reading until the client disconnects; clients only listen.
	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			return
		}
	}
}
