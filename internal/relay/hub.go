// Package relay connects chat surfaces to the message bus: a WebSocket
// room hub for browser clients and a Telegram bridge.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"ragroom/internal/domain"
	"ragroom/internal/metrics"
)

const defaultRoomID = "lobby"

// HubConfig configures the WebSocket relay.
type HubConfig struct {
	Host string
	Port int
	Path string // WebSocket endpoint path (default: /ws)

	// OnRoomEmpty is invoked after the last client of a room disconnects.
	OnRoomEmpty func(roomID string)

	Logger *slog.Logger
}

// Hub serves the WebSocket chat surface. Every client joins exactly one
// room; a broadcast for a room reaches all of its current members,
// including the original sender.
type Hub struct {
	host        string
	port        int
	path        string
	onRoomEmpty func(string)
	bus         domain.MessageBus
	logger      *slog.Logger
	server      *http.Server

	mu      sync.RWMutex
	clients map[string]*hubClient
}

// hubClient tracks one connected WebSocket client.
type hubClient struct {
	conn   *websocket.Conn
	roomID string
	mu     sync.Mutex
}

// WirePayload is the JSON frame exchanged with WebSocket clients, in both
// directions.
type WirePayload struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins (configure CORS for production)
	},
}

func NewHub(cfg HubConfig) *Hub {
	if cfg.Path == "" {
		cfg.Path = "/ws"
	}
	if cfg.Port == 0 {
		cfg.Port = 8081
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Hub{
		host:        cfg.Host,
		port:        cfg.Port,
		path:        cfg.Path,
		onRoomEmpty: cfg.OnRoomEmpty,
		logger:      cfg.Logger,
		clients:     make(map[string]*hubClient),
	}
}

func (h *Hub) Name() string { return "websocket" }

// Start serves WebSocket upgrades and the metrics endpoint until ctx is
// cancelled.
func (h *Hub) Start(ctx context.Context, bus domain.MessageBus) error {
	h.bus = bus

	mux := http.NewServeMux()
	mux.HandleFunc(h.path, h.handleUpgrade)
	mux.Handle("/metrics", metrics.Collector.Handler())

	h.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", h.host, h.port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	bus.OnOutbound(h.Name(), func(msg domain.OutboundMessage) {
		h.broadcast(msg.RoomID, WirePayload{
			Message:  msg.Message,
			Username: msg.Username,
		})
	})

	h.logger.Info("websocket relay starting", "addr", h.server.Addr, "path", h.path)

	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		h.closeAllClients()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return h.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (h *Hub) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = defaultRoomID
	}

	client := &hubClient{
		conn:   conn,
		roomID: roomID,
	}

	clientID := uuid.NewString()
	h.mu.Lock()
	h.clients[clientID] = client
	h.mu.Unlock()
	metrics.ActiveClients.Inc()

	h.logger.Info("client connected", "client_id", clientID, "room", roomID)

	defer func() {
		h.mu.Lock()
		delete(h.clients, clientID)
		empty := h.roomSizeLocked(roomID) == 0
		h.mu.Unlock()
		conn.Close()
		metrics.ActiveClients.Dec()
		h.logger.Info("client disconnected", "client_id", clientID, "room", roomID)
		if empty && h.onRoomEmpty != nil {
			h.onRoomEmpty(roomID)
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Error("websocket read error", "err", err)
			}
			return
		}

		var payload WirePayload
		if err := json.Unmarshal(data, &payload); err != nil {
			h.logger.Warn("invalid client frame", "client_id", clientID, "err", err)
			continue
		}
		if payload.Message == "" {
			continue
		}

		h.bus.Publish(domain.InboundMessage{
			Relay:     h.Name(),
			RoomID:    roomID,
			SenderID:  payload.Username,
			Content:   payload.Message,
			Timestamp: time.Now(),
		})
	}
}

// roomSizeLocked counts members of a room. Callers hold h.mu.
func (h *Hub) roomSizeLocked(roomID string) int {
	n := 0
	for _, c := range h.clients {
		if c.roomID == roomID {
			n++
		}
	}
	return n
}

func (h *Hub) broadcast(roomID string, payload WirePayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, client := range h.clients {
		if client.roomID != roomID {
			continue
		}
		client.mu.Lock()
		err := client.conn.WriteMessage(websocket.TextMessage, data)
		client.mu.Unlock()
		if err != nil {
			h.logger.Debug("websocket write failed", "client_id", id, "err", err)
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		client.conn.Close()
		delete(h.clients, id)
	}
}
