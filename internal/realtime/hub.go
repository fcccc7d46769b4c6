// Package realtime provides the room-based notification channel. Clients
// connect over WebSocket, join rooms, and receive every event broadcast to a
// room they are in. Server-side code publishes appointment and notification
// events to per-user rooms ("user:<id>").
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event is an outbound message to room members.
type Event struct {
	Type      string          `json:"type"`
	Room      string          `json:"room"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ClientMessage is an inbound message from a WebSocket client.
type ClientMessage struct {
	Action string          `json:"action"` // join_room | leave_room | send_message
	Room   string          `json:"room"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a single WebSocket connection.
type Client struct {
	ID    string
	Rooms []string
	Send  chan []byte
	conn  Conn
}

// Hub tracks connected clients and their room memberships. All operations
// are safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{} // room -> set of members
	all    map[*Client]struct{}
	logger *zap.Logger
}

// NewHub creates a Hub ready to manage clients.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		all:    make(map[*Client]struct{}),
		logger: logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	for _, room := range client.Rooms {
		if h.rooms[room] == nil {
			h.rooms[room] = make(map[*Client]struct{})
		}
		h.rooms[room][client] = struct{}{}
	}
}

// Unregister removes a client from the hub and every room it joined, and
// closes the client's Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}

	for _, room := range client.Rooms {
		h.removeFromRoom(client, room)
	}
	delete(h.all, client)
	close(client.Send)
}

// Join adds the client to a room.
func (h *Hub) Join(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][client] = struct{}{}
	for _, r := range client.Rooms {
		if r == room {
			return
		}
	}
	client.Rooms = append(client.Rooms, room)
}

// Leave removes the client from a room.
func (h *Hub) Leave(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoom(client, room)
	remaining := client.Rooms[:0]
	for _, r := range client.Rooms {
		if r != room {
			remaining = append(remaining, r)
		}
	}
	client.Rooms = remaining
}

// removeFromRoom must be called with h.mu held.
func (h *Hub) removeFromRoom(client *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// ProcessMessage dispatches an inbound client message.
func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	switch msg.Action {
	case "join_room":
		h.Join(client, msg.Room)
		h.logger.Info("client joined room",
			zap.String("client_id", client.ID), zap.String("room", msg.Room))
	case "leave_room":
		h.Leave(client, msg.Room)
		h.logger.Info("client left room",
			zap.String("client_id", client.ID), zap.String("room", msg.Room))
	case "send_message":
		h.Broadcast(msg.Room, Event{
			Type:      "receive_message",
			Room:      msg.Room,
			Timestamp: time.Now(),
			Data:      msg.Data,
		})
	}
}

// Broadcast sends an event to every member of the room. Clients whose send
// buffer is full are skipped rather than blocked on.
func (h *Hub) Broadcast(room string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[room] {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// NotifyUser publishes an event to the user's personal room.
func (h *Hub) NotifyUser(userID, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal notification payload", zap.Error(err))
		return
	}
	room := "user:" + userID
	h.Broadcast(room, Event{
		Type:      eventType,
		Room:      room,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// RoomCount returns the number of members in a room.
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin is enforced by the CORS layer.
	},
}

// HandleConnect upgrades an HTTP request to a WebSocket connection, registers
// the client, and starts the read/write pumps. An authenticated user is
// auto-joined to their personal room.
func (h *Hub) HandleConnect(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		ID:   uuid.New().String(),
		Send: make(chan []byte, 256),
		conn: ws,
	}
	if userID, exists := c.Get("userID"); exists {
		if id, ok := userID.(string); ok {
			client.Rooms = []string{"user:" + id}
		}
	}

	h.Register(client)
	h.logger.Info("client connected", zap.String("client_id", client.ID))

	go h.writePump(client)
	go h.readPump(client)
}

func (h *Hub) readPump(client *Client) {
	defer func() {
		h.Unregister(client)
		client.conn.Close()
		h.logger.Info("client disconnected", zap.String("client_id", client.ID))
	}()

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue // Ignore malformed messages.
		}
		h.ProcessMessage(client, msg)
	}
}

func (h *Hub) writePump(client *Client) {
	defer client.conn.Close()

	for message := range client.Send {
		if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
}
