// Package ws pushes dashboard snapshots to connected browsers. The hub owns
// all client registration and fan-out; handlers only call Broadcast.
package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Message types sent to dashboard clients.
const (
	MsgTypeSnapshot = "snapshot"
	MsgTypeError    = "error"
)

// Message is the envelope for every frame sent to a client.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Client is one connected dashboard socket.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub manages dashboard connections and broadcasts.
type Hub struct {
	logger     *zap.Logger
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	// snapshotProvider supplies the initial frame for a fresh connection.
	snapshotProvider func() interface{}
}

// NewHub creates the hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// SetSnapshotProvider sets the callback used to greet new clients.
func (h *Hub) SetSnapshotProvider(provider func() interface{}) {
	h.snapshotProvider = provider
}

// Run processes registration and broadcast events until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("dashboard client connected", zap.Int("total_clients", total))
			h.sendSnapshot(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("dashboard client disconnected", zap.Int("total_clients", total))

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer, drop the connection.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) sendSnapshot(client *Client) {
	if h.snapshotProvider == nil {
		return
	}
	data := h.snapshotProvider()
	if data == nil {
		return
	}

	payload, err := json.Marshal(Message{Type: MsgTypeSnapshot, Data: data})
	if err != nil {
		h.logger.Error("failed to marshal snapshot", zap.Error(err))
		return
	}

	select {
	case client.send <- payload:
	default:
		h.logger.Warn("client buffer full, snapshot dropped")
	}
}

// BroadcastSnapshot fans a fresh snapshot out to every client.
func (h *Hub) BroadcastSnapshot(snapshot interface{}) {
	payload, err := json.Marshal(Message{Type: MsgTypeSnapshot, Data: snapshot})
	if err != nil {
		h.logger.Error("failed to marshal broadcast", zap.Error(err))
		return
	}
	h.broadcast <- payload
}

// ClientCount reports connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NewClient wraps an accepted connection.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// Register attaches the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump drains inbound frames to keep the connection alive. Dashboard
// clients never send meaningful messages.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// WritePump forwards queued frames to the socket.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
