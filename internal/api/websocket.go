package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/secretforest/secretforest/internal/logging"
)

// WebSocketMessage is one push notification on the wire.
type WebSocketMessage struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

const clientSendBuffer = 32

// wsClient is one connected observer.
type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan WebSocketMessage
}

// WebSocketHub fans committed-state notifications out to every connected
// observer. Delivery is best-effort and at-most-once: a client that
// cannot keep up is dropped and must resynchronize through the query
// API after reconnecting. The hub keeps no backlog.
type WebSocketHub struct {
	clients    map[string]*wsClient
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan WebSocketMessage
	done       chan struct{}
	closeOnce  sync.Once
	log        *logging.Logger
}

// NewWebSocketHub creates a hub. Call Run in a goroutine to start it.
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[string]*wsClient),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan WebSocketMessage, 64),
		done:       make(chan struct{}),
		log:        logging.WithField("component", "ws"),
	}
}

// Run owns the client set. All register/unregister/broadcast traffic is
// serialized here, so broadcast order matches the order Broadcast was
// called in.
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.done:
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.send)
			}
			return

		case client := <-h.register:
			h.clients[client.id] = client
			h.log.Info("Client connected (%d total)", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
				h.log.Info("Client disconnected (%d left)", len(h.clients))
			}

		case msg := <-h.broadcast:
			for id, client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow consumer: drop it rather than block the hub.
					delete(h.clients, id)
					close(client.send)
					h.log.Warn("Dropped slow client %s", id)
				}
			}
		}
	}
}

// Broadcast queues a message for all currently connected clients. A
// closed hub discards the message.
func (h *WebSocketHub) Broadcast(msg WebSocketMessage) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// Close stops the hub: Run returns, every client's send queue is closed
// and later broadcasts are discarded. Safe to call more than once.
func (h *WebSocketHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWebSocket upgrades the connection and registers the observer.
func (h *WebSocketHub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Upgrade failed: %v", err)
		return
	}

	client := &wsClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan WebSocketMessage, clientSendBuffer),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

// writePump drains the client's send queue onto the socket. Write
// failures are logged and end the connection; they never propagate back
// to the mutation that produced the message.
func (c *wsClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// readPump discards anything the client sends (ping/keep-alive) and
// unregisters on error.
func (c *wsClient) readPump(h *WebSocketHub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
