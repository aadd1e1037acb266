package main

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Viewers never send payloads; keep their frames small.
	maxMessageSize = 512

	sendQueueSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Subscriber receives broadcast payloads. Send must not block; it
// returns false when the payload could not be queued.
type Subscriber interface {
	Send(payload []byte) bool
	Close()
}

// wsHub is the registry of subscribers a Session publishes to.
type wsHub struct {
	mu      sync.Mutex
	clients map[Subscriber]struct{}
	metrics *metrics
}

func newHub(m *metrics) *wsHub {
	return &wsHub{clients: make(map[Subscriber]struct{}), metrics: m}
}

func (h *wsHub) add(s Subscriber) {
	h.mu.Lock()
	h.clients[s] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.viewers(n)
}

func (h *wsHub) remove(s Subscriber) {
	h.mu.Lock()
	_, ok := h.clients[s]
	delete(h.clients, s)
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		s.Close()
		h.metrics.viewers(n)
	}
}

// publish hands payload to every subscriber registered at call time.
// Subscribers that cannot keep up are dropped.
func (h *wsHub) publish(payload []byte) {
	h.mu.Lock()
	snapshot := make([]Subscriber, 0, len(h.clients))
	for c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	h.metrics.broadcast()
	for _, c := range snapshot {
		if !c.Send(payload) {
			log.Printf("dropping slow viewer %v", c)
			h.metrics.slowViewer()
			h.remove(c)
		}
	}
}

// wsClient is one viewer connected over WebSocket.
type wsClient struct {
	id   uuid.UUID
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func (c *wsClient) String() string { return c.id.String() }

func (c *wsClient) Send(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *wsClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func handleWebSocket(sess *Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("ws upgrade error: %v", err)
			return
		}
		c := &wsClient{
			id:   uuid.New(),
			conn: conn,
			send: make(chan []byte, sendQueueSize),
		}
		log.Printf("viewer %s connected from %s", c, r.RemoteAddr)

		// The bootstrap payload is queued before the pumps start.
		sess.Subscribe(c)
		go c.writePump()
		go c.readPump(sess)
	}
}

func (c *wsClient) readPump(sess *Session) {
	defer func() {
		sess.Unsubscribe(c)
		_ = c.conn.Close()
		log.Printf("viewer %s disconnected", c)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws read error: %v", err)
			}
			return
		}
	}
}

// writePump sends each queued payload as its own text frame.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
