package viewer

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"vehicle-visualizer/protocol"
)

// Client consumes the frames of one hub connection. Object updates are
// only applied once the map message has been received.
type Client struct {
	view  MapView
	store *Store

	mu     sync.Mutex
	drawn  bool
	center Position
	token  string
}

// NewClient returns a client rendering on view. view may be nil.
func NewClient(view MapView) *Client {
	return &Client{
		view:  view,
		store: NewStore(view),
	}
}

// Store returns the client's marker store.
func (c *Client) Store() *Store { return c.store }

// Center returns the map center and layer token, if the map was received.
func (c *Client) Center() (Position, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.center, c.token, c.drawn
}

// Handle processes a single frame. An empty frame means the hub has no
// map yet.
func (c *Client) Handle(raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if protocol.Normalize(raw) == "" {
		if !c.drawn && c.view != nil {
			c.view.ShowWaiting()
		}
		return
	}

	msg, err := protocol.ParseBroadcast(raw)
	switch msg.Kind {
	case protocol.KindInit:
		if c.drawn {
			return
		}
		if err != nil {
			log.Printf("viewer: %v", err)
			return
		}
		c.center = Position{Lat: msg.Init.Lat, Lon: msg.Init.Lon}
		c.token = msg.Init.Token
		c.drawn = true
		if c.view != nil {
			c.view.Draw(c.center, c.token)
		}
	case protocol.KindUpdate:
		if err != nil {
			log.Printf("viewer: %v", err)
			return
		}
		if !c.drawn {
			log.Printf("viewer: object %s received before the map, dropped", msg.Update.ID)
			return
		}
		c.store.Apply(msg.Update)
	case protocol.KindTerminate:
		log.Printf("viewer: hub terminated")
	default:
		log.Printf("viewer: warning: unknown message type %q", raw)
	}
}

// Run connects to the hub at url and handles frames until ctx is done
// or the connection is lost.
func (c *Client) Run(ctx context.Context, url string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		c.Handle(string(data))
	}
}
