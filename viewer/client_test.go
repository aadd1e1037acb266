package viewer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientWaitsForMap(t *testing.T) {
	view := &recordingView{}
	c := NewClient(view)

	c.Handle("")
	c.Handle("object,1,45.001,7.601,90")
	_, _, ok := c.Center()
	assert.False(t, ok)
	assert.Equal(t, 0, c.Store().Len())
	assert.Equal(t, []string{"waiting"}, view.Calls())

	c.Handle("map,45.0,7.6,none")
	center, token, ok := c.Center()
	require.True(t, ok)
	assert.Equal(t, Position{Lat: 45.0, Lon: 7.6}, center)
	assert.Empty(t, token)

	c.Handle("object,1,45.001,7.601,90")
	assert.Equal(t, 1, c.Store().Len())
}

func TestClientDrawsMapOnce(t *testing.T) {
	view := &recordingView{}
	c := NewClient(view)

	c.Handle("map,45.0,7.6,pk.token")
	c.Handle("map,10,10,none")
	c.Handle("")

	assert.Equal(t, []string{"draw 45,7.6 pk.token"}, view.Calls())
	_, token, _ := c.Center()
	assert.Equal(t, "pk.token", token)
}

func TestClientIgnoresBadFrames(t *testing.T) {
	view := &recordingView{}
	c := NewClient(view)

	c.Handle("map,45.0,7.6")
	_, _, ok := c.Center()
	assert.False(t, ok)

	c.Handle("map,45.0,7.6,none")
	c.Handle("object,2,45.0,7.6")
	c.Handle("object,3,x,7.6,10")
	c.Handle("terminate")
	c.Handle("bogus,1")

	assert.Equal(t, 0, c.Store().Len())
}

func TestClientRun(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, frame := range []string{
			"",
			"map,45.0,7.6,none",
			"object,1,45.001,7.601,90",
			"object,1,45.002,7.602,361",
			"object,2,45.003,7.603,180",
		} {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	view := &recordingView{}
	c := NewClient(view)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := c.Run(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"))
	require.NoError(t, err)

	assert.Equal(t, 2, c.Store().Len())
	m, _ := c.Store().Get("1")
	assert.Equal(t, IconCircle, m.Icon)
	assert.Equal(t, "ID: 1 - Heading: unavailable", m.Label)
	assert.Equal(t, "waiting", view.Calls()[0])
}

func TestClientRunDialError(t *testing.T) {
	c := NewClient(nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := c.Run(ctx, "ws://127.0.0.1:1/ws")
	assert.Error(t, err)
}
