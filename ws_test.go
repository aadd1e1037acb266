package main

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialViewer(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	mt, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, mt)
	return string(data)
}

func TestWebSocketBootstrapBeforeMap(t *testing.T) {
	sess := newTestSession("none")
	srv := httptest.NewServer(handleWebSocket(sess))
	defer srv.Close()

	conn := dialViewer(t, srv)
	assert.Equal(t, "", readFrame(t, conn))

	require.Eventually(t, func() bool { return subscriberCount(sess) == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, sess.Ingest("map,45.0,7.6"))
	require.NoError(t, sess.Ingest("object,1,45.001,7.601,90"))

	assert.Equal(t, "map,45.0,7.6,none", readFrame(t, conn))
	assert.Equal(t, "object,1,45.001,7.601,90", readFrame(t, conn))
}

func TestWebSocketBootstrapAfterMap(t *testing.T) {
	sess := newTestSession("pk.abc")
	require.NoError(t, sess.Ingest("map,45.0,7.6"))
	require.NoError(t, sess.Ingest("object,1,45.001,7.601,90"))

	srv := httptest.NewServer(handleWebSocket(sess))
	defer srv.Close()

	conn := dialViewer(t, srv)
	assert.Equal(t, "map,45.0,7.6,pk.abc", readFrame(t, conn))

	require.NoError(t, sess.Ingest("object,1,45.002,7.602,361"))
	assert.Equal(t, "object,1,45.002,7.602,361", readFrame(t, conn))
}

func TestWebSocketDisconnectUnsubscribes(t *testing.T) {
	sess := newTestSession("none")
	srv := httptest.NewServer(handleWebSocket(sess))
	defer srv.Close()

	conn := dialViewer(t, srv)
	readFrame(t, conn)
	require.Eventually(t, func() bool { return subscriberCount(sess) == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return subscriberCount(sess) == 0 }, time.Second, 10*time.Millisecond)
}

func TestWebSocketManyViewers(t *testing.T) {
	sess := newTestSession("none")
	require.NoError(t, sess.Ingest("map,45.0,7.6"))
	srv := httptest.NewServer(handleWebSocket(sess))
	defer srv.Close()

	conns := make([]*websocket.Conn, 3)
	for i := range conns {
		conns[i] = dialViewer(t, srv)
		assert.Equal(t, "map,45.0,7.6,none", readFrame(t, conns[i]))
	}
	require.Eventually(t, func() bool { return subscriberCount(sess) == 3 }, time.Second, 10*time.Millisecond)

	require.NoError(t, sess.Ingest("object,7,45.0,7.6,10"))
	for _, c := range conns {
		assert.Equal(t, "object,7,45.0,7.6,10", readFrame(t, c))
	}
}
