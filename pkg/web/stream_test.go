package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/internal/moderation"
	"github.com/PancyStudios/ChannelGuardGo/pkg/mqtt"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialStream(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestActionStreamDelivers(t *testing.T) {
	stream := NewActionStream()
	srv := httptest.NewServer(newTestServer(&API{Stream: stream}).Engine())
	defer srv.Close()

	all := dialStream(t, srv, "")
	onlyC2 := dialStream(t, srv, "?channel=c2")
	require.Eventually(t, func() bool { return stream.Clients() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, stream.Apply(context.Background(), moderation.KickUser{ChatID: "c1", UserID: "u1"}))
	require.NoError(t, stream.Apply(context.Background(), moderation.DeleteMessage{ChatID: "c2", MessageID: "m9"}))

	read := func(conn *websocket.Conn) mqtt.ActionMessage {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg mqtt.ActionMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	}

	first := read(all)
	assert.Equal(t, "kick_user", first.Kind)
	assert.Equal(t, "u1", first.UserID)
	assert.Equal(t, "delete_message", read(all).Kind)

	filtered := read(onlyC2)
	assert.Equal(t, "c2", filtered.ChatID)
	assert.Equal(t, "m9", filtered.MessageID)
}

func TestActionStreamDropsOnDisconnect(t *testing.T) {
	stream := NewActionStream()
	srv := httptest.NewServer(newTestServer(&API{Stream: stream}).Engine())
	defer srv.Close()

	conn := dialStream(t, srv, "")
	require.Eventually(t, func() bool { return stream.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return stream.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestActionStreamClose(t *testing.T) {
	stream := NewActionStream()
	srv := httptest.NewServer(newTestServer(&API{Stream: stream}).Engine())
	defer srv.Close()

	conn := dialStream(t, srv, "")
	require.Eventually(t, func() bool { return stream.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	stream.Close()
	assert.Equal(t, 0, stream.Clients())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)

	rec := do(newTestServer(&API{Stream: stream}), http.MethodGet, "/api/stream")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStreamUnavailableWithoutHub(t *testing.T) {
	rec := do(newTestServer(&API{}), http.MethodGet, "/api/stream")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
