package web

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/internal/moderation"
	"github.com/PancyStudios/ChannelGuardGo/pkg/logger"
	"github.com/PancyStudios/ChannelGuardGo/pkg/mqtt"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	streamBuffer    = 32
	streamWriteWait = 10 * time.Second
	streamPingEvery = 30 * time.Second
)

// ActionStream pushes moderation actions to websocket subscribers. It is a
// moderation.ActionSink; slow subscribers are disconnected instead of
// holding up the engine.
type ActionStream struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*streamClient]struct{}
	closed  bool
}

type streamClient struct {
	conn   *websocket.Conn
	chatID string
	send   chan []byte
	once   sync.Once
}

// NewActionStream creates an empty stream
func NewActionStream() *ActionStream {
	return &ActionStream{
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			// The host filter middleware already vetted the request
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*streamClient]struct{}),
	}
}

// Clients returns the number of connected subscribers
func (s *ActionStream) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Apply implements moderation.ActionSink
func (s *ActionStream) Apply(_ context.Context, action moderation.Action) error {
	msg := mqtt.MessageFor(action)
	msg.At = time.Now()
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.mu.RLock()
	var slow []*streamClient
	for c := range s.clients {
		if c.chatID != "" && c.chatID != msg.ChatID {
			continue
		}
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	s.mu.RUnlock()

	for _, c := range slow {
		logger.Warn("Suscriptor lento desconectado del stream", "WebStream")
		s.drop(c)
	}
	return nil
}

// Handler upgrades the request and streams actions until the peer leaves.
// The optional channel query parameter limits the stream to one channel.
func (s *ActionStream) Handler(c *gin.Context) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		unavailable(c)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(fmt.Sprintf("Upgrade a websocket fallido: %v", err), "WebStream")
		return
	}

	client := &streamClient{
		conn:   conn,
		chatID: c.Query("channel"),
		send:   make(chan []byte, streamBuffer),
	}

	s.mu.Lock()
	s.clients[client] = struct{}{}
	s.mu.Unlock()
	logger.Debug(fmt.Sprintf("Nuevo suscriptor del stream (%s)", c.ClientIP()), "WebStream")

	go s.writeLoop(client)
	s.readLoop(client)
}

// readLoop discards incoming frames and notices when the peer goes away
func (s *ActionStream) readLoop(c *streamClient) {
	defer s.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *ActionStream) writeLoop(c *streamClient) {
	ticker := time.NewTicker(streamPingEvery)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				c.conn.Close()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.conn.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

// drop unregisters a client and lets its writer close the connection
func (s *ActionStream) drop(c *streamClient) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.once.Do(func() { close(c.send) })
}

// Close disconnects every subscriber and refuses new ones
func (s *ActionStream) Close() {
	s.mu.Lock()
	s.closed = true
	clients := make([]*streamClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		s.drop(c)
	}
}
