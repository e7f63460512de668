package main

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"snakez/server/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:    1024,
	WriteBufferSize:   8192,
	EnableCompression: true,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Errors returned by Client.Send.
var (
	ErrSendQueueFull = errors.New("send queue full")
	ErrClientClosed  = errors.New("client closed")
)

// Client represents a connected WebSocket client
type Client struct {
	ID     string
	Conn   *websocket.Conn
	World  *World
	codec  Codec
	logger *slog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// NewClient creates a new client
func NewClient(id string, conn *websocket.Conn, world *World, codec Codec, logger *slog.Logger) *Client {
	return &Client{
		ID:     id,
		Conn:   conn,
		World:  world,
		codec:  codec,
		logger: logger,
		send:   make(chan []byte, WriteChannelSize),
	}
}

// Send queues a frame without blocking. A full queue drops the frame.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close stops the write pump after it flushes queued frames.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	return nil
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.World.Leave(c.ID)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(MaxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(PongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(PongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error", "session", c.ID, "err", err)
			}
			return
		}
		// Any inbound frame proves the peer is alive.
		_ = c.Conn.SetReadDeadline(time.Now().Add(PongWait))

		msg, err := c.codec.Decode(data)
		if err != nil {
			c.logger.Debug("bad client message", "session", c.ID, "err", err)
			continue
		}
		if err := c.HandleMessage(msg); err != nil {
			c.logger.Debug("unhandled client message", "session", c.ID, "type", msg.Type, "err", err)
		}
	}
}

// WritePump sends queued frames and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(c.codec.FrameType(), message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// HandleMessage processes incoming client messages
func (c *Client) HandleMessage(msg ClientMessage) error {
	switch msg.Type {
	case MsgJoin:
		c.World.Join(c.ID, msg.Name, msg.Color)
	case MsgDirection:
		c.World.Steer(c.ID, game.Vec2{X: msg.X, Y: msg.Y})
	case MsgPing:
		data, err := c.codec.Encode(ServerMessage{Type: MsgPong})
		if err != nil {
			return err
		}
		return c.Send(data)
	default:
		return ErrUnknownMessage
	}
	return nil
}

// HandleWebSocket upgrades an HTTP request to a game session.
// The wire format is chosen with ?codec=json|msgpack.
func HandleWebSocket(world *World, logger *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", "err", err)
			return
		}

		codec := CodecByName(ctx.Query("codec"))
		client := NewClient(uuid.NewString(), conn, world, codec, logger)
		world.Connect(client.ID, client, codec)

		go client.WritePump()
		go client.ReadPump()
	}
}
