package gateway

import (
	"encoding/json"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"go.uber.org/zap"

	"github.com/shubham-shewale/watchlist-sync/cmd/server/internal/hub"
	"github.com/shubham-shewale/watchlist-sync/cmd/server/internal/protocol"
)

const (
	maxMessageSize = 64 * 1024
)

type ClientAdapter struct {
	conn   net.Conn
	hub    *hub.Hub
	send   chan []byte
	logger *zap.Logger

	mu     sync.Mutex // guards closed vs. late sends from in-flight flows
	closed bool

	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration
}

func NewClient(conn net.Conn, h *hub.Hub, logger *zap.Logger) *ClientAdapter {
	return &ClientAdapter{
		conn:       conn,
		hub:        h,
		send:       make(chan []byte, 256),
		logger:     logger,
		writeWait:  5 * time.Second,
		pongWait:   60 * time.Second,
		pingPeriod: 50 * time.Second,
	}
}

// Start registers the connection and kicks off its watchlist bootstrap.
// The bootstrap runs as its own task so a slow upstream fetch never holds
// up this connection's reads or any other connection.
func (c *ClientAdapter) Start() {
	c.hub.Register(c)
	go c.writePump()
	go c.readPump()
	go c.hub.Bootstrap(c)
}

func (c *ClientAdapter) ID() string { return c.conn.RemoteAddr().String() }

// Close only closes the send channel; writePump closes the conn. An add or
// remove issued by this connection may still be in flight, so late sends
// after Close are silently dropped rather than allowed to panic.
func (c *ClientAdapter) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *ClientAdapter) SendJSON(v interface{}) {
	b, err := json.Marshal(v)
	if err == nil {
		c.SendBytes(b)
	}
}

func (c *ClientAdapter) SendBytes(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- b:
	default:
		// Drop message if buffer full (Backpressure)
	}
}

func (c *ClientAdapter) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))

	for {
		header, err := ws.ReadHeader(c.conn)
		if err != nil {
			break
		}

		if header.Length > int64(maxMessageSize) {
			c.logger.Warn("Msg too big", zap.Int64("size", header.Length))
			break
		}

		if !header.Fin {
			c.logger.Warn("Client sent fragmented message (not supported)")
			break
		}

		payload := make([]byte, header.Length)
		if _, err := io.ReadFull(c.conn, payload); err != nil {
			break
		}

		if header.Masked {
			ws.Cipher(payload, header.Mask, 0)
		}

		if header.OpCode == ws.OpClose {
			break
		}
		if header.OpCode == ws.OpPong {
			c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
			continue
		}

		if header.OpCode == ws.OpText {
			var req protocol.WSRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				c.SendJSON(protocol.WSResponse{Type: protocol.TypeError, Message: "Invalid JSON"})
				continue
			}

			// Requests issued serially by this connection are handled in
			// order; a hung fetch stalls this connection only.
			c.hub.HandleCommand(c, req)
		}
	}
}

func (c *ClientAdapter) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if !ok {
				c.conn.Write(ws.CompiledClose)
				return
			}
			if err := wsutil.WriteServerText(c.conn, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := wsutil.WriteServerMessage(c.conn, ws.OpPing, nil); err != nil {
				return
			}
		}
	}
}
