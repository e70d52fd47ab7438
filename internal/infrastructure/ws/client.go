package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// Client is one live transport connection. It has no identity until a
// Join or Rejoin handshake registers it with the ConnectionManager.
type Client struct {
	conn *connWrapper
	send chan []byte
	ctx  context.Context

	// guarded by the manager's mutex
	roomID string
	userID string
	closed bool
}

func newClient(ctx context.Context, conn *websocket.Conn, sendBuffer int, writeTimeout time.Duration) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Client{
		conn: newConnWrapper(conn, writeTimeout),
		send: make(chan []byte, sendBuffer),
		ctx:  ctx,
	}
}

// context returns the request context captured at upgrade. It stays
// live for the whole connection because the upgrade handler blocks in
// the read loop until the connection drops.
func (c *Client) context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// writePump drains the send channel onto the wire and keeps the
// connection alive with pings. It exits when the send channel is
// closed by the manager or when a write fails.
func (c *Client) writePump(pingInterval time.Duration) {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				_ = c.conn.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return
			}
			if err := c.conn.WriteText(payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(); err != nil {
				return
			}
		}
	}
}
