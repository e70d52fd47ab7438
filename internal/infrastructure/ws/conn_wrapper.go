package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// connWrapper serializes writes to a gorilla connection, which allows
// only one concurrent writer.
type connWrapper struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	mutex        sync.Mutex
}

func newConnWrapper(c *websocket.Conn, writeTimeout time.Duration) *connWrapper {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &connWrapper{conn: c, writeTimeout: writeTimeout}
}

func (w *connWrapper) WriteText(payload []byte) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	return w.conn.WriteMessage(websocket.TextMessage, payload)
}

func (w *connWrapper) Ping() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(w.writeTimeout))
}

func (w *connWrapper) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.Close()
}
