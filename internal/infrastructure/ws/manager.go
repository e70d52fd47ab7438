package ws

import (
	"sync"

	"github.com/pointdeck/pointdeck/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// ConnectionManager maps live connections to (room, user) pairs and
// fans out state broadcasts. Sends go through per-client buffered
// channels; a stalled client drops frames instead of blocking the
// room. Channel closes happen only under the write lock, sends only
// under a read lock, so a send never races a close.
type ConnectionManager struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{} // roomID -> clients
	byUser  map[string]map[string]*Client   // roomID -> userID -> client
	lastSeq map[string]uint64               // roomID -> highest broadcast seq
	logger  *zap.SugaredLogger
}

func NewConnectionManager(logger *zap.SugaredLogger) *ConnectionManager {
	return &ConnectionManager{
		rooms:   make(map[string]map[*Client]struct{}),
		byUser:  make(map[string]map[string]*Client),
		lastSeq: make(map[string]uint64),
		logger:  logger,
	}
}

// Register binds a connection to a room user. A prior live connection
// for the same (room, user) is superseded and closed so frames are
// never delivered twice for one identity.
func (m *ConnectionManager) Register(c *Client, roomID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev := m.byUser[roomID][userID]; prev != nil && prev != c {
		m.logger.Infow("superseding connection", "room", roomID, "user", userID)
		m.removeLocked(prev)
	}

	// A connection re-identifying (e.g. a second Join on the same
	// socket) moves to its new identity.
	if c.roomID != "" {
		m.detachLocked(c)
	}

	c.roomID = roomID
	c.userID = userID

	if m.rooms[roomID] == nil {
		m.rooms[roomID] = make(map[*Client]struct{})
	}
	m.rooms[roomID][c] = struct{}{}

	if m.byUser[roomID] == nil {
		m.byUser[roomID] = make(map[string]*Client)
	}
	m.byUser[roomID][userID] = c
}

// Unregister drops a connection from routing. Room and user state are
// untouched; a disconnect is a normal lifecycle event, not a leave.
func (m *ConnectionManager) Unregister(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(c)
}

// Broadcast delivers an encoded snapshot to every connection in the
// room. Snapshots that lost the race to a newer one are dropped, so
// no client observes a stale state after a fresher one. Reports
// whether the snapshot was delivered or dropped as stale.
func (m *ConnectionManager) Broadcast(roomID string, seq uint64, payload []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if seq <= m.lastSeq[roomID] {
		metrics.FramesDropped.WithLabelValues("stale").Inc()
		return false
	}
	m.lastSeq[roomID] = seq

	for c := range m.rooms[roomID] {
		m.trySendLocked(c, payload)
	}
	return true
}

// Send unicasts a frame to one connection.
func (m *ConnectionManager) Send(c *Client, payload []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.trySendLocked(c, payload)
}

// RoomClientCount reports live connections for a room. Implements the
// store's occupancy check for reaping.
func (m *ConnectionManager) RoomClientCount(roomID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[roomID])
}

// removeLocked takes a client fully out of routing and closes its send
// channel, which stops its write pump.
func (m *ConnectionManager) removeLocked(c *Client) {
	m.detachLocked(c)
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// detachLocked removes routing entries without closing the client.
func (m *ConnectionManager) detachLocked(c *Client) {
	if c.roomID == "" {
		return
	}

	if clients, ok := m.rooms[c.roomID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(m.rooms, c.roomID)
			delete(m.byUser, c.roomID)
			delete(m.lastSeq, c.roomID)
		}
	}
	if users, ok := m.byUser[c.roomID]; ok {
		if users[c.userID] == c {
			delete(users, c.userID)
		}
	}

	c.roomID = ""
	c.userID = ""
}

func (m *ConnectionManager) trySendLocked(c *Client, payload []byte) {
	if c.closed {
		return
	}
	select {
	case c.send <- payload:
	default:
		// Client is too slow to keep up, drop the frame
		metrics.FramesDropped.WithLabelValues("slow_client").Inc()
		m.logger.Warnw("client buffer full, dropping frame", "room", c.roomID, "user", c.userID)
	}
}
