package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pointdeck/pointdeck/internal/domain"
	"github.com/pointdeck/pointdeck/internal/infrastructure/configs"
	"github.com/pointdeck/pointdeck/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// Gateway is the real-time endpoint: it upgrades connections, decodes
// frames into typed commands, applies them to rooms, and hands the
// resulting snapshots to the ConnectionManager. Every failure becomes
// a unicast Error frame to the offending connection; nothing here ever
// tears down other connections in the room.
type Gateway struct {
	store    domain.RoomStore
	manager  *ConnectionManager
	cfg      configs.WSConfig
	upgrader websocket.Upgrader
	logger   *zap.SugaredLogger
}

func NewGateway(store domain.RoomStore, manager *ConnectionManager, cfg configs.WSConfig, logger *zap.SugaredLogger) *Gateway {
	return &Gateway{
		store:   store,
		manager: manager,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Identity is a self-issued token, not a credential; any
			// origin may open a session.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeWS upgrades the request and runs the connection until it drops.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warnw("websocket upgrade failed", "err", err)
		return
	}

	client := newClient(r.Context(), conn, g.cfg.SendBuffer, g.cfg.WriteTimeout)
	metrics.ActiveConnections.Inc()

	go client.writePump(g.cfg.PingInterval)
	g.readPump(client)
}

func (g *Gateway) readPump(c *Client) {
	defer func() {
		g.manager.Unregister(c)
		_ = c.conn.Close()
		metrics.ActiveConnections.Dec()
	}()

	raw := c.conn.conn
	raw.SetReadLimit(g.cfg.MaxMessageSize)
	_ = raw.SetReadDeadline(time.Now().Add(g.cfg.PongTimeout))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(g.cfg.PongTimeout))
	})

	for {
		_, payload, err := raw.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				g.logger.Infow("websocket read error", "err", err)
			}
			return
		}
		g.HandleFrame(c, payload)
	}
}

// HandleFrame applies one inbound frame. Exported for tests that drive
// the gateway without a live socket.
func (g *Gateway) HandleFrame(c *Client, payload []byte) {
	cmd, err := DecodeCommand(payload)
	if err != nil {
		metrics.CommandsTotal.WithLabelValues("malformed").Inc()
		g.sendError(c, err.Error())
		return
	}

	switch cmd := cmd.(type) {
	case JoinCommand:
		metrics.CommandsTotal.WithLabelValues(CommandJoin).Inc()
		g.handleJoin(c, cmd)
	case RejoinCommand:
		metrics.CommandsTotal.WithLabelValues(CommandRejoin).Inc()
		g.handleRejoin(c, cmd)
	case VoteCommand:
		metrics.CommandsTotal.WithLabelValues(CommandVote).Inc()
		g.handleVote(c, cmd)
	case ShowCommand:
		metrics.CommandsTotal.WithLabelValues(CommandShow).Inc()
		g.handleShow(c, cmd)
	case ClearCommand:
		metrics.CommandsTotal.WithLabelValues(CommandClear).Inc()
		g.handleClear(c, cmd)
	}
}

func (g *Gateway) handleJoin(c *Client, cmd JoinCommand) {
	room, ok := g.room(c, cmd.RoomID)
	if !ok {
		return
	}

	userID, snap, err := room.Join(cmd.Name)
	if err != nil {
		g.sendDomainError(c, err)
		return
	}

	g.manager.Register(c, room.ID(), userID)
	g.unicast(c, NewJoined(userID, room.ID()))
	if !g.broadcast(room.ID(), snap) {
		// A newer snapshot raced ahead while this connection was not
		// yet registered. Hand the joiner the current state directly so
		// it is not left waiting for the next mutation.
		g.unicast(c, NewRoomState(room.Snapshot()))
	}
}

func (g *Gateway) handleRejoin(c *Client, cmd RejoinCommand) {
	room, ok := g.room(c, cmd.RoomID)
	if !ok {
		return
	}

	snap, err := room.Rejoin(cmd.UserID, cmd.Name)
	if err != nil {
		// A stale or foreign token is rejected outright; fabricating a
		// fresh identity here would desync the client's stored token.
		g.sendDomainError(c, err)
		return
	}

	g.manager.Register(c, room.ID(), cmd.UserID)
	g.unicast(c, NewJoined(cmd.UserID, room.ID()))
	if !g.broadcast(room.ID(), snap) {
		g.unicast(c, NewRoomState(room.Snapshot()))
	}
}

func (g *Gateway) handleVote(c *Client, cmd VoteCommand) {
	room, ok := g.room(c, cmd.RoomID)
	if !ok {
		return
	}

	snap, err := room.Vote(cmd.UserID, cmd.Estimate)
	if err != nil {
		g.sendDomainError(c, err)
		return
	}
	g.broadcast(room.ID(), snap)
}

func (g *Gateway) handleShow(c *Client, cmd ShowCommand) {
	room, ok := g.room(c, cmd.RoomID)
	if !ok {
		return
	}
	g.broadcast(room.ID(), room.Show())
}

func (g *Gateway) handleClear(c *Client, cmd ClearCommand) {
	room, ok := g.room(c, cmd.RoomID)
	if !ok {
		return
	}
	g.broadcast(room.ID(), room.Clear())
}

func (g *Gateway) room(c *Client, roomID string) (*domain.Room, bool) {
	room, err := g.store.GetByID(c.context(), roomID)
	if err != nil {
		g.sendDomainError(c, err)
		return nil, false
	}
	return room, true
}

func (g *Gateway) broadcast(roomID string, snap domain.Snapshot) bool {
	payload, err := NewRoomState(snap).Encode()
	if err != nil {
		g.logger.Errorw("failed to encode room state", "room", roomID, "err", err)
		return false
	}
	return g.manager.Broadcast(roomID, snap.Seq, payload)
}

func (g *Gateway) unicast(c *Client, msg *ServerMessage) {
	payload, err := msg.Encode()
	if err != nil {
		g.logger.Errorw("failed to encode frame", "type", msg.Type, "err", err)
		return
	}
	g.manager.Send(c, payload)
}

func (g *Gateway) sendDomainError(c *Client, err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		g.sendError(c, "Room not found")
	case errors.Is(err, domain.ErrUserNotFound):
		g.sendError(c, "User not found")
	default:
		g.sendError(c, err.Error())
	}
}

func (g *Gateway) sendError(c *Client, message string) {
	g.unicast(c, NewError(message))
}
