package rooms

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pointdeck/pointdeck/internal/domain"
	"github.com/pointdeck/pointdeck/internal/infrastructure/json"
	"github.com/pointdeck/pointdeck/internal/infrastructure/stats"
	"github.com/pointdeck/pointdeck/internal/infrastructure/ws"
	"go.uber.org/zap"
)

type Handler struct {
	store   domain.RoomStore
	gateway *ws.Gateway
	logger  *zap.SugaredLogger
}

func NewHandler(store domain.RoomStore, gateway *ws.Gateway, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		store:   store,
		gateway: gateway,
		logger:  logger,
	}
}

// CreateRoomHandler allocates a fresh room and returns its id as a
// bare JSON string, which is what the session page expects.
func (h *Handler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	room, err := h.store.Create(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrStoreFull) {
			json.WriteError(w, http.StatusServiceUnavailable, err, "Too many rooms, try again later")
			return
		}
		h.logger.Errorw("failed to create room", "err", err)
		json.WriteInternalError(w, err)
		return
	}

	h.logger.Infow("room created", "room", room.ID())
	json.Write(w, http.StatusOK, room.ID())
}

// GetRoomHandler returns the room's current masked snapshot. The
// session page uses it as an existence check before opening a socket.
func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	room, ok := h.lookup(w, r)
	if !ok {
		return
	}
	json.Write(w, http.StatusOK, room.Snapshot())
}

// MeanHandler returns the arithmetic mean of the revealed numeric
// estimates, or null while hidden.
func (h *Handler) MeanHandler(w http.ResponseWriter, r *http.Request) {
	room, ok := h.lookup(w, r)
	if !ok {
		return
	}
	json.Write(w, http.StatusOK, stats.Mean(room.Snapshot()))
}

// SessionHandler upgrades to the websocket session protocol.
func (h *Handler) SessionHandler(w http.ResponseWriter, r *http.Request) {
	h.gateway.ServeWS(w, r)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*domain.Room, bool) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return nil, false
	}

	room, err := h.store.GetByID(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			json.WriteNotFoundError(w, "Room not found")
		} else {
			json.WriteInternalError(w, err)
		}
		return nil, false
	}
	return room, true
}
