package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pointdeck/pointdeck/internal/domain"
)

var ErrMalformedCommand = errors.New("malformed command")

// Command is the closed set of inbound client commands. Frames are
// decoded exactly once at the boundary; everything past DecodeCommand
// works with typed variants.
type Command interface {
	command()
}

type JoinCommand struct {
	RoomID string
	Name   string
}

type RejoinCommand struct {
	RoomID string
	UserID string
	Name   string
}

type VoteCommand struct {
	RoomID   string
	UserID   string
	Estimate string
}

type ShowCommand struct {
	RoomID string
}

type ClearCommand struct {
	RoomID string
}

func (JoinCommand) command()   {}
func (RejoinCommand) command() {}
func (VoteCommand) command()   {}
func (ShowCommand) command()   {}
func (ClearCommand) command()  {}

// commandFrame is the raw externally-tagged wire shape.
type commandFrame struct {
	Type     string `json:"type"`
	RoomID   string `json:"room_id"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Estimate string `json:"estimate"`
}

// DecodeCommand parses one inbound frame into a typed command.
func DecodeCommand(data []byte) (Command, error) {
	var frame commandFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedCommand, "invalid JSON")
	}
	if frame.RoomID == "" {
		return nil, fmt.Errorf("%w: %s", ErrMalformedCommand, "room_id is required")
	}

	switch frame.Type {
	case CommandJoin:
		return JoinCommand{RoomID: frame.RoomID, Name: frame.Name}, nil
	case CommandRejoin:
		if frame.UserID == "" {
			return nil, fmt.Errorf("%w: %s", ErrMalformedCommand, "user_id is required")
		}
		return RejoinCommand{RoomID: frame.RoomID, UserID: frame.UserID, Name: frame.Name}, nil
	case CommandVote:
		if frame.UserID == "" {
			return nil, fmt.Errorf("%w: %s", ErrMalformedCommand, "user_id is required")
		}
		return VoteCommand{RoomID: frame.RoomID, UserID: frame.UserID, Estimate: frame.Estimate}, nil
	case CommandShow:
		return ShowCommand{RoomID: frame.RoomID}, nil
	case CommandClear:
		return ClearCommand{RoomID: frame.RoomID}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformedCommand, frame.Type)
	}
}

// ServerMessage is one outbound frame. Exactly the fields for the
// frame's type are populated.
type ServerMessage struct {
	Type    string           `json:"type"`
	Room    *domain.Snapshot `json:"room,omitempty"`
	UserID  string           `json:"user_id,omitempty"`
	RoomID  string           `json:"room_id,omitempty"`
	Message string           `json:"message,omitempty"`
}

func NewRoomState(snap domain.Snapshot) *ServerMessage {
	return &ServerMessage{
		Type: EventRoomState,
		Room: &snap,
	}
}

func NewJoined(userID, roomID string) *ServerMessage {
	return &ServerMessage{
		Type:   EventJoined,
		UserID: userID,
		RoomID: roomID,
	}
}

func NewError(message string) *ServerMessage {
	return &ServerMessage{
		Type:    EventError,
		Message: message,
	}
}

func (m *ServerMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}
