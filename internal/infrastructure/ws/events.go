package ws

// Inbound command kinds. The tag values are part of the wire contract
// with clients and match their localStorage-token reconnect flow.
const (
	CommandJoin   = "Join"
	CommandRejoin = "Rejoin"
	CommandVote   = "Vote"
	CommandShow   = "Show"
	CommandClear  = "Clear"
)

// Outbound event kinds.
const (
	EventRoomState = "RoomState"
	EventJoined    = "Joined"
	EventError     = "Error"
)
