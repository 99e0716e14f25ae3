package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom subscribes the client to a room.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom unsubscribes the client from a room.
	CommandLeaveRoom
	// CommandSendMessage delivers a chat message to room participants.
	CommandSendMessage
)

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind
	Room string
	// User is the display name the client attached to this event.
	User string
	// Text carries the message content for CommandSendMessage.
	Text string
}
