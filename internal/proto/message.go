package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin  = "join"
	InboundTypeLeave = "leave"
	InboundTypeSend  = "send_message"

	OutboundTypeConnected   = "connected"
	OutboundTypeRoomHistory = "room_history"
	OutboundTypeUserJoined  = "user_joined"
	OutboundTypeUserLeft    = "user_left"
	OutboundTypeNewMessage  = "new_message"
	OutboundTypeError       = "error"
)

// JoinData requests to join or leave a specific room.
type JoinData struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

// SendData is a chat message from the client.
type SendData struct {
	Room     string `json:"room"`
	Username string `json:"username"`
	Content  string `json:"content"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Message is the wire shape of a chat message. Timestamp is an ISO-8601
// string in UTC.
type Message struct {
	ID        string `json:"id"`
	Room      string `json:"room"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// ConnectedData greets a freshly accepted connection.
type ConnectedData struct {
	Message string `json:"message"`
}

// RoomHistoryData delivers recent messages on join, oldest first.
type RoomHistoryData struct {
	Room     string    `json:"room"`
	Messages []Message `json:"messages"`
}

// UserData notifies that a user joined or left a room.
type UserData struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

// ErrorData describes an error response. Code distinguishes validation
// failures from storage failures.
type ErrorData struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
