package core

import "time"

// DefaultUsername is used when a client event carries no username.
const DefaultUsername = "Anonymous"

// Message is the domain model for a chat message.
type Message struct {
	ID        string
	Room      string
	From      string
	Text      string
	CreatedAt time.Time
}
