package store

import (
	"context"
	"time"
)

// Room represents a chat room record.
// The identifier doubles as the display name unless one was set explicitly.
type Room struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Message represents a persisted chat message. Messages are immutable once
// appended; the store assigns the ID.
type Message struct {
	ID        string
	Room      string
	Username  string
	Content   string
	CreatedAt time.Time
}

// RoomStore handles room persistence.
type RoomStore interface {
	// EnsureRoom upserts a room record. Creates the room with its
	// identifier as the name if absent; never overwrites fields of an
	// existing record.
	EnsureRoom(ctx context.Context, id string) error

	// ListRooms lists all known rooms.
	ListRooms(ctx context.Context) ([]*Room, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// AppendMessage persists a message and assigns its ID.
	// The caller provides CreatedAt; insertion order breaks timestamp ties.
	AppendMessage(ctx context.Context, msg *Message) error

	// RecentMessages returns the most recent messages for a room in
	// chronological order, at most limit entries. An unknown or empty
	// room yields an empty slice, not an error.
	RecentMessages(ctx context.Context, room string, limit int) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	RoomStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
