package core

// Client is one connected session as seen by the core layer.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	// Rooms tracks the room identifiers this session belongs to. It is
	// only touched by the session's own command pump and, after the pump
	// has exited, by the hub's purge.
	Rooms map[string]struct{}
}

// NewClient constructs a client with initialized channels.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 8),
		Rooms:    make(map[string]struct{}),
	}
}
