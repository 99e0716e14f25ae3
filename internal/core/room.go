package core

import "sync"

// Room groups clients subscribed to the same channel. Membership is a set
// keyed by session ID and guarded by the room's own mutex, so unrelated
// rooms never contend.
type Room struct {
	Name string

	mu      sync.Mutex
	clients map[string]*Client
}

// NewRoom constructs a room with no clients.
func NewRoom(name string) *Room {
	return &Room{
		Name:    name,
		clients: make(map[string]*Client),
	}
}

// Add inserts a client into the room. Returns true if newly added;
// adding a member twice is a no-op.
func (r *Room) Add(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.clients[c.ID]; exists {
		return false
	}
	r.clients[c.ID] = c
	return true
}

// Remove deletes a client from the room. Returns true if removed;
// removing a non-member is a no-op.
func (r *Room) Remove(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.clients[c.ID]; !exists {
		return false
	}
	delete(r.clients, c.ID)
	return true
}

// Members returns a snapshot of the current membership.
func (r *Room) Members() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		members = append(members, c)
	}
	return members
}

// Broadcast sends an event to all clients in the room at the instant of
// the call. Delivery is fire-and-forget per recipient.
func (r *Room) Broadcast(event *Event) {
	for _, client := range r.Members() {
		select {
		case client.Events <- event:
		default:
			// Drop if slow consumer.
		}
	}
}

// Empty returns true if no clients are in the room.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients) == 0
}
