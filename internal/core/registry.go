package core

import "sync"

// Registry owns the in-memory room membership table. The room map is
// guarded by a read-write mutex; each room serializes its own membership
// mutations (see Room), so join/leave traffic in one room does not block
// another.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Join adds the session to the room's membership set, creating the room
// entry on first join. Returns true if the session was newly added;
// joining twice is an idempotent no-op.
func (reg *Registry) Join(room string, c *Client) bool {
	r := reg.getOrCreate(room)
	added := r.Add(c)
	c.Rooms[room] = struct{}{}
	return added
}

// Leave removes the session from the room if present. The room entry is
// kept even when it becomes empty; rooms outlive their members.
func (reg *Registry) Leave(room string, c *Client) bool {
	delete(c.Rooms, room)
	r := reg.get(room)
	if r == nil {
		return false
	}
	return r.Remove(c)
}

// Members returns the current membership snapshot for a room. Unknown
// rooms yield an empty slice, not an error.
func (reg *Registry) Members(room string) []*Client {
	r := reg.get(room)
	if r == nil {
		return nil
	}
	return r.Members()
}

// Purge removes the session from every room it belongs to. Called once on
// disconnect. Returns the identifiers of the rooms the session was
// actually removed from.
func (reg *Registry) Purge(c *Client) []string {
	var left []string
	for name := range c.Rooms {
		if reg.Leave(name, c) {
			left = append(left, name)
		}
	}
	c.Rooms = make(map[string]struct{})
	return left
}

func (reg *Registry) get(name string) *Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.rooms[name]
}

func (reg *Registry) getOrCreate(name string) *Room {
	reg.mu.RLock()
	r := reg.rooms[name]
	reg.mu.RUnlock()
	if r != nil {
		return r
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r = reg.rooms[name]; r == nil {
		r = NewRoom(name)
		reg.rooms[name] = r
	}
	return r
}
