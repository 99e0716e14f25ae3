package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"chatrelay/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event received: %+v", ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// memStore is an in-memory store.Store for hub tests.
type memStore struct {
	mu       sync.Mutex
	err      error
	rooms    map[string]string
	messages []*store.Message
	nextID   int
}

func newMemStore() *memStore {
	return &memStore{rooms: make(map[string]string)}
}

func (m *memStore) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *memStore) EnsureRoom(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.rooms[id]; !ok {
		m.rooms[id] = id
	}
	return nil
}

func (m *memStore) ListRooms(_ context.Context) ([]*store.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	rooms := make([]*store.Room, 0, len(m.rooms))
	for id, name := range m.rooms {
		rooms = append(rooms, &store.Room{ID: id, Name: name})
	}
	return rooms, nil
}

func (m *memStore) AppendMessage(_ context.Context, msg *store.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	msg.ID = fmt.Sprintf("m-%d", m.nextID)
	saved := *msg
	m.messages = append(m.messages, &saved)
	return nil
}

func (m *memStore) RecentMessages(_ context.Context, room string, limit int) ([]*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var matched []*store.Message
	for _, msg := range m.messages {
		if msg.Room == room {
			matched = append(matched, msg)
		}
	}
	if len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched, nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) messageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}
