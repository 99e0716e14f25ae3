package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"chatrelay/internal/store"
)

// DefaultHistoryLimit caps the number of messages replayed on join.
const DefaultHistoryLimit = 50

// Hub coordinates sessions and rooms. Each registered client gets its own
// command pump so events from one connection are handled in arrival order
// while different connections dispatch concurrently; the registry's
// per-room locks serialize the shared membership state.
type Hub struct {
	registry     *Registry
	store        store.Store
	historyLimit int
	log          *zerolog.Logger

	register chan *Client
	done     chan struct{}
}

// NewHub creates a new chat hub instance. The store may be nil in tests
// that exercise membership and fan-out only.
func NewHub(st store.Store, historyLimit int, logger *zerolog.Logger) *Hub {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		registry:     NewRegistry(),
		store:        st,
		historyLimit: historyLimit,
		log:          logger,
		register:     make(chan *Client),
		done:         make(chan struct{}),
	}
}

// RegisterClient hands a new session to the hub. The hub greets it and
// starts its command pump. No-op once the hub has stopped.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient detaches a session. Must be called exactly once, after
// the caller has stopped writing to the client's Commands channel. The
// session's pump drains any buffered commands, then purges its room
// memberships.
func (h *Hub) UnregisterClient(c *Client) {
	close(c.Commands)
}

// Run services session lifecycle until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.Unicast(c, &Event{Kind: EventConnected})
			go h.serveClient(ctx, c)
		case <-ctx.Done():
			return
		}
	}
}

// Broadcast delivers an event to every session currently in the room.
// Delivery is best-effort per recipient: a slow or gone consumer's copy is
// dropped without affecting the rest of the batch.
func (h *Hub) Broadcast(room string, event *Event) {
	for _, c := range h.registry.Members(room) {
		h.Unicast(c, event)
	}
}

// Unicast delivers an event to a single session, dropping it if the
// session's buffer is full.
func (h *Hub) Unicast(c *Client, event *Event) {
	select {
	case c.Events <- event:
	default:
		h.log.Debug().Str("client_id", c.ID).Msg("event dropped, slow consumer")
	}
}

func (h *Hub) serveClient(ctx context.Context, c *Client) {
	defer func() {
		left := h.registry.Purge(c)
		h.log.Debug().Str("client_id", c.ID).Int("rooms", len(left)).Msg("client purged")
	}()

	for {
		select {
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			h.dispatch(ctx, c, cmd)
		case <-ctx.Done():
			return
		}
	}
}

// dispatch runs one inbound event through the ingestion pipeline:
// validate, persist, broadcast. Validation failures and store failures
// are reported to the originating session only and stop the pipeline.
func (h *Hub) dispatch(ctx context.Context, c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoinRoom:
		h.handleJoin(ctx, c, cmd)
	case CommandLeaveRoom:
		h.handleLeave(c, cmd)
	case CommandSendMessage:
		h.handleSend(ctx, c, cmd)
	default:
		h.Unicast(c, errorEvent(coreError(ErrCodeBadRequest, "unknown command")))
	}
}

func (h *Hub) handleJoin(ctx context.Context, c *Client, cmd *Command) {
	if cmd.Room == "" {
		h.Unicast(c, errorEvent(coreError(ErrCodeBadRequest, "missing room name in join request")))
		return
	}
	user := username(cmd.User)

	h.registry.Join(cmd.Room, c)

	if h.store != nil {
		if err := h.store.EnsureRoom(ctx, cmd.Room); err != nil {
			h.log.Error().Err(err).Str("room", cmd.Room).Msg("ensure room")
			h.Unicast(c, errorEvent(coreError(ErrCodeStorage, "failed to join room")))
			return
		}
		history, err := h.store.RecentMessages(ctx, cmd.Room, h.historyLimit)
		if err != nil {
			h.log.Error().Err(err).Str("room", cmd.Room).Msg("load history")
			h.Unicast(c, errorEvent(coreError(ErrCodeStorage, "failed to load history")))
			return
		}
		h.Unicast(c, &Event{
			Kind:     EventHistory,
			Room:     cmd.Room,
			Messages: fromStoreMessages(history),
		})
	} else {
		h.Unicast(c, &Event{Kind: EventHistory, Room: cmd.Room, Messages: nil})
	}

	h.Broadcast(cmd.Room, &Event{Kind: EventUserJoined, Room: cmd.Room, User: user})
	h.log.Debug().Str("client_id", c.ID).Str("room", cmd.Room).Str("user", user).Msg("joined room")
}

func (h *Hub) handleLeave(c *Client, cmd *Command) {
	// A leave for a missing or unknown room is silently ignored.
	if cmd.Room == "" {
		return
	}
	h.registry.Leave(cmd.Room, c)
	h.Broadcast(cmd.Room, &Event{Kind: EventUserLeft, Room: cmd.Room, User: username(cmd.User)})
}

func (h *Hub) handleSend(ctx context.Context, c *Client, cmd *Command) {
	if cmd.Room == "" || cmd.Text == "" {
		h.Unicast(c, errorEvent(coreError(ErrCodeBadRequest, "missing room or content in message")))
		return
	}

	msg := store.Message{
		Room:     cmd.Room,
		Username: username(cmd.User),
		Content:  cmd.Text,
		// The server-assigned timestamp, captured once at ingestion.
		CreatedAt: time.Now().UTC(),
	}

	if h.store != nil {
		if err := h.store.AppendMessage(ctx, &msg); err != nil {
			h.log.Error().Err(err).Str("room", cmd.Room).Msg("persist message")
			h.Unicast(c, errorEvent(coreError(ErrCodeStorage, "failed to store message")))
			return
		}
		if err := h.store.EnsureRoom(ctx, cmd.Room); err != nil {
			h.log.Warn().Err(err).Str("room", cmd.Room).Msg("ensure room after message")
		}
	}

	// Broadcast the persisted copy, ID included, to everyone in the room,
	// the sender too.
	h.Broadcast(cmd.Room, &Event{
		Kind:    EventNewMessage,
		Room:    cmd.Room,
		Message: fromStoreMessage(&msg),
	})
}

func username(name string) string {
	if name == "" {
		return DefaultUsername
	}
	return name
}

func errorEvent(err *CoreError) *Event {
	return &Event{Kind: EventError, Error: err}
}

func fromStoreMessage(m *store.Message) Message {
	return Message{
		ID:        m.ID,
		Room:      m.Room,
		From:      m.Username,
		Text:      m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func fromStoreMessages(msgs []*store.Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, fromStoreMessage(m))
	}
	return out
}
