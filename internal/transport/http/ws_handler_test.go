package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"chatrelay/internal/config"
	"chatrelay/internal/core"
	"chatrelay/internal/proto"
	"chatrelay/internal/store"
	"chatrelay/internal/store/sqlite"
)

func startTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	hub := core.NewHub(st, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := NewServer(hub, st, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, testLogger())

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, st
}

// outboundEnvelope mirrors proto.Outbound with a raw payload for decoding.
type outboundEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, eventType string) outboundEnvelope {
	t.Helper()

	for {
		var env outboundEnvelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			t.Fatalf("waiting for %q: %v", eventType, err)
		}
		if env.Type == eventType {
			return env
		}
	}
}

func dial(t *testing.T, ctx context.Context, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketGreetsOnConnect(t *testing.T) {
	ts, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, ts)
	env := readUntil(t, ctx, conn, proto.OutboundTypeConnected)

	var data proto.ConnectedData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode connected: %v", err)
	}
	if data.Message == "" {
		t.Fatal("connected greeting should carry a message")
	}
}

func TestWebSocketJoinSendReceive(t *testing.T) {
	ts, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dial(t, ctx, ts)
	connB := dial(t, ctx, ts)

	send(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{Room: "x", Username: "alice"})
	historyEnv := readUntil(t, ctx, connA, proto.OutboundTypeRoomHistory)

	var history proto.RoomHistoryData
	if err := json.Unmarshal(historyEnv.Data, &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if history.Room != "x" || len(history.Messages) != 0 {
		t.Fatalf("expected empty history for fresh room, got %+v", history)
	}
	readUntil(t, ctx, connA, proto.OutboundTypeUserJoined)

	send(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{Room: "x", Username: "bob"})
	readUntil(t, ctx, connB, proto.OutboundTypeUserJoined)

	send(t, ctx, connA, proto.InboundTypeSend, proto.SendData{Room: "x", Username: "alice", Content: "hi"})

	var msgA, msgB proto.Message
	envA := readUntil(t, ctx, connA, proto.OutboundTypeNewMessage)
	if err := json.Unmarshal(envA.Data, &msgA); err != nil {
		t.Fatalf("decode message for A: %v", err)
	}
	envB := readUntil(t, ctx, connB, proto.OutboundTypeNewMessage)
	if err := json.Unmarshal(envB.Data, &msgB); err != nil {
		t.Fatalf("decode message for B: %v", err)
	}

	if msgA.Content != "hi" || msgB.Content != "hi" {
		t.Fatalf("unexpected content: %+v %+v", msgA, msgB)
	}
	if msgA.ID == "" || msgA.ID != msgB.ID {
		t.Fatalf("both recipients must see the same stored message: %q vs %q", msgA.ID, msgB.ID)
	}
	if msgA.Timestamp != msgB.Timestamp {
		t.Fatalf("timestamps differ: %q vs %q", msgA.Timestamp, msgB.Timestamp)
	}
	if _, err := time.Parse(time.RFC3339Nano, msgA.Timestamp); err != nil {
		t.Fatalf("timestamp not ISO-8601: %q", msgA.Timestamp)
	}
}

func TestWebSocketHistoryReplayedToLateJoiner(t *testing.T) {
	ts, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dial(t, ctx, ts)
	send(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{Room: "general", Username: "alice"})
	readUntil(t, ctx, connA, proto.OutboundTypeUserJoined)

	send(t, ctx, connA, proto.InboundTypeSend, proto.SendData{Room: "general", Username: "alice", Content: "first"})
	readUntil(t, ctx, connA, proto.OutboundTypeNewMessage)
	send(t, ctx, connA, proto.InboundTypeSend, proto.SendData{Room: "general", Username: "alice", Content: "second"})
	readUntil(t, ctx, connA, proto.OutboundTypeNewMessage)

	connB := dial(t, ctx, ts)
	send(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{Room: "general", Username: "bob"})
	historyEnv := readUntil(t, ctx, connB, proto.OutboundTypeRoomHistory)

	var history proto.RoomHistoryData
	if err := json.Unmarshal(historyEnv.Data, &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history.Messages) != 2 {
		t.Fatalf("expected 2 history messages, got %d", len(history.Messages))
	}
	if history.Messages[0].Content != "first" || history.Messages[1].Content != "second" {
		t.Fatalf("history must be oldest-first: %+v", history.Messages)
	}
}

func TestWebSocketRejectsEmptyContent(t *testing.T) {
	ts, st := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, ts)
	send(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{Room: "general", Username: "alice"})
	readUntil(t, ctx, conn, proto.OutboundTypeUserJoined)

	send(t, ctx, conn, proto.InboundTypeSend, proto.SendData{Room: "general", Username: "alice", Content: ""})

	errEnv := readUntil(t, ctx, conn, proto.OutboundTypeError)
	var errData proto.ErrorData
	if err := json.Unmarshal(errEnv.Data, &errData); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errData.Code != core.ErrCodeBadRequest || errData.Message == "" {
		t.Fatalf("expected bad_request error, got %+v", errData)
	}

	messages, err := st.RecentMessages(ctx, "general", 50)
	if err != nil {
		t.Fatalf("recent messages: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("rejected message must not be persisted, got %d", len(messages))
	}
}

func TestWebSocketLeaveNotifiesRoom(t *testing.T) {
	ts, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dial(t, ctx, ts)
	connB := dial(t, ctx, ts)

	send(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{Room: "general", Username: "alice"})
	readUntil(t, ctx, connA, proto.OutboundTypeUserJoined)
	send(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{Room: "general", Username: "bob"})
	readUntil(t, ctx, connB, proto.OutboundTypeUserJoined)

	send(t, ctx, connA, proto.InboundTypeLeave, proto.JoinData{Room: "general", Username: "alice"})

	leftEnv := readUntil(t, ctx, connB, proto.OutboundTypeUserLeft)
	var left proto.UserData
	if err := json.Unmarshal(leftEnv.Data, &left); err != nil {
		t.Fatalf("decode user_left: %v", err)
	}
	if left.Room != "general" || left.Username != "alice" {
		t.Fatalf("unexpected user_left: %+v", left)
	}
}

func TestRoomListingReflectsJoin(t *testing.T) {
	ts, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, ts)
	send(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{Room: "new-room", Username: "alice"})
	readUntil(t, ctx, conn, proto.OutboundTypeUserJoined)

	resp, err := ts.Client().Get(ts.URL + "/api/rooms")
	if err != nil {
		t.Fatalf("rooms request failed: %v", err)
	}
	defer resp.Body.Close()

	var listing RoomListResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatalf("decode rooms response: %v", err)
	}

	found := false
	for _, room := range listing.Rooms {
		if room.ID == "new-room" {
			found = true
			if room.Name != "new-room" {
				t.Fatalf("room name should default to its identifier: %+v", room)
			}
		}
	}
	if !found {
		t.Fatalf("room listing missing freshly joined room: %+v", listing.Rooms)
	}
}
