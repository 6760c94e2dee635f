package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/parley-chat/parley-server/internal/proto"
)

func wsURL(env *testEnv) string {
	return strings.Replace(env.ts.URL, "http", "ws", 1) + "/ws"
}

func dialWS(t *testing.T, ctx context.Context, env *testEnv) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, wsURL(env), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func sendInbound(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readOutbound(t *testing.T, ctx context.Context, conn *websocket.Conn) outboundEnvelope {
	t.Helper()

	var out outboundEnvelope
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return out
}

type outboundEnvelope struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *proto.Error    `json:"error,omitempty"`
}

func registerUser(t *testing.T, env *testEnv, username string) string {
	t.Helper()

	token, err := env.auth.Register(context.Background(), username, "password123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return token
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.ts.Client().Get(env.ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketRoomFlow(t *testing.T) {
	env := newTestEnv(t)
	registerUser(t, env, "alice")
	registerUser(t, env, "bob")

	if _, err := env.registry.CreateRoom(context.Background(), "general"); err != nil {
		t.Fatalf("create room: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, env)
	connB := dialWS(t, ctx, env)

	sendInbound(t, ctx, connA, proto.InboundTypeHello, proto.HelloData{User: "alice"})
	sendInbound(t, ctx, connB, proto.InboundTypeHello, proto.HelloData{User: "bob"})

	sendInbound(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{Room: "general"})
	sendInbound(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{Room: "general"})

	// Bob sees his own join notification once subscribed.
	joined := readOutbound(t, ctx, connB)
	if joined.Type != proto.OutboundTypeEvent || joined.Event != "user_joined" {
		t.Fatalf("unexpected outbound: %+v", joined)
	}

	sendInbound(t, ctx, connA, proto.InboundTypeMsg, proto.MsgData{Room: "general", Content: "hi there"})

	// Alice's own join notification may land before the message.
	var out outboundEnvelope
	for {
		out = readOutbound(t, ctx, connB)
		if out.Type != proto.OutboundTypeEvent {
			t.Fatalf("unexpected outbound: %+v", out)
		}
		if out.Event == "message" {
			break
		}
	}

	var event proto.EventMessage
	if err := json.Unmarshal(out.Data, &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if event.Sender != "alice" || event.Content != "hi there" || event.Room != "general" {
		t.Fatalf("unexpected event payload: %+v", event)
	}
}

func TestWebSocketPrivateDelivery(t *testing.T) {
	env := newTestEnv(t)
	registerUser(t, env, "alice")
	registerUser(t, env, "bob")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, env)
	connB := dialWS(t, ctx, env)

	sendInbound(t, ctx, connA, proto.InboundTypeHello, proto.HelloData{User: "alice"})
	sendInbound(t, ctx, connB, proto.InboundTypeHello, proto.HelloData{User: "bob"})

	// The directory binding is established by the hello; wait for it before
	// routing so delivery is not racy.
	deadline := time.Now().Add(2 * time.Second)
	for env.directory.Connection("bob") == nil {
		if time.Now().After(deadline) {
			t.Fatalf("bob never connected")
		}
		time.Sleep(10 * time.Millisecond)
	}

	sendInbound(t, ctx, connA, proto.InboundTypePrivate, proto.PrivateData{To: "bob", Content: "yo"})

	out := readOutbound(t, ctx, connB)
	if out.Type != proto.OutboundTypeEvent || out.Event != "private" {
		t.Fatalf("unexpected outbound: %+v", out)
	}

	var event proto.EventPrivateMessage
	if err := json.Unmarshal(out.Data, &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if event.Sender != "alice" || event.To != "bob" || event.Content != "yo" {
		t.Fatalf("unexpected event payload: %+v", event)
	}
}

func TestWebSocketTokenHandshake(t *testing.T) {
	env := newTestEnv(t)
	token := registerUser(t, env, "alice")
	registerUser(t, env, "bob")

	if _, err := env.registry.CreateRoom(context.Background(), "general"); err != nil {
		t.Fatalf("create room: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, env)
	sendInbound(t, ctx, conn, proto.InboundTypeHello, proto.HelloData{Token: token})
	sendInbound(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{Room: "general"})

	joined := readOutbound(t, ctx, conn)
	if joined.Type != proto.OutboundTypeEvent || joined.Event != "user_joined" {
		t.Fatalf("unexpected outbound: %+v", joined)
	}

	var event proto.EventUserJoined
	if err := json.Unmarshal(joined.Data, &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if event.User != "alice" {
		t.Fatalf("expected identity from token, got %q", event.User)
	}
}

func TestWebSocketRejectsUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, env)
	sendInbound(t, ctx, conn, proto.InboundTypeHello, proto.HelloData{User: "stranger"})

	var out outboundEnvelope
	err := wsjson.Read(ctx, conn, &out)
	if err == nil {
		t.Fatalf("expected connection close, got %+v", out)
	}
	if websocket.CloseStatus(err) != websocket.StatusPolicyViolation {
		t.Fatalf("expected policy violation close, got %v", err)
	}
}

func TestWebSocketJoinUnknownRoom(t *testing.T) {
	env := newTestEnv(t)
	registerUser(t, env, "alice")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, env)
	sendInbound(t, ctx, conn, proto.InboundTypeHello, proto.HelloData{User: "alice"})
	sendInbound(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{Room: "ghost"})

	out := readOutbound(t, ctx, conn)
	if out.Type != proto.OutboundTypeError || out.Error == nil {
		t.Fatalf("expected error outbound, got %+v", out)
	}
	if out.Error.Code != "room_not_found" {
		t.Fatalf("unexpected error code: %q", out.Error.Code)
	}
}
