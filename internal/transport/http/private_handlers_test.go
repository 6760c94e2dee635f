package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/parley-chat/parley-server/internal/store"
)

func TestGetConversationSymmetry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, pm := range []*store.PrivateMessage{
		{Sender: "alice", Receiver: "bob", Content: "one"},
		{Sender: "bob", Receiver: "alice", Content: "two"},
	} {
		if _, err := env.private.Route(ctx, pm); err != nil {
			t.Fatalf("route: %v", err)
		}
	}

	var ab []PrivateMessageResponse
	resp := getJSON(t, env, "/api/v1/messages/alice/bob", &ab)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var ba []PrivateMessageResponse
	resp = getJSON(t, env, "/api/v1/messages/bob/alice", &ba)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if len(ab) != 2 || len(ba) != 2 {
		t.Fatalf("expected 2 messages each way, got %d and %d", len(ab), len(ba))
	}
	for i := range ab {
		if ab[i] != ba[i] {
			t.Fatalf("conversations diverge at %d: %+v vs %+v", i, ab[i], ba[i])
		}
	}
}

func TestGetConversationEmpty(t *testing.T) {
	env := newTestEnv(t)

	var conv []PrivateMessageResponse
	resp := getJSON(t, env, "/api/v1/messages/alice/bob", &conv)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(conv) != 0 {
		t.Fatalf("expected empty conversation, got %d", len(conv))
	}
}
