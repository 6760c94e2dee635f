package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/parley-chat/parley-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRoomLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room, err := s.CreateRoom(ctx, "general")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if room.ID != "general" || room.CreatedAt.IsZero() {
		t.Fatalf("unexpected room: %+v", room)
	}

	if _, err := s.CreateRoom(ctx, "general"); !errors.Is(err, store.ErrRoomExists) {
		t.Fatalf("expected ErrRoomExists, got %v", err)
	}

	if _, err := s.GetRoom(ctx, "ghost"); !errors.Is(err, store.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestMessageLogWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateRoom(ctx, "general"); err != nil {
		t.Fatalf("create room: %v", err)
	}

	for i := 0; i < 5; i++ {
		msg := &store.Message{
			RoomID:    "general",
			Sender:    "alice",
			Content:   fmt.Sprintf("m%d", i),
			Kind:      store.MessageKindText,
			Timestamp: time.Now(),
		}
		if err := s.AppendMessage(ctx, msg); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if msg.ID == 0 {
			t.Fatalf("append %d: id not assigned", i)
		}
	}

	n, err := s.MessageCount(ctx, "general")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 messages, got %d", n)
	}

	window, err := s.Messages(ctx, "general", 1, 4)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(window) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(window))
	}
	if window[0].Content != "m1" || window[2].Content != "m3" {
		t.Fatalf("unexpected window bounds: %s .. %s", window[0].Content, window[2].Content)
	}

	empty, err := s.Messages(ctx, "general", 3, 3)
	if err != nil {
		t.Fatalf("empty window: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty window, got %d", len(empty))
	}
}

func TestAppendMessageUnknownRoom(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.AppendMessage(ctx, &store.Message{
		RoomID:    "ghost",
		Sender:    "alice",
		Content:   "hi",
		Kind:      store.MessageKindText,
		Timestamp: time.Now(),
	})
	if !errors.Is(err, store.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestConversationSymmetric(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Truncate(time.Second)
	for i, pm := range []*store.PrivateMessage{
		{Sender: "alice", Receiver: "bob", Content: "one"},
		{Sender: "bob", Receiver: "alice", Content: "two"},
		{Sender: "alice", Receiver: "carol", Content: "other pair"},
	} {
		pm.Timestamp = base.Add(time.Duration(i) * time.Second)
		if err := s.AppendPrivateMessage(ctx, pm); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	ab, err := s.Conversation(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("conversation a,b: %v", err)
	}
	ba, err := s.Conversation(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("conversation b,a: %v", err)
	}

	if len(ab) != 2 || len(ba) != 2 {
		t.Fatalf("expected 2 messages each way, got %d and %d", len(ab), len(ba))
	}
	for i := range ab {
		if ab[i].ID != ba[i].ID {
			t.Fatalf("conversations diverge at %d", i)
		}
	}
	if ab[0].Content != "one" || ab[1].Content != "two" {
		t.Fatalf("unexpected order: %+v", ab)
	}
}

func TestSearchUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, u := range []string{"alice", "alex", "alan", "bob", "charlie"} {
		if _, err := s.CreateUser(ctx, u, "hash"); err != nil {
			t.Fatalf("failed to create user %s: %v", u, err)
		}
	}

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{name: "search 'al'", query: "al", expected: []string{"alan", "alex", "alice"}},
		{name: "search 'li'", query: "li", expected: []string{"alice", "charlie"}},
		{name: "search non-existent", query: "z", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := s.SearchUsers(ctx, tt.query)
			if err != nil {
				t.Fatalf("SearchUsers failed: %v", err)
			}

			if len(results) != len(tt.expected) {
				t.Fatalf("expected %d results, got %d", len(tt.expected), len(results))
			}
			for i, u := range results {
				if u.Username != tt.expected[i] {
					t.Errorf("expected %s at index %d, got %s", tt.expected[i], i, u.Username)
				}
			}
		})
	}
}

func TestGetUserByUsername(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "alice", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	user, err := s.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.ID != created.ID || user.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, err := s.GetUserByUsername(ctx, "ghost"); !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "alice", "hash-one"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := s.CreateUser(ctx, "alice", "hash-two"); !errors.Is(err, store.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	// The original account is left untouched.
	user, err := s.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.PasswordHash != "hash-one" {
		t.Fatalf("duplicate create mutated the user: %+v", user)
	}
}
