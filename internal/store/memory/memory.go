// Package memory provides a mutex-guarded in-process store.Store.
// It backs the core unit tests and the "memory" store driver.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/parley-chat/parley-server/internal/store"
)

// MemoryStore implements store.Store with in-process maps.
type MemoryStore struct {
	mu sync.RWMutex

	rooms    map[string]*store.Room
	logs     map[string][]store.Message
	private  []store.PrivateMessage
	users    map[string]*store.User
	nextMsg  int64
	nextPM   int64
	nextUser int64
}

// New creates an empty in-memory store.
func New() *MemoryStore {
	return &MemoryStore{
		rooms: make(map[string]*store.Room),
		logs:  make(map[string][]store.Message),
		users: make(map[string]*store.User),
	}
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// CreateRoom creates an empty room.
func (s *MemoryStore) CreateRoom(_ context.Context, id string) (*store.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[id]; exists {
		return nil, store.ErrRoomExists
	}

	room := &store.Room{ID: id, CreatedAt: time.Now()}
	s.rooms[id] = room

	copy := *room
	return &copy, nil
}

// GetRoom retrieves a room by id.
func (s *MemoryStore) GetRoom(_ context.Context, id string) (*store.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, exists := s.rooms[id]
	if !exists {
		return nil, store.ErrRoomNotFound
	}

	copy := *room
	return &copy, nil
}

// AppendMessage appends a message to its room's log.
func (s *MemoryStore) AppendMessage(_ context.Context, msg *store.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[msg.RoomID]; !exists {
		return store.ErrRoomNotFound
	}

	s.nextMsg++
	msg.ID = s.nextMsg
	s.logs[msg.RoomID] = append(s.logs[msg.RoomID], *msg)
	return nil
}

// MessageCount returns the length of a room's log.
func (s *MemoryStore) MessageCount(_ context.Context, roomID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.logs[roomID]), nil
}

// Messages returns the window [start, end) of a room's log.
func (s *MemoryStore) Messages(_ context.Context, roomID string, start, end int) ([]store.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.logs[roomID]
	if start < 0 {
		start = 0
	}
	if end > len(log) {
		end = len(log)
	}
	if end <= start {
		return []store.Message{}, nil
	}

	out := make([]store.Message, end-start)
	copy(out, log[start:end])
	return out, nil
}

// AppendPrivateMessage persists a private message.
func (s *MemoryStore) AppendPrivateMessage(_ context.Context, pm *store.PrivateMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPM++
	pm.ID = s.nextPM
	s.private = append(s.private, *pm)
	return nil
}

// Conversation returns all private messages between a and b ascending by
// timestamp.
func (s *MemoryStore) Conversation(_ context.Context, a, b string) ([]store.PrivateMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []store.PrivateMessage{}
	for _, pm := range s.private {
		if (pm.Sender == a && pm.Receiver == b) || (pm.Sender == b && pm.Receiver == a) {
			out = append(out, pm)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	return out, nil
}

// CreateUser creates a new user with hashed password.
func (s *MemoryStore) CreateUser(_ context.Context, username, passwordHash string) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return nil, store.ErrUserExists
	}

	s.nextUser++
	user := &store.User{
		ID:           s.nextUser,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	s.users[username] = user

	copy := *user
	return &copy, nil
}

// GetUserByUsername retrieves a user by username.
func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[username]
	if !exists {
		return nil, store.ErrUserNotFound
	}

	copy := *user
	return &copy, nil
}

// SearchUsers returns users whose username contains the query.
func (s *MemoryStore) SearchUsers(_ context.Context, query string) ([]*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(query)
	out := []*store.User{}
	for _, user := range s.users {
		if strings.Contains(strings.ToLower(user.Username), query) {
			copy := *user
			out = append(out, &copy)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
