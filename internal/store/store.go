package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by every backend so callers can branch on the
// outcome without knowing which driver sits behind the interface.
var (
	// ErrRoomExists is returned when creating a room whose id is taken.
	ErrRoomExists = errors.New("room already exists")
	// ErrRoomNotFound is returned when a room id is unknown.
	ErrRoomNotFound = errors.New("room not found")
	// ErrUserNotFound is returned when a username is unknown.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when creating a user whose name is taken.
	ErrUserExists = errors.New("user already exists")
)

// MessageKindText is the default kind assigned when a client omits one.
// Other kinds (media URLs, join/leave markers) pass through untouched.
const MessageKindText = "TEXT"

// Room is a named channel with a persistent message log.
type Room struct {
	ID        string
	CreatedAt time.Time
}

// Message is a persisted room message. Logs are append-only and messages
// are never mutated once stored; log position equals chronological order.
type Message struct {
	ID        int64
	RoomID    string
	Sender    string
	Content   string
	Kind      string
	Timestamp time.Time
}

// PrivateMessage is a persisted point-to-point message. It belongs to the
// {sender, receiver} pair and is retrievable by either party.
type PrivateMessage struct {
	ID        int64
	Sender    string
	Receiver  string
	Content   string
	Timestamp time.Time
}

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// RoomStore handles room persistence.
type RoomStore interface {
	// CreateRoom creates an empty room. Returns ErrRoomExists if the id is taken.
	CreateRoom(ctx context.Context, id string) (*Room, error)

	// GetRoom retrieves a room by id. Returns ErrRoomNotFound if absent.
	GetRoom(ctx context.Context, id string) (*Room, error)
}

// HistoryStore handles the append-only message logs and ordered range
// queries over them. The pagination window math lives with the caller;
// the store only answers "how long is the log" and "give me [start,end)".
type HistoryStore interface {
	// AppendMessage appends msg to its room's log and fills in msg.ID.
	// Returns ErrRoomNotFound if the room does not exist.
	AppendMessage(ctx context.Context, msg *Message) error

	// MessageCount returns the length of a room's log.
	MessageCount(ctx context.Context, roomID string) (int, error)

	// Messages returns the half-open window [start, end) of a room's log
	// in chronological order. An empty window yields an empty slice.
	Messages(ctx context.Context, roomID string, start, end int) ([]Message, error)

	// AppendPrivateMessage persists pm and fills in pm.ID.
	AppendPrivateMessage(ctx context.Context, pm *PrivateMessage) error

	// Conversation returns every private message exchanged between a and b,
	// in either direction, ascending by timestamp.
	Conversation(ctx context.Context, a, b string) ([]PrivateMessage, error)
}

// UserStore handles account persistence.
type UserStore interface {
	// CreateUser creates a new user with a hashed password. Returns
	// ErrUserExists if the username is taken.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByUsername retrieves a user. Returns ErrUserNotFound if absent.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// SearchUsers returns users whose username contains query, ordered by name.
	SearchUsers(ctx context.Context, query string) ([]*User, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	RoomStore
	HistoryStore
	UserStore

	// Close releases the underlying connection or pool.
	Close() error
}
