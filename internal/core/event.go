package core

import "github.com/parley-chat/parley-server/internal/store"

// EventKind is a notification the core emits to subscribers.
type EventKind int

const (
	// EventRoomMessage notifies subscribers about a chat message in a room.
	EventRoomMessage EventKind = iota
	// EventPrivateMessage delivers a private message to its receiver.
	EventPrivateMessage
	// EventUserJoined notifies subscribers about a user joining a room.
	EventUserJoined
	// EventUserLeft notifies subscribers about a user leaving a room.
	EventUserLeft
	// EventError notifies a client about a domain error.
	EventError
)

// Event is sent to subscribers to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Room    string
	User    string
	Message *store.Message
	Private *store.PrivateMessage
	Error   *Error
}
