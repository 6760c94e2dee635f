package core

import (
	"errors"
	"fmt"

	"github.com/parley-chat/parley-server/internal/store"
)

// Error codes surfaced to clients over the wire.
const (
	ErrCodeRoomNotFound = "room_not_found"
	ErrCodeRoomExists   = "room_exists"
	ErrCodeUserNotFound = "user_not_found"
	ErrCodeInvalidPage  = "invalid_page"
	ErrCodeBadRequest   = "bad_request"
	ErrCodePersistence  = "persistence_failure"
)

// ErrInvalidPage is returned for malformed pagination parameters.
var ErrInvalidPage = errors.New("invalid pagination parameters")

// Error wraps a code and human-readable message for transport layers.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// PersistenceError marks a failed history store operation. The routing
// core never swallows these: a message that could not be persisted is
// reported to the caller instead of being fanned out as if successful.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// CodeFor maps a core or store error to its wire code.
func CodeFor(err error) string {
	var pe *PersistenceError
	switch {
	case errors.Is(err, store.ErrRoomNotFound):
		return ErrCodeRoomNotFound
	case errors.Is(err, store.ErrRoomExists):
		return ErrCodeRoomExists
	case errors.Is(err, store.ErrUserNotFound):
		return ErrCodeUserNotFound
	case errors.Is(err, ErrInvalidPage):
		return ErrCodeInvalidPage
	case errors.As(err, &pe):
		return ErrCodePersistence
	default:
		return ErrCodeBadRequest
	}
}
