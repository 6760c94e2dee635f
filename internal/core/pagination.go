package core

import (
	"context"

	"github.com/parley-chat/parley-server/internal/store"
)

// Pager computes stable, reverse-chronological page windows over room
// logs and conversations. Page 0 is the most recent pageSize messages;
// each higher index steps further back. Within a page, chronological
// order is preserved.
type Pager struct {
	rooms   store.RoomStore
	history store.HistoryStore
}

// NewPager creates a pagination engine.
func NewPager(rooms store.RoomStore, history store.HistoryStore) *Pager {
	return &Pager{
		rooms:   rooms,
		history: history,
	}
}

// pageWindow returns the half-open window [start, end) for a page over a
// sequence of length n. A page at or beyond the available history
// collapses to an empty window. The emptiness check uses division, not
// pageIndex*pageSize, which can overflow for large yet valid parameters.
func pageWindow(n, pageIndex, pageSize int) (start, end int) {
	if n == 0 || pageIndex > (n-1)/pageSize {
		return 0, 0
	}
	start = n - (pageIndex+1)*pageSize
	if start < 0 {
		start = 0
	}
	end = start + pageSize
	if end > n {
		end = n
	}
	return start, end
}

// RoomPage returns one page of a room's message log. Returns
// store.ErrRoomNotFound for unknown rooms and ErrInvalidPage for
// malformed parameters; an empty page past the end of history is valid,
// not an error.
func (p *Pager) RoomPage(ctx context.Context, roomID string, pageIndex, pageSize int) ([]store.Message, error) {
	if pageIndex < 0 || pageSize <= 0 {
		return nil, ErrInvalidPage
	}

	if _, err := p.rooms.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}

	n, err := p.history.MessageCount(ctx, roomID)
	if err != nil {
		return nil, &PersistenceError{Op: "count room messages", Err: err}
	}

	start, end := pageWindow(n, pageIndex, pageSize)
	messages, err := p.history.Messages(ctx, roomID, start, end)
	if err != nil {
		return nil, &PersistenceError{Op: "query room messages", Err: err}
	}

	return messages, nil
}

// Conversation returns the full exchange between a and b, ascending by
// timestamp. Both directions see the identical sequence.
func (p *Pager) Conversation(ctx context.Context, a, b string) ([]store.PrivateMessage, error) {
	messages, err := p.history.Conversation(ctx, a, b)
	if err != nil {
		return nil, &PersistenceError{Op: "query conversation", Err: err}
	}

	return messages, nil
}
