package core

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/parley-chat/parley-server/internal/metrics"
	"github.com/parley-chat/parley-server/internal/store"
)

// BroadcastRouter delivers inbound room messages: persist first, then fan
// out. Only the persisted log is authoritative; live fan-out is
// best-effort.
type BroadcastRouter struct {
	registry *Registry
	history  store.HistoryStore
	log      *zerolog.Logger
}

// NewBroadcastRouter creates a broadcast router.
func NewBroadcastRouter(registry *Registry, history store.HistoryStore, logger *zerolog.Logger) *BroadcastRouter {
	return &BroadcastRouter{
		registry: registry,
		history:  history,
		log:      logger,
	}
}

// Route persists msg to the room's log and fans it out to the room's
// current subscribers. The returned message carries the final timestamp
// and store-assigned id.
//
// Client-supplied timestamps are honored for room messages; only a
// missing timestamp is filled in at receipt time.
func (b *BroadcastRouter) Route(ctx context.Context, roomID string, msg *store.Message) (*store.Message, error) {
	if _, err := b.registry.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}

	msg.RoomID = roomID
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	if msg.Kind == "" {
		msg.Kind = store.MessageKindText
	}

	// The append is serialized per room and must complete before fan-out,
	// so the persisted history never lags behind what was broadcast.
	unlock := b.registry.lockAppend(roomID)
	err := b.history.AppendMessage(ctx, msg)
	unlock()
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "append room message", Err: err}
	}

	metrics.RoomMessagesRouted.Inc()
	b.registry.Broadcast(roomID, &Event{
		Kind:    EventRoomMessage,
		Room:    roomID,
		User:    msg.Sender,
		Message: msg,
	})

	b.log.Debug().Str("room", roomID).Str("sender", msg.Sender).Int64("id", msg.ID).Msg("room message routed")
	return msg, nil
}
