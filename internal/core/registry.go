package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/parley-chat/parley-server/internal/metrics"
	"github.com/parley-chat/parley-server/internal/store"
)

// roomState is the process-local side of a room: its live subscriber set
// and the mutex that serializes history appends. It is rebuilt from
// scratch on restart; connections must re-subscribe.
type roomState struct {
	// appendMu serializes history appends for this room so the log order
	// matches append completion order. Appends to different rooms proceed
	// in parallel.
	appendMu sync.Mutex

	// subMu guards the subscriber set. It is never held across store I/O;
	// fan-out iterates over a snapshot taken under it.
	subMu sync.RWMutex
	subs  map[*Subscriber]struct{}
}

// Registry maps room identifiers to their live state and delegates room
// persistence to the store.
type Registry struct {
	rooms store.RoomStore
	log   *zerolog.Logger

	mu    sync.RWMutex
	state map[string]*roomState
}

// NewRegistry creates an empty registry on top of a room store.
func NewRegistry(rooms store.RoomStore, logger *zerolog.Logger) *Registry {
	return &Registry{
		rooms: rooms,
		log:   logger,
		state: make(map[string]*roomState),
	}
}

// CreateRoom creates a new empty room. Returns store.ErrRoomExists if the
// identifier is already taken; the existing room is left untouched.
func (r *Registry) CreateRoom(ctx context.Context, id string) (*store.Room, error) {
	room, err := r.rooms.CreateRoom(ctx, id)
	if err != nil {
		return nil, err
	}

	r.log.Info().Str("room", id).Msg("room created")
	return room, nil
}

// GetRoom retrieves a room. Returns store.ErrRoomNotFound if absent.
func (r *Registry) GetRoom(ctx context.Context, id string) (*store.Room, error) {
	return r.rooms.GetRoom(ctx, id)
}

// Subscribe registers sub as a live subscriber of the room. Subscribing
// twice with the same handle has no additional effect. Returns
// store.ErrRoomNotFound if the room does not exist.
func (r *Registry) Subscribe(ctx context.Context, roomID string, sub *Subscriber) error {
	if _, err := r.rooms.GetRoom(ctx, roomID); err != nil {
		return err
	}

	state := r.ensureState(roomID)

	state.subMu.Lock()
	_, already := state.subs[sub]
	if !already {
		state.subs[sub] = struct{}{}
	}
	state.subMu.Unlock()

	if already {
		return nil
	}

	r.log.Debug().Str("room", roomID).Str("user", sub.User).Msg("subscribed")
	r.Broadcast(roomID, &Event{Kind: EventUserJoined, Room: roomID, User: sub.User})
	return nil
}

// Unsubscribe removes sub from the room's subscriber set. No-op if the
// room has no local state or the handle is not subscribed.
func (r *Registry) Unsubscribe(roomID string, sub *Subscriber) {
	r.mu.RLock()
	state, ok := r.state[roomID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	state.subMu.Lock()
	_, present := state.subs[sub]
	if present {
		delete(state.subs, sub)
	}
	state.subMu.Unlock()

	if !present {
		return
	}

	r.log.Debug().Str("room", roomID).Str("user", sub.User).Msg("unsubscribed")
	r.Broadcast(roomID, &Event{Kind: EventUserLeft, Room: roomID, User: sub.User})
}

// Drop removes sub from every room it is subscribed to. Called on
// disconnect.
func (r *Registry) Drop(sub *Subscriber) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.state))
	for id := range r.state {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		r.Unsubscribe(id, sub)
	}
}

// Subscribers returns a snapshot of the room's current subscriber set.
func (r *Registry) Subscribers(roomID string) []*Subscriber {
	r.mu.RLock()
	state, ok := r.state[roomID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	state.subMu.RLock()
	defer state.subMu.RUnlock()

	subs := make([]*Subscriber, 0, len(state.subs))
	for sub := range state.subs {
		subs = append(subs, sub)
	}
	return subs
}

// Broadcast fans an event out to every current subscriber of the room as
// a best-effort notification. Slow consumers lose the event.
func (r *Registry) Broadcast(roomID string, event *Event) {
	for _, sub := range r.Subscribers(roomID) {
		if sub.TrySend(event) {
			metrics.FanoutDeliveries.Inc()
		} else {
			metrics.FanoutDrops.Inc()
			r.log.Warn().Str("room", roomID).Str("user", sub.User).Msg("dropped event for slow subscriber")
		}
	}
}

// lockAppend acquires the room's append lock and returns the unlock func.
func (r *Registry) lockAppend(roomID string) func() {
	state := r.ensureState(roomID)
	state.appendMu.Lock()
	return state.appendMu.Unlock
}

func (r *Registry) ensureState(roomID string) *roomState {
	r.mu.RLock()
	state, ok := r.state[roomID]
	r.mu.RUnlock()
	if ok {
		return state
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok = r.state[roomID]; ok {
		return state
	}
	state = &roomState{subs: make(map[*Subscriber]struct{})}
	r.state[roomID] = state
	return state
}
