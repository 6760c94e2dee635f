package core

import (
	"context"
	"errors"
	"sync"

	"github.com/parley-chat/parley-server/internal/store"
)

// Directory resolves user identifiers to validity and live connectivity.
// Credential checks belong to the auth service; the routing core only
// needs to know whether an identifier is real and whether it currently
// has a connection to push to.
type Directory struct {
	users store.UserStore

	mu    sync.RWMutex
	conns map[string]*Subscriber
}

// NewDirectory creates a directory over a user store. The connection map
// starts empty and is rebuilt as clients identify themselves.
func NewDirectory(users store.UserStore) *Directory {
	return &Directory{
		users: users,
		conns: make(map[string]*Subscriber),
	}
}

// Resolve reports whether id denotes a known user and, if so, its live
// connection handle (nil when offline).
func (d *Directory) Resolve(ctx context.Context, id string) (bool, *Subscriber, error) {
	if _, err := d.users.GetUserByUsername(ctx, id); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return false, nil, nil
		}
		return false, nil, err
	}

	return true, d.Connection(id), nil
}

// Connect binds a user identifier to its connection handle. A newer
// connection for the same user replaces the previous one.
func (d *Directory) Connect(user string, sub *Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.conns[user] = sub
}

// Disconnect removes the binding, but only if it still points at sub, so
// a stale disconnect cannot evict a newer connection.
func (d *Directory) Disconnect(user string, sub *Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conns[user] == sub {
		delete(d.conns, user)
	}
}

// Connection returns the user's live connection handle, or nil.
func (d *Directory) Connection(user string) *Subscriber {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.conns[user]
}
