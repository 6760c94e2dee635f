package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/parley-chat/parley-server/internal/metrics"
	"github.com/parley-chat/parley-server/internal/store"
)

// PrivateRouter delivers point-to-point messages: persist unconditionally,
// then push to the receiver's live connection if there is one. A
// disconnected receiver is a normal outcome, not an error; the message
// stays retrievable through history.
type PrivateRouter struct {
	directory *Directory
	history   store.HistoryStore
	log       *zerolog.Logger
}

// NewPrivateRouter creates a private delivery router.
func NewPrivateRouter(directory *Directory, history store.HistoryStore, logger *zerolog.Logger) *PrivateRouter {
	return &PrivateRouter{
		directory: directory,
		history:   history,
		log:       logger,
	}
}

// Route persists pm and attempts best-effort live delivery. The timestamp
// is always assigned here: sender-supplied timestamps are not trusted for
// private messages. No acknowledgment is generated either way.
func (p *PrivateRouter) Route(ctx context.Context, pm *store.PrivateMessage) (*store.PrivateMessage, error) {
	pm.Timestamp = time.Now()

	if err := p.history.AppendPrivateMessage(ctx, pm); err != nil {
		return nil, &PersistenceError{Op: "append private message", Err: err}
	}

	metrics.PrivateMessagesRouted.Inc()

	event := &Event{
		Kind:    EventPrivateMessage,
		User:    pm.Sender,
		Private: pm,
	}

	if conn := p.directory.Connection(pm.Receiver); conn != nil && conn.TrySend(event) {
		metrics.PrivateDeliveries.Inc()
	} else {
		metrics.PrivateDeliveryMisses.Inc()
		p.log.Debug().Str("receiver", pm.Receiver).Msg("receiver not connected, skipping live delivery")
	}

	return pm, nil
}
