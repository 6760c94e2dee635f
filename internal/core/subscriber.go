package core

// subscriberBuffer bounds the per-connection event queue. Fan-out is
// best-effort: a subscriber that cannot keep up loses events rather than
// blocking the room.
const subscriberBuffer = 16

// Subscriber is a live binding between one connection and the core. It is
// created when a connection arrives and discarded on disconnect; nothing
// about it is persisted.
type Subscriber struct {
	ID     string
	User   string
	Events chan *Event
}

// NewSubscriber constructs a subscriber with an initialized event queue.
func NewSubscriber(id, user string) *Subscriber {
	return &Subscriber{
		ID:     id,
		User:   user,
		Events: make(chan *Event, subscriberBuffer),
	}
}

// TrySend enqueues an event without blocking. Returns false if the
// subscriber's queue is full and the event was dropped.
func (s *Subscriber) TrySend(event *Event) bool {
	select {
	case s.Events <- event:
		return true
	default:
		return false
	}
}
