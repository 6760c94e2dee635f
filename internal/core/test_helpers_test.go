package core

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/parley-chat/parley-server/internal/store"
	"github.com/parley-chat/parley-server/internal/store/memory"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// testCore wires a registry, routers and pager over a fresh in-memory store.
type testCore struct {
	store     store.Store
	registry  *Registry
	broadcast *BroadcastRouter
	private   *PrivateRouter
	pager     *Pager
	directory *Directory
}

func newTestCore(t *testing.T) *testCore {
	t.Helper()

	st := memory.New()
	logger := testLogger()
	registry := NewRegistry(st, logger)
	directory := NewDirectory(st)

	return &testCore{
		store:     st,
		registry:  registry,
		broadcast: NewBroadcastRouter(registry, st, logger),
		private:   NewPrivateRouter(directory, st, logger),
		pager:     NewPager(st, st),
		directory: directory,
	}
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func noEvent(t *testing.T, ch <-chan *Event) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("expected no event, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
