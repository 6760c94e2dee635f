package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/parley-chat/parley-server/internal/store"
)

func TestPageWindow(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		pageIndex int
		pageSize  int
		wantStart int
		wantEnd   int
	}{
		{name: "empty log", n: 0, pageIndex: 0, pageSize: 20, wantStart: 0, wantEnd: 0},
		{name: "partial first page", n: 15, pageIndex: 0, pageSize: 20, wantStart: 0, wantEnd: 15},
		{name: "page beyond history", n: 15, pageIndex: 1, pageSize: 20, wantStart: 0, wantEnd: 0},
		{name: "exact fit page zero", n: 40, pageIndex: 0, pageSize: 20, wantStart: 20, wantEnd: 40},
		{name: "exact fit page one", n: 40, pageIndex: 1, pageSize: 20, wantStart: 0, wantEnd: 20},
		{name: "exact fit page two empty", n: 40, pageIndex: 2, pageSize: 20, wantStart: 0, wantEnd: 0},
		{name: "uneven last page clamps", n: 45, pageIndex: 2, pageSize: 20, wantStart: 0, wantEnd: 20},
		{name: "size one", n: 3, pageIndex: 1, pageSize: 1, wantStart: 1, wantEnd: 2},
		// Index-times-size products past the int range must still come
		// back empty instead of wrapping around.
		{name: "huge index and size", n: 10, pageIndex: math.MaxInt / 2, pageSize: math.MaxInt / 2, wantStart: 0, wantEnd: 0},
		{name: "huge index", n: 10, pageIndex: math.MaxInt, pageSize: 20, wantStart: 0, wantEnd: 0},
		{name: "huge size page zero", n: 10, pageIndex: 0, pageSize: math.MaxInt, wantStart: 0, wantEnd: 10},
		{name: "huge size page one", n: 10, pageIndex: 1, pageSize: math.MaxInt, wantStart: 0, wantEnd: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := pageWindow(tt.n, tt.pageIndex, tt.pageSize)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Fatalf("pageWindow(%d, %d, %d) = [%d, %d), want [%d, %d)",
					tt.n, tt.pageIndex, tt.pageSize, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestPageWindowEmptyBeyondHistory(t *testing.T) {
	// Any page at or beyond ceil(n/size) is empty, never an error.
	for _, n := range []int{0, 1, 15, 20, 21, 45} {
		for _, size := range []int{1, 7, 20} {
			firstEmpty := (n + size - 1) / size
			for page := firstEmpty; page < firstEmpty+3; page++ {
				start, end := pageWindow(n, page, size)
				if start != end {
					t.Fatalf("pageWindow(%d, %d, %d) = [%d, %d), want empty", n, page, size, start, end)
				}
			}
		}
	}
}

func TestRoomPageOrdering(t *testing.T) {
	ctx := context.Background()
	tc := newTestCore(t)

	if _, err := tc.registry.CreateRoom(ctx, "general"); err != nil {
		t.Fatalf("create room: %v", err)
	}
	for i := 0; i < 45; i++ {
		if _, err := tc.broadcast.Route(ctx, "general", &store.Message{
			Sender:  "alice",
			Content: fmt.Sprintf("m%02d", i),
		}); err != nil {
			t.Fatalf("route %d: %v", i, err)
		}
	}

	// Page 0 is the most recent 20, in chronological order.
	page, err := tc.pager.RoomPage(ctx, "general", 0, 20)
	if err != nil {
		t.Fatalf("page 0: %v", err)
	}
	if len(page) != 20 {
		t.Fatalf("expected 20 messages, got %d", len(page))
	}
	if page[0].Content != "m25" || page[19].Content != "m44" {
		t.Fatalf("unexpected page 0 bounds: %s .. %s", page[0].Content, page[19].Content)
	}

	// Page 1 is the 20 messages immediately before that.
	page, err = tc.pager.RoomPage(ctx, "general", 1, 20)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if page[0].Content != "m05" || page[19].Content != "m24" {
		t.Fatalf("unexpected page 1 bounds: %s .. %s", page[0].Content, page[19].Content)
	}

	// Past the end of history pages are empty, not errors.
	page, err = tc.pager.RoomPage(ctx, "general", 3, 20)
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(page) != 0 {
		t.Fatalf("expected empty page, got %d messages", len(page))
	}

	// Astronomically large but valid parameters are an empty page too.
	page, err = tc.pager.RoomPage(ctx, "general", math.MaxInt/2, math.MaxInt/2)
	if err != nil {
		t.Fatalf("huge page: %v", err)
	}
	if len(page) != 0 {
		t.Fatalf("expected empty page for huge parameters, got %d messages", len(page))
	}
}

func TestRoomPageAppendVisibleImmediately(t *testing.T) {
	ctx := context.Background()
	tc := newTestCore(t)

	if _, err := tc.registry.CreateRoom(ctx, "general"); err != nil {
		t.Fatalf("create room: %v", err)
	}

	msg, err := tc.broadcast.Route(ctx, "general", &store.Message{Sender: "alice", Content: "hi"})
	if err != nil {
		t.Fatalf("route: %v", err)
	}

	page, err := tc.pager.RoomPage(ctx, "general", 0, 20)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) == 0 || page[len(page)-1].ID != msg.ID {
		t.Fatalf("routed message not last element of page 0: %+v", page)
	}
}

func TestRoomPageInvalidParams(t *testing.T) {
	ctx := context.Background()
	tc := newTestCore(t)

	if _, err := tc.registry.CreateRoom(ctx, "general"); err != nil {
		t.Fatalf("create room: %v", err)
	}

	for _, tt := range []struct{ page, size int }{
		{-1, 20},
		{0, 0},
		{0, -5},
	} {
		_, err := tc.pager.RoomPage(ctx, "general", tt.page, tt.size)
		if !errors.Is(err, ErrInvalidPage) {
			t.Fatalf("RoomPage(%d, %d): expected ErrInvalidPage, got %v", tt.page, tt.size, err)
		}
	}
}

func TestRoomPageUnknownRoom(t *testing.T) {
	ctx := context.Background()
	tc := newTestCore(t)

	// An unknown room is an error, never an empty list.
	_, err := tc.pager.RoomPage(ctx, "ghost", 0, 20)
	if !errors.Is(err, store.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}
