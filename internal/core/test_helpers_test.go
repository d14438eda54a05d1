package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

// testConn records events and close calls.
type testConn struct {
	id     string
	events chan *Event

	mu          sync.Mutex
	closed      bool
	closeReason string
}

func newTestConn(id string) *testConn {
	return &testConn{id: id, events: make(chan *Event, 256)}
}

func (c *testConn) ID() string { return c.id }

func (c *testConn) Send(ev *Event) bool {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return false
	}
	select {
	case c.events <- ev:
		return true
	default:
		return false
	}
}

func (c *testConn) Close(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.closeReason = reason
	}
}

func (c *testConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func mustEvent(t *testing.T, c *testConn, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-c.events:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatalf("expected event %v on %s not received", kind, c.id)
	return nil
}

// drain returns every event currently queued on c.
func drain(c *testConn) []*Event {
	var out []*Event
	for {
		select {
		case ev := <-c.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func countKind(events []*Event, kind EventKind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// manualScheduler parks fired callbacks until the test runs them, standing
// in for the hub's dispatch loop.
type manualScheduler struct {
	clock *clock.Mock
	fired chan func()
}

func newManualScheduler(mock *clock.Mock) *manualScheduler {
	return &manualScheduler{clock: mock, fired: make(chan func(), 64)}
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) *clock.Timer {
	return s.clock.AfterFunc(d, func() { s.fired <- fn })
}

func (s *manualScheduler) runNext(t *testing.T) {
	t.Helper()
	select {
	case fn := <-s.fired:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatalf("no scheduled callback fired")
	}
}

func newTestDirectory() (*Directory, *clock.Mock, *manualScheduler) {
	mock := clock.NewMock()
	sched := newManualScheduler(mock)
	logger := zerolog.Nop()
	return NewDirectory(DefaultRoomOptions(), mock, sched, &logger), mock, sched
}

// startHub runs a hub on a mock clock for the duration of the test.
func startHub(t *testing.T, configure ...func(*Options)) (*Hub, *clock.Mock) {
	t.Helper()

	mock := clock.NewMock()
	opts := DefaultOptions()
	opts.Clock = mock
	for _, fn := range configure {
		fn(&opts)
	}
	hub := NewHub(opts)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub, mock
}

// inspect runs fn on the dispatch loop, which also acts as a barrier for
// everything posted before it.
func inspect(t *testing.T, h *Hub, fn func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.do(ctx, fn); err != nil {
		t.Fatalf("inspect hub: %v", err)
	}
}

// advance moves the mock clock and waits for fired timers to reach the loop.
func advance(t *testing.T, h *Hub, mock *clock.Mock, d time.Duration) {
	t.Helper()
	inspect(t, h, func() {})
	mock.Add(d)
	time.Sleep(20 * time.Millisecond)
	inspect(t, h, func() {})
}
