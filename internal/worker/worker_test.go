package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/ticketdesk/internal/events"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestPollerFetchesWhileVisible(t *testing.T) {
	var fetches int32
	p := &Poller{
		Interval: 10 * time.Millisecond,
		Visible:  func() bool { return true },
		Fetch: func(context.Context) error {
			atomic.AddInt32(&fetches, 1)
			return errors.New("server down")
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := p.Start(ctx)

	waitFor(t, func() bool { return atomic.LoadInt32(&fetches) >= 3 })
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}

func TestPollerSkipsHiddenTicks(t *testing.T) {
	var visible atomic.Bool
	var fetches, checks int32
	p := &Poller{
		Interval: 5 * time.Millisecond,
		Visible: func() bool {
			atomic.AddInt32(&checks, 1)
			return visible.Load()
		},
		Fetch: func(context.Context) error {
			atomic.AddInt32(&fetches, 1)
			return nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := p.Start(ctx)

	waitFor(t, func() bool { return atomic.LoadInt32(&checks) >= 3 })
	if n := atomic.LoadInt32(&fetches); n != 0 {
		t.Fatalf("expected no fetch while hidden, got %d", n)
	}
	visible.Store(true)
	waitFor(t, func() bool { return atomic.LoadInt32(&fetches) >= 1 })
	cancel()
	<-done
}

func TestActionLoggerLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher()
	StartActionLogger(dispatcher, zap.New(core))

	ctx := context.Background()
	_ = dispatcher.Publish(ctx, events.NewAction(events.OpLogin, events.PhaseRequest, nil, nil))
	_ = dispatcher.Publish(ctx, events.NewAction(events.OpLogin, events.PhaseFailure, nil, errors.New("bad")))

	if logs.Len() != 2 {
		t.Fatalf("expected 2 log entries, got %d", logs.Len())
	}
	if entry := logs.All()[1]; entry.Level != zap.WarnLevel || entry.ContextMap()["action"] != "LOGIN_FAILURE" {
		t.Fatalf("unexpected failure entry %+v", entry)
	}
}
