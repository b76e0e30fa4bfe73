package events

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/spec-kit/ticketdesk/pkg/util/errorutil"
)

func TestPublishRoutesByTypeAndWildcard(t *testing.T) {
	d := NewInMemoryDispatcher()
	var exact, all int
	d.Subscribe(TypeOf(OpLogin, PhaseSuccess), func(context.Context, Action) error {
		exact++
		return nil
	})
	d.Subscribe(AnyAction, func(context.Context, Action) error {
		all++
		return nil
	})

	ctx := context.Background()
	_ = d.Publish(ctx, NewAction(OpLogin, PhaseRequest, nil, nil))
	_ = d.Publish(ctx, NewAction(OpLogin, PhaseSuccess, nil, nil))

	if exact != 1 || all != 2 {
		t.Fatalf("exact=%d all=%d", exact, all)
	}
}

func TestPublishRunsEveryHandlerAndJoinsErrors(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")
	var ran int
	for i := 0; i < 2; i++ {
		d.Subscribe(AnyAction, func(context.Context, Action) error {
			ran++
			return boom
		})
	}

	err := d.Publish(context.Background(), NewAction(OpLogout, PhaseSync, nil, nil))
	if ran != 2 {
		t.Fatalf("expected both handlers to run, got %d", ran)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
}

func TestNewActionNormalizesError(t *testing.T) {
	action := NewAction(OpFetchAllTickets, PhaseFailure, nil, apperrors.NewServerError(500, "", nil))
	if action.Type != "FETCH_ALL_TICKETS_FAILURE" {
		t.Fatalf("unexpected type %q", action.Type)
	}
	if action.ID == "" || action.Timestamp.IsZero() {
		t.Fatalf("expected id and timestamp, got %+v", action)
	}
	if action.Error == nil || action.Error.Status != 500 {
		t.Fatalf("unexpected error %+v", action.Error)
	}
	if TypeOf(OpLogout, PhaseSync) != "LOGOUT" {
		t.Fatal("sync actions carry the bare operation name")
	}
}

func TestRecorderKeepsOrder(t *testing.T) {
	d := NewInMemoryDispatcher()
	rec := &Recorder{}
	rec.Attach(d)
	ctx := context.Background()
	_ = d.Publish(ctx, NewAction(OpRegister, PhaseRequest, nil, nil))
	_ = d.Publish(ctx, NewAction(OpRegister, PhaseFailure, nil, errors.New("x")))

	got := rec.Types()
	if len(got) != 2 || got[0] != "REGISTER_REQUEST" || got[1] != "REGISTER_FAILURE" {
		t.Fatalf("unexpected types %v", got)
	}
}
