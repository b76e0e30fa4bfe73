package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/ticketdesk/internal/access"
	"github.com/spec-kit/ticketdesk/internal/events"
	"github.com/spec-kit/ticketdesk/internal/views"
)

func TestFilterBookKeepsStateWithoutKeys(t *testing.T) {
	book := NewFilterBook(5)

	got := book.Apply(access.DashboardUser, map[string]string{"status": "resolved", "q": "vpn"})
	if got.StatusFilter != "RESOLVED" || got.SearchTerm != "vpn" || got.RowsPerPage != 5 {
		t.Fatalf("unexpected filters %+v", got)
	}
	if again := book.Apply(access.DashboardUser, map[string]string{"refresh": "1"}); again != got {
		t.Fatalf("expected stored filters, got %+v", again)
	}
	if other := book.Get(access.DashboardAgent); other.StatusFilter != views.All {
		t.Fatalf("dashboards must not share filters, got %+v", other)
	}
}

func TestFilterBookTabChangeResets(t *testing.T) {
	book := NewFilterBook(10)
	book.Apply(access.DashboardAgent, map[string]string{"priority": "HIGH", "rows": "25"})

	got := book.Apply(access.DashboardAgent, map[string]string{"tab": "1", "priority": "LOW"})
	if got.ActiveTab != views.TabAll || got.PriorityFilter != views.All {
		t.Fatalf("expected reset on tab change, got %+v", got)
	}
	if got.RowsPerPage != 25 {
		t.Fatalf("page size should survive a tab change, got %d", got.RowsPerPage)
	}

	// Same tab: a normal filter change.
	got = book.Apply(access.DashboardAgent, map[string]string{"tab": "1", "priority": "LOW"})
	if got.ActiveTab != views.TabAll || got.PriorityFilter != "LOW" {
		t.Fatalf("unexpected filters %+v", got)
	}

	// Omitting tab keeps the current one.
	got = book.Apply(access.DashboardAgent, map[string]string{"q": "jam"})
	if got.ActiveTab != views.TabAll {
		t.Fatalf("expected tab to be kept, got %+v", got)
	}
}

func TestFilterBookLoadMarks(t *testing.T) {
	book := NewFilterBook(10)
	if !book.NeedsLoad(access.DashboardUser) {
		t.Fatal("first render should load")
	}
	if book.NeedsLoad(access.DashboardUser) {
		t.Fatal("second render should reuse the collection")
	}
	book.Unload(access.DashboardUser)
	if !book.NeedsLoad(access.DashboardUser) {
		t.Fatal("unload should force a load")
	}
}

func TestFilterBookResetsOnLogout(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	book := NewFilterBook(10)
	book.ResetOnLogout(dispatcher)
	book.Apply(access.DashboardUser, map[string]string{"status": "OPEN"})
	book.NeedsLoad(access.DashboardUser)

	action := events.NewAction(events.OpLogout, events.PhaseSync, nil, nil)
	if err := dispatcher.Publish(context.Background(), action); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if book.Get(access.DashboardUser).StatusFilter != views.All {
		t.Fatal("expected filters to reset")
	}
	if !book.NeedsLoad(access.DashboardUser) {
		t.Fatal("expected load marks to reset")
	}
}

func TestVisibilityWindow(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	v := NewVisibility(time.Minute)
	v.Now = func() time.Time { return now }

	if v.Visible() {
		t.Fatal("never rendered means hidden")
	}
	v.Touch()
	now = now.Add(59 * time.Second)
	if !v.Visible() {
		t.Fatal("expected visible inside the window")
	}
	now = now.Add(2 * time.Second)
	if v.Visible() {
		t.Fatal("expected hidden after the window")
	}
}
