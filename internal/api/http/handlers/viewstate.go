package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/ticketdesk/internal/access"
	"github.com/spec-kit/ticketdesk/internal/events"
	"github.com/spec-kit/ticketdesk/internal/views"
)

var filterKeys = []string{"tab", "status", "priority", "role", "q", "page", "rows", "user_page", "user_rows"}

// FilterBook keeps the filter state of each dashboard between requests and
// remembers which dashboards have loaded their collections.
type FilterBook struct {
	mu          sync.Mutex
	defaultRows int
	filters     map[access.DashboardKind]views.FilterState
	loaded      map[access.DashboardKind]bool
}

// NewFilterBook returns an empty book. rows is the initial page size.
func NewFilterBook(rows int) *FilterBook {
	return &FilterBook{
		defaultRows: rows,
		filters:     make(map[access.DashboardKind]views.FilterState),
		loaded:      make(map[access.DashboardKind]bool),
	}
}

// Apply merges query into the stored state for kind. With no filter keys
// the stored state is returned unchanged. A tab different from the stored
// one switches tab and resets everything else; the request's other keys
// are ignored.
func (b *FilterBook) Apply(kind access.DashboardKind, query map[string]string) views.FilterState {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.filters[kind]
	if !ok {
		current = views.DefaultFilters(b.defaultRows)
	}
	if !hasFilterKeys(query) {
		b.filters[kind] = current
		return current
	}

	next := views.ParseFilters(func(key string) string { return query[key] }, b.defaultRows)
	if _, ok := query["tab"]; ok && next.ActiveTab != current.ActiveTab {
		current.SetTab(next.ActiveTab)
		b.filters[kind] = current
		return current
	}
	if _, ok := query["tab"]; !ok {
		next.ActiveTab = current.ActiveTab
	}
	b.filters[kind] = next
	return next
}

// Get returns the stored state for kind.
func (b *FilterBook) Get(kind access.DashboardKind) views.FilterState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if f, ok := b.filters[kind]; ok {
		return f
	}
	return views.DefaultFilters(b.defaultRows)
}

// NeedsLoad reports whether kind has not fetched since the last reset, and
// marks it as fetched.
func (b *FilterBook) NeedsLoad(kind access.DashboardKind) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loaded[kind] {
		return false
	}
	b.loaded[kind] = true
	return true
}

// Unload forces the next render of kind to fetch again.
func (b *FilterBook) Unload(kind access.DashboardKind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.loaded, kind)
}

// Reset drops every stored filter and load mark.
func (b *FilterBook) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filters = make(map[access.DashboardKind]views.FilterState)
	b.loaded = make(map[access.DashboardKind]bool)
}

// ResetOnLogout clears the book whenever the session logs out, whichever
// surface triggered it.
func (b *FilterBook) ResetOnLogout(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.TypeOf(events.OpLogout, events.PhaseSync), func(context.Context, events.Action) error {
		b.Reset()
		return nil
	})
}

func hasFilterKeys(query map[string]string) bool {
	for _, key := range filterKeys {
		if _, ok := query[key]; ok {
			return true
		}
	}
	return false
}

// Visibility records when a dashboard was last rendered. The poller treats
// the dashboard as visible for Window after that.
type Visibility struct {
	Window time.Duration
	Now    func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewVisibility returns a tracker with the given window.
func NewVisibility(window time.Duration) *Visibility {
	return &Visibility{Window: window, Now: time.Now}
}

// Touch marks the dashboard as seen now.
func (v *Visibility) Touch() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.last = v.now()
}

// Visible reports whether a dashboard was seen within the window.
func (v *Visibility) Visible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.last.IsZero() {
		return false
	}
	return v.now().Sub(v.last) <= v.Window
}

func (v *Visibility) now() time.Time {
	if v.Now == nil {
		return time.Now()
	}
	return v.Now()
}
