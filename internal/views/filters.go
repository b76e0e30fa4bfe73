// Package views derives what each dashboard renders from the raw
// collections. Every function here is pure: scope, then status, priority
// and role filters, then free-text search, then pagination, always in that
// order and always preserving the server's ordering.
package views

import (
	"strconv"
	"strings"
)

// All disables a status, priority or role filter.
const All = "ALL"

// DefaultRowsPerPage is the page size used when none is configured.
const DefaultRowsPerPage = 10

// MaxRowsPerPage caps any requested page size.
const MaxRowsPerPage = 1000

// maxPage bounds page indexes so page*size never overflows.
const maxPage = 1 << 20

// Agent dashboard tabs.
const (
	TabAssigned = 0
	TabAll      = 1
)

// Admin dashboard tabs.
const (
	TabTickets = 0
	TabUsers   = 1
)

// FilterState is the ephemeral per-dashboard filter selection.
type FilterState struct {
	StatusFilter    string `json:"status"`
	PriorityFilter  string `json:"priority"`
	RoleFilter      string `json:"role"`
	SearchTerm      string `json:"q"`
	ActiveTab       int    `json:"tab"`
	Page            int    `json:"page"`
	UserPage        int    `json:"userPage"`
	RowsPerPage     int    `json:"rows"`
	UserRowsPerPage int    `json:"userRows"`
}

// DefaultFilters returns the initial filter state. rows <= 0 selects
// DefaultRowsPerPage.
func DefaultFilters(rows int) FilterState {
	if rows <= 0 {
		rows = DefaultRowsPerPage
	}
	return FilterState{
		StatusFilter:    All,
		PriorityFilter:  All,
		RoleFilter:      All,
		RowsPerPage:     rows,
		UserRowsPerPage: rows,
	}
}

// SetTab switches tab and resets every filter and both pages. Page sizes
// are kept.
func (f *FilterState) SetTab(tab int) {
	rows, userRows := f.RowsPerPage, f.UserRowsPerPage
	*f = DefaultFilters(rows)
	if userRows > 0 {
		f.UserRowsPerPage = userRows
	}
	f.ActiveTab = tab
}

// SetRowsPerPage changes the ticket page size and returns to the first page.
func (f *FilterState) SetRowsPerPage(rows int) {
	f.RowsPerPage = rows
	f.Page = 0
}

// SetUserRowsPerPage changes the user page size and returns to the first page.
func (f *FilterState) SetUserRowsPerPage(rows int) {
	f.UserRowsPerPage = rows
	f.UserPage = 0
}

// normalized fills empty filters with All and clamps pages and sizes.
func (f FilterState) normalized() FilterState {
	f.StatusFilter = normalizeFilter(f.StatusFilter)
	f.PriorityFilter = normalizeFilter(f.PriorityFilter)
	f.RoleFilter = normalizeFilter(f.RoleFilter)
	f.Page = clampPage(f.Page)
	f.UserPage = clampPage(f.UserPage)
	f.RowsPerPage = clampRows(f.RowsPerPage)
	f.UserRowsPerPage = clampRows(f.UserRowsPerPage)
	return f
}

func clampPage(page int) int {
	switch {
	case page < 0:
		return 0
	case page > maxPage:
		return maxPage
	}
	return page
}

func clampRows(rows int) int {
	switch {
	case rows <= 0:
		return DefaultRowsPerPage
	case rows > MaxRowsPerPage:
		return MaxRowsPerPage
	}
	return rows
}

func normalizeFilter(v string) string {
	v = strings.ToUpper(strings.TrimSpace(v))
	if v == "" {
		return All
	}
	return v
}

// QueryValues is the read side of url.Values and fiber's query accessor.
type QueryValues func(key string) string

// ParseFilters reads filter state from query parameters: tab, status,
// priority, role, q, page, rows, user_page, user_rows. Missing or invalid
// values fall back to defaults.
func ParseFilters(get QueryValues, defaultRows int) FilterState {
	f := DefaultFilters(defaultRows)
	f.ActiveTab = atoi(get("tab"), 0)
	if v := get("status"); v != "" {
		f.StatusFilter = normalizeFilter(v)
	}
	if v := get("priority"); v != "" {
		f.PriorityFilter = normalizeFilter(v)
	}
	if v := get("role"); v != "" {
		f.RoleFilter = normalizeFilter(v)
	}
	f.SearchTerm = get("q")
	f.Page = atoi(get("page"), 0)
	f.UserPage = atoi(get("user_page"), 0)
	f.RowsPerPage = atoi(get("rows"), f.RowsPerPage)
	f.UserRowsPerPage = atoi(get("user_rows"), f.UserRowsPerPage)
	return f.normalized()
}

func atoi(v string, fallback int) int {
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
