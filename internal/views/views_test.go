package views

import (
	"bytes"
	"encoding/csv"
	"math"
	"net/url"
	"testing"
	"time"

	"github.com/spec-kit/ticketdesk/internal/domain"
)

var (
	ana   = &domain.UserProfile{ID: 1, FirstName: "Ana", LastName: "Lima", Role: domain.RoleUser}
	bruno = &domain.UserProfile{ID: 2, FirstName: "Bruno", LastName: "Reis", Role: domain.RoleUser}
	agent = &domain.UserProfile{ID: 7, FirstName: "Carla", LastName: "Dias", Role: domain.RoleSupportAgent}
)

func ticket(id int64, status domain.TicketStatus) domain.Ticket {
	return domain.Ticket{ID: id, Status: status, Priority: domain.TicketPriorityLow, CreatedBy: ana}
}

func ids(tickets []domain.Ticket) []int64 {
	out := make([]int64, len(tickets))
	for i, t := range tickets {
		out[i] = t.ID
	}
	return out
}

func TestStatusFilterPreservesOrder(t *testing.T) {
	tickets := []domain.Ticket{
		ticket(1, domain.TicketStatusOpen),
		ticket(2, domain.TicketStatusClosed),
		ticket(3, domain.TicketStatusOpen),
	}
	f := DefaultFilters(10)
	f.StatusFilter = "OPEN"

	view := DeriveAdminTickets(tickets, f)
	got := ids(view.Visible)
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("expected [1 3], got %v", got)
	}
}

func TestPaginationPastTheEnd(t *testing.T) {
	tickets := make([]domain.Ticket, 25)
	for i := range tickets {
		tickets[i] = ticket(int64(i+1), domain.TicketStatusOpen)
	}
	f := DefaultFilters(10)

	f.Page = 2
	view := DeriveAdminTickets(tickets, f)
	got := ids(view.Rows)
	if len(got) != 5 || got[0] != 21 || got[4] != 25 {
		t.Fatalf("page 2 = %v", got)
	}
	if view.PageCount != 3 {
		t.Fatalf("expected 3 pages, got %d", view.PageCount)
	}

	f.Page = 3
	if rows := DeriveAdminTickets(tickets, f).Rows; len(rows) != 0 || rows == nil {
		t.Fatalf("page 3 should be empty and non-nil, got %v", rows)
	}
	if rows := Paginate([]int{1, 2, 3}, -1, 0); len(rows) != 3 {
		t.Fatalf("negative page should clamp to first page, got %v", rows)
	}
}

func TestPaginationHugePage(t *testing.T) {
	tickets := make([]domain.Ticket, 25)
	for i := range tickets {
		tickets[i] = ticket(int64(i+1), domain.TicketStatusOpen)
	}
	query := map[string]string{"page": "922337203685477581", "rows": "9223372036854775807"}
	f := ParseFilters(func(key string) string { return query[key] }, 10)
	if f.RowsPerPage != MaxRowsPerPage {
		t.Fatalf("expected rows clamped to %d, got %d", MaxRowsPerPage, f.RowsPerPage)
	}
	if rows := Paginate(tickets, f.Page, f.RowsPerPage); len(rows) != 0 {
		t.Fatalf("expected empty page, got %d rows", len(rows))
	}
	if rows := DeriveAdminTickets(tickets, f).Rows; len(rows) != 0 || rows == nil {
		t.Fatalf("expected empty non-nil page, got %v", rows)
	}

	if rows := Paginate(tickets, math.MaxInt/3, 10); len(rows) != 0 {
		t.Fatalf("expected empty page for overflowing index, got %d rows", len(rows))
	}
	if rows := Paginate(tickets, 0, math.MaxInt); len(rows) != 25 {
		t.Fatalf("expected every row for a huge page size, got %d", len(rows))
	}
	if got := PageCount(25, math.MaxInt); got != 1 {
		t.Fatalf("expected a single page, got %d", got)
	}
}

func TestStatsStableUnderSearch(t *testing.T) {
	tickets := []domain.Ticket{
		{ID: 1, Subject: "Printer jam", Status: domain.TicketStatusOpen, CreatedBy: ana},
		{ID: 2, Subject: "VPN down", Status: domain.TicketStatusResolved, CreatedBy: ana},
		{ID: 3, Subject: "Email", Status: domain.TicketStatusOpen, CreatedBy: bruno},
	}
	f := DefaultFilters(10)
	before := DeriveUser(tickets, ana, f)

	f.SearchTerm = "PRINTER"
	after := DeriveUser(tickets, ana, f)

	if after.Stats != before.Stats {
		t.Fatalf("stats changed with search: %+v vs %+v", after.Stats, before.Stats)
	}
	if before.Stats.Total != 2 || before.Stats.Open != 1 || before.Stats.Resolved != 1 {
		t.Fatalf("unexpected stats %+v", before.Stats)
	}
	if got := ids(after.Visible); len(got) != 1 || got[0] != 1 {
		t.Fatalf("search result %v", got)
	}
}

func TestAgentTabsAndStats(t *testing.T) {
	other := &domain.UserProfile{ID: 8, Role: domain.RoleSupportAgent}
	tickets := []domain.Ticket{
		{ID: 1, Status: domain.TicketStatusOpen, AssignedAgent: agent, CreatedBy: ana},
		{ID: 2, Status: domain.TicketStatusOpen, AssignedAgent: other, CreatedBy: bruno},
		{ID: 3, Status: domain.TicketStatusInProgress, CreatedBy: bruno},
		{ID: 4, Status: domain.TicketStatusResolved, AssignedAgent: agent, CreatedBy: bruno},
	}

	f := DefaultFilters(10)
	assigned := DeriveAgent(tickets, agent, f)
	if got := ids(assigned.Visible); len(got) != 2 || got[0] != 1 || got[1] != 4 {
		t.Fatalf("assigned tab = %v", got)
	}

	f.SetTab(TabAll)
	all := DeriveAgent(tickets, agent, f)
	if len(all.Visible) != 4 {
		t.Fatalf("all tab = %v", ids(all.Visible))
	}
	if all.Stats.Assigned != 2 || all.Stats.TotalAll != 4 || all.Stats.Open != 1 || all.Stats.Resolved != 1 {
		t.Fatalf("unexpected agent stats %+v", all.Stats)
	}

	f.SearchTerm = "bruno"
	if got := ids(DeriveAgent(tickets, agent, f).Visible); len(got) != 3 {
		t.Fatalf("creator name search = %v", got)
	}
}

func TestSetTabResetsFilters(t *testing.T) {
	f := DefaultFilters(25)
	f.StatusFilter = "OPEN"
	f.PriorityFilter = "HIGH"
	f.RoleFilter = "ADMIN"
	f.SearchTerm = "vpn"
	f.Page = 3
	f.UserPage = 2

	f.SetTab(TabAll)

	want := DefaultFilters(25)
	want.ActiveTab = TabAll
	if f != want {
		t.Fatalf("SetTab left %+v, want %+v", f, want)
	}
}

func TestUserScopeExcludesOthers(t *testing.T) {
	tickets := []domain.Ticket{
		{ID: 1, CreatedBy: ana},
		{ID: 2, CreatedBy: bruno},
		{ID: 3},
	}
	if got := ids(DeriveUser(tickets, ana, DefaultFilters(10)).Visible); len(got) != 1 || got[0] != 1 {
		t.Fatalf("user scope = %v", got)
	}
	if got := DeriveUser(tickets, nil, DefaultFilters(10)).Visible; len(got) != 0 {
		t.Fatalf("nil actor should see nothing, got %v", ids(got))
	}
}

func TestAdminStatsAndUsers(t *testing.T) {
	tickets := []domain.Ticket{
		{ID: 1, Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityUrgent},
		{ID: 2, Status: domain.TicketStatusClosed, Priority: domain.TicketPriorityHigh, AssignedAgent: agent},
		{ID: 3, Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityLow},
	}
	users := []domain.UserProfile{
		{ID: 1, FirstName: "Ana", Email: "ana@example.com", Role: domain.RoleUser},
		{ID: 7, FirstName: "Carla", Email: "carla@help.example.com", Role: domain.RoleSupportAgent},
		{ID: 9, FirstName: "Root", Email: "root@example.com", Role: domain.RoleAdmin},
	}

	f := DefaultFilters(10)
	f.SearchTerm = "help"
	view := DeriveAdmin(tickets, users, f)

	if view.Tickets.Stats.HighPriority != 2 || view.Tickets.Stats.Unassigned != 2 || view.Tickets.Stats.Total != 3 {
		t.Fatalf("unexpected ticket stats %+v", view.Tickets.Stats)
	}
	if view.Users.Stats != (UserStats{Total: 3, Admins: 1, Agents: 1, Users: 1}) {
		t.Fatalf("unexpected user stats %+v", view.Users.Stats)
	}
	if len(view.Users.Visible) != 1 || view.Users.Visible[0].ID != 7 {
		t.Fatalf("email search = %+v", view.Users.Visible)
	}
	if len(view.Agents) != 1 {
		t.Fatalf("expected one assignable agent, got %d", len(view.Agents))
	}

	f = DefaultFilters(10)
	f.RoleFilter = "admin"
	if got := DeriveAdminUsers(users, f).Visible; len(got) != 1 || got[0].ID != 9 {
		t.Fatalf("role filter = %+v", got)
	}
}

func TestParseFilters(t *testing.T) {
	q := url.Values{
		"tab":      {"1"},
		"status":   {"in_progress"},
		"q":        {"printer"},
		"page":     {"2"},
		"rows":     {"oops"},
		"priority": {""},
	}
	f := ParseFilters(q.Get, 10)
	if f.ActiveTab != 1 || f.StatusFilter != "IN_PROGRESS" || f.PriorityFilter != All {
		t.Fatalf("unexpected filters %+v", f)
	}
	if f.SearchTerm != "printer" || f.Page != 2 || f.RowsPerPage != 10 {
		t.Fatalf("unexpected filters %+v", f)
	}
}

func TestExportCSV(t *testing.T) {
	created := domain.Timestamp{Time: time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)}
	tickets := []domain.Ticket{
		{ID: 5, Subject: "Printer, 2nd floor", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityHigh,
			CreatedBy: ana, CreatedAt: created, UpdatedAt: created},
		{ID: 6, Subject: "VPN", Status: domain.TicketStatusClosed, Priority: domain.TicketPriorityLow,
			CreatedBy: bruno, AssignedAgent: agent},
	}
	var buf bytes.Buffer
	if err := ExportCSV(&buf, tickets); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back csv: %v", err)
	}
	if len(records) != 3 || records[0][0] != "ID" || records[0][7] != "Last Updated" {
		t.Fatalf("unexpected header %v", records)
	}
	if records[1][1] != "Printer, 2nd floor" || records[1][4] != "Ana Lima" || records[1][5] != "Unassigned" {
		t.Fatalf("unexpected row %v", records[1])
	}
	if records[1][6] != "2024-03-09" || records[2][6] != "" {
		t.Fatalf("unexpected dates %v / %v", records[1][6], records[2][6])
	}
	if records[2][5] != "Carla Dias" {
		t.Fatalf("unexpected assignee %q", records[2][5])
	}
	if got := ExportFilename(created.Time); got != "tickets-2024-03-09.csv" {
		t.Fatalf("ExportFilename = %q", got)
	}
}
