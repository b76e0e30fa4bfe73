package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spec-kit/ticketdesk/internal/access"
	"github.com/spec-kit/ticketdesk/internal/domain"
	"github.com/spec-kit/ticketdesk/internal/views"
	apperrors "github.com/spec-kit/ticketdesk/pkg/util/errorutil"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	faintStyle  = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	statStyle   = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())

	statusColors = map[domain.TicketStatus]lipgloss.Color{
		domain.TicketStatusOpen:       lipgloss.Color("11"),
		domain.TicketStatusInProgress: lipgloss.Color("14"),
		domain.TicketStatusResolved:   lipgloss.Color("10"),
		domain.TicketStatusClosed:     lipgloss.Color("8"),
	}
	priorityColors = map[domain.TicketPriority]lipgloss.Color{
		domain.TicketPriorityHigh:   lipgloss.Color("208"),
		domain.TicketPriorityUrgent: lipgloss.Color("9"),
	}
)

type column struct {
	title string
	width int
}

var (
	ticketColumns = []column{{"ID", 6}, {"SUBJECT", 32}, {"STATUS", 12}, {"PRIORITY", 9}, {"CREATED BY", 18}, {"ASSIGNED TO", 18}, {"NEXT", 24}}
	userColumns   = []column{{"ID", 6}, {"NAME", 24}, {"EMAIL", 30}, {"ROLE", 14}}
)

func cell(text string, width int, style lipgloss.Style) string {
	if lipgloss.Width(text) > width-1 {
		text = truncate(text, width-2) + "…"
	}
	return style.Width(width).MaxWidth(width).Render(text)
}

func truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	return string(runes[:width])
}

func headerRow(columns []column) string {
	cells := make([]string, len(columns))
	for i, col := range columns {
		cells[i] = cell(col.title, col.width, headerStyle)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func personName(u *domain.UserProfile, fallback string) string {
	if u == nil {
		return fallback
	}
	if name := u.FullName(); name != "" {
		return name
	}
	return u.Email
}

func ticketRow(t domain.Ticket, next []domain.TicketStatus) string {
	plain := lipgloss.NewStyle()
	moves := make([]string, len(next))
	for i, s := range next {
		moves[i] = string(s)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		cell(strconv.FormatInt(t.ID, 10), ticketColumns[0].width, faintStyle),
		cell(t.Subject, ticketColumns[1].width, plain),
		cell(string(t.Status), ticketColumns[2].width, plain.Foreground(statusColors[t.Status])),
		cell(string(t.Priority), ticketColumns[3].width, plain.Foreground(priorityColors[t.Priority])),
		cell(personName(t.CreatedBy, "-"), ticketColumns[4].width, plain),
		cell(personName(t.AssignedAgent, "Unassigned"), ticketColumns[5].width, plain),
		cell(strings.Join(moves, ","), ticketColumns[6].width, faintStyle),
	)
}

func renderStats(pairs ...any) string {
	boxes := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		boxes = append(boxes, statStyle.Render(fmt.Sprintf("%v %v", pairs[i], pairs[i+1])))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func renderFilters(f views.FilterState) string {
	return faintStyle.Render(fmt.Sprintf("tab=%d status=%s priority=%s search=%q", f.ActiveTab, f.StatusFilter, f.PriorityFilter, f.SearchTerm))
}

func renderPager(page, pages, matched int) string {
	if pages == 0 {
		return faintStyle.Render("no tickets match")
	}
	return faintStyle.Render(fmt.Sprintf("page %d of %d, %d matching", page+1, pages, matched))
}

// RenderTicketView prints a user or agent dashboard.
func RenderTicketView(w io.Writer, title string, view views.TicketView, transitions func(*domain.Ticket) []domain.TicketStatus) {
	s := view.Stats
	fmt.Fprintln(w, titleStyle.Render(title))
	if view.Stats.TotalAll > 0 || view.Stats.Assigned > 0 {
		fmt.Fprintln(w, renderStats("Assigned", s.Assigned, "Open", s.Open, "In progress", s.InProgress, "Resolved", s.Resolved, "All tickets", s.TotalAll))
	} else {
		fmt.Fprintln(w, renderStats("Total", s.Total, "Open", s.Open, "In progress", s.InProgress, "Resolved", s.Resolved, "Closed", s.Closed))
	}
	fmt.Fprintln(w, renderFilters(view.Filters))
	renderTicketTable(w, view, transitions)
}

// RenderAdminView prints the admin dashboard: the active tab's table.
func RenderAdminView(w io.Writer, view views.AdminView, transitions func(*domain.Ticket) []domain.TicketStatus) {
	s := view.Tickets.Stats
	u := view.Users.Stats
	fmt.Fprintln(w, titleStyle.Render("Admin dashboard"))
	fmt.Fprintln(w, renderStats("Tickets", s.Total, "Open", s.Open, "High priority", s.HighPriority, "Unassigned", s.Unassigned, "Users", u.Total, "Agents", u.Agents))
	fmt.Fprintln(w, renderFilters(view.Tickets.Filters))
	if view.Tickets.Filters.ActiveTab == views.TabUsers {
		RenderUsers(w, view.Users.Rows)
		fmt.Fprintln(w, renderPager(view.Users.Filters.UserPage, view.Users.PageCount, view.Users.Matched))
		return
	}
	renderTicketTable(w, view.Tickets, transitions)
}

func renderTicketTable(w io.Writer, view views.TicketView, transitions func(*domain.Ticket) []domain.TicketStatus) {
	fmt.Fprintln(w, headerRow(ticketColumns))
	for i := range view.Rows {
		fmt.Fprintln(w, ticketRow(view.Rows[i], transitions(&view.Rows[i])))
	}
	fmt.Fprintln(w, renderPager(view.Filters.Page, view.PageCount, view.Matched))
}

// RenderUsers prints an account table.
func RenderUsers(w io.Writer, users []domain.UserProfile) {
	plain := lipgloss.NewStyle()
	fmt.Fprintln(w, headerRow(userColumns))
	for _, u := range users {
		fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top,
			cell(strconv.FormatInt(u.ID, 10), userColumns[0].width, faintStyle),
			cell(u.FullName(), userColumns[1].width, plain),
			cell(u.Email, userColumns[2].width, plain),
			cell(string(u.Role), userColumns[3].width, plain),
		))
	}
}

// RenderTicket prints one ticket with its comment thread.
func RenderTicket(w io.Writer, t *domain.Ticket, next []domain.TicketStatus) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("#%d %s", t.ID, t.Subject)))
	fmt.Fprintf(w, "%s  %s\n",
		lipgloss.NewStyle().Foreground(statusColors[t.Status]).Render(string(t.Status)),
		lipgloss.NewStyle().Foreground(priorityColors[t.Priority]).Render(string(t.Priority)))
	fmt.Fprintf(w, "created by %s, assigned to %s\n", personName(t.CreatedBy, "-"), personName(t.AssignedAgent, "Unassigned"))
	if !t.CreatedAt.IsZero() {
		fmt.Fprintln(w, faintStyle.Render("opened "+t.CreatedAt.Format("2006-01-02 15:04")))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, t.Description)
	if len(next) > 0 {
		moves := make([]string, len(next))
		for i, s := range next {
			moves[i] = string(s)
		}
		fmt.Fprintln(w, faintStyle.Render("status options: "+strings.Join(moves, ", ")))
	}
	if len(t.Comments) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("Comments"))
	for _, c := range t.Comments {
		fmt.Fprintf(w, "%s %s\n  %s\n", lipgloss.NewStyle().Bold(true).Render(personName(c.User, "unknown")), faintStyle.Render(c.CreatedAt.Format("2006-01-02 15:04")), c.Content)
	}
}

// RenderProfile prints the signed-in actor.
func RenderProfile(w io.Writer, u *domain.UserProfile) {
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render(u.FullName()), faintStyle.Render("<"+u.Email+">"))
	fmt.Fprintf(w, "role %s, home %s\n", u.Role, access.DefaultRoute(u))
}

// RenderDashboardState explains a dashboard that did not resolve.
func RenderDashboardState(w io.Writer, state access.DashboardState) {
	switch state.Phase {
	case access.PhaseLoading:
		fmt.Fprintln(w, faintStyle.Render("loading…"))
	case access.PhaseError:
		RenderError(w, state.Error)
		fmt.Fprintln(w, faintStyle.Render("retry the command once the server is reachable"))
	case access.PhaseNoUser:
		fmt.Fprintln(w, faintStyle.Render("not signed in; run 'ticketdesk login'"))
	}
}

// RenderError prints a store error the way every view shows it: the message.
func RenderError(w io.Writer, err *apperrors.APIError) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, errorStyle.Render(err.Message))
}
