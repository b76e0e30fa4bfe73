package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/spec-kit/ticketdesk/internal/access"
	"github.com/spec-kit/ticketdesk/internal/app"
	"github.com/spec-kit/ticketdesk/internal/auth"
	"github.com/spec-kit/ticketdesk/internal/domain"
	"github.com/spec-kit/ticketdesk/internal/gateway"
	"github.com/spec-kit/ticketdesk/internal/store"
	"github.com/spec-kit/ticketdesk/internal/views"
)

// Env carries what every command needs.
type Env struct {
	App *app.App
	Out io.Writer
	Now func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// ErrNotSignedIn is returned by commands that need a session when none
// could be restored.
var ErrNotSignedIn = errors.New("not signed in; run 'ticketdesk login'")

// Root builds the ticketdesk command tree.
func Root(env *Env) *Command {
	return &Command{
		Name:    "ticketdesk",
		Summary: "Help desk client for the ticketing API",
		Subcommands: []*Command{
			loginCommand(env),
			registerCommand(env),
			logoutCommand(env),
			whoamiCommand(env),
			dashboardCommand(env),
			watchCommand(env),
			createCommand(env),
			statusCommand(env),
			assignCommand(env),
			unassignCommand(env),
			commentCommand(env),
			deleteCommand(env),
			showCommand(env),
			exportCommand(env),
			usersCommand(env),
			serveCommand(env),
		},
	}
}

// signedIn restores the persisted session and returns the actor.
func (e *Env) signedIn(ctx context.Context) (*domain.UserProfile, error) {
	if err := e.App.Bootstrap(ctx); err != nil {
		return nil, err
	}
	user := e.App.Session.Snapshot().User
	if user == nil {
		return nil, ErrNotSignedIn
	}
	return user, nil
}

// ticket loads id for a capability check from the cached collection,
// falling back to the server when it is not cached.
func (e *Env) ticket(ctx context.Context, id int64) (*domain.Ticket, error) {
	if cached, ok := e.App.Tickets.Find(id); ok {
		return &cached, nil
	}
	return e.App.Tickets.Get(ctx, id)
}

func (e *Env) gate(ctx context.Context, rawID string, action auth.Action) (*domain.UserProfile, *domain.Ticket, error) {
	actor, err := e.signedIn(ctx)
	if err != nil {
		return nil, nil, err
	}
	id, err := parseID(rawID)
	if err != nil {
		return nil, nil, err
	}
	ticket, err := e.ticket(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if action != "" && !auth.Can(actor, action, ticket) {
		return nil, nil, fmt.Errorf("a %s cannot do that on ticket #%d", auth.EffectiveRole(actor), id)
	}
	return actor, ticket, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func expectArgs(args []string, n int, usage string) error {
	if len(args) != n {
		return fmt.Errorf("expected %d argument(s), got %d\n\nusage: %s", n, len(args), usage)
	}
	return nil
}

func loginCommand(env *Env) *Command {
	var email, password string
	return &Command{
		Name:    "login",
		Summary: "Sign in and persist the session token",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
			fs.StringVar(&email, "email", "", "account email")
			fs.StringVar(&password, "password", os.Getenv("TICKETDESK_PASSWORD"), "account password (default $TICKETDESK_PASSWORD)")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			user, err := env.App.Session.Login(ctx, email, password)
			if err != nil {
				return err
			}
			RenderProfile(env.Out, user)
			return nil
		},
	}
}

func registerCommand(env *Env) *Command {
	var input store.RegisterInput
	var role string
	return &Command{
		Name:    "register",
		Summary: "Create an account and sign in",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("register", pflag.ContinueOnError)
			fs.StringVar(&input.FirstName, "first-name", "", "first name")
			fs.StringVar(&input.LastName, "last-name", "", "last name")
			fs.StringVar(&input.Email, "email", "", "account email")
			fs.StringVar(&input.Password, "password", os.Getenv("TICKETDESK_PASSWORD"), "account password (default $TICKETDESK_PASSWORD)")
			fs.StringVar(&role, "role", string(domain.RoleUser), "USER, SUPPORT_AGENT or ADMIN")
			fs.StringVar(&input.AccessCode, "access-code", "", "access code required for SUPPORT_AGENT and ADMIN")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			if input.FirstName == "" || input.LastName == "" || input.Email == "" || input.Password == "" {
				return errors.New("--first-name, --last-name, --email and --password are required")
			}
			parsed, ok := domain.ParseRole(role)
			if !ok {
				return fmt.Errorf("unknown role %q", role)
			}
			input.Role = parsed
			user, err := env.App.Session.Register(ctx, input)
			if err != nil {
				return err
			}
			RenderProfile(env.Out, user)
			return nil
		},
	}
}

func logoutCommand(env *Env) *Command {
	return &Command{
		Name:    "logout",
		Summary: "Forget the persisted session",
		Run: func(ctx context.Context, _ []string) error {
			if err := env.App.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(env.Out, "signed out")
			return nil
		},
	}
}

func whoamiCommand(env *Env) *Command {
	return &Command{
		Name:    "whoami",
		Summary: "Show the signed-in account",
		Run: func(ctx context.Context, _ []string) error {
			user, err := env.signedIn(ctx)
			if err != nil {
				return err
			}
			RenderProfile(env.Out, user)
			return nil
		},
	}
}

// filterFlags binds the dashboard filter flags. Pages are 1-based on the
// command line.
type filterFlags struct {
	tab, page, rows, userPage int
	status, priority, role    string
	search                    string
}

func (f *filterFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&f.tab, "tab", 0, "agent: 0 assigned, 1 all; admin: 0 tickets, 1 users")
	fs.StringVar(&f.status, "status", views.All, "status filter")
	fs.StringVar(&f.priority, "priority", views.All, "priority filter")
	fs.StringVar(&f.role, "role", views.All, "role filter (admin users tab)")
	fs.StringVar(&f.search, "search", "", "free-text search")
	fs.IntVar(&f.page, "page", 1, "page number")
	fs.IntVar(&f.rows, "rows", 0, "rows per page (default from PAGE_SIZE)")
	fs.IntVar(&f.userPage, "user-page", 1, "admin users page number")
}

func (f *filterFlags) state(defaultRows int) views.FilterState {
	values := map[string]string{
		"tab":       strconv.Itoa(f.tab),
		"status":    f.status,
		"priority":  f.priority,
		"role":      f.role,
		"q":         f.search,
		"page":      strconv.Itoa(f.page - 1),
		"user_page": strconv.Itoa(f.userPage - 1),
	}
	if f.rows > 0 {
		values["rows"] = strconv.Itoa(f.rows)
		values["user_rows"] = strconv.Itoa(f.rows)
	}
	return views.ParseFilters(func(key string) string { return values[key] }, defaultRows)
}

// dashboard resolves and loads the actor's dashboard. An unresolved
// dashboard is explained on Out.
func (e *Env) dashboard(ctx context.Context) (access.DashboardState, error) {
	bootErr := e.App.Bootstrap(ctx)
	state := access.ResolveDashboard(e.App.Session.Snapshot())
	if state.Phase != access.PhaseResolved {
		RenderDashboardState(e.Out, state)
		if bootErr != nil {
			return state, bootErr
		}
		return state, ErrNotSignedIn
	}
	return state, e.App.LoadDashboard(ctx, state.Kind)
}

// render prints the dashboard of state from the cached collections.
func (e *Env) render(state access.DashboardState, f views.FilterState) {
	actor := state.User
	next := func(t *domain.Ticket) []domain.TicketStatus { return auth.Transitions(actor, t) }
	tickets := e.App.Tickets.Snapshot()
	RenderError(e.Out, tickets.Error)
	switch state.Kind {
	case access.DashboardAdmin:
		users := e.App.Users.Snapshot()
		RenderError(e.Out, users.Error)
		RenderAdminView(e.Out, views.DeriveAdmin(tickets.Tickets, users.Users, f), next)
	case access.DashboardAgent:
		RenderTicketView(e.Out, "Agent dashboard, "+actor.FullName(), views.DeriveAgent(tickets.Tickets, actor, f), next)
	default:
		RenderTicketView(e.Out, "My tickets, "+actor.FullName(), views.DeriveUser(tickets.Tickets, actor, f), next)
	}
}

func dashboardCommand(env *Env) *Command {
	var filters filterFlags
	return &Command{
		Name:    "dashboard",
		Summary: "Show the dashboard for the signed-in role",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("dashboard", pflag.ContinueOnError)
			filters.register(fs)
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			state, err := env.dashboard(ctx)
			if state.Phase != access.PhaseResolved {
				return err
			}
			// A failed load is shown with the rest of the view.
			env.render(state, filters.state(env.App.Config.View.PageSize))
			return err
		},
	}
}

func watchCommand(env *Env) *Command {
	var filters filterFlags
	return &Command{
		Name:    "watch",
		Summary: "Show the dashboard and refresh it every poll interval",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("watch", pflag.ContinueOnError)
			filters.register(fs)
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			state, err := env.dashboard(ctx)
			if state.Phase != access.PhaseResolved {
				return err
			}
			f := filters.state(env.App.Config.View.PageSize)
			env.render(state, f)

			poller, ok := env.App.DashboardPoller(state.Kind, func() bool { return true })
			if !ok {
				return fmt.Errorf("the %s dashboard does not refresh automatically", state.Kind)
			}
			fetch := poller.Fetch
			poller.Fetch = func(ctx context.Context) error {
				err := fetch(ctx)
				fmt.Fprintln(env.Out)
				env.render(state, f)
				return err
			}
			poller.Run(ctx)
			return nil
		},
	}
}

func createCommand(env *Env) *Command {
	var req gateway.CreateTicketRequest
	var priority string
	return &Command{
		Name:    "create",
		Summary: "Open a new ticket",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("create", pflag.ContinueOnError)
			fs.StringVar(&req.Subject, "subject", "", "ticket subject")
			fs.StringVar(&req.Description, "description", "", "ticket description")
			fs.StringVar(&priority, "priority", string(domain.TicketPriorityMedium), "LOW, MEDIUM, HIGH or URGENT")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			actor, err := env.signedIn(ctx)
			if err != nil {
				return err
			}
			if !auth.Can(actor, auth.ActionCreateTicket, nil) {
				return fmt.Errorf("a %s cannot open tickets", auth.EffectiveRole(actor))
			}
			req.Subject = strings.TrimSpace(req.Subject)
			req.Description = strings.TrimSpace(req.Description)
			if req.Subject == "" || req.Description == "" {
				return errors.New("--subject and --description are required")
			}
			req.Priority = domain.TicketPriority(strings.ToUpper(priority))
			if !req.Priority.Valid() {
				return fmt.Errorf("unknown priority %q", priority)
			}
			ticket, err := env.App.Tickets.Create(ctx, req)
			if err != nil {
				return err
			}
			RenderTicket(env.Out, ticket, auth.Transitions(actor, ticket))
			return nil
		},
	}
}

func statusCommand(env *Env) *Command {
	const usage = "ticketdesk status <id> <status>"
	return &Command{
		Name:    "status",
		Summary: "Change a ticket's status",
		Usage:   usage,
		Run: func(ctx context.Context, args []string) error {
			if err := expectArgs(args, 2, usage); err != nil {
				return err
			}
			actor, ticket, err := env.gate(ctx, args[0], "")
			if err != nil {
				return err
			}
			target := domain.TicketStatus(strings.ToUpper(args[1]))
			if !target.Valid() {
				return fmt.Errorf("unknown status %q", args[1])
			}
			if !auth.CanTransition(actor, ticket, target) {
				return fmt.Errorf("ticket #%d cannot move to %s", ticket.ID, target)
			}
			updated, err := env.App.Tickets.UpdateStatus(ctx, ticket.ID, target)
			if err != nil {
				return err
			}
			RenderTicket(env.Out, updated, auth.Transitions(actor, updated))
			return nil
		},
	}
}

func assignCommand(env *Env) *Command {
	const usage = "ticketdesk assign <id> <agent-id>"
	return &Command{
		Name:    "assign",
		Summary: "Assign a ticket to a support agent",
		Usage:   usage,
		Run: func(ctx context.Context, args []string) error {
			if err := expectArgs(args, 2, usage); err != nil {
				return err
			}
			actor, ticket, err := env.gate(ctx, args[0], auth.ActionAssign)
			if err != nil {
				return err
			}
			agentID, err := parseID(args[1])
			if err != nil {
				return err
			}
			updated, err := env.App.Tickets.Assign(ctx, ticket.ID, agentID)
			if err != nil {
				return err
			}
			RenderTicket(env.Out, updated, auth.Transitions(actor, updated))
			return nil
		},
	}
}

func unassignCommand(env *Env) *Command {
	const usage = "ticketdesk unassign <id>"
	return &Command{
		Name:    "unassign",
		Summary: "Remove a ticket's agent",
		Usage:   usage,
		Run: func(ctx context.Context, args []string) error {
			if err := expectArgs(args, 1, usage); err != nil {
				return err
			}
			actor, ticket, err := env.gate(ctx, args[0], auth.ActionAssign)
			if err != nil {
				return err
			}
			updated, err := env.App.Tickets.Unassign(ctx, ticket.ID)
			if err != nil {
				return err
			}
			RenderTicket(env.Out, updated, auth.Transitions(actor, updated))
			return nil
		},
	}
}

func commentCommand(env *Env) *Command {
	const usage = "ticketdesk comment <id> <text...>"
	return &Command{
		Name:    "comment",
		Summary: "Add a comment to a ticket",
		Usage:   usage,
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("expected an id and comment text\n\nusage: %s", usage)
			}
			content := strings.TrimSpace(strings.Join(args[1:], " "))
			if content == "" {
				return errors.New("comment text is empty")
			}
			actor, ticket, err := env.gate(ctx, args[0], auth.ActionComment)
			if err != nil {
				return err
			}
			updated, err := env.App.Tickets.AddComment(ctx, ticket.ID, content)
			if err != nil {
				return err
			}
			RenderTicket(env.Out, updated, auth.Transitions(actor, updated))
			return nil
		},
	}
}

func deleteCommand(env *Env) *Command {
	const usage = "ticketdesk delete <id>"
	return &Command{
		Name:    "delete",
		Summary: "Delete a ticket",
		Usage:   usage,
		Run: func(ctx context.Context, args []string) error {
			if err := expectArgs(args, 1, usage); err != nil {
				return err
			}
			_, ticket, err := env.gate(ctx, args[0], auth.ActionDeleteTicket)
			if err != nil {
				return err
			}
			if err := env.App.Tickets.Delete(ctx, ticket.ID); err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "deleted ticket #%d\n", ticket.ID)
			return nil
		},
	}
}

func showCommand(env *Env) *Command {
	const usage = "ticketdesk show <id>"
	return &Command{
		Name:    "show",
		Summary: "Show a ticket and its comments",
		Usage:   usage,
		Run: func(ctx context.Context, args []string) error {
			if err := expectArgs(args, 1, usage); err != nil {
				return err
			}
			actor, ticket, err := env.gate(ctx, args[0], "")
			if err != nil {
				return err
			}
			if len(ticket.Comments) == 0 {
				comments, err := env.App.Tickets.Comments(ctx, ticket.ID)
				if err != nil {
					return err
				}
				ticket.Comments = comments
			}
			RenderTicket(env.Out, ticket, auth.Transitions(actor, ticket))
			return nil
		},
	}
}

func exportCommand(env *Env) *Command {
	var filters filterFlags
	var output string
	return &Command{
		Name:    "export",
		Summary: "Write the filtered dashboard tickets as CSV",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("export", pflag.ContinueOnError)
			filters.register(fs)
			fs.StringVarP(&output, "output", "o", "", "file to write (default tickets-<date>.csv, '-' for stdout)")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			state, err := env.dashboard(ctx)
			if err != nil {
				return err
			}
			if !auth.Can(state.User, auth.ActionExport, nil) {
				return fmt.Errorf("a %s cannot export tickets", auth.EffectiveRole(state.User))
			}
			f := filters.state(env.App.Config.View.PageSize)
			tickets := env.App.Tickets.Snapshot().Tickets
			var visible []domain.Ticket
			switch state.Kind {
			case access.DashboardAdmin:
				visible = views.DeriveAdminTickets(tickets, f).Visible
			case access.DashboardAgent:
				visible = views.DeriveAgent(tickets, state.User, f).Visible
			default:
				visible = views.DeriveUser(tickets, state.User, f).Visible
			}

			if output == "-" {
				return views.ExportCSV(env.Out, visible)
			}
			if output == "" {
				output = views.ExportFilename(env.now())
			}
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := views.ExportCSV(file, visible); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "wrote %d tickets to %s\n", len(visible), output)
			return nil
		},
	}
}
