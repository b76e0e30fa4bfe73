package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spec-kit/ticketdesk/internal/app"
	"github.com/spec-kit/ticketdesk/internal/auth"
	"github.com/spec-kit/ticketdesk/internal/config"
	"github.com/spec-kit/ticketdesk/internal/domain"
)

var (
	ana = domain.UserProfile{ID: 1, FirstName: "Ana", LastName: "Lee", Email: "ana@example.com", Role: domain.RoleUser}
	bo  = domain.UserProfile{ID: 2, FirstName: "Bo", LastName: "Ng", Email: "bo@example.com", Role: domain.RoleSupportAgent}
)

func tickets() []domain.Ticket {
	return []domain.Ticket{
		{ID: 10, Subject: "Printer jam", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityHigh, CreatedBy: &ana, AssignedAgent: &bo},
		{ID: 11, Subject: "Someone else's laptop", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityLow, CreatedBy: &bo},
	}
}

func newEnv(t *testing.T, user domain.UserProfile) *Env {
	t.Helper()
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("POST /auth/signin", func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{"token": "tok", "user": user})
	})
	mux.HandleFunc("GET /api/users/profile", func(w http.ResponseWriter, r *http.Request) {
		write(w, user)
	})
	mux.HandleFunc("GET /api/tickets/my-tickets", func(w http.ResponseWriter, r *http.Request) {
		write(w, tickets())
	})
	mux.HandleFunc("GET /api/tickets", func(w http.ResponseWriter, r *http.Request) {
		write(w, tickets())
	})
	mux.HandleFunc("GET /api/tickets/{id}", func(w http.ResponseWriter, r *http.Request) {
		write(w, tickets()[0])
	})
	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)

	cfg := &config.Config{
		App:   config.AppConfig{Name: "ticketdesk"},
		API:   config.APIConfig{BaseURL: upstream.URL + "/", TimeoutSeconds: 5},
		Poll:  config.PollConfig{IntervalSeconds: 30},
		View:  config.ViewConfig{PageSize: 10},
		Token: config.TokenConfig{Store: config.TokenStoreMemory},
		Auth:  config.AuthConfig{AdminCode: "ADMIN2024", AgentCode: "AGENT2024", BcryptCost: 4},
	}
	a, err := app.New(cfg, nil, app.WithTokenStore(auth.NewMemoryTokenStore("")))
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	t.Cleanup(a.Close)
	return &Env{App: a}
}

func execute(env *Env, args ...string) (string, error) {
	var out bytes.Buffer
	env.Out = &out
	err := Root(env).Execute(context.Background(), &out, args)
	return out.String(), err
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(&Env{}, "frobnicate")
	if err == nil || !strings.Contains(err.Error(), `unknown command "frobnicate"`) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestHelpListsCommands(t *testing.T) {
	out, err := execute(&Env{}, "--help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, name := range []string{"login", "dashboard", "watch", "export", "users", "serve"} {
		if !strings.Contains(out, name) {
			t.Fatalf("help is missing %q:\n%s", name, out)
		}
	}

	_, err = execute(&Env{}, "users")
	if !errors.Is(err, ErrHelp) {
		t.Fatalf("expected ErrHelp for a bare group, got %v", err)
	}
}

func TestDashboardRequiresSession(t *testing.T) {
	env := newEnv(t, ana)
	out, err := execute(env, "dashboard")
	if !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
	if !strings.Contains(out, "not signed in") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestLoginThenDashboard(t *testing.T) {
	env := newEnv(t, ana)
	if _, err := execute(env, "login", "--email", "ana@example.com", "--password", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	out, err := execute(env, "dashboard", "--status", "open")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if !strings.Contains(out, "Printer jam") {
		t.Fatalf("expected own ticket in output:\n%s", out)
	}
	if strings.Contains(out, "Someone else") {
		t.Fatalf("user dashboard leaked another user's ticket:\n%s", out)
	}
	if !strings.Contains(out, "page 1 of 1") {
		t.Fatalf("expected pager line:\n%s", out)
	}
}

func TestBadFlagIsReported(t *testing.T) {
	env := newEnv(t, ana)
	_, err := execute(env, "dashboard", "--bogus")
	if err == nil || !strings.Contains(err.Error(), "unknown flag") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestAgentStatusOutsideLifecycleIsRefused(t *testing.T) {
	env := newEnv(t, bo)
	if _, err := execute(env, "login", "--email", "bo@example.com", "--password", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	_, err := execute(env, "status", "10", "closed")
	if err == nil || !strings.Contains(err.Error(), "cannot move to CLOSED") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestUserCannotListUsers(t *testing.T) {
	env := newEnv(t, ana)
	if _, err := execute(env, "login", "--email", "ana@example.com", "--password", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	_, err := execute(env, "users", "list")
	if err == nil || !strings.Contains(err.Error(), "cannot manage users") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestExportToStdout(t *testing.T) {
	env := newEnv(t, bo)
	if _, err := execute(env, "login", "--email", "bo@example.com", "--password", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	out, err := execute(env, "export", "--tab", "1", "-o", "-")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "ID,Subject,Status") {
		t.Fatalf("unexpected csv:\n%s", out)
	}
}

func TestLogoutForgetsSession(t *testing.T) {
	env := newEnv(t, ana)
	if _, err := execute(env, "login", "--email", "ana@example.com", "--password", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := execute(env, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := execute(env, "whoami"); !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
}

func TestTicketLookupUsesCacheBeforeServer(t *testing.T) {
	env := newEnv(t, ana)
	ctx := context.Background()
	if _, err := env.App.Session.Login(ctx, "ana@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	fromServer, err := env.ticket(ctx, 11)
	if err != nil {
		t.Fatalf("ticket before fetch: %v", err)
	}
	if fromServer.Subject != "Printer jam" {
		t.Fatalf("expected the server copy for an uncached id, got %+v", fromServer)
	}

	if _, err := env.App.Tickets.FetchMine(ctx); err != nil {
		t.Fatalf("FetchMine: %v", err)
	}
	cached, err := env.ticket(ctx, 11)
	if err != nil {
		t.Fatalf("ticket after fetch: %v", err)
	}
	if cached.Subject != "Someone else's laptop" {
		t.Fatalf("expected the cached copy, got %+v", cached)
	}
}
