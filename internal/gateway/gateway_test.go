package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/spec-kit/ticketdesk/internal/config"
	"github.com/spec-kit/ticketdesk/internal/domain"
	"github.com/spec-kit/ticketdesk/internal/observability"
	apperrors "github.com/spec-kit/ticketdesk/pkg/util/errorutil"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *observability.Metrics) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	metrics := observability.NewMetrics()
	client, err := NewClient(config.APIConfig{BaseURL: server.URL + "/", TimeoutSeconds: 5}, nil, metrics)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, metrics
}

func asAPIError(t *testing.T, err error) *apperrors.APIError {
	t.Helper()
	var apiErr *apperrors.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T (%v)", err, err)
	}
	return apiErr
}

func TestSignInReturnsTokenAndUser(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/signin" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("sign in must not send a bearer token")
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("expected X-Request-ID header")
		}
		var req SignInRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "ana@example.com" || req.Password != "pw" {
			t.Errorf("unexpected payload %+v", req)
		}
		_, _ = io.WriteString(w, `{"token":"tok-1","user":{"id":3,"firstName":"Ana","role":"USER"}}`)
	})

	result, err := client.SignIn(context.Background(), "ana@example.com", "pw")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if result.Token != "tok-1" || result.User == nil || result.User.ID != 3 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestSignUpReadsJWTField(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"jwt":"tok-2","user":{"id":9,"role":"SUPPORT_AGENT"}}`)
	})

	result, err := client.SignUp(context.Background(), RegisterRequest{Email: "a@b.c", Role: domain.RoleSupportAgent})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if result.Token != "tok-2" || result.User.Role != domain.RoleSupportAgent {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestAuthenticatedCallWithoutTokenNeverHitsNetwork(t *testing.T) {
	var hits int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	})

	_, err := client.Profile(context.Background(), "")
	apiErr := asAPIError(t, err)
	if apiErr.Kind != apperrors.KindPrecondition || apiErr.Message != ErrMissingToken {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("expected no request, got %d", hits)
	}
}

func TestServerErrorCarriesStatusAndMessage(t *testing.T) {
	client, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"message":"Only admins can list users"}`)
	})

	_, err := client.ListUsers(context.Background(), "tok")
	apiErr := asAPIError(t, err)
	if apiErr.Kind != apperrors.KindServer || apiErr.Status != http.StatusForbidden {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if apiErr.Message != "Only admins can list users" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
	if apiErr.StatusText != "Forbidden" {
		t.Fatalf("unexpected status text %q", apiErr.StatusText)
	}
	if _, ok := apiErr.Data.(map[string]any); !ok {
		t.Fatalf("expected decoded body in Data, got %T", apiErr.Data)
	}
	if len(metrics.Errors()) != 1 {
		t.Fatalf("expected one error counter, got %+v", metrics.Errors())
	}
}

func TestServerErrorPlainTextBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "Invalid email or password")
	})

	_, err := client.SignIn(context.Background(), "x", "y")
	apiErr := asAPIError(t, err)
	if apiErr.Message != "Invalid email or password" || !apiErr.IsAuthFailure() {
		t.Fatalf("unexpected error %+v", apiErr)
	}
}

func TestNetworkErrorHasNoStatus(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL + "/"
	server.Close()

	client, err := NewClient(config.APIConfig{BaseURL: url, TimeoutSeconds: 1}, nil, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.MyTickets(context.Background(), "tok")
	apiErr := asAPIError(t, err)
	if apiErr.Kind != apperrors.KindNetwork || apiErr.Status != 0 {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if apiErr.Message != "No response from server" || apiErr.StatusText != "Network Error" {
		t.Fatalf("unexpected error text %+v", apiErr)
	}
}

func TestMalformedSuccessBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>oops</html>`)
	})

	_, err := client.AllTickets(context.Background(), "tok", TicketQuery{})
	if asAPIError(t, err).Kind != apperrors.KindMalformed {
		t.Fatalf("expected malformed response, got %v", err)
	}
}

func TestUpdateStatusSendsBareStatusString(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/tickets/42/status" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected authorization %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `"RESOLVED"` {
			t.Errorf("unexpected body %s", body)
		}
		_, _ = io.WriteString(w, `{"id":42,"status":"RESOLVED"}`)
	})

	ticket, err := client.UpdateStatus(context.Background(), "tok", 42, domain.TicketStatusResolved)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if ticket.ID != 42 || ticket.Status != domain.TicketStatusResolved {
		t.Fatalf("unexpected ticket %+v", ticket)
	}
}

func TestAllTicketsQueryParameters(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("status") != "OPEN" || r.URL.Query().Get("priority") != "HIGH" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `[{"id":1},{"id":2}]`)
	})

	tickets, err := client.AllTickets(context.Background(), "tok", TicketQuery{
		Status:   domain.TicketStatusOpen,
		Priority: domain.TicketPriorityHigh,
	})
	if err != nil {
		t.Fatalf("AllTickets: %v", err)
	}
	if len(tickets) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(tickets))
	}
}

func TestAssignAndCommentPaths(t *testing.T) {
	var paths []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		_, _ = io.WriteString(w, `{"id":5}`)
	})
	ctx := context.Background()

	if _, err := client.Assign(ctx, "tok", 5, 8); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if _, err := client.Unassign(ctx, "tok", 5); err != nil {
		t.Fatalf("Unassign: %v", err)
	}
	if _, err := client.AddComment(ctx, "tok", 5, "on it"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	want := []string{
		"PUT /api/tickets/5/assign/8",
		"PUT /api/tickets/5/unassign",
		"POST /api/tickets/5/comments",
	}
	for i, p := range want {
		if paths[i] != p {
			t.Fatalf("call %d = %q, want %q", i, paths[i], p)
		}
	}
}

func TestDeleteTicketAcceptsEmptyBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.DeleteTicket(context.Background(), "tok", 3); err != nil {
		t.Fatalf("DeleteTicket: %v", err)
	}
}

func TestDeleteUserMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "User deleted")
	})

	msg, err := client.DeleteUser(context.Background(), "tok", 3)
	if err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if msg != "User deleted" {
		t.Fatalf("unexpected message %q", msg)
	}
	if deleteMessage([]byte(`{"message":"gone"}`)) != "gone" {
		t.Fatal("expected JSON message to be used")
	}
	if deleteMessage(nil) != "User deleted successfully" {
		t.Fatal("expected fallback message")
	}
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	if _, err := NewClient(config.APIConfig{BaseURL: "api/"}, nil, nil); err == nil {
		t.Fatal("expected error for relative base url")
	}
}

func TestPingTreatsAnyStatusAsReachable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL + "/"
	server.Close()
	down, err := NewClient(config.APIConfig{BaseURL: url, TimeoutSeconds: 1}, nil, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if asAPIError(t, down.Ping(context.Background())).Kind != apperrors.KindNetwork {
		t.Fatal("expected network error")
	}
}
