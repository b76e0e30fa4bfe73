package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spec-kit/ticketdesk/internal/domain"
)

func ticketPath(id int64, suffix string) string {
	return "api/tickets/" + strconv.FormatInt(id, 10) + suffix
}

// CreateTicket submits a new ticket for the caller.
func (c *Client) CreateTicket(ctx context.Context, token string, req CreateTicketRequest) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if _, _, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "api/tickets",
		label:  "api/tickets",
		token:  token,
		auth:   true,
		body:   req,
	}, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// MyTickets lists tickets created by the caller.
func (c *Client) MyTickets(ctx context.Context, token string) ([]domain.Ticket, error) {
	return c.listTickets(ctx, token, "api/tickets/my-tickets", nil)
}

// AllTickets lists every ticket visible to the caller, optionally narrowed server-side.
func (c *Client) AllTickets(ctx context.Context, token string, query TicketQuery) ([]domain.Ticket, error) {
	values := url.Values{}
	if query.Status != "" {
		values.Set("status", string(query.Status))
	}
	if query.Priority != "" {
		values.Set("priority", string(query.Priority))
	}
	return c.listTickets(ctx, token, "api/tickets", values)
}

// AssignedTickets lists tickets assigned to the calling agent.
func (c *Client) AssignedTickets(ctx context.Context, token string) ([]domain.Ticket, error) {
	return c.listTickets(ctx, token, "api/tickets/assigned", nil)
}

func (c *Client) listTickets(ctx context.Context, token, path string, query url.Values) ([]domain.Ticket, error) {
	tickets := []domain.Ticket{}
	if _, _, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   path,
		label:  path,
		query:  query,
		token:  token,
		auth:   true,
	}, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// Ticket fetches one ticket with its comments.
func (c *Client) Ticket(ctx context.Context, token string, id int64) (*domain.Ticket, error) {
	return c.ticketCall(ctx, http.MethodGet, token, ticketPath(id, ""), "api/tickets/{id}", nil)
}

// UpdateStatus sets a ticket's status. The body is the bare JSON string of the status.
func (c *Client) UpdateStatus(ctx context.Context, token string, id int64, status domain.TicketStatus) (*domain.Ticket, error) {
	return c.ticketCall(ctx, http.MethodPut, token, ticketPath(id, "/status"), "api/tickets/{id}/status", string(status))
}

// Assign gives a ticket to an agent.
func (c *Client) Assign(ctx context.Context, token string, id, agentID int64) (*domain.Ticket, error) {
	return c.ticketCall(ctx, http.MethodPut, token,
		ticketPath(id, "/assign/"+strconv.FormatInt(agentID, 10)), "api/tickets/{id}/assign/{agentId}", struct{}{})
}

// Unassign removes a ticket's agent.
func (c *Client) Unassign(ctx context.Context, token string, id int64) (*domain.Ticket, error) {
	return c.ticketCall(ctx, http.MethodPut, token, ticketPath(id, "/unassign"), "api/tickets/{id}/unassign", struct{}{})
}

// AddComment appends a comment and returns the updated ticket.
func (c *Client) AddComment(ctx context.Context, token string, id int64, content string) (*domain.Ticket, error) {
	return c.ticketCall(ctx, http.MethodPost, token, ticketPath(id, "/comments"), "api/tickets/{id}/comments",
		commentRequest{Content: content})
}

// DeleteTicket removes a ticket. Any 2xx counts as success.
func (c *Client) DeleteTicket(ctx context.Context, token string, id int64) error {
	_, _, err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   ticketPath(id, ""),
		label:  "api/tickets/{id}",
		token:  token,
		auth:   true,
	}, nil)
	return err
}

// Comments lists a ticket's comments in server order.
func (c *Client) Comments(ctx context.Context, token string, id int64) ([]domain.Comment, error) {
	comments := []domain.Comment{}
	if _, _, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   ticketPath(id, "/comments"),
		label:  "api/tickets/{id}/comments",
		token:  token,
		auth:   true,
	}, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *Client) ticketCall(ctx context.Context, method, token, path, label string, body any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if _, _, err := c.do(ctx, request{
		method: method,
		path:   path,
		label:  label,
		token:  token,
		auth:   true,
		body:   body,
	}, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}
