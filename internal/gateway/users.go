package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/spec-kit/ticketdesk/internal/domain"
)

// ListUsers returns every account (admin only).
func (c *Client) ListUsers(ctx context.Context, token string) ([]domain.UserProfile, error) {
	var users []domain.UserProfile
	if _, _, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "api/users",
		label:  "api/users",
		token:  token,
		auth:   true,
	}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser creates an account with an explicit role (admin only).
func (c *Client) CreateUser(ctx context.Context, token string, req CreateUserRequest) (*domain.UserProfile, error) {
	var user domain.UserProfile
	if _, _, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "api/admin/users",
		label:  "api/admin/users",
		token:  token,
		auth:   true,
		body:   req,
	}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserRole changes a user's role (admin only).
func (c *Client) UpdateUserRole(ctx context.Context, token string, userID int64, role domain.Role) (*domain.UserProfile, error) {
	var user domain.UserProfile
	if _, _, err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "api/users/" + strconv.FormatInt(userID, 10) + "/role",
		label:  "api/users/{id}/role",
		token:  token,
		auth:   true,
		body:   roleUpdateRequest{Role: role},
	}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes an account (admin only) and returns the server message.
func (c *Client) DeleteUser(ctx context.Context, token string, userID int64) (string, error) {
	_, body, err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   "api/admin/users/" + strconv.FormatInt(userID, 10),
		label:  "api/admin/users/{id}",
		token:  token,
		auth:   true,
	}, nil)
	if err != nil {
		return "", err
	}
	return deleteMessage(body), nil
}

func deleteMessage(body []byte) string {
	const fallback = "User deleted successfully"
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fallback
	}
	var resp messageResponse
	if err := json.Unmarshal([]byte(trimmed), &resp); err == nil {
		if resp.Message != "" {
			return resp.Message
		}
		return fallback
	}
	return trimmed
}
