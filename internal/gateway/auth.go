package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/spec-kit/ticketdesk/internal/domain"
	apperrors "github.com/spec-kit/ticketdesk/pkg/util/errorutil"
)

// SignIn exchanges credentials for a token and profile.
func (c *Client) SignIn(ctx context.Context, email, password string) (AuthResult, error) {
	var resp authResponse
	status, _, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "auth/signin",
		label:  "auth/signin",
		body:   SignInRequest{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return AuthResult{}, err
	}
	return checkAuthResult(status, resp.result())
}

// SignUp registers an account and returns its token and profile.
func (c *Client) SignUp(ctx context.Context, req RegisterRequest) (AuthResult, error) {
	var resp authResponse
	status, _, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "auth/signup",
		label:  "auth/signup",
		body:   req,
	}, &resp)
	if err != nil {
		return AuthResult{}, err
	}
	return checkAuthResult(status, resp.result())
}

func checkAuthResult(status int, result AuthResult) (AuthResult, error) {
	if result.Token == "" || result.User == nil {
		return AuthResult{}, apperrors.NewMalformedResponse(status, errors.New("auth response missing token or user"))
	}
	return result, nil
}

// Profile returns the profile of the token's owner.
func (c *Client) Profile(ctx context.Context, token string) (*domain.UserProfile, error) {
	var user domain.UserProfile
	if _, _, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "api/users/profile",
		label:  "api/users/profile",
		token:  token,
		auth:   true,
	}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile edits the caller's own profile.
func (c *Client) UpdateProfile(ctx context.Context, token string, update ProfileUpdate) (*domain.UserProfile, error) {
	var user domain.UserProfile
	if _, _, err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "api/users/profile",
		label:  "api/users/profile",
		token:  token,
		auth:   true,
		body:   update,
	}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
