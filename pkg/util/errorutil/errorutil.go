package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies where a failure originated.
type Kind string

const (
	KindNetwork      Kind = "NETWORK"
	KindServer       Kind = "SERVER"
	KindPrecondition Kind = "PRECONDITION"
	KindMalformed    Kind = "MALFORMED_RESPONSE"
)

// APIError is the single error shape stored in client state. Views only ever
// display Message; Kind exists for logging and for callers that must tell an
// invalid token apart from a transient failure.
type APIError struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	Status     int    `json:"status,omitempty"`
	StatusText string `json:"statusText,omitempty"`
	Data       any    `json:"data,omitempty"`
	Err        error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Code returns a stable machine-readable code used in JSON error bodies.
func (e *APIError) Code() string {
	switch {
	case e.Kind == KindPrecondition:
		return "PRECONDITION_FAILED"
	case e.Kind == KindNetwork:
		return "NETWORK_ERROR"
	case e.Kind == KindMalformed:
		return "MALFORMED_RESPONSE"
	case e.Status == http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case e.Status == http.StatusForbidden:
		return "FORBIDDEN"
	case e.Status == http.StatusNotFound:
		return "NOT_FOUND"
	case e.Status >= 500:
		return "UPSTREAM_ERROR"
	default:
		return "REQUEST_FAILED"
	}
}

// HTTPStatus maps the error onto a status suitable for re-serving it.
func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KindPrecondition:
		return http.StatusBadRequest
	case KindNetwork, KindMalformed:
		return http.StatusBadGateway
	}
	if e.Status >= 400 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// IsAuthFailure reports whether the error means the token cannot be trusted.
func (e *APIError) IsAuthFailure() bool {
	if e == nil {
		return false
	}
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// NewNetworkError reports a request that never got a response.
func NewNetworkError(err error) *APIError {
	return &APIError{
		Kind:       KindNetwork,
		Message:    "No response from server",
		StatusText: "Network Error",
		Err:        err,
	}
}

// NewServerError reports a non-2xx response.
func NewServerError(status int, message string, data any) *APIError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &APIError{
		Kind:       KindServer,
		Message:    message,
		Status:     status,
		StatusText: http.StatusText(status),
		Data:       data,
	}
}

// NewPreconditionError reports a failure raised before any network call.
func NewPreconditionError(message string) *APIError {
	return &APIError{
		Kind:       KindPrecondition,
		Message:    message,
		StatusText: "Request Error",
	}
}

// NewMalformedResponse reports a 2xx response whose body could not be decoded.
func NewMalformedResponse(status int, err error) *APIError {
	return &APIError{
		Kind:       KindMalformed,
		Message:    "malformed response from server",
		Status:     status,
		StatusText: http.StatusText(status),
		Err:        err,
	}
}

// ToAPIError converts any error into an APIError.
func ToAPIError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &APIError{
		Kind:       KindPrecondition,
		Message:    err.Error(),
		StatusText: "Request Error",
		Err:        err,
	}
}

// IsAuthFailure reports whether err carries a 401/403 from the server.
func IsAuthFailure(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsAuthFailure()
	}
	return false
}

// IsPrecondition reports whether err was raised locally before any request.
func IsPrecondition(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindPrecondition
	}
	return false
}
