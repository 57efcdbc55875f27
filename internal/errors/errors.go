// Package errors provides the error types returned by the Research Copilot client.
package errors

import (
	"errors"
	"fmt"
)

// SessionExpiredMessage is shown whenever the backend rejects the bearer token
const SessionExpiredMessage = "Sesión expirada. Volvé a iniciar sesión."

// Sentinel errors for common cases
var (
	ErrAuthFailed         = errors.New("authentication failed")
	ErrNotAuthenticated   = errors.New("not logged in")
	ErrInvalidResponse    = errors.New("invalid response format")
	ErrUnexpectedResponse = errors.New("unexpected JSON response")
	ErrNoProject          = errors.New("no active project")
	ErrEmptyName          = errors.New("project name required")
)

// NetworkError represents a transport failure: the request never produced a
// response or the response body could not be read.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("network error: %v", e.Err)
	}
	return fmt.Sprintf("network error at %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(endpoint string, err error) *NetworkError {
	return &NetworkError{Endpoint: endpoint, Err: err}
}

// AuthError represents a rejected or missing session
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return SessionExpiredMessage
	}
	return e.Message
}

// Is allows comparison with sentinel errors
func (e *AuthError) Is(target error) bool {
	if target == ErrAuthFailed {
		return true
	}
	_, ok := target.(*AuthError)
	return ok
}

// NewAuthError creates a new AuthError
func NewAuthError(message string) *AuthError {
	return &AuthError{Message: message}
}

// NewSessionExpiredError returns the error produced by a 401 response
func NewSessionExpiredError() *AuthError {
	return &AuthError{Message: SessionExpiredMessage}
}

// APIError represents a non-2xx response carrying an application message
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error at %s: %s", e.Endpoint, e.Message)
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// UnexpectedResponseError is returned when a JSON document arrives where an
// event stream was expected.
type UnexpectedResponseError struct {
	StatusCode int
	Detail     string
}

func (e *UnexpectedResponseError) Error() string {
	if e.Detail == "" {
		return "Respuesta JSON inesperada"
	}
	return "Respuesta JSON inesperada: " + e.Detail
}

// Is allows comparison with sentinel errors
func (e *UnexpectedResponseError) Is(target error) bool {
	return target == ErrUnexpectedResponse
}

// NewUnexpectedResponseError creates a new UnexpectedResponseError
func NewUnexpectedResponseError(statusCode int, detail string) *UnexpectedResponseError {
	return &UnexpectedResponseError{StatusCode: statusCode, Detail: detail}
}

// ParseError represents a response parsing error
type ParseError struct {
	Message string
	Path    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Is allows comparison with sentinel errors
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// NewParseError creates a new ParseError
func NewParseError(message, path string) *ParseError {
	return &ParseError{Message: message, Path: path}
}

// IsAuthError checks if the error is an authentication error
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsNetworkError checks if the error is a transport failure
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsUnexpectedResponse checks if a JSON body replaced the event stream
func IsUnexpectedResponse(err error) bool {
	var unexpected *UnexpectedResponseError
	return errors.As(err, &unexpected)
}

// GetHTTPStatus extracts the HTTP status code from an error, 0 if none
func GetHTTPStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	var unexpected *UnexpectedResponseError
	if errors.As(err, &unexpected) {
		return unexpected.StatusCode
	}
	if IsAuthError(err) {
		return 401
	}
	return 0
}

// UserMessage returns the single line shown in the error banner
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Error()
	}
	var unexpected *UnexpectedResponseError
	if errors.As(err, &unexpected) {
		return unexpected.Error()
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("Error %d", apiErr.StatusCode)
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Err.Error()
	}
	return err.Error()
}

// Re-export standard library functions for convenience
var (
	Is     = errors.Is
	As     = errors.As
	New    = errors.New
	Unwrap = errors.Unwrap
	Join   = errors.Join
)
