package core

import (
	"errors"
	"fmt"
)

// Error represents a failure reported by a remote collaborator or by the
// gateway itself, classified so callers can pick a retry policy.
type Error struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Param      string    `json:"param,omitempty"`
	Code       string    `json:"code,omitempty"`
	RetryAfter *int      `json:"retry_after,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes errors.
type ErrorType string

const (
	ErrInvalidRequest ErrorType = "invalid_request_error"
	ErrConfiguration  ErrorType = "configuration_error"
	ErrNotFound       ErrorType = "not_found_error"
	ErrRateLimit      ErrorType = "rate_limit_error"
	ErrAPI            ErrorType = "api_error"
	ErrOverloaded     ErrorType = "overloaded_error"
	ErrProvider       ErrorType = "provider_error"
)

// NewInvalidRequestError creates an invalid request error.
func NewInvalidRequestError(message string) *Error {
	return &Error{Type: ErrInvalidRequest, Message: message}
}

// NewConfigurationError creates a configuration error. Configuration errors
// are never retried; the missing setting has to be fixed by an operator.
func NewConfigurationError(message string) *Error {
	return &Error{Type: ErrConfiguration, Message: message}
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(message string) *Error {
	return &Error{Type: ErrNotFound, Message: message}
}

// NewRateLimitError creates a rate limit error.
func NewRateLimitError(message string, retryAfter int) *Error {
	return &Error{
		Type:       ErrRateLimit,
		Message:    message,
		RetryAfter: &retryAfter,
	}
}

// NewAPIError creates a generic API error.
func NewAPIError(message string) *Error {
	return &Error{Type: ErrAPI, Message: message}
}

// NewProviderError creates an error attributed to a remote provider.
func NewProviderError(message string) *Error {
	return &Error{Type: ErrProvider, Message: message}
}

// IsRateLimit reports whether err carries a rate-limit classification
// anywhere in its chain.
func IsRateLimit(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Type == ErrRateLimit
	}
	return false
}

// IsConfiguration reports whether err is a configuration-class failure.
func IsConfiguration(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Type == ErrConfiguration
	}
	return false
}

// IsNotFound reports whether err is a not-found lookup failure.
func IsNotFound(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Type == ErrNotFound
	}
	return false
}
