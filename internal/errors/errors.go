// Package errors provides the failure taxonomy for the AI query service client.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common cases
var (
	ErrEmptyInput      = errors.New("empty input")
	ErrBusy            = errors.New("a request is already in progress")
	ErrDiscarded       = errors.New("reply discarded: the session was reset")
	ErrInvalidResponse = errors.New("Invalid response format")
	ErrNoResponse      = errors.New("No response received")
)

// Kind classifies a failed submission. Order matters: Classify returns the first match.
type Kind int

const (
	KindEmptyInput Kind = iota
	KindInvalidResponseFormat
	KindNoResponseReceived
	KindRateLimited
	KindServiceUnavailable
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindEmptyInput:
		return "EmptyInput"
	case KindInvalidResponseFormat:
		return "InvalidResponseFormat"
	case KindNoResponseReceived:
		return "NoResponseReceived"
	case KindRateLimited:
		return "RateLimited"
	case KindServiceUnavailable:
		return "ServiceUnavailable"
	default:
		return "Unknown"
	}
}

// HTTP statuses that map to dedicated kinds
const (
	StatusTooManyRequests    = 429
	StatusServiceUnavailable = 503
)

// UserMessage returns the human-readable text shown for a kind
func UserMessage(k Kind) string {
	switch k {
	case KindEmptyInput:
		return "Please enter a message"
	case KindInvalidResponseFormat:
		return "Received an invalid response from the AI service. Please try again."
	case KindNoResponseReceived:
		return "Unable to connect to the AI service. Please check your connection and try again."
	case KindRateLimited:
		return "Too many requests. Please wait a moment and try again."
	case KindServiceUnavailable:
		return "AI service is temporarily unavailable. Please try again later."
	default:
		return "An error occurred while processing your request."
	}
}

// Classify maps an error onto the taxonomy
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	msg := err.Error()
	switch {
	case errors.Is(err, ErrEmptyInput):
		return KindEmptyInput
	case errors.Is(err, ErrInvalidResponse), strings.Contains(msg, "Invalid response format"):
		return KindInvalidResponseFormat
	case IsNetworkError(err), IsTimeoutError(err), errors.Is(err, ErrNoResponse),
		strings.Contains(msg, "No response received"):
		return KindNoResponseReceived
	}

	switch GetHTTPStatus(err) {
	case StatusTooManyRequests:
		return KindRateLimited
	case StatusServiceUnavailable:
		return KindServiceUnavailable
	}

	return KindUnknown
}

// APIError represents a response carrying a non-success status
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
	Body       string
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

// NewAPIErrorWithBody creates a new APIError keeping the (truncated) response body for diagnostics
func NewAPIErrorWithBody(statusCode int, endpoint, message, body string) *APIError {
	e := NewAPIError(statusCode, endpoint, message)
	e.Body = body
	return e
}

// NetworkError represents a transport failure where no response was received
type NetworkError struct {
	Operation string
	Endpoint  string
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("No response received: %s %s: %v", e.Operation, e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is allows comparison with sentinel errors
func (e *NetworkError) Is(target error) bool {
	return target == ErrNoResponse
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(operation, endpoint string, err error) *NetworkError {
	return &NetworkError{Operation: operation, Endpoint: endpoint, Err: err}
}

// TimeoutError represents a request timeout
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "request timed out"
	}
	return fmt.Sprintf("request timed out: %s", e.Message)
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(message string) *TimeoutError {
	return &TimeoutError{Message: message}
}

// ParseError represents a payload that failed shape validation
type ParseError struct {
	Message string
	Path    string
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("Invalid response format: %s (path %q)", e.Message, e.Path)
	}
	return fmt.Sprintf("Invalid response format: %s", e.Message)
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

// GetHTTPStatus extracts the status code from an APIError chain, or 0
func GetHTTPStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// GetResponseBody extracts the stored response body from an APIError chain
func GetResponseBody(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Body
	}
	return ""
}

// IsNetworkError reports whether err is a transport failure
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsTimeoutError reports whether err is a timeout, including context deadlines
func IsTimeoutError(err error) bool {
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsRateLimitError reports whether err carries a throttling status
func IsRateLimitError(err error) bool {
	return GetHTTPStatus(err) == StatusTooManyRequests
}
