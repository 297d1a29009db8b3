// Package errs classifies the failures a page can run into while talking to
// the plant tracker API, and maps them to what may be shown to a user.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidData is matched by every validation failure.
var ErrInvalidData = errors.New("invalid data from server")

// NetworkError is a transport failure: the API could not be reached or the
// connection broke before a response was read.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a response with a non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %d %s", e.StatusCode, e.Status)
}

// NewAPIError builds an APIError from a status code, using the standard
// status text.
func NewAPIError(code int) *APIError {
	return &APIError{StatusCode: code, Status: http.StatusText(code)}
}

// ValidationError is a response body that does not match the expected
// schema. Its message is always ErrInvalidData's; Cause holds the detail for
// logs.
type ValidationError struct {
	Cause error
}

func (e *ValidationError) Error() string {
	return ErrInvalidData.Error()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidData
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// DomainError is a failure caused by the request itself, such as a missing
// identifier or an empty name. Its message is meant for users.
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string { return e.Message }

// Domain returns a DomainError with the given message.
func Domain(format string, args ...any) error {
	return &DomainError{Message: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is an API 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// UserMessage returns the text a page may display for err. Details of
// network and validation failures are never included.
func UserMessage(err error) string {
	var (
		netErr    *NetworkError
		apiErr    *APIError
		domainErr *DomainError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &domainErr):
		return domainErr.Message
	case errors.As(err, &netErr):
		return "Network error: could not reach the plant tracker API."
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.Is(err, ErrInvalidData):
		return "Received invalid data from server."
	default:
		return "Something went wrong."
	}
}
