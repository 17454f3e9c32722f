// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrNoRemote means no remote endpoint is configured. Callers treat it as
// local-only mode, never as a failure.
var ErrNoRemote = errors.New("no remote endpoint configured")

// ErrReadOnlySource is returned when pushing to a source that cannot be written.
var ErrReadOnlySource = errors.New("remote source is read-only")

// TransportError covers network failures and non-2xx responses.
type TransportError struct {
	Action     string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: transport failure: %v", e.Action, e.Err)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Action, e.StatusCode)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ShapeMismatchError is returned when a response decodes but is not an array.
type ShapeMismatchError struct {
	Action string
	Got    string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected a JSON array, got %s", e.Action, e.Got)
}

// UnknownStatusError reports a follow-up status outside the fixed set.
type UnknownStatusError struct {
	CustomerID string
	Value      string
}

func (e *UnknownStatusError) Error() string {
	if e.CustomerID == "" {
		return fmt.Sprintf("unknown follow-up status %q", e.Value)
	}
	return fmt.Sprintf("customer %s: unknown follow-up status %q", e.CustomerID, e.Value)
}

func NewUnknownStatus(customerID, value string) error {
	return &UnknownStatusError{CustomerID: customerID, Value: value}
}

// IsRemoteFailure reports whether err is a transport or shape failure.
func IsRemoteFailure(err error) bool {
	var te *TransportError
	var se *ShapeMismatchError
	return errors.As(err, &te) || errors.As(err, &se)
}
