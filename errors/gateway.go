package errors

import "fmt"

// DecodeError reports a malformed gateway frame. Decode failures are fatal
// to the current connection and always propagate out of the receive loop.
type DecodeError struct {
	Raw string // the frame text after protocol-prefix stripping
	Err error
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	return fmt.Sprintf("gateway: malformed frame: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError wraps a JSON parse failure with the offending frame text.
func NewDecodeError(raw string, err error) *DecodeError {
	return &DecodeError{Raw: raw, Err: err}
}

// EventError wraps a failure raised inside a gateway event handler.
// Handler failures are delivered through the Error hook for observability
// and then re-raised to the frame-processing caller.
type EventError struct {
	Event string // gateway event type being handled
	Err   error
}

// Error implements the error interface
func (e *EventError) Error() string {
	return fmt.Sprintf("gateway: handler for %q failed: %v", e.Event, e.Err)
}

// Unwrap returns the underlying error
func (e *EventError) Unwrap() error {
	return e.Err
}

// NewEventError wraps a handler failure with the event type being handled.
// The underlying error stays reachable through Unwrap.
func NewEventError(event string, err error) error {
	if err == nil {
		return nil
	}
	return &EventError{Event: event, Err: err}
}
