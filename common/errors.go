package common

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrTargetClosed is returned by waits pending on a page that receives
	// a close notification, and by calls issued against a closed page.
	ErrTargetClosed = errors.New("target page closed")

	// ErrTargetCrashed is returned by waits pending on a page that
	// receives a crash notification.
	ErrTargetCrashed = errors.New("target page crashed")

	// ErrObjectDisposed is returned when a call is issued through a proxy
	// whose remote counterpart is gone.
	ErrObjectDisposed = errors.New("remote object disposed")

	// ErrRouteHandled is returned when a route is fulfilled, continued or
	// aborted more than once.
	ErrRouteHandled = errors.New("route is already handled")

	// ErrFrameDetached is returned by frame operations issued after the
	// frame received its detach notification.
	ErrFrameDetached = errors.New("frame has been detached")
)

// TimeoutError is returned when a wait's deadline elapses before a matching
// event arrives.
type TimeoutError struct {
	event string
	d     time.Duration
}

// NewTimeoutError returns a new TimeoutError reporting that the wait for
// the given event timed out after the given duration.
func NewTimeoutError(event string, d time.Duration) *TimeoutError {
	return &TimeoutError{event: event, d: d}
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for event %q", e.d, e.event)
}

// Event returns the awaited event name.
func (e *TimeoutError) Event() string { return e.event }

// Timeout returns the elapsed deadline.
func (e *TimeoutError) Timeout() time.Duration { return e.d }

// DuplicateBindingError is returned when a binding name is registered twice
// on the same page, or collides with a context-level binding.
type DuplicateBindingError struct {
	name  string
	scope string
}

// Error implements the error interface.
func (e *DuplicateBindingError) Error() string {
	return fmt.Sprintf("function %q has been already registered in the %s", e.name, e.scope)
}

// Name returns the colliding binding name.
func (e *DuplicateBindingError) Name() string { return e.name }

// unknownBindingError rejects a call-out whose name has no registered
// function at either page or context scope, so the remote caller never
// hangs on a missing binding.
type unknownBindingError struct {
	name string
}

// Error implements the error interface.
func (e *unknownBindingError) Error() string {
	return fmt.Sprintf("function %q is not registered", e.name)
}

// TransportError wraps a failure reported by the connection collaborator
// while sending a call for a remote object.
type TransportError struct {
	method string
	err    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("sending %q: %s", e.method, e.err)
}

// Unwrap returns the underlying connection error.
func (e *TransportError) Unwrap() error { return e.err }

// Method returns the channel method whose send failed.
func (e *TransportError) Method() string { return e.method }

// ErrorPayload is the wire form of an error crossing the call-out bridge:
// the message plus the originating stack as text, so the remote side can
// reconstruct a meaningful trace.
type ErrorPayload struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

// parseError turns a wire-level error descriptor back into a Go error.
func parseError(raw map[string]any) error {
	msg, _ := raw["message"].(string)
	if msg == "" {
		msg = "unknown remote error"
	}
	return errors.New(msg)
}

// isSafeCloseError reports whether err was caused by the page or browser
// shutting down underneath an in-flight close call, which Close tolerates.
func isSafeCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTargetClosed) || errors.Is(err, ErrObjectDisposed) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "browser has been closed") ||
		strings.Contains(s, "target closed")
}
