// Package errow defines the error type application code raises when a
// failure should carry reporting hints: extra data, tags, context blocks
// and a grouping fingerprint, merged into the outgoing event at send time.
package errow

import (
	"github.com/pkg/errors"
)

// CaptureContext is the bag of hints attached to one error layer. All
// fields are optional and read-only once the error is constructed.
type CaptureContext struct {
	Extra       map[string]interface{}
	Tags        map[string]string
	Contexts    map[string]map[string]interface{}
	Fingerprint []string
}

// ErrorW is an error owning a CaptureContext and, optionally, a causing
// error. Causes chain singly from the outermost error toward the root.
type ErrorW struct {
	message string
	capture CaptureContext
	cause   error
	stack   error
}

// New creates a context-carrying error with no cause.
func New(message string, capture CaptureContext) *ErrorW {
	return &ErrorW{
		message: message,
		capture: capture,
		stack:   errors.New(message),
	}
}

// Wrap creates a context-carrying error on top of cause. The cause may
// itself be an *ErrorW, extending the chain.
func Wrap(cause error, message string, capture CaptureContext) *ErrorW {
	return &ErrorW{
		message: message,
		capture: capture,
		cause:   cause,
		stack:   errors.New(message),
	}
}

func (e *ErrorW) Error() string {
	if e.cause == nil {
		return e.message
	}
	return e.message + ": " + e.cause.Error()
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *ErrorW) Unwrap() error {
	return e.cause
}

// Context returns the capture context of this layer only.
func (e *ErrorW) Context() CaptureContext {
	return e.capture
}

// StackTrace exposes the construction stack in the pkg/errors format.
func (e *ErrorW) StackTrace() errors.StackTrace {
	type stackTracer interface {
		StackTrace() errors.StackTrace
	}
	if st, ok := e.stack.(stackTracer); ok {
		return st.StackTrace()
	}
	return nil
}
