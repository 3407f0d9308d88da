package coach

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates user input failed validation.
	ErrValidation = errors.New("validation error")

	// ErrSessionCompleted indicates an operation that needs an active session.
	ErrSessionCompleted = errors.New("session completed")

	// ErrTurnInFlight indicates a reply is still streaming for the session.
	ErrTurnInFlight = errors.New("a reply is already streaming")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")

	// ErrConnectionLost indicates the transport failed before the stream ended.
	ErrConnectionLost = errors.New("connection lost")

	// ErrContentLimit indicates an assistant reply hit the content size cap.
	ErrContentLimit = errors.New("reply exceeds content limit")

	// ErrNotFound indicates the requested session or artifact does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotSupported indicates the operation does not exist for the session kind.
	ErrNotSupported = errors.New("not supported")
)

// Fallback texts shown when the backend gives no usable message.
const (
	FallbackSendFailure = "Failed to send message"
	FallbackStreamError = "An error occurred"
	ConnectionLostText  = "Connection lost. Please try again."
)

// ServerError is a failure reported by the backend, either as a non-2xx
// response (Status set) or as an error event inside a stream (Status 0).
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = FallbackSendFailure
		if e.Status == 0 {
			msg = FallbackStreamError
		}
	}
	if e.Status == 0 {
		return msg
	}
	return fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
}

// Unwrap maps well-known statuses onto sentinel errors.
func (e *ServerError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// Notice returns the user-visible text for err, or "" when err should not
// be shown (nil or cancellation).
func Notice(err error) string {
	if err == nil || errors.Is(err, context.Canceled) {
		return ""
	}
	var serr *ServerError
	switch {
	case errors.As(err, &serr):
		if serr.Message != "" {
			return serr.Message
		}
		if serr.Status == 0 {
			return FallbackStreamError
		}
		return FallbackSendFailure
	case errors.Is(err, ErrConnectionLost):
		return ConnectionLostText
	case errors.Is(err, ErrContentLimit):
		return "Reply truncated: content limit reached"
	case errors.Is(err, ErrSessionCompleted):
		return "This session has ended"
	case errors.Is(err, ErrTurnInFlight):
		return "Wait for the current reply to finish"
	default:
		return err.Error()
	}
}
