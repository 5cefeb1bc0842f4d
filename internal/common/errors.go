package common

import "errors"

// Business logic errors
var (
	// General errors
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("forbidden")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrUserNotFound = errors.New("user not found")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")

	// Messaging errors
	ErrMessageNotFound = errors.New("message not found")
	ErrSelfMessage     = errors.New("cannot message yourself")
	ErrInvalidPeer     = errors.New("invalid conversation peer")
	ErrJoinGroup       = errors.New("failed to join group")
	ErrSendMessage     = errors.New("failed to send message")
	ErrDeleteMessage   = errors.New("failed to delete message")

	// ErrConnectionNotInGroup means a joined connection had no durable group
	// record at teardown. It is an internal fault, never shown to clients.
	ErrConnectionNotInGroup = errors.New("connection not found in any group")
)

// HubError is a fault reported back to the realtime caller. Message is the
// client-visible text; Err is the sentinel used for errors.Is checks.
type HubError struct {
	Message string
	Err     error
}

func (e *HubError) Error() string {
	return e.Message
}

func (e *HubError) Unwrap() error {
	return e.Err
}

// NewHubError builds a client-visible fault
func NewHubError(message string, err error) *HubError {
	return &HubError{Message: message, Err: err}
}

// ClientMessage returns the text a client may see for err. Anything that is
// not a HubError is reported generically.
func ClientMessage(err error) string {
	var hubErr *HubError
	if errors.As(err, &hubErr) {
		return hubErr.Message
	}
	return "internal server error"
}
