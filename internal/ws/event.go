package ws

import "encoding/json"

// Event is a server→client message sent over a WebSocket
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// NewEvent builds an outbound event
func NewEvent(eventType string, payload interface{}) *Event {
	return &Event{Type: eventType, Payload: payload}
}

// Frame is a client→server invocation. Payload is decoded by whoever
// handles the given Type.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorPayload is the body of an "Error" event
type ErrorPayload struct {
	Message string `json:"message"`
}
