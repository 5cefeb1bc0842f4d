package domain

import "sync"

// SessionState is the lifecycle of one realtime connection
type SessionState int

const (
	SessionConnecting SessionState = iota
	SessionJoined
	SessionDisconnected
)

func (s SessionState) String() string {
	switch s {
	case SessionConnecting:
		return "connecting"
	case SessionJoined:
		return "joined"
	case SessionDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Session is the server-side state of one message hub connection
type Session struct {
	ConnectionID string
	Username     string
	Peer         string
	GroupName    string

	mu    sync.Mutex
	state SessionState
}

// NewSession creates a session in the Connecting state
func NewSession(connectionID, username, peer string) *Session {
	return &Session{
		ConnectionID: connectionID,
		Username:     username,
		Peer:         peer,
		state:        SessionConnecting,
	}
}

// State returns the current lifecycle state
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transition moves from one state to another and reports whether it happened.
// It fails when the session is not currently in from.
func (s *Session) Transition(from, to SessionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return false
	}
	s.state = to
	return true
}

// Close forces the Disconnected state and returns the previous one
func (s *Session) Close() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state
	s.state = SessionDisconnected
	return prev
}

// Realtime event names
const (
	EventUpdatedGroup         = "UpdatedGroup"
	EventReceiveMessageThread = "ReceiveMessageThread"
	EventNewMessage           = "NewMessage"
	EventNewMessageReceived   = "NewMessageReceived"
	EventUserIsOnline         = "UserIsOnline"
	EventUserIsOffline        = "UserIsOffline"
	EventGetOnlineUsers       = "GetOnlineUsers"
	EventError                = "Error"

	// inbound
	EventSendMessage = "SendMessage"
)

// NewMessageNotice is the lightweight alert fanned out to a recipient
// who is not viewing the conversation
type NewMessageNotice struct {
	Username string `json:"username"`
	KnownAs  string `json:"knownAs"`
}

// PresenceNotice announces an online/offline transition
type PresenceNotice struct {
	Username string `json:"username"`
}
