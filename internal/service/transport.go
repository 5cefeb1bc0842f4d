package service

import (
	"strings"

	"github.com/nmarofsky/DatingApp/internal/ws"
)

// Transport is the realtime surface the services deliver through.
// *ws.Hub implements it.
type Transport interface {
	AddToGroup(connectionID, group string)
	RemoveFromGroup(connectionID, group string)
	SendToGroup(group string, event *ws.Event)
	SendToConnection(connectionID string, event *ws.Event)
}

// NotificationSink delivers events to arbitrary connections outside any
// conversation group. *ws.Hub implements it.
type NotificationSink interface {
	SendToConnections(connectionIDs []string, event *ws.Event)
}

// normalizeUsername gives the canonical form used for group keys and lookups
func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
