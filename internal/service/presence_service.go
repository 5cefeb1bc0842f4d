package service

import (
	"context"
	"time"

	"github.com/nmarofsky/DatingApp/internal/domain"
	"github.com/nmarofsky/DatingApp/internal/presence"
	"github.com/nmarofsky/DatingApp/internal/repository"
	"github.com/nmarofsky/DatingApp/internal/ws"
	"github.com/nmarofsky/DatingApp/pkg/logger"
)

// PresenceGroup is the transport group of all presence-endpoint connections
const PresenceGroup = "presence"

// PresenceRegistry is what the session manager needs from presence
type PresenceRegistry interface {
	UserConnected(ctx context.Context, username, connectionID string) bool
	UserDisconnected(ctx context.Context, username, connectionID string) bool
	GetConnectionsForUser(username string) []string
}

// PresenceService wraps the tracker and announces online/offline transitions
// to presence subscribers
type PresenceService struct {
	tracker   *presence.Tracker
	transport Transport
	users     repository.UserRepository
	now       func() time.Time
}

// NewPresenceService creates a PresenceService. users may be nil.
func NewPresenceService(tracker *presence.Tracker, transport Transport, users repository.UserRepository) *PresenceService {
	return &PresenceService{
		tracker:   tracker,
		transport: transport,
		users:     users,
		now:       time.Now,
	}
}

// UserConnected registers a connection and broadcasts UserIsOnline on the
// user's first one
func (s *PresenceService) UserConnected(ctx context.Context, username, connectionID string) bool {
	first := s.tracker.UserConnected(username, connectionID)
	if first {
		s.transport.SendToGroup(PresenceGroup, ws.NewEvent(domain.EventUserIsOnline, domain.PresenceNotice{Username: username}))
	}
	if s.users != nil {
		if err := s.users.TouchLastActive(ctx, username, s.now()); err != nil {
			logger.GetLogger().Warn().Err(err).Str("username", username).Msg("presence: last active update failed")
		}
	}
	return first
}

// UserDisconnected deregisters a connection and broadcasts UserIsOffline
// when it was the user's last
func (s *PresenceService) UserDisconnected(_ context.Context, username, connectionID string) bool {
	last := s.tracker.UserDisconnected(username, connectionID)
	if last {
		s.transport.SendToGroup(PresenceGroup, ws.NewEvent(domain.EventUserIsOffline, domain.PresenceNotice{Username: username}))
	}
	return last
}

// GetConnectionsForUser returns a snapshot of the user's live connections
func (s *PresenceService) GetConnectionsForUser(username string) []string {
	return s.tracker.GetConnectionsForUser(username)
}

// GetOnlineUsers returns a snapshot of online usernames
func (s *PresenceService) GetOnlineUsers() []string {
	return s.tracker.GetOnlineUsers()
}

// Subscribe handles a presence-endpoint connection opening. The caller is
// added to the presence group after the online broadcast, so only others
// hear about it, and then receives the current online list.
func (s *PresenceService) Subscribe(ctx context.Context, username, connectionID string) {
	username = normalizeUsername(username)
	s.UserConnected(ctx, username, connectionID)
	s.transport.AddToGroup(connectionID, PresenceGroup)
	s.transport.SendToConnection(connectionID, ws.NewEvent(domain.EventGetOnlineUsers, s.GetOnlineUsers()))
}

// Unsubscribe handles a presence-endpoint connection closing
func (s *PresenceService) Unsubscribe(ctx context.Context, username, connectionID string) {
	username = normalizeUsername(username)
	s.transport.RemoveFromGroup(connectionID, PresenceGroup)
	s.UserDisconnected(ctx, username, connectionID)
}
