package service

import (
	"context"
	"fmt"
	"time"

	"github.com/nmarofsky/DatingApp/internal/common"
	"github.com/nmarofsky/DatingApp/internal/domain"
	"github.com/nmarofsky/DatingApp/internal/repository"
	"github.com/nmarofsky/DatingApp/internal/ws"
	"github.com/nmarofsky/DatingApp/pkg/logger"
)

// SessionService drives the lifecycle of message hub connections: joining
// the conversation group, delivering the thread, relaying sends and
// leaving the group on disconnect.
type SessionService interface {
	Connect(ctx context.Context, sess *domain.Session) error
	Disconnect(ctx context.Context, sess *domain.Session) error
	SendMessage(ctx context.Context, sess *domain.Session, req *domain.CreateMessageRequest) (*domain.MessageResponse, error)
}

type sessionService struct {
	users     repository.UserRepository
	messages  repository.MessageRepository
	groups    repository.GroupRepository
	presence  PresenceRegistry
	transport Transport
	notifier  NotificationSink
	locks     *keyedMutex
	now       func() time.Time
}

// NewSessionService creates a new SessionService
func NewSessionService(
	users repository.UserRepository,
	messages repository.MessageRepository,
	groups repository.GroupRepository,
	presence PresenceRegistry,
	transport Transport,
	notifier NotificationSink,
) SessionService {
	return &sessionService{
		users:     users,
		messages:  messages,
		groups:    groups,
		presence:  presence,
		transport: transport,
		notifier:  notifier,
		locks:     newKeyedMutex(),
		now:       time.Now,
	}
}

// Connect joins the caller to the conversation group with sess.Peer and
// sends back the thread. Work on the same group is serialized so a send
// never races a join when deciding whether the recipient is watching.
func (s *sessionService) Connect(ctx context.Context, sess *domain.Session) error {
	caller := normalizeUsername(sess.Username)
	peer := normalizeUsername(sess.Peer)
	if peer == "" || peer == caller {
		return common.NewHubError("Invalid conversation peer", common.ErrInvalidPeer)
	}

	groupName := domain.GroupName(caller, peer)
	sess.Username = caller
	sess.Peer = peer
	sess.GroupName = groupName
	log := logger.WithConnection(caller, sess.ConnectionID)

	unlock := s.locks.Lock(groupName)
	defer unlock()

	s.transport.AddToGroup(sess.ConnectionID, groupName)
	group, err := s.groups.AddConnection(ctx, groupName, domain.Connection{
		ConnectionID: sess.ConnectionID,
		Username:     caller,
	})
	if err != nil {
		s.transport.RemoveFromGroup(sess.ConnectionID, groupName)
		log.Error().Err(err).Str("group", groupName).Msg("session: join group failed")
		return common.NewHubError("Failed to join group", common.ErrJoinGroup)
	}

	// loaded before presence and the Joined transition so a failure only
	// has the group row to undo
	thread, err := s.messages.GetThread(ctx, caller, peer)
	if err != nil {
		log.Error().Err(err).Str("group", groupName).Msg("session: load thread failed")
		s.leaveGroup(sess)
		return common.NewHubError("Failed to load messages", err)
	}

	s.presence.UserConnected(ctx, caller, sess.ConnectionID)
	if !sess.Transition(domain.SessionConnecting, domain.SessionJoined) {
		// closed while joining; the teardown already ran without us
		s.rollbackJoin(sess)
		return nil
	}

	s.transport.SendToGroup(groupName, ws.NewEvent(domain.EventUpdatedGroup, group))
	s.transport.SendToConnection(sess.ConnectionID, ws.NewEvent(domain.EventReceiveMessageThread, domain.ToResponses(thread)))

	log.Info().Str("group", groupName).Int("messages", len(thread)).Msg("session: joined")
	return nil
}

// leaveGroup drops the connection row and transport membership of a join
// that did not complete. It runs on a fresh context since the caller's may
// be the reason the join failed.
func (s *sessionService) leaveGroup(sess *domain.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.groups.RemoveConnection(ctx, sess.ConnectionID); err != nil {
		logger.WithConnection(sess.Username, sess.ConnectionID).Error().Err(err).Msg("session: rollback join failed")
	}
	s.transport.RemoveFromGroup(sess.ConnectionID, sess.GroupName)
}

// rollbackJoin undoes a join whose session was closed concurrently
func (s *sessionService) rollbackJoin(sess *domain.Session) {
	s.leaveGroup(sess)
	s.presence.UserDisconnected(context.Background(), sess.Username, sess.ConnectionID)
}

// Disconnect removes a joined connection from its group and tells the
// remaining members. Sessions that never joined only change state.
// Transport and presence cleanup always run, even when the group record
// is missing.
func (s *sessionService) Disconnect(ctx context.Context, sess *domain.Session) error {
	if prev := sess.Close(); prev != domain.SessionJoined {
		return nil
	}

	left := false
	defer func() {
		if !left {
			s.transport.RemoveFromGroup(sess.ConnectionID, sess.GroupName)
		}
		s.presence.UserDisconnected(ctx, sess.Username, sess.ConnectionID)
	}()

	unlock := s.locks.Lock(sess.GroupName)
	defer unlock()

	group, err := s.groups.RemoveConnection(ctx, sess.ConnectionID)
	if err != nil {
		return fmt.Errorf("remove connection %s: %w", sess.ConnectionID, err)
	}
	if group == nil {
		return fmt.Errorf("connection %s: %w", sess.ConnectionID, common.ErrConnectionNotInGroup)
	}

	// the leaving connection is no longer a member, so it is left out
	s.transport.RemoveFromGroup(sess.ConnectionID, group.Name)
	left = true
	s.transport.SendToGroup(group.Name, ws.NewEvent(domain.EventUpdatedGroup, group))
	return nil
}

// SendMessage persists a message from the session's user and relays it to
// the conversation group. When the recipient is in the group the message
// is stored already read; otherwise the recipient's presence connections
// get a NewMessageReceived alert.
func (s *sessionService) SendMessage(ctx context.Context, sess *domain.Session, req *domain.CreateMessageRequest) (*domain.MessageResponse, error) {
	log := logger.WithConnection(sess.Username, sess.ConnectionID)

	sender, recipient, err := resolveParticipants(ctx, s.users, sess.Username, req.RecipientUsername)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		SenderID:          sender.ID,
		SenderUsername:    sender.Username,
		RecipientID:       recipient.ID,
		RecipientUsername: recipient.Username,
		Content:           req.Content,
		MessageSent:       s.now().UTC(),
	}

	groupName := domain.GroupName(sender.Username, recipient.Username)
	unlock := s.locks.Lock(groupName)
	defer unlock()

	group, err := s.groups.GetGroup(ctx, groupName)
	if err != nil {
		log.Error().Err(err).Str("group", groupName).Msg("session: group lookup failed")
		return nil, common.NewHubError("Failed to send message", common.ErrSendMessage)
	}

	if group != nil && group.HasUser(recipient.Username) {
		msg.MarkRead(s.now())
	} else if conns := s.presence.GetConnectionsForUser(recipient.Username); len(conns) > 0 {
		s.notifier.SendToConnections(conns, ws.NewEvent(domain.EventNewMessageReceived, domain.NewMessageNotice{
			Username: sender.Username,
			KnownAs:  sender.KnownAs,
		}))
	}

	if err := s.messages.Add(ctx, msg); err != nil {
		log.Error().Err(err).Str("recipient", recipient.Username).Msg("session: persist message failed")
		return nil, common.NewHubError("Failed to send message", common.ErrSendMessage)
	}

	resp := msg.ToResponse()
	resp.SenderPhotoURL = sender.PhotoURL
	resp.RecipientPhotoURL = recipient.PhotoURL
	s.transport.SendToGroup(groupName, ws.NewEvent(domain.EventNewMessage, resp))
	return resp, nil
}
