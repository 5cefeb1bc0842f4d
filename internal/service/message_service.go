package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nmarofsky/DatingApp/internal/common"
	"github.com/nmarofsky/DatingApp/internal/domain"
	"github.com/nmarofsky/DatingApp/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// MessageService business logic for the message REST endpoints
type MessageService interface {
	CreateMessage(ctx context.Context, senderUsername string, req *domain.CreateMessageRequest) (*domain.MessageResponse, error)
	GetMessagesForUser(ctx context.Context, username, container string, page, limit int) ([]*domain.MessageResponse, *common.Meta, error)
	GetMessageThread(ctx context.Context, username, otherUsername string) ([]*domain.MessageResponse, error)
	DeleteMessage(ctx context.Context, id uint64, username string) error
}

type messageService struct {
	repo  repository.MessageRepository
	users repository.UserRepository
	now   func() time.Time
}

// NewMessageService creates a new MessageService
func NewMessageService(repo repository.MessageRepository, users repository.UserRepository) MessageService {
	return &messageService{
		repo:  repo,
		users: users,
		now:   time.Now,
	}
}

// resolveParticipants loads both ends of a send and rejects messages to self
func resolveParticipants(ctx context.Context, users repository.UserRepository, senderUsername, recipientUsername string) (*domain.User, *domain.User, error) {
	senderName := normalizeUsername(senderUsername)
	recipientName := normalizeUsername(recipientUsername)
	if senderName == recipientName {
		return nil, nil, common.NewHubError("You cannot send messages to yourself", common.ErrSelfMessage)
	}

	sender, err := users.FindByUsername(ctx, senderName)
	if err != nil {
		return nil, nil, fmt.Errorf("find sender: %w", err)
	}
	if sender == nil {
		return nil, nil, common.NewHubError("Not found user", common.ErrUserNotFound)
	}

	recipient, err := users.FindByUsername(ctx, recipientName)
	if err != nil {
		return nil, nil, fmt.Errorf("find recipient: %w", err)
	}
	if recipient == nil {
		return nil, nil, common.NewHubError("Not found user", common.ErrUserNotFound)
	}
	return sender, recipient, nil
}

// CreateMessage stores a message sent outside the realtime hub
func (s *messageService) CreateMessage(ctx context.Context, senderUsername string, req *domain.CreateMessageRequest) (*domain.MessageResponse, error) {
	sender, recipient, err := resolveParticipants(ctx, s.users, senderUsername, req.RecipientUsername)
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
	if err := s.repo.Add(ctx, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSendMessage, err)
	}

	resp := msg.ToResponse()
	resp.SenderPhotoURL = sender.PhotoURL
	resp.RecipientPhotoURL = recipient.PhotoURL
	return resp, nil
}

// GetMessagesForUser lists one container (Unread, Inbox or Outbox) of a
// user's messages. Unknown containers fall back to Unread.
func (s *messageService) GetMessagesForUser(ctx context.Context, username, container string, page, limit int) ([]*domain.MessageResponse, *common.Meta, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	container = normalizeContainer(container)

	messages, total, err := s.repo.FindForUser(ctx, normalizeUsername(username), container, page, limit)
	if err != nil {
		return nil, nil, err
	}

	meta := &common.Meta{
		Container: container,
		Page:      page,
		Limit:     limit,
		Total:     total,
	}
	return domain.ToResponses(messages), meta, nil
}

func normalizeContainer(container string) string {
	switch {
	case strings.EqualFold(container, domain.ContainerInbox):
		return domain.ContainerInbox
	case strings.EqualFold(container, domain.ContainerOutbox):
		return domain.ContainerOutbox
	default:
		return domain.ContainerUnread
	}
}

// GetMessageThread returns the conversation with otherUsername and marks
// the caller's unread messages in it as read
func (s *messageService) GetMessageThread(ctx context.Context, username, otherUsername string) ([]*domain.MessageResponse, error) {
	messages, err := s.repo.GetThread(ctx, normalizeUsername(username), normalizeUsername(otherUsername))
	if err != nil {
		return nil, err
	}
	return domain.ToResponses(messages), nil
}

// DeleteMessage hides a message from the caller's side. The row is removed
// once both participants have deleted it.
func (s *messageService) DeleteMessage(ctx context.Context, id uint64, username string) error {
	msg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if msg == nil {
		return common.ErrMessageNotFound
	}

	username = normalizeUsername(username)
	isSender := strings.EqualFold(msg.SenderUsername, username)
	isRecipient := strings.EqualFold(msg.RecipientUsername, username)
	if !isSender && !isRecipient {
		return common.ErrForbidden
	}

	if isSender {
		msg.SenderDeleted = true
	}
	if isRecipient {
		msg.RecipientDeleted = true
	}

	if err := s.repo.MarkDeleted(ctx, msg.ID, isSender, isRecipient); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDeleteMessage, err)
	}
	return nil
}
