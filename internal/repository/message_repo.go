package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nmarofsky/DatingApp/internal/domain"
	"gorm.io/gorm"
)

// MessageRepository message data access interface
type MessageRepository interface {
	Add(ctx context.Context, msg *domain.Message) error
	FindByID(ctx context.Context, id uint64) (*domain.Message, error)
	FindForUser(ctx context.Context, username, container string, page, limit int) ([]*domain.Message, int64, error)
	GetThread(ctx context.Context, currentUsername, otherUsername string) ([]*domain.Message, error)
	MarkDeleted(ctx context.Context, id uint64, bySender, byRecipient bool) error
}

type messageRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db, now: time.Now}
}

// Add persists a new message
func (r *messageRepository) Add(ctx context.Context, msg *domain.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// FindByID returns nil, nil when the message does not exist
func (r *messageRepository) FindByID(ctx context.Context, id uint64) (*domain.Message, error) {
	var msg domain.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// FindForUser lists a user's messages in one container, newest first
func (r *messageRepository) FindForUser(ctx context.Context, username, container string, page, limit int) ([]*domain.Message, int64, error) {
	var messages []*domain.Message
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Message{})
	switch container {
	case domain.ContainerInbox:
		query = query.Where("recipient_username = ? AND recipient_deleted = ?", username, false)
	case domain.ContainerOutbox:
		query = query.Where("sender_username = ? AND sender_deleted = ?", username, false)
	default:
		query = query.Where("recipient_username = ? AND recipient_deleted = ? AND date_read IS NULL", username, false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("message_sent DESC, id DESC").Offset(offset).Limit(limit).Find(&messages).Error; err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// GetThread returns the conversation between two users in send order, as
// seen by currentUsername. Unread messages addressed to currentUsername are
// marked read in the same call; the write only happens when there are any.
func (r *messageRepository) GetThread(ctx context.Context, currentUsername, otherUsername string) ([]*domain.Message, error) {
	var messages []*domain.Message

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where(
			"(recipient_username = ? AND recipient_deleted = ? AND sender_username = ?) OR "+
				"(recipient_username = ? AND sender_deleted = ? AND sender_username = ?)",
			currentUsername, false, otherUsername,
			otherUsername, false, currentUsername,
		).Order("message_sent ASC, id ASC").Find(&messages).Error
		if err != nil {
			return err
		}

		now := r.now()
		var unread []uint64
		for _, m := range messages {
			if m.RecipientUsername == currentUsername && m.MarkRead(now) {
				unread = append(unread, m.ID)
			}
		}
		if len(unread) == 0 {
			return nil
		}

		return tx.Model(&domain.Message{}).
			Where("id IN ? AND date_read IS NULL", unread).
			Update("date_read", now.UTC()).Error
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkDeleted sets only the deleting side's flag, then removes the row
// once both flags are set. Each side writes its own column, so concurrent
// deletes by sender and recipient cannot undo one another.
func (r *messageRepository) MarkDeleted(ctx context.Context, id uint64, bySender, byRecipient bool) error {
	cols := map[string]interface{}{}
	if bySender {
		cols["sender_deleted"] = true
	}
	if byRecipient {
		cols["recipient_deleted"] = true
	}
	if len(cols) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Message{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND sender_deleted = ? AND recipient_deleted = ?", id, true, true).
			Delete(&domain.Message{}).Error
	})
}
