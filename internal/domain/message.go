package domain

import "time"

// Message is a direct message between two users. Each side deletes
// independently; the row is removed once both sides have deleted it.
type Message struct {
	ID                uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SenderID          uint64     `gorm:"column:sender_id;index" json:"sender_id"`
	SenderUsername    string     `gorm:"column:sender_username;type:varchar(50);index:idx_messages_pair" json:"sender_username"`
	RecipientID       uint64     `gorm:"column:recipient_id;index" json:"recipient_id"`
	RecipientUsername string     `gorm:"column:recipient_username;type:varchar(50);index:idx_messages_pair" json:"recipient_username"`
	Content           string     `gorm:"column:content;type:text" json:"content"`
	DateRead          *time.Time `gorm:"column:date_read" json:"date_read,omitempty"`
	MessageSent       time.Time  `gorm:"column:message_sent;index" json:"message_sent"`
	SenderDeleted     bool       `gorm:"column:sender_deleted;default:false" json:"-"`
	RecipientDeleted  bool       `gorm:"column:recipient_deleted;default:false" json:"-"`
}

func (Message) TableName() string {
	return "messages"
}

// IsRead reports whether the recipient has seen the message
func (m *Message) IsRead() bool {
	return m.DateRead != nil
}

// MarkRead sets the read timestamp once; later calls keep the first value.
func (m *Message) MarkRead(at time.Time) bool {
	if m.DateRead != nil {
		return false
	}
	t := at.UTC()
	m.DateRead = &t
	return true
}

// Message list containers
const (
	ContainerUnread = "Unread"
	ContainerInbox  = "Inbox"
	ContainerOutbox = "Outbox"
)

// CreateMessageRequest is the payload of a send, over REST or the message hub
type CreateMessageRequest struct {
	RecipientUsername string `json:"recipientUsername" binding:"required,max=50" validate:"required,max=50"`
	Content           string `json:"content" binding:"required,max=4000" validate:"required,max=4000"`
}

// MessageResponse is the public view of a Message
type MessageResponse struct {
	ID                uint64     `json:"id"`
	SenderID          uint64     `json:"senderId"`
	SenderUsername    string     `json:"senderUsername"`
	SenderPhotoURL    string     `json:"senderPhotoUrl,omitempty"`
	RecipientID       uint64     `json:"recipientId"`
	RecipientUsername string     `json:"recipientUsername"`
	RecipientPhotoURL string     `json:"recipientPhotoUrl,omitempty"`
	Content           string     `json:"content"`
	DateRead          *time.Time `json:"dateRead,omitempty"`
	MessageSent       time.Time  `json:"messageSent"`
}

// ToResponse converts Message to MessageResponse
func (m *Message) ToResponse() *MessageResponse {
	return &MessageResponse{
		ID:                m.ID,
		SenderID:          m.SenderID,
		SenderUsername:    m.SenderUsername,
		RecipientID:       m.RecipientID,
		RecipientUsername: m.RecipientUsername,
		Content:           m.Content,
		DateRead:          m.DateRead,
		MessageSent:       m.MessageSent,
	}
}

// ToResponses maps a slice, keeping order
func ToResponses(messages []*Message) []*MessageResponse {
	out := make([]*MessageResponse, len(messages))
	for i, m := range messages {
		out[i] = m.ToResponse()
	}
	return out
}
