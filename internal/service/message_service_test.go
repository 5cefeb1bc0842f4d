package service

import (
	"context"
	"errors"
	"testing"

	"github.com/nmarofsky/DatingApp/internal/common"
	"github.com/nmarofsky/DatingApp/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateMessage_Success(t *testing.T) {
	repo := new(mockMessageRepo)
	users := new(mockUserRepo)
	users.On("FindByUsername", mock.Anything, "lisa").Return(lisa, nil)
	users.On("FindByUsername", mock.Anything, "bob").Return(bob, nil)
	repo.On("Add", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(nil)
	svc := NewMessageService(repo, users)

	resp, err := svc.CreateMessage(context.Background(), "lisa", &domain.CreateMessageRequest{RecipientUsername: "bob", Content: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "lisa", resp.SenderUsername)
	assert.Equal(t, "bob", resp.RecipientUsername)
	assert.Nil(t, resp.DateRead)
	repo.AssertExpectations(t)
}

func TestCreateMessage_ToSelf(t *testing.T) {
	svc := NewMessageService(new(mockMessageRepo), new(mockUserRepo))

	_, err := svc.CreateMessage(context.Background(), "lisa", &domain.CreateMessageRequest{RecipientUsername: "Lisa", Content: "hi"})
	assert.ErrorIs(t, err, common.ErrSelfMessage)
}

func TestCreateMessage_LookupError(t *testing.T) {
	users := new(mockUserRepo)
	users.On("FindByUsername", mock.Anything, "lisa").Return(nil, errors.New("timeout"))
	svc := NewMessageService(new(mockMessageRepo), users)

	_, err := svc.CreateMessage(context.Background(), "lisa", &domain.CreateMessageRequest{RecipientUsername: "bob", Content: "hi"})
	require.Error(t, err)
	assert.Equal(t, "internal server error", common.ClientMessage(err))
}

func TestGetMessagesForUser_ClampsPaging(t *testing.T) {
	repo := new(mockMessageRepo)
	repo.On("FindForUser", mock.Anything, "bob", domain.ContainerInbox, 1, 50).
		Return([]*domain.Message{{ID: 1}}, int64(1), nil)
	svc := NewMessageService(repo, new(mockUserRepo))

	msgs, meta, err := svc.GetMessagesForUser(context.Background(), "Bob", "inbox", 0, 500)

	require.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.Equal(t, &common.Meta{Container: domain.ContainerInbox, Page: 1, Limit: 50, Total: 1}, meta)
}

func TestGetMessagesForUser_UnknownContainerIsUnread(t *testing.T) {
	repo := new(mockMessageRepo)
	repo.On("FindForUser", mock.Anything, "bob", domain.ContainerUnread, 2, 20).
		Return([]*domain.Message{}, int64(0), nil)
	svc := NewMessageService(repo, new(mockUserRepo))

	_, meta, err := svc.GetMessagesForUser(context.Background(), "bob", "whatever", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.ContainerUnread, meta.Container)
}

func TestDeleteMessage_PerSide(t *testing.T) {
	repo := new(mockMessageRepo)
	msg := &domain.Message{ID: 7, SenderUsername: "lisa", RecipientUsername: "bob"}
	repo.On("FindByID", mock.Anything, uint64(7)).Return(msg, nil)
	repo.On("MarkDeleted", mock.Anything, uint64(7), false, true).Return(nil)
	svc := NewMessageService(repo, new(mockUserRepo))

	require.NoError(t, svc.DeleteMessage(context.Background(), 7, "bob"))
	assert.True(t, msg.RecipientDeleted)
	assert.False(t, msg.SenderDeleted)
	repo.AssertExpectations(t)
}

func TestDeleteMessage_Errors(t *testing.T) {
	repo := new(mockMessageRepo)
	repo.On("FindByID", mock.Anything, uint64(1)).Return(nil, nil)
	repo.On("FindByID", mock.Anything, uint64(2)).Return(&domain.Message{ID: 2, SenderUsername: "lisa", RecipientUsername: "bob"}, nil)
	svc := NewMessageService(repo, new(mockUserRepo))

	assert.ErrorIs(t, svc.DeleteMessage(context.Background(), 1, "bob"), common.ErrMessageNotFound)
	assert.ErrorIs(t, svc.DeleteMessage(context.Background(), 2, "todd"), common.ErrForbidden)
	repo.AssertNotCalled(t, "MarkDeleted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
