package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nmarofsky/DatingApp/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func addMessage(t *testing.T, repo MessageRepository, from, to string, at time.Time, content string) *domain.Message {
	t.Helper()
	m := &domain.Message{
		SenderUsername:    from,
		RecipientUsername: to,
		Content:           content,
		MessageSent:       at,
	}
	require.NoError(t, repo.Add(context.Background(), m))
	return m
}

func newTestMessageRepo(db *gorm.DB, now time.Time) *messageRepository {
	return &messageRepository{db: db, now: func() time.Time { return now }}
}

func TestGetThread_OrderAndMarkRead(t *testing.T) {
	db := setupRepoTestDB(t)
	readAt := baseTime.Add(time.Hour)
	repo := newTestMessageRepo(db, readAt)
	ctx := context.Background()

	m1 := addMessage(t, repo, "lisa", "bob", baseTime, "hi bob")
	m2 := addMessage(t, repo, "bob", "lisa", baseTime.Add(time.Minute), "hi lisa")
	addMessage(t, repo, "lisa", "todd", baseTime.Add(2*time.Minute), "other thread")

	thread, err := repo.GetThread(ctx, "bob", "lisa")
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, m1.ID, thread[0].ID)
	assert.Equal(t, m2.ID, thread[1].ID)

	// only messages addressed to bob are marked
	require.NotNil(t, thread[0].DateRead)
	assert.True(t, thread[0].DateRead.Equal(readAt))
	assert.Nil(t, thread[1].DateRead)

	stored, err := repo.FindByID(ctx, m1.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.DateRead)
	stored2, err := repo.FindByID(ctx, m2.ID)
	require.NoError(t, err)
	assert.Nil(t, stored2.DateRead)
}

func TestGetThread_ReadTimestampNotOverwritten(t *testing.T) {
	db := setupRepoTestDB(t)
	ctx := context.Background()
	first := baseTime.Add(time.Hour)

	m := addMessage(t, newTestMessageRepo(db, first), "lisa", "bob", baseTime, "hi")
	_, err := newTestMessageRepo(db, first).GetThread(ctx, "bob", "lisa")
	require.NoError(t, err)

	thread, err := newTestMessageRepo(db, first.Add(time.Hour)).GetThread(ctx, "bob", "lisa")
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.True(t, thread[0].DateRead.Equal(first))

	stored, err := NewMessageRepository(db).FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, stored.DateRead.Equal(first))
}

func TestGetThread_HidesDeletedSide(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := newTestMessageRepo(db, baseTime)
	ctx := context.Background()

	m := addMessage(t, repo, "lisa", "bob", baseTime, "hi")
	require.NoError(t, repo.MarkDeleted(ctx, m.ID, false, true))

	bobView, err := repo.GetThread(ctx, "bob", "lisa")
	require.NoError(t, err)
	assert.Empty(t, bobView)

	lisaView, err := repo.GetThread(ctx, "lisa", "bob")
	require.NoError(t, err)
	assert.Len(t, lisaView, 1)
}

func TestFindForUser_Containers(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := newTestMessageRepo(db, baseTime)
	ctx := context.Background()

	addMessage(t, repo, "lisa", "bob", baseTime, "one")
	read := addMessage(t, repo, "todd", "bob", baseTime.Add(time.Minute), "two")
	addMessage(t, repo, "bob", "lisa", baseTime.Add(2*time.Minute), "three")
	read.MarkRead(baseTime)
	require.NoError(t, db.Save(read).Error)

	unread, total, err := repo.FindForUser(ctx, "bob", domain.ContainerUnread, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "one", unread[0].Content)

	inbox, total, err := repo.FindForUser(ctx, "bob", domain.ContainerInbox, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "two", inbox[0].Content, "newest first")

	outbox, total, err := repo.FindForUser(ctx, "bob", domain.ContainerOutbox, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "three", outbox[0].Content)
}

func TestFindForUser_Pagination(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := newTestMessageRepo(db, baseTime)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		addMessage(t, repo, "lisa", "bob", baseTime.Add(time.Duration(i)*time.Minute), string(rune('a'+i)))
	}

	page2, total, err := repo.FindForUser(ctx, "bob", domain.ContainerInbox, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page2, 2)
	assert.Equal(t, "c", page2[0].Content)
	assert.Equal(t, "b", page2[1].Content)
}

func TestMarkDeleted_HardDeleteWhenBothSides(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := newTestMessageRepo(db, baseTime)
	ctx := context.Background()

	m := addMessage(t, repo, "lisa", "bob", baseTime, "bye")
	require.NoError(t, repo.MarkDeleted(ctx, m.ID, true, false))

	stored, err := repo.FindByID(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.SenderDeleted)
	assert.False(t, stored.RecipientDeleted)

	require.NoError(t, repo.MarkDeleted(ctx, m.ID, false, true))
	stored, err = repo.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestMarkDeleted_InterleavedSidesBothStick(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := newTestMessageRepo(db, baseTime)
	ctx := context.Background()

	m := addMessage(t, repo, "lisa", "bob", baseTime, "bye")

	// both participants loaded the row before either deleted it
	senderCopy, err := repo.FindByID(ctx, m.ID)
	require.NoError(t, err)
	recipientCopy, err := repo.FindByID(ctx, m.ID)
	require.NoError(t, err)

	require.NoError(t, repo.MarkDeleted(ctx, senderCopy.ID, true, false))
	require.NoError(t, repo.MarkDeleted(ctx, recipientCopy.ID, false, true))

	stored, err := repo.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, stored, "row removed once both sides deleted")
}

func TestMarkDeleted_ConcurrentSides(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := newTestMessageRepo(db, baseTime)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		m := addMessage(t, repo, "lisa", "bob", baseTime, "bye")

		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for _, side := range []bool{true, false} {
			wg.Add(1)
			go func(bySender bool) {
				defer wg.Done()
				errs <- repo.MarkDeleted(ctx, m.ID, bySender, !bySender)
			}(side)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		stored, err := repo.FindByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Nil(t, stored)
	}
}

func TestMarkDeleted_NoSideIsNoop(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := newTestMessageRepo(db, baseTime)
	ctx := context.Background()

	m := addMessage(t, repo, "lisa", "bob", baseTime, "kept")
	require.NoError(t, repo.MarkDeleted(ctx, m.ID, false, false))

	stored, err := repo.FindByID(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, stored.SenderDeleted || stored.RecipientDeleted)
}
