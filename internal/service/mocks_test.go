package service

import (
	"context"
	"sync"
	"time"

	"github.com/nmarofsky/DatingApp/internal/domain"
	"github.com/nmarofsky/DatingApp/internal/ws"
	"github.com/stretchr/testify/mock"
)

// --- Mock UserRepository ---

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) TouchLastActive(ctx context.Context, username string, at time.Time) error {
	return m.Called(ctx, username, at).Error(0)
}

// --- Mock MessageRepository ---

type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) Add(ctx context.Context, msg *domain.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockMessageRepo) FindByID(ctx context.Context, id uint64) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *mockMessageRepo) FindForUser(ctx context.Context, username, container string, page, limit int) ([]*domain.Message, int64, error) {
	args := m.Called(ctx, username, container, page, limit)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*domain.Message), args.Get(1).(int64), args.Error(2)
}

func (m *mockMessageRepo) GetThread(ctx context.Context, current, other string) ([]*domain.Message, error) {
	args := m.Called(ctx, current, other)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *mockMessageRepo) MarkDeleted(ctx context.Context, id uint64, bySender, byRecipient bool) error {
	return m.Called(ctx, id, bySender, byRecipient).Error(0)
}

// --- Mock GroupRepository ---

type mockGroupRepo struct {
	mock.Mock
}

func (m *mockGroupRepo) GetGroup(ctx context.Context, name string) (*domain.Group, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

func (m *mockGroupRepo) GetGroupForConnection(ctx context.Context, connectionID string) (*domain.Group, error) {
	args := m.Called(ctx, connectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

func (m *mockGroupRepo) AddConnection(ctx context.Context, groupName string, conn domain.Connection) (*domain.Group, error) {
	args := m.Called(ctx, groupName, conn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

func (m *mockGroupRepo) RemoveConnection(ctx context.Context, connectionID string) (*domain.Group, error) {
	args := m.Called(ctx, connectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

// --- Recording transport ---

type sentEvent struct {
	Group         string
	ConnectionIDs []string
	Event         *ws.Event
}

// fakeTransport records deliveries and group membership. It implements
// Transport and NotificationSink.
type fakeTransport struct {
	mu      sync.Mutex
	members map[string]map[string]bool
	sent    []sentEvent
	removes int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{members: make(map[string]map[string]bool)}
}

func (f *fakeTransport) AddToGroup(connectionID, group string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[group] == nil {
		f.members[group] = make(map[string]bool)
	}
	f.members[group][connectionID] = true
}

func (f *fakeTransport) RemoveFromGroup(connectionID, group string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes++
	delete(f.members[group], connectionID)
}

func (f *fakeTransport) SendToGroup(group string, event *ws.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEvent{Group: group, Event: event})
}

func (f *fakeTransport) SendToConnection(connectionID string, event *ws.Event) {
	f.SendToConnections([]string{connectionID}, event)
}

func (f *fakeTransport) SendToConnections(connectionIDs []string, event *ws.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEvent{ConnectionIDs: connectionIDs, Event: event})
}

func (f *fakeTransport) inGroup(group, connectionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[group][connectionID]
}

// ofType returns recorded deliveries of one event type, in order
func (f *fakeTransport) ofType(eventType string) []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentEvent
	for _, s := range f.sent {
		if s.Event.Type == eventType {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeTransport) removeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removes
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
	f.removes = 0
}

// --- Recording presence registry ---

type fakePresence struct {
	mu    sync.Mutex
	conns map[string][]string
}

func newFakePresence() *fakePresence {
	return &fakePresence{conns: make(map[string][]string)}
}

func (p *fakePresence) UserConnected(_ context.Context, username, connectionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	first := len(p.conns[username]) == 0
	p.conns[username] = append(p.conns[username], connectionID)
	return first
}

func (p *fakePresence) UserDisconnected(_ context.Context, username, connectionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := p.conns[username]
	for i, id := range ids {
		if id != connectionID {
			continue
		}
		remaining := append(append([]string(nil), ids[:i]...), ids[i+1:]...)
		if len(remaining) == 0 {
			delete(p.conns, username)
			return true
		}
		p.conns[username] = remaining
		return false
	}
	return false
}

func (p *fakePresence) GetConnectionsForUser(username string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.conns[username]...)
}
