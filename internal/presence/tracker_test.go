package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserConnected_FirstConnectionOnly(t *testing.T) {
	tr := NewTracker()

	assert.True(t, tr.UserConnected("lisa", "c1"))
	assert.False(t, tr.UserConnected("lisa", "c2"))
	assert.False(t, tr.UserConnected("lisa", "c1"), "duplicate id is a no-op")

	assert.Equal(t, []string{"c1", "c2"}, tr.GetConnectionsForUser("lisa"))
}

func TestUserDisconnected_LastConnectionOnly(t *testing.T) {
	tr := NewTracker()
	tr.UserConnected("lisa", "c1")
	tr.UserConnected("lisa", "c2")

	assert.False(t, tr.UserDisconnected("lisa", "c1"))
	assert.Equal(t, []string{"c2"}, tr.GetConnectionsForUser("lisa"))

	assert.True(t, tr.UserDisconnected("lisa", "c2"))
	assert.Empty(t, tr.GetConnectionsForUser("lisa"))
	assert.Empty(t, tr.GetOnlineUsers())
}

func TestUserDisconnected_UnknownIsNoop(t *testing.T) {
	tr := NewTracker()
	assert.False(t, tr.UserDisconnected("ghost", "c1"))

	tr.UserConnected("lisa", "c1")
	assert.False(t, tr.UserDisconnected("lisa", "nope"))
	assert.Equal(t, []string{"c1"}, tr.GetConnectionsForUser("lisa"))
}

func TestGetConnectionsForUser_ReturnsCopy(t *testing.T) {
	tr := NewTracker()
	tr.UserConnected("lisa", "c1")

	ids := tr.GetConnectionsForUser("lisa")
	ids[0] = "mutated"
	assert.Equal(t, []string{"c1"}, tr.GetConnectionsForUser("lisa"))
}

func TestGetOnlineUsers_Sorted(t *testing.T) {
	tr := NewTracker()
	tr.UserConnected("todd", "c1")
	tr.UserConnected("bob", "c2")
	tr.UserConnected("lisa", "c3")

	assert.Equal(t, []string{"bob", "lisa", "todd"}, tr.GetOnlineUsers())
}

func TestTracker_ConcurrentTransitions(t *testing.T) {
	tr := NewTracker()
	const n = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	firsts, lasts := 0, 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if tr.UserConnected("lisa", fmt.Sprintf("c%d", i)) {
				mu.Lock()
				firsts++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, firsts)
	assert.Len(t, tr.GetConnectionsForUser("lisa"), n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if tr.UserDisconnected("lisa", fmt.Sprintf("c%d", i)) {
				mu.Lock()
				lasts++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, lasts)
	assert.Empty(t, tr.GetOnlineUsers())
}
