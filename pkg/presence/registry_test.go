package presence

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConn struct {
	id     string
	userID string
	sent   atomic.Int32
	closed atomic.Bool
}

func newStubConn(userID, id string) *stubConn {
	return &stubConn{id: id, userID: userID}
}

func (c *stubConn) ID() string     { return c.id }
func (c *stubConn) UserID() string { return c.userID }
func (c *stubConn) Send(context.Context, Event) error {
	if c.closed.Load() {
		return ErrConnClosed
	}
	c.sent.Add(1)
	return nil
}
func (c *stubConn) Close() error {
	c.closed.Store(true)
	return nil
}

func TestRegisterAndUnregister(t *testing.T) {
	r := NewRegistry()
	c1 := newStubConn("alice", "c1")
	c2 := newStubConn("alice", "c2")

	require.NoError(t, r.Register("alice", c1))
	require.NoError(t, r.Register("alice", c2))
	assert.True(t, r.IsOnline("alice"))
	assert.Equal(t, 2, r.DeviceCount("alice"))
	assert.ElementsMatch(t, []string{"c1", "c2"}, r.ConnectionIDs("alice"))
	assert.Equal(t, 1, r.OnlineUserCount())
	assert.Equal(t, 2, r.TotalConnectionCount())

	r.Unregister("c1", "alice")
	assert.Equal(t, 1, r.DeviceCount("alice"))

	r.Unregister("c2", "alice")
	assert.False(t, r.IsOnline("alice"))
	assert.Equal(t, 0, r.DeviceCount("alice"))
	assert.Equal(t, 0, r.OnlineUserCount())
	assert.Equal(t, 0, r.TotalConnectionCount())

	_, exists := r.users.Load("alice")
	assert.False(t, exists, "empty sets must be pruned")
}

func TestRegisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	c := newStubConn("alice", "c1")

	require.NoError(t, r.Register("alice", c))
	require.NoError(t, r.Register("alice", c))
	assert.Equal(t, 1, r.DeviceCount("alice"))
	assert.Equal(t, 1, r.TotalConnectionCount())
}

func TestUnregisterUnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Unregister("ghost", "nobody")

	require.NoError(t, r.Register("alice", newStubConn("alice", "c1")))
	r.Unregister("c1", "bob")
	r.Unregister("c9", "alice")
	assert.Equal(t, 1, r.DeviceCount("alice"))
	assert.Equal(t, 0, r.DeviceCount("bob"))
}

func TestConnectionBelongsToOneUser(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("alice", newStubConn("alice", "shared")))

	err := r.Register("bob", newStubConn("bob", "shared"))
	assert.ErrorIs(t, err, ErrConnectionOwned)
	assert.False(t, r.IsOnline("bob"))
	_, exists := r.users.Load("bob")
	assert.False(t, exists)
	assert.Equal(t, 1, r.OnlineUserCount())
}

func TestRegisterRejectsEmptyIdentifiers(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register("", newStubConn("", "c1")))
	assert.Error(t, r.Register("alice", newStubConn("alice", "")))
	assert.Error(t, r.Register("alice", nil))
}

func TestIsolationAcrossUsers(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("bob", newStubConn("bob", "b1")))

	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("a%d", i)
		require.NoError(t, r.Register("alice", newStubConn("alice", id)))
		assert.Equal(t, 1, r.DeviceCount("bob"))
		r.Unregister(id, "alice")
		assert.True(t, r.IsOnline("bob"))
	}
	assert.Equal(t, 1, r.DeviceCount("bob"))
}

func TestBroadcastTargetsIsSnapshot(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("alice", newStubConn("alice", "c1")))
	require.NoError(t, r.Register("alice", newStubConn("alice", "c2")))

	targets := r.BroadcastTargets("alice")
	r.Unregister("c1", "alice")
	r.Unregister("c2", "alice")

	assert.Len(t, targets, 2)
	assert.Nil(t, r.BroadcastTargets("alice"))
}

// Interleaves concurrent connects and disconnects for the same user and checks
// the counter never drifts from the applied operations.
func TestConcurrentChurnKeepsInvariant(t *testing.T) {
	r := NewRegistry()
	const (
		workers = 32
		rounds  = 200
	)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				id := fmt.Sprintf("w%d-%d", w, i)
				if err := r.Register("alice", newStubConn("alice", id)); err != nil {
					t.Error(err)
					return
				}
				assert.GreaterOrEqual(t, r.DeviceCount("alice"), 0)
				r.Unregister(id, "alice")
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 0, r.DeviceCount("alice"))
	assert.False(t, r.IsOnline("alice"))
	assert.Equal(t, 0, r.OnlineUserCount())
	assert.Equal(t, 0, r.TotalConnectionCount())
	_, exists := r.users.Load("alice")
	assert.False(t, exists)
}

func TestConcurrentRegisterPartialUnregister(t *testing.T) {
	r := NewRegistry()
	const n = 100

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = r.Register("alice", newStubConn("alice", fmt.Sprintf("c%d", i)))
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i += 2 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Unregister(fmt.Sprintf("c%d", i), "alice")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, n/2, r.DeviceCount("alice"))
	assert.Equal(t, n/2, r.TotalConnectionCount())
}

func TestCloseAll(t *testing.T) {
	r := NewRegistry()
	a := newStubConn("alice", "a1")
	b := newStubConn("bob", "b1")
	require.NoError(t, r.Register("alice", a))
	require.NoError(t, r.Register("bob", b))

	r.CloseAll(context.Background())
	assert.True(t, a.closed.Load())
	assert.True(t, b.closed.Load())
}
