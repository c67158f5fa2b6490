package presence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrConnectionOwned is returned when a connection id is already registered
// under a different user.
var ErrConnectionOwned = errors.New("presence: connection registered to another user")

// userSet is the connection set of one user. Once removed is set the entry has
// been pruned from the index and must not receive new connections.
type userSet struct {
	mu      sync.Mutex
	conns   map[string]Conn
	removed bool
}

// Registry tracks which users are online and through which connections.
//
// The outer index is a sync.Map so that different users never contend on a
// shared lock; each user's set is guarded by its own mutex. A user's entry
// exists only while its set is non-empty.
type Registry struct {
	users  sync.Map // userID -> *userSet
	owners sync.Map // connID -> userID

	online atomic.Int64
	total  atomic.Int64
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds conn to userID's set. Registering the same pair twice is a no-op.
func (r *Registry) Register(userID string, conn Conn) error {
	if userID == "" || conn == nil || conn.ID() == "" {
		return fmt.Errorf("presence: register requires a user id and a connection id")
	}
	connID := conn.ID()

	for {
		v, _ := r.users.LoadOrStore(userID, &userSet{conns: make(map[string]Conn)})
		set := v.(*userSet)

		set.mu.Lock()
		if set.removed {
			// Lost a race with the last unregister; retry on a fresh entry.
			set.mu.Unlock()
			continue
		}

		if owner, loaded := r.owners.LoadOrStore(connID, userID); loaded && owner.(string) != userID {
			r.pruneLocked(userID, set)
			set.mu.Unlock()
			return ErrConnectionOwned
		}

		if _, exists := set.conns[connID]; !exists {
			if len(set.conns) == 0 {
				r.online.Add(1)
			}
			set.conns[connID] = conn
			r.total.Add(1)
		}
		set.mu.Unlock()
		return nil
	}
}

// Unregister removes connID from userID's set and prunes the user entry when
// the set becomes empty. Unknown pairs are ignored.
func (r *Registry) Unregister(connID, userID string) {
	v, ok := r.users.Load(userID)
	if !ok {
		return
	}
	set := v.(*userSet)

	set.mu.Lock()
	defer set.mu.Unlock()
	if set.removed {
		return
	}
	if _, exists := set.conns[connID]; !exists {
		return
	}
	delete(set.conns, connID)
	r.owners.CompareAndDelete(connID, userID)
	r.total.Add(-1)
	if len(set.conns) == 0 {
		r.online.Add(-1)
	}
	r.pruneLocked(userID, set)
}

// pruneLocked drops an empty set from the index. set.mu must be held.
func (r *Registry) pruneLocked(userID string, set *userSet) {
	if len(set.conns) != 0 || set.removed {
		return
	}
	set.removed = true
	r.users.CompareAndDelete(userID, set)
}

// IsOnline reports whether userID has at least one open connection.
func (r *Registry) IsOnline(userID string) bool {
	return r.DeviceCount(userID) > 0
}

// DeviceCount returns the number of open connections of userID.
func (r *Registry) DeviceCount(userID string) int {
	v, ok := r.users.Load(userID)
	if !ok {
		return 0
	}
	set := v.(*userSet)
	set.mu.Lock()
	defer set.mu.Unlock()
	return len(set.conns)
}

// BroadcastTargets returns a point-in-time copy of userID's connections.
// Callers iterate the snapshot without holding any registry lock.
func (r *Registry) BroadcastTargets(userID string) []Conn {
	v, ok := r.users.Load(userID)
	if !ok {
		return nil
	}
	set := v.(*userSet)
	set.mu.Lock()
	defer set.mu.Unlock()
	if len(set.conns) == 0 {
		return nil
	}
	out := make([]Conn, 0, len(set.conns))
	for _, c := range set.conns {
		out = append(out, c)
	}
	return out
}

// ConnectionIDs returns a snapshot of the connection ids of userID.
func (r *Registry) ConnectionIDs(userID string) []string {
	targets := r.BroadcastTargets(userID)
	ids := make([]string, 0, len(targets))
	for _, c := range targets {
		ids = append(ids, c.ID())
	}
	return ids
}

// OnlineUserCount returns the number of users with at least one connection.
func (r *Registry) OnlineUserCount() int {
	return int(r.online.Load())
}

// TotalConnectionCount returns the number of registered connections.
func (r *Registry) TotalConnectionCount() int {
	return int(r.total.Load())
}

// CloseAll closes every registered connection. Transports unregister their
// handles as their sessions end.
func (r *Registry) CloseAll(ctx context.Context) {
	var conns []Conn
	r.users.Range(func(key, _ interface{}) bool {
		conns = append(conns, r.BroadcastTargets(key.(string))...)
		return true
	})
	for _, c := range conns {
		if ctx.Err() != nil {
			return
		}
		_ = c.Close()
	}
}
