package presence

import (
	"fmt"
	"os"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
)

// parseUsersEnv reads PRESENCE_BENCH_USERS to override the number of distinct
// users in the many-user benchmark.
func parseUsersEnv(defaultValue int) int {
	if v := os.Getenv("PRESENCE_BENCH_USERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

// --- Register/Unregister churn on one user ---

func BenchmarkRegistry_SameUserChurn(b *testing.B) {
	r := NewRegistry()
	const user = "user-1"

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c := newStubConn(user, uuid.NewString())
			_ = r.Register(user, c)
			r.Unregister(c.ID(), user)
		}
	})
}

// --- Churn spread across users; should scale with GOMAXPROCS ---

func BenchmarkRegistry_ManyUserChurn(b *testing.B) {
	r := NewRegistry()
	var idx uint64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := atomic.AddUint64(&idx, 1)
			user := fmt.Sprintf("user-%d", i%1024)
			c := newStubConn(user, strconv.FormatUint(i, 10))
			_ = r.Register(user, c)
			r.Unregister(c.ID(), user)
		}
	})
}

// --- Snapshot cost with many users holding one connection each ---

// 默认 1e5 用户，每个用户 1 条连接：
// PRESENCE_BENCH_USERS=1000000 go test ./pkg/presence -run=^$ -bench=Snapshot -benchmem
func BenchmarkRegistry_Snapshot(b *testing.B) {
	r := NewRegistry()
	users := parseUsersEnv(100_000)
	ids := make([]string, users)
	for i := 0; i < users; i++ {
		ids[i] = fmt.Sprintf("user-%d", i)
		_ = r.Register(ids[i], newStubConn(ids[i], "c-"+ids[i]))
	}
	var idx uint64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := atomic.AddUint64(&idx, 1)
			_ = r.BroadcastTargets(ids[int(i)%users])
		}
	})
}
