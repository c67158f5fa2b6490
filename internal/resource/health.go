package resource

import (
	"context"
	"sort"
	"sync"
)

// Checker probes one backing resource (database, redis) for liveness.
type Checker func(ctx context.Context) error

var (
	mu       sync.RWMutex
	checkers = map[string]Checker{}
)

// Register adds a named checker. It should be called once per resource during startup in app.Run.
func Register(name string, c Checker) {
	if name == "" || c == nil {
		panic("resource.Register called with empty name or nil checker")
	}
	mu.Lock()
	defer mu.Unlock()
	checkers[name] = c
}

// Status is the outcome of one checker.
type Status struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// CheckAll runs every checker concurrently and returns the results sorted by name.
func CheckAll(ctx context.Context) []Status {
	mu.RLock()
	snapshot := make(map[string]Checker, len(checkers))
	for n, c := range checkers {
		snapshot[n] = c
	}
	mu.RUnlock()

	var (
		wg      sync.WaitGroup
		resMu   sync.Mutex
		results = make([]Status, 0, len(snapshot))
	)
	for name, check := range snapshot {
		wg.Add(1)
		go func(name string, check Checker) {
			defer wg.Done()
			st := Status{Name: name, OK: true}
			if err := check(ctx); err != nil {
				st.OK = false
				st.Error = err.Error()
			}
			resMu.Lock()
			results = append(results, st)
			resMu.Unlock()
		}(name, check)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}

// Healthy reports whether every status is OK.
func Healthy(statuses []Status) bool {
	for _, st := range statuses {
		if !st.OK {
			return false
		}
	}
	return true
}
