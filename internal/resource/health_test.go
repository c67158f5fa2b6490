package resource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func reset(t *testing.T) {
	mu.Lock()
	saved := checkers
	checkers = map[string]Checker{}
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		checkers = saved
		mu.Unlock()
	})
}

func TestCheckAll(t *testing.T) {
	reset(t)
	Register("redis", func(context.Context) error { return errors.New("connection refused") })
	Register("mysql", func(context.Context) error { return nil })

	got := CheckAll(context.Background())
	assert.Equal(t, []Status{
		{Name: "mysql", OK: true},
		{Name: "redis", OK: false, Error: "connection refused"},
	}, got)
	assert.False(t, Healthy(got))
	assert.True(t, Healthy(got[:1]))
}

func TestRegisterRejectsNil(t *testing.T) {
	reset(t)
	assert.Panics(t, func() { Register("db", nil) })
	assert.Panics(t, func() { Register("", func(context.Context) error { return nil }) })
}
