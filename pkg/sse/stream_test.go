package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club-notification-service/pkg/presence"
)

func TestConnSendAfterClose(t *testing.T) {
	c := NewConn("u1", 1)
	require.NoError(t, c.Send(context.Background(), presence.Event{Type: "a"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Send(ctx, presence.Event{Type: "b"}), context.DeadlineExceeded)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Send(context.Background(), presence.Event{Type: "c"}), presence.ErrConnClosed)
}

func TestClosedConnNeverBuffers(t *testing.T) {
	c := NewConn("u1", 64)
	require.NoError(t, c.Close())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.ErrorIs(t, c.Send(context.Background(), presence.Event{Type: "late"}), presence.ErrConnClosed)
		}()
	}
	wg.Wait()
	assert.Zero(t, len(c.events))
}

func TestSendRacingClose(t *testing.T) {
	for i := 0; i < 50; i++ {
		c := NewConn("u1", 64)
		var wg sync.WaitGroup
		for j := 0; j < 8; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = c.Send(context.Background(), presence.Event{Type: "x"})
			}()
		}
		require.NoError(t, c.Close())
		queued := len(c.events)
		assert.ErrorIs(t, c.Send(context.Background(), presence.Event{Type: "y"}), presence.ErrConnClosed)
		wg.Wait()
		assert.Equal(t, queued, len(c.events))
	}
}

func TestWriteEvent(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, WriteEvent(&sb, "notification", map[string]string{"title": "hi"}))
	assert.Equal(t, "event: notification\ndata: {\"title\":\"hi\"}\n\n", sb.String())
}

func TestStreamDeliversEvents(t *testing.T) {
	conn := NewConn("u1", 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = Stream(r.Context(), w, conn, time.Hour)
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.NoError(t, conn.Send(context.Background(), presence.Event{Type: "notification", Data: map[string]string{"title": "t"}}))

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 3 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line = strings.TrimRight(line, "\n"); line != "" {
			lines = append(lines, line)
		}
	}
	assert.Equal(t, []string{": ok", "event: notification", `data: {"title":"t"}`}, lines)

	require.NoError(t, conn.Close())
}
