package sse

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// WriteEvent writes one "event:/data:" frame.
func WriteEvent(w io.Writer, eventType string, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, "event: "+eventType+"\ndata: "); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n\n")
	return err
}

// Stream pumps conn's events into w until ctx ends, conn closes or a write fails.
// A comment line is written every heartbeat to keep proxies from timing out.
func Stream(ctx context.Context, w http.ResponseWriter, conn *Conn, heartbeat time.Duration) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return ErrFlushUnsupported
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Initial comment to keep some proxies happy.
	if _, err := io.WriteString(w, ": ok\n\n"); err != nil {
		return err
	}
	flusher.Flush()

	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-conn.Done():
			return nil
		case <-ticker.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return err
			}
			flusher.Flush()
		case ev := <-conn.events:
			if err := WriteEvent(w, ev.Type, ev.Data); err != nil {
				return err
			}
			flusher.Flush()
		}
	}
}
