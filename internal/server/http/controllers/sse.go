package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// sseWriter formats notifications as Server-Sent Events.
type sseWriter struct {
	w http.ResponseWriter
}

func newSSEWriter(w http.ResponseWriter) sseWriter {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	return sseWriter{w: w}
}

// Comment writes an SSE comment line. Clients ignore it; it is used to
// push headers out before the first event.
func (s sseWriter) Comment(text string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	return s.Flush()
}

// Send writes one event. The id line carries the notification sequence
// so a reconnecting client can resume via Last-Event-ID.
func (s sseWriter) Send(seq uint64, event string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", seq, event, b); err != nil {
		return err
	}
	return s.Flush()
}

// Flush flushes the HTTP response writer if it supports flushing.
func (s sseWriter) Flush() error {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
