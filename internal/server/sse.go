package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// SSE event names
const (
	EventProgress = "progress"
	EventResult   = "result"
	EventError    = "error"
	EventComplete = "complete"
)

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter sets the event-stream headers on w.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends one event with a JSON payload and flushes it.
func (s *SSEWriter) WriteEvent(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(status int, message string) {
	s.WriteEvent(EventError, map[string]any{"error": message, "status": status}) //nolint:errcheck
}

// WriteComplete sends the terminal event of a stream
func (s *SSEWriter) WriteComplete(runID, status string) {
	s.WriteEvent(EventComplete, map[string]string{ //nolint:errcheck
		"run_id": runID,
		"status": status,
	})
}
