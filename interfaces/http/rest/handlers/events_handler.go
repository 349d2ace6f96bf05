package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"kgview/application/ports"
	"kgview/application/session"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const keepAliveInterval = 15 * time.Second

// EventsHandler streams session events as server-sent events
type EventsHandler struct {
	sessions *session.Manager
	stream   ports.EventStream
	logger   *zap.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(sessions *session.Manager, stream ports.EventStream, logger *zap.Logger) *EventsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventsHandler{sessions: sessions, stream: stream, logger: logger}
}

// Stream handles GET /sessions/{sessionID}/events. The stream ends when the
// client disconnects or the session is closed.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := h.sessions.Get(sessionID); err != nil {
		respondError(w, h.logger, err)
		return
	}

	rc := http.NewResponseController(w)
	// the server write timeout would otherwise cut the stream
	_ = rc.SetWriteDeadline(time.Time{})

	events, cancel := h.stream.Subscribe(sessionID)
	defer cancel()
	// a close between the lookup and Subscribe would leave this stream open
	if _, err := h.sessions.Get(sessionID); err != nil {
		respondError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.Warn("Response does not support streaming", zap.Error(err))
		return
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			_ = rc.Flush()

		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("Failed to marshal event", zap.String("eventType", event.GetEventType()), zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.GetEventType(), data); err != nil {
				return
			}
			_ = rc.Flush()
		}
	}
}
