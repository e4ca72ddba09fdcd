package handler

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/internal/service"
)

// Feed is the part of service.LiveFeed the stream endpoints use
type Feed interface {
	SubscribeUser(userID, subscriberID string) *service.Subscriber
	SubscribeAdmin(subscriberID string) *service.Subscriber
	Unsubscribe(sub *service.Subscriber)
}

// StreamHandler handles SSE event streaming
type StreamHandler struct {
	feed Feed
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(feed Feed) *StreamHandler {
	return &StreamHandler{
		feed: feed,
	}
}

// User handles GET /v1/stream.
// Streams the caller's payment, ticket, membership and signup updates.
func (h *StreamHandler) User(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	h.stream(w, r, func(id string) *service.Subscriber {
		return h.feed.SubscribeUser(actor.UserID, id)
	})
}

// Admin handles GET /v1/admin/stream. Streams every event.
func (h *StreamHandler) Admin(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, h.feed.SubscribeAdmin)
}

func (h *StreamHandler) stream(w http.ResponseWriter, r *http.Request, subscribe func(string) *service.Subscriber) {
	// Check if the client supports SSE
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, model.NewInternalError("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	subscriberID := uuid.New().String()
	sub := subscribe(subscriberID)
	defer h.feed.Unsubscribe(sub)

	fmt.Fprintf(w, "event: connected\ndata: {\"subscriber_id\":\"%s\"}\n\n", subscriberID)
	flusher.Flush()

	for {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			fmt.Fprint(w, event.Format())
			flusher.Flush()

		case <-sub.Done:
			return

		case <-r.Context().Done():
			// Client disconnected
			return
		}
	}
}
