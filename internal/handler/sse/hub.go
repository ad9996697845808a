package sse

import (
	"context"
	"log/slog"
	"sync"

	"transmem/internal/domain/models"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber
// that falls further behind than this loses events rather than blocking
// the confirming call.
const subscriberBuffer = 64

// Hub fans post-commit segment notifications out to project-scoped
// subscribers. It implements services.NotificationSink: Notify is called
// by the confirmation service once per applied update, strictly after
// commit, and never for a failed transaction.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan *models.SegmentNotification]struct{}
	logger *slog.Logger
}

// NewHub creates a new notification hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]map[chan *models.SegmentNotification]struct{}),
		logger: logger,
	}
}

// Notify delivers one notification to every subscriber of its project.
// Delivery is non-blocking; slow subscribers drop events.
func (h *Hub) Notify(_ context.Context, n *models.SegmentNotification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[n.ProjectID] {
		select {
		case ch <- n:
		default:
			h.logger.Warn("dropping notification for slow subscriber",
				"project_id", n.ProjectID,
				"segment_id", n.SegmentID,
			)
		}
	}
}

// Subscribe registers a subscriber for one project's notifications. The
// returned cancel func must be called when the subscriber goes away.
func (h *Hub) Subscribe(projectID string) (<-chan *models.SegmentNotification, func()) {
	ch := make(chan *models.SegmentNotification, subscriberBuffer)

	h.mu.Lock()
	if h.subs[projectID] == nil {
		h.subs[projectID] = make(map[chan *models.SegmentNotification]struct{})
	}
	h.subs[projectID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[projectID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, projectID)
			}
		}
	}

	return ch, cancel
}
