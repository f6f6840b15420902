package bridge

import (
	"sync"

	"github.com/google/uuid"

	"safety-lms/backend/internal/logging"
	"safety-lms/backend/internal/resolver"
	"safety-lms/backend/internal/services"
	"safety-lms/backend/internal/telemetry"
)

// Hub keeps one Bridge per embedded page. Pages share the resolver so a
// course's object mapping is fetched once.
type Hub struct {
	mu    sync.RWMutex
	pages map[string]*Bridge

	resolver *resolver.Resolver
	content  services.ContentService
	metrics  *telemetry.Metrics
	logger   *logging.Logger
	opts     Options
}

// NewHub creates a Hub backed by content.
func NewHub(content services.ContentService, metrics *telemetry.Metrics, logger *logging.Logger, opts Options) *Hub {
	return &Hub{
		pages:    make(map[string]*Bridge),
		resolver: resolver.New(content, logger, resolver.WithTriggerSequences(opts.TriggerSequences)),
		content:  content,
		metrics:  metrics,
		logger:   logger,
		opts:     opts,
	}
}

// Create registers a page for a learner in a course.
func (h *Hub) Create(userID, courseID string) *Bridge {
	id := uuid.New().String()
	b := newBridge(id, userID, courseID, h.resolver, h.content, h.metrics,
		h.logger.With("page_id", id, "course_id", courseID), h.opts)

	h.mu.Lock()
	h.pages[id] = b
	h.mu.Unlock()

	h.logger.Info("page registered", "page_id", id, "user_id", userID, "course_id", courseID)
	return b
}

// Get returns the bridge of a page.
func (h *Hub) Get(pageID string) (*Bridge, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	b, ok := h.pages[pageID]
	return b, ok
}

// Remove drops a page. It reports whether the page existed.
func (h *Hub) Remove(pageID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.pages[pageID]; !ok {
		return false
	}
	delete(h.pages, pageID)
	return true
}

// Resolver returns the shared resolver.
func (h *Hub) Resolver() *resolver.Resolver {
	return h.resolver
}

// Len reports the number of registered pages.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.pages)
}
