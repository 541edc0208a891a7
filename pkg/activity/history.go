package activity

import (
	"context"
	"sync"

	"github.com/goliatone/go-overlay/pkg/history"
)

// HistoryHook keeps the most recent events, evicting the oldest once the
// configured capacity is reached.
type HistoryHook struct {
	mu     sync.Mutex
	recent *history.Buffer[Event]
}

// NewHistoryHook constructs a hook remembering up to capacity events.
func NewHistoryHook(capacity int) *HistoryHook {
	return &HistoryHook{recent: history.New[Event](capacity)}
}

// Notify implements ActivityHook.
func (h *HistoryHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recent.Push(NormalizeEvent(event))
	return nil
}

// Latest returns the newest recorded event.
func (h *HistoryHook) Latest() (Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.recent.PeekNewest()
}

// Events returns the recorded events, newest first.
func (h *HistoryHook) Events() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.recent.Slice()
}

// Len returns the number of recorded events.
func (h *HistoryHook) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.recent.Len()
}

// Reset drops every recorded event.
func (h *HistoryHook) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recent.Clear()
}
