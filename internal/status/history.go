package status

import (
	"sync"
	"time"

	ring "github.com/zfjagann/golang-ring"

	"github.com/sweeney/launch-controller/internal/logic"
)

// DefaultHistorySize is the number of transitions kept for the status page.
const DefaultHistorySize = 50

// HistoryEntry is one recorded transition.
type HistoryEntry struct {
	Time    time.Time
	ClockMs uint32
	From    logic.State
	To      logic.State
	Reason  string
}

// History keeps the most recent transitions, oldest first.
type History struct {
	mu sync.Mutex
	r  ring.Ring
}

// NewHistory creates a history holding up to size entries.
func NewHistory(size int) *History {
	h := &History{}
	h.r.SetCapacity(size)
	return h
}

// Add records an entry, evicting the oldest when full.
func (h *History) Add(e HistoryEntry) {
	h.mu.Lock()
	h.r.Enqueue(e)
	h.mu.Unlock()
}

// Entries returns a copy of the recorded entries, oldest first.
func (h *History) Entries() []HistoryEntry {
	h.mu.Lock()
	values := h.r.Values()
	h.mu.Unlock()

	out := make([]HistoryEntry, 0, len(values))
	for _, v := range values {
		out = append(out, v.(HistoryEntry))
	}
	return out
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.r.ContentSize()
}
