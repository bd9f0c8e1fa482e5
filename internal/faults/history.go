package faults

import (
	"sync"
	"time"

	"github.com/vedfolnir/console/internal/constants"
)

// Record is one classified error occurrence. The history is advisory:
// it feeds the debug/export surface and is never required for correct
// operation.
type Record struct {
	Category  Category  `json:"category" yaml:"category"`
	Severity  Severity  `json:"severity" yaml:"severity"`
	Message   string    `json:"message" yaml:"message"`
	Context   string    `json:"context,omitempty" yaml:"context,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// History is a bounded, append-only error log. Appending past the cap
// evicts the oldest record.
type History struct {
	mu      sync.Mutex
	cap     int
	records []Record
}

// NewHistory creates a history with the given capacity; zero or negative
// uses the default cap.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = constants.ErrorHistoryCap
	}
	return &History{cap: capacity}
}

// Append records a classified error.
func (h *History) Append(r Record) {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, r)
	if len(h.records) > h.cap {
		h.records = h.records[len(h.records)-h.cap:]
	}
}

// Observe classifies an error, records it, and returns the category.
func (h *History) Observe(err error, contextTag string) Category {
	cat := Classify(err, contextTag)
	h.Append(Record{
		Category: cat,
		Severity: ProfileFor(cat).Severity,
		Message:  err.Error(),
		Context:  contextTag,
	})
	return cat
}

// Snapshot returns a copy of the current records, oldest first.
func (h *History) Snapshot() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Record, len(h.records))
	copy(out, h.records)
	return out
}

// Len returns the number of retained records.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}
