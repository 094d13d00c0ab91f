package pipeline

import (
	"sync"

	"github.com/neural-roots/freshline/internal/model"
)

// HistoryStore keeps the most recent workflow records in a fixed-capacity
// ring. Once full, each append evicts the oldest record.
type HistoryStore struct {
	mu       sync.Mutex
	records  []model.WorkflowRecord
	capacity int
}

// NewHistoryStore creates a history store holding up to capacity records.
// Non-positive capacities fall back to 1000.
func NewHistoryStore(capacity int) *HistoryStore {
	if capacity <= 0 {
		capacity = 1000
	}
	return &HistoryStore{capacity: capacity}
}

// Append records a completed workflow, evicting the oldest if at capacity.
func (h *HistoryStore) Append(record model.WorkflowRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.records) == h.capacity {
		copy(h.records, h.records[1:])
		h.records = h.records[:h.capacity-1]
	}
	h.records = append(h.records, record)
}

// Recent returns up to limit records, most recent first. The returned slice
// is a copy; callers may not mutate stored records through it.
func (h *HistoryStore) Recent(limit int) []model.WorkflowRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 || limit > len(h.records) {
		limit = len(h.records)
	}
	out := make([]model.WorkflowRecord, limit)
	for i := 0; i < limit; i++ {
		out[i] = h.records[len(h.records)-1-i]
	}
	return out
}

// Len reports how many records are currently held.
func (h *HistoryStore) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}
