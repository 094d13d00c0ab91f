package pipeline

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neural-roots/freshline/internal/model"
)

func TestHistoryStore_EvictsOldestAtCapacity(t *testing.T) {
	h := NewHistoryStore(3)
	for i := 1; i <= 4; i++ {
		h.Append(model.WorkflowRecord{ID: fmt.Sprintf("wf-%d", i)})
	}

	assert.Equal(t, 3, h.Len())
	recent := h.Recent(0)
	assert.Equal(t, "wf-4", recent[0].ID)
	assert.Equal(t, "wf-3", recent[1].ID)
	assert.Equal(t, "wf-2", recent[2].ID)
}

func TestHistoryStore_RecentLimit(t *testing.T) {
	h := NewHistoryStore(10)
	for i := 1; i <= 5; i++ {
		h.Append(model.WorkflowRecord{ID: fmt.Sprintf("wf-%d", i)})
	}

	recent := h.Recent(2)
	assert.Len(t, recent, 2)
	assert.Equal(t, "wf-5", recent[0].ID)
	assert.Equal(t, "wf-4", recent[1].ID)

	assert.Len(t, h.Recent(100), 5)
}

func TestHistoryStore_Empty(t *testing.T) {
	h := NewHistoryStore(5)
	assert.Empty(t, h.Recent(10))
	assert.Equal(t, 0, h.Len())
}

func TestHistoryStore_DefaultCapacity(t *testing.T) {
	h := NewHistoryStore(0)
	assert.Equal(t, 1000, h.capacity)
}

func TestHistoryStore_ConcurrentAppends(t *testing.T) {
	h := NewHistoryStore(50)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			h.Append(model.WorkflowRecord{ID: fmt.Sprintf("wf-%d", n)})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, h.Len())
}
