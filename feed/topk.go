// Package feed implements the recent-update aggregation pipeline: the
// fan-out retrieval of update events across an owned-game library and the
// bounded top-K reduction of the result stream.
package feed

import (
	"errors"
	"sort"

	"github.com/pithecene-io/patchfeed/types"
)

// ErrInvalidCapacity is returned when a selector is constructed with a
// non-positive capacity.
var ErrInvalidCapacity = errors.New("selector capacity must be positive")

// DefaultCapacity is the feed size used when the caller specifies nothing.
const DefaultCapacity = 75

// Selector keeps the K most recent update events offered to it, discarding
// the rest. Memory is bounded by K regardless of stream length; each Offer
// is O(log K).
//
// Internally a binary min-heap on PostTime: the root is always the least
// recent retained event, so a full selector admits a new event by comparing
// against the root only. An incoming event equal to the current minimum is
// discarded, which makes the survivor among equal-recency events at the
// capacity boundary the earliest-offered one — deterministic for a fixed
// arrival order.
//
// Not safe for concurrent use; the aggregator offers from a single goroutine.
type Selector struct {
	capacity int
	heap     []types.UpdateEvent
}

// NewSelector creates a selector retaining at most capacity events.
func NewSelector(capacity int) (*Selector, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Selector{
		capacity: capacity,
		heap:     make([]types.UpdateEvent, 0, capacity),
	}, nil
}

// Len returns the number of retained events.
func (s *Selector) Len() int {
	return len(s.heap)
}

// Offer admits ev if it is among the most recent events seen so far.
// Below capacity every event is retained; at capacity ev replaces the
// current minimum only when strictly more recent.
func (s *Selector) Offer(ev types.UpdateEvent) {
	if len(s.heap) < s.capacity {
		s.heap = append(s.heap, ev)
		s.siftUp(len(s.heap) - 1)
		return
	}
	if ev.PostTime > s.heap[0].PostTime {
		s.heap[0] = ev
		s.siftDown(0)
	}
}

// Drain returns the retained events ordered by descending PostTime.
// The heap is not mutated: calling Drain twice without intervening offers
// returns identical sequences, and offers after a drain remain valid.
func (s *Selector) Drain() []types.UpdateEvent {
	out := make([]types.UpdateEvent, len(s.heap))
	copy(out, s.heap)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PostTime > out[j].PostTime
	})
	return out
}

func (s *Selector) siftUp(idx int) {
	for idx > 0 {
		parent := (idx - 1) / 2
		if s.heap[idx].PostTime >= s.heap[parent].PostTime {
			break
		}
		s.heap[idx], s.heap[parent] = s.heap[parent], s.heap[idx]
		idx = parent
	}
}

func (s *Selector) siftDown(idx int) {
	n := len(s.heap)
	for {
		smallest := idx
		left := 2*idx + 1
		right := 2*idx + 2
		if left < n && s.heap[left].PostTime < s.heap[smallest].PostTime {
			smallest = left
		}
		if right < n && s.heap[right].PostTime < s.heap[smallest].PostTime {
			smallest = right
		}
		if smallest == idx {
			return
		}
		s.heap[idx], s.heap[smallest] = s.heap[smallest], s.heap[idx]
		idx = smallest
	}
}
