// Package metrics provides per-session metrics collection.
//
// The Collector accumulates counters during a single connect sequence. It is
// a leaf package with no internal dependencies. All increment methods are
// nil-receiver safe so callers never need to guard instrumentation.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all session metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Library fetch
	LibraryAttempts int64
	LibraryFailures int64

	// Per-game event fetches
	GamesQueried      int64
	GameFetchFailures int64

	// Aggregation
	EventsReceived     int64
	EventsInadmissible int64
	EventsDeduped      int64
	EventsAdmitted     int64

	// Dimensions (informational, set at construction)
	SessionID string
	Handle    string
}

// Collector accumulates metrics during a single connect sequence.
// Thread-safe via sync.Mutex.
type Collector struct {
	mu sync.Mutex

	libraryAttempts   int64
	libraryFailures   int64
	gamesQueried      int64
	gameFetchFailures int64

	eventsReceived     int64
	eventsInadmissible int64
	eventsDeduped      int64
	eventsAdmitted     int64

	sessionID string
	handle    string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(sessionID, handle string) *Collector {
	return &Collector{
		sessionID: sessionID,
		handle:    handle,
	}
}

// IncLibraryAttempt records one library fetch attempt.
func (c *Collector) IncLibraryAttempt() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.libraryAttempts++
	c.mu.Unlock()
}

// IncLibraryFailure records one failed library fetch attempt.
func (c *Collector) IncLibraryFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.libraryFailures++
	c.mu.Unlock()
}

// IncGameQueried records one per-game event fetch issued.
func (c *Collector) IncGameQueried() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.gamesQueried++
	c.mu.Unlock()
}

// IncGameFetchFailure records one per-game event fetch absorbed to empty.
func (c *Collector) IncGameFetchFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.gameFetchFailures++
	c.mu.Unlock()
}

// AddEventsReceived records raw events returned by per-game fetches.
func (c *Collector) AddEventsReceived(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.eventsReceived += n
	c.mu.Unlock()
}

// IncEventInadmissible records one event dropped for a missing post time.
func (c *Collector) IncEventInadmissible() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.eventsInadmissible++
	c.mu.Unlock()
}

// IncEventDeduped records one event skipped as a duplicate composite key.
func (c *Collector) IncEventDeduped() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.eventsDeduped++
	c.mu.Unlock()
}

// IncEventAdmitted records one event offered to the top-K selector.
func (c *Collector) IncEventAdmitted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.eventsAdmitted++
	c.mu.Unlock()
}

// Snapshot returns an immutable copy of all counters.
// Returns a zero Snapshot for a nil collector.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		LibraryAttempts:    c.libraryAttempts,
		LibraryFailures:    c.libraryFailures,
		GamesQueried:       c.gamesQueried,
		GameFetchFailures:  c.gameFetchFailures,
		EventsReceived:     c.eventsReceived,
		EventsInadmissible: c.eventsInadmissible,
		EventsDeduped:      c.eventsDeduped,
		EventsAdmitted:     c.eventsAdmitted,
		SessionID:          c.sessionID,
		Handle:             c.handle,
	}
}
