package feed

import (
	"context"
	"sync"

	"github.com/pithecene-io/patchfeed/log"
	"github.com/pithecene-io/patchfeed/metrics"
	"github.com/pithecene-io/patchfeed/types"
)

// Stats aggregates counters for one aggregation pass.
type Stats struct {
	// GamesQueried is the number of per-game fetches launched.
	GamesQueried int64
	// EventsReceived is the total number of events returned by fetches.
	EventsReceived int64
	// EventsInadmissible is the number of events dropped for a missing
	// or zero post time.
	EventsInadmissible int64
	// EventsDeduped is the number of events skipped as duplicate
	// (gid, appid) pairs.
	EventsDeduped int64
	// EventsAdmitted is the number of events offered to the selector.
	EventsAdmitted int64
}

// Config configures an Aggregator.
type Config struct {
	// Source fetches per-game events (required).
	Source *Source
	// Filter selects which events each per-game fetch requests.
	// Zero value means types.DefaultFilter().
	Filter types.FilterSpec
	// Capacity is the feed size K (default DefaultCapacity).
	Capacity int
	// Logger receives pass diagnostics. May be nil.
	Logger *log.Logger
	// Collector receives live counters. May be nil.
	Collector *metrics.Collector
}

// Aggregator fans out per-game event fetches across a full library and
// reduces the unbounded result stream to the K most recent events.
//
// One pass owns its selector and seen-set exclusively; an Aggregator may
// be reused, but each Aggregate call starts from scratch.
type Aggregator struct {
	source    *Source
	filter    types.FilterSpec
	capacity  int
	logger    *log.Logger
	collector *metrics.Collector
}

// NewAggregator creates an aggregator. An unset Capacity selects
// DefaultCapacity; a negative one is ErrInvalidCapacity.
func NewAggregator(cfg Config) (*Aggregator, error) {
	if cfg.Capacity == 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Capacity < 0 {
		return nil, ErrInvalidCapacity
	}
	if cfg.Filter == (types.FilterSpec{}) {
		cfg.Filter = types.DefaultFilter()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}

	return &Aggregator{
		source:    cfg.Source,
		filter:    cfg.Filter,
		capacity:  cfg.Capacity,
		logger:    cfg.Logger,
		collector: cfg.Collector,
	}, nil
}

// Aggregate retrieves update events for every game concurrently and returns
// the K most recent admissible, deduplicated events in descending PostTime
// order.
//
// All fetches are launched at once (fan-out width equals library size) and
// every batch is funneled to this goroutine, which performs the
// admit/dedup/offer sequence serially. Each batch is processed to completion
// before the next, so the seen-set and selector need no locking, and the
// min-comparison rule makes the final K invariant to completion order.
// The pass waits for every fetch to settle; per-game failures are already
// absorbed by the Source, so there is no partial-result abort.
func (a *Aggregator) Aggregate(ctx context.Context, games []types.OwnedGame) ([]types.UpdateEvent, Stats) {
	selector, err := NewSelector(a.capacity)
	if err != nil {
		// Capacity was validated at construction.
		panic(err)
	}

	seen := make(map[types.EventKey]struct{})
	results := make(chan []types.UpdateEvent, len(games))

	var wg sync.WaitGroup
	for _, game := range games {
		wg.Add(1)
		go func(g types.OwnedGame) {
			defer wg.Done()
			results <- a.source.Fetch(ctx, g, a.filter)
		}(game)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	stats := Stats{GamesQueried: int64(len(games))}
	for batch := range results {
		for _, event := range batch {
			stats.EventsReceived++
			a.collector.AddEventsReceived(1)

			if !event.Admissible() {
				stats.EventsInadmissible++
				a.collector.IncEventInadmissible()
				continue
			}
			key := event.Key()
			if _, dup := seen[key]; dup {
				stats.EventsDeduped++
				a.collector.IncEventDeduped()
				continue
			}
			seen[key] = struct{}{}
			stats.EventsAdmitted++
			a.collector.IncEventAdmitted()
			selector.Offer(event)
		}
	}

	out := selector.Drain()
	a.logger.Info("aggregation pass complete", map[string]any{
		"games":        stats.GamesQueried,
		"received":     stats.EventsReceived,
		"inadmissible": stats.EventsInadmissible,
		"deduped":      stats.EventsDeduped,
		"admitted":     stats.EventsAdmitted,
		"kept":         len(out),
	})
	return out, stats
}
