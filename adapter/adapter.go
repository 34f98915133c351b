// Package adapter defines the notification boundary for completed
// aggregation passes.
//
// Adapters publish feed-refreshed notifications to downstream systems so
// external tooling can react to a new feed without polling. Only summary
// counts cross the boundary; fetched events and games are never persisted
// downstream.
package adapter

import "context"

// FeedRefreshedEvent is the payload published when a connect sequence
// reaches Ready with a fresh aggregate.
type FeedRefreshedEvent struct {
	EventType string `json:"event_type"` // always "feed_refreshed"
	SessionID string `json:"session_id"`
	AccountID string `json:"account_id"`
	Handle    string `json:"handle,omitempty"`
	// Games is the owned-library size the pass fanned out over.
	Games int `json:"games"`
	// EventsKept is the size of the final top-K feed.
	EventsKept int `json:"events_kept"`
	// NewestPostTime is the recency key of the feed's head, 0 when empty.
	NewestPostTime int64  `json:"newest_posttime,omitempty"`
	Timestamp      string `json:"timestamp"` // ISO 8601
	DurationMs     int64  `json:"duration_ms"`
}

// Publisher publishes feed-refreshed events to a downstream system.
// Implementations must respect context cancellation and deadlines.
type Publisher interface {
	// Publish sends one feed-refreshed event.
	Publish(ctx context.Context, event *FeedRefreshedEvent) error

	// Close releases publisher resources.
	Close() error
}
