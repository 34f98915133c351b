package types

// UpdateEvent is one update/announcement event for an owned game.
//
// Identity is always the (GID, AppID) composite: the same GID can recur
// across different games or be re-emitted across calls, so GID alone is
// never treated as identity.
type UpdateEvent struct {
	// GID is the event id assigned by the update-event service.
	GID string `json:"gid"`
	// AppID is the game the event belongs to.
	AppID int64 `json:"appid"`
	// Title is the event headline.
	Title string `json:"title"`
	// Body is the raw announcement body (BBCode, passed through untouched).
	Body string `json:"body,omitempty"`
	// PostTime is the announcement post time in seconds since epoch.
	// Zero means the post time is unconfirmed; such events are not
	// admissible to the recency feed.
	PostTime int64 `json:"posttime"`
	// GameName is the owning game's display name, annotated during
	// aggregation. The event service itself is game-agnostic.
	GameName string `json:"game_name,omitempty"`
	// GameIcon is the owning game's icon URL, annotated during aggregation.
	GameIcon string `json:"game_icon,omitempty"`
}

// Key returns the composite identity used for deduplication.
func (e UpdateEvent) Key() EventKey {
	return EventKey{GID: e.GID, AppID: e.AppID}
}

// Admissible reports whether the event carries a confirmed post time and
// may enter the recency ordering.
func (e UpdateEvent) Admissible() bool {
	return e.PostTime > 0
}

// EventKey is the (GID, AppID) composite identity of an UpdateEvent.
// Comparable, so it can be used directly as a map key.
type EventKey struct {
	GID   string
	AppID int64
}

// FilterSpec selects which events the update-event service returns per game.
type FilterSpec struct {
	// CountAfter is the number of events requested per game.
	CountAfter int
	// TypeFilter is the comma-separated event type filter understood by
	// the update-event service (e.g. "13,14" for patch notes and major
	// updates).
	TypeFilter string
}

// Default filter values, matching the update-event service's patch-note
// event types.
const (
	DefaultCountAfter = 3
	DefaultTypeFilter = "13,14"
)

// DefaultFilter returns the filter used when the caller specifies nothing.
func DefaultFilter() FilterSpec {
	return FilterSpec{CountAfter: DefaultCountAfter, TypeFilter: DefaultTypeFilter}
}
