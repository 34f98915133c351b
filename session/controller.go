package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pithecene-io/patchfeed/feed"
	"github.com/pithecene-io/patchfeed/log"
	"github.com/pithecene-io/patchfeed/metrics"
	"github.com/pithecene-io/patchfeed/steam"
	"github.com/pithecene-io/patchfeed/types"
)

// ProfileService is the profile contract the controller needs from the
// boundary. *steam.Client satisfies it.
type ProfileService interface {
	PlayerSummary(ctx context.Context, accountID string) (*types.Profile, error)
}

// Boundary bundles the four collaborator contracts the controller drives.
// *steam.Client satisfies all of them; tests substitute fakes.
type Boundary interface {
	IdentityService
	ProfileService
	LibraryService
	feed.EventService
}

// Config configures a Controller.
type Config struct {
	// Boundary provides the external services (required).
	Boundary Boundary
	// Capacity is the feed size K (default feed.DefaultCapacity).
	Capacity int
	// Filter selects which events each per-game fetch requests.
	Filter types.FilterSpec
	// MaxAttempts and RetryDelay tune the library fetch retry loop.
	MaxAttempts int
	RetryDelay  time.Duration
	// OnStatus is invoked on every phase change of the active sequence,
	// including per-attempt library retry notices. May be nil. Called
	// without internal locks held, but sequentially per sequence.
	OnStatus func(types.SessionStatus)
	// LogWriter receives JSON diagnostics. Nil silences logging.
	LogWriter io.Writer
}

// Controller owns session state for one account connection at a time.
//
// Connect drives resolve → profile → library → aggregate. Starting a new
// sequence cancels any in-flight one; a superseded sequence settles
// silently and can no longer touch published state — every state write is
// gated on "is this still the active sequence", so a stale aggregation
// finishing late cannot overwrite a newer sequence's result.
type Controller struct {
	cfg Config

	mu        sync.Mutex
	cancel    context.CancelFunc
	activeID  string
	status    types.SessionStatus
	profile   *types.Profile
	games     []types.OwnedGame
	feed      []types.UpdateEvent
	collector *metrics.Collector
}

// NewController creates a controller in the Disconnected state.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Boundary == nil {
		return nil, fmt.Errorf("session controller requires a boundary")
	}
	if cfg.Capacity == 0 {
		cfg.Capacity = feed.DefaultCapacity
	}
	if cfg.Capacity < 0 {
		return nil, feed.ErrInvalidCapacity
	}
	if cfg.Filter == (types.FilterSpec{}) {
		cfg.Filter = types.DefaultFilter()
	}

	return &Controller{
		cfg:    cfg,
		status: types.SessionStatus{Phase: types.PhaseDisconnected},
	}, nil
}

// Connect runs one connect sequence for handle, superseding any in-flight
// sequence. It blocks until the sequence settles: nil on Ready, the
// classified error on Failed, the context's error when cancelled or
// superseded (silent — no Failed state is published for those).
func (c *Controller) Connect(parent context.Context, handle string) error {
	ctx, cancel, seqID := c.begin(parent)
	defer cancel()

	logger := c.sequenceLogger(seqID, handle)
	collector := metrics.NewCollector(seqID, handle)
	c.mu.Lock()
	c.collector = collector
	c.mu.Unlock()

	c.setPhase(seqID, types.SessionStatus{SessionID: seqID, Phase: types.PhaseResolving})

	resolver := NewResolver(c.cfg.Boundary)
	accountID, err := resolver.Resolve(ctx, handle)
	if err != nil {
		return c.settle(seqID, ctx, logger, err)
	}

	c.setPhase(seqID, types.SessionStatus{SessionID: seqID, Phase: types.PhaseLoadingProfile})

	profile, err := c.cfg.Boundary.PlayerSummary(ctx, accountID)
	if err != nil {
		if ctx.Err() == nil {
			err = fmt.Errorf("%w: %w", ErrProfileUnavailable, err)
		}
		return c.settle(seqID, ctx, logger, err)
	}

	fetcher := NewLibraryFetcher(LibraryConfig{
		Service:     c.cfg.Boundary,
		MaxAttempts: c.cfg.MaxAttempts,
		RetryDelay:  c.cfg.RetryDelay,
		Logger:      logger,
		Collector:   collector,
	})
	games, err := fetcher.Fetch(ctx, accountID, func(attempt int) {
		c.setPhase(seqID, types.SessionStatus{
			SessionID: seqID,
			Phase:     types.PhaseLoadingLibrary,
			Attempt:   attempt,
		})
	})
	if err != nil {
		return c.settle(seqID, ctx, logger, err)
	}

	// Aggregation runs only against a non-empty library; an empty one goes
	// straight to Ready with an empty feed.
	var events []types.UpdateEvent
	if len(games) > 0 {
		c.setPhase(seqID, types.SessionStatus{SessionID: seqID, Phase: types.PhaseAggregating})

		aggregator, err := feed.NewAggregator(feed.Config{
			Source:    feed.NewSource(c.cfg.Boundary, logger, collector),
			Filter:    c.cfg.Filter,
			Capacity:  c.cfg.Capacity,
			Logger:    logger,
			Collector: collector,
		})
		if err != nil {
			return c.settle(seqID, ctx, logger, err)
		}
		events, _ = aggregator.Aggregate(ctx, games)
	}

	// Publish the result only if this is still the active sequence.
	c.mu.Lock()
	if c.activeID != seqID {
		c.mu.Unlock()
		return ctx.Err()
	}
	c.profile = profile
	c.games = games
	c.feed = events
	c.status = types.SessionStatus{SessionID: seqID, Phase: types.PhaseReady}
	st := c.status
	cb := c.cfg.OnStatus
	c.mu.Unlock()

	if cb != nil {
		cb(st)
	}
	return nil
}

// Disconnect cancels any in-flight sequence and clears published state.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.activeID = ""
	c.profile = nil
	c.games = nil
	c.feed = nil
	c.status = types.SessionStatus{Phase: types.PhaseDisconnected}
	st := c.status
	cb := c.cfg.OnStatus
	c.mu.Unlock()

	if cb != nil {
		cb(st)
	}
}

// Status returns the current session status.
func (c *Controller) Status() types.SessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Profile returns the connected account's profile, nil before Ready.
func (c *Controller) Profile() *types.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// Games returns the owned-game list of the last Ready sequence.
func (c *Controller) Games() []types.OwnedGame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.OwnedGame, len(c.games))
	copy(out, c.games)
	return out
}

// Feed returns the aggregated update feed of the last Ready sequence,
// descending by recency.
func (c *Controller) Feed() []types.UpdateEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.UpdateEvent, len(c.feed))
	copy(out, c.feed)
	return out
}

// Metrics returns a snapshot of the most recent sequence's counters.
func (c *Controller) Metrics() metrics.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collector.Snapshot()
}

// begin supersedes any in-flight sequence and installs a fresh one.
// The previous sequence's context is cancelled before the new one exists,
// so its retry loops terminate at their next check point.
func (c *Controller) begin(parent context.Context) (context.Context, context.CancelFunc, string) {
	ctx, cancel := context.WithCancel(parent)
	seqID := uuid.New().String()

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
	c.activeID = seqID
	c.profile = nil
	c.games = nil
	c.feed = nil
	c.mu.Unlock()

	return ctx, cancel, seqID
}

// setPhase publishes a phase change, dropped when the sequence has been
// superseded.
func (c *Controller) setPhase(seqID string, st types.SessionStatus) {
	c.mu.Lock()
	if c.activeID != seqID {
		c.mu.Unlock()
		return
	}
	c.status = st
	cb := c.cfg.OnStatus
	c.mu.Unlock()

	if cb != nil {
		cb(st)
	}
}

// settle classifies a sequence failure. Cancellation (including supersede)
// is silent: the sequence just abandons without publishing Failed. Only the
// sequence's own context decides that — a deadline error wrapped inside a
// boundary failure is an ordinary failure, not a cancellation.
func (c *Controller) settle(seqID string, ctx context.Context, logger *log.Logger, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	reason := failureReason(err)
	logger.Error("connect sequence failed", map[string]any{
		"reason": reason,
		"error":  err.Error(),
	})
	c.setPhase(seqID, types.SessionStatus{
		SessionID: seqID,
		Phase:     types.PhaseFailed,
		Reason:    reason,
	})
	return err
}

// failureReason maps a classified error to the single user-facing message
// for the sequence. Upstream-supplied messages pass through verbatim.
func failureReason(err error) string {
	var apiErr *steam.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	switch {
	case errors.Is(err, ErrIdentityNotFound):
		return "could not resolve that handle to an account"
	case errors.Is(err, ErrProfileUnavailable):
		return "could not load the account profile"
	case errors.Is(err, ErrLibraryUnavailable):
		return "game library is currently unavailable, try again later"
	default:
		return "connection failed, try again later"
	}
}

// sequenceLogger builds the per-sequence logger.
func (c *Controller) sequenceLogger(seqID, handle string) *log.Logger {
	if c.cfg.LogWriter == nil {
		return log.Nop()
	}
	return log.NewLogger(seqID, handle).WithOutput(c.cfg.LogWriter)
}
