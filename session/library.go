package session

import (
	"context"
	"fmt"
	"time"

	"github.com/pithecene-io/patchfeed/log"
	"github.com/pithecene-io/patchfeed/metrics"
	"github.com/pithecene-io/patchfeed/types"
)

// LibraryService is the owned-games contract the fetcher needs from the
// boundary. *steam.Client satisfies it.
type LibraryService interface {
	OwnedGames(ctx context.Context, accountID string) ([]types.OwnedGame, error)
}

// Library fetch retry defaults. The upstream game-list endpoint is
// occasionally flaky; a few fixed-delay retries resolve most transient
// failures without backoff complexity.
const (
	DefaultMaxAttempts = 5
	DefaultRetryDelay  = 5 * time.Second
)

// LibraryConfig configures a LibraryFetcher.
type LibraryConfig struct {
	// Service fetches the raw owned-games list (required).
	Service LibraryService
	// MaxAttempts is the attempt ceiling (default 5).
	MaxAttempts int
	// RetryDelay is the fixed wait between attempts (default 5s).
	RetryDelay time.Duration
	// Logger receives per-attempt diagnostics. May be nil.
	Logger *log.Logger
	// Collector receives attempt counters. May be nil.
	Collector *metrics.Collector
}

// LibraryFetcher retrieves the account's owned-game list, wrapping the call
// in a bounded fixed-delay retry loop with cooperative cancellation.
type LibraryFetcher struct {
	service     LibraryService
	maxAttempts int
	retryDelay  time.Duration
	logger      *log.Logger
	collector   *metrics.Collector
}

// NewLibraryFetcher creates a fetcher from the given config.
func NewLibraryFetcher(cfg LibraryConfig) *LibraryFetcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}
	return &LibraryFetcher{
		service:     cfg.Service,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		logger:      cfg.Logger,
		collector:   cfg.Collector,
	}
}

// Fetch retrieves the owned-games list. onAttempt, when non-nil, is invoked
// with the 1-based attempt number before each try — the caller's "retrying"
// notice hook.
//
// The cancellation check is the first action after a failed attempt, before
// any sleep: switching accounts mid-retry must not leave a stale retry loop
// waiting out its delay. Exhausting the ceiling wraps ErrLibraryUnavailable;
// cancellation settles with the context's error.
func (f *LibraryFetcher) Fetch(ctx context.Context, accountID string, onAttempt func(attempt int)) ([]types.OwnedGame, error) {
	var lastErr error

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if onAttempt != nil {
			onAttempt(attempt)
		}
		f.collector.IncLibraryAttempt()

		games, err := f.service.OwnedGames(ctx, accountID)
		if err == nil {
			return games, nil
		}
		lastErr = err
		f.collector.IncLibraryFailure()
		f.logger.Warn("library fetch attempt failed", map[string]any{
			"attempt": attempt,
			"of":      f.maxAttempts,
			"error":   err.Error(),
		})

		// Cancellation first, before the delay.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == f.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.retryDelay):
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrLibraryUnavailable, f.maxAttempts, lastErr)
}
