// Package session sequences a connect: handle resolution, profile fetch,
// library fetch with retries, and the aggregation pass. It owns the
// per-sequence cancellation context and maps every failure mode to a single
// user-facing message.
package session

import "errors"

// Sentinel errors for sequence failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrIdentityNotFound indicates handle resolution failed.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrProfileUnavailable indicates the profile fetch failed or the
	// account exposes no player.
	ErrProfileUnavailable = errors.New("profile unavailable")

	// ErrLibraryUnavailable indicates the library fetch exhausted its
	// retry ceiling.
	ErrLibraryUnavailable = errors.New("library unavailable")
)

// Cancellation is not part of this taxonomy: a superseded sequence settles
// with the context's error and is abandoned silently, never surfaced.
