package types

import "fmt"

// SessionPhase is the lifecycle phase of one connect sequence.
//
// Transitions are linear (Disconnected → Resolving → LoadingProfile →
// LoadingLibrary → Aggregating → Ready) except LoadingLibrary, which
// self-loops on retryable failure up to the fetcher's attempt ceiling.
// Any phase can fall to Failed.
type SessionPhase string

// Session phase constants.
const (
	PhaseDisconnected   SessionPhase = "disconnected"
	PhaseResolving      SessionPhase = "resolving"
	PhaseLoadingProfile SessionPhase = "loading_profile"
	PhaseLoadingLibrary SessionPhase = "loading_library"
	PhaseAggregating    SessionPhase = "aggregating"
	PhaseReady          SessionPhase = "ready"
	PhaseFailed         SessionPhase = "failed"
)

// Terminal reports whether the phase ends a sequence.
func (p SessionPhase) Terminal() bool {
	return p == PhaseReady || p == PhaseFailed
}

// SessionStatus is a point-in-time view of one connect sequence, published
// to observers on every phase change. Attempt is only meaningful during
// LoadingLibrary; Reason is only set for Failed.
type SessionStatus struct {
	// SessionID identifies the connect sequence the status belongs to.
	SessionID string `json:"session_id"`
	// Phase is the current lifecycle phase.
	Phase SessionPhase `json:"phase"`
	// Attempt is the 1-based library fetch attempt, 0 outside LoadingLibrary.
	Attempt int `json:"attempt,omitempty"`
	// Reason is the user-facing failure message, empty unless Failed.
	Reason string `json:"reason,omitempty"`
}

func (s SessionStatus) String() string {
	switch {
	case s.Phase == PhaseLoadingLibrary && s.Attempt > 1:
		return fmt.Sprintf("%s (attempt %d)", s.Phase, s.Attempt)
	case s.Phase == PhaseFailed && s.Reason != "":
		return fmt.Sprintf("%s: %s", s.Phase, s.Reason)
	default:
		return string(s.Phase)
	}
}
