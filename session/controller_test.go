package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pithecene-io/patchfeed/steam"
	"github.com/pithecene-io/patchfeed/types"
)

// Canonical 17-digit handles used across controller tests.
const (
	handleA = "11111111111111111"
	handleB = "22222222222222222"
)

// fakeBoundary implements Boundary with pluggable behavior.
type fakeBoundary struct {
	resolve func(ctx context.Context, vanity string) (string, error)
	profile func(ctx context.Context, id string) (*types.Profile, error)
	games   func(ctx context.Context, id string) ([]types.OwnedGame, error)
	events  func(ctx context.Context, appID int64, filter types.FilterSpec) ([]types.UpdateEvent, error)
}

func (f *fakeBoundary) ResolveVanity(ctx context.Context, vanity string) (string, error) {
	if f.resolve == nil {
		return "", errors.New("unexpected resolve call")
	}
	return f.resolve(ctx, vanity)
}

func (f *fakeBoundary) PlayerSummary(ctx context.Context, id string) (*types.Profile, error) {
	if f.profile == nil {
		return &types.Profile{AccountID: id, PersonaName: "tester"}, nil
	}
	return f.profile(ctx, id)
}

func (f *fakeBoundary) OwnedGames(ctx context.Context, id string) ([]types.OwnedGame, error) {
	if f.games == nil {
		return nil, nil
	}
	return f.games(ctx, id)
}

func (f *fakeBoundary) GameEvents(ctx context.Context, appID int64, filter types.FilterSpec) ([]types.UpdateEvent, error) {
	if f.events == nil {
		return nil, nil
	}
	return f.events(ctx, appID, filter)
}

// statusRecorder collects phase notifications.
type statusRecorder struct {
	mu       sync.Mutex
	statuses []types.SessionStatus
}

func (r *statusRecorder) record(st types.SessionStatus) {
	r.mu.Lock()
	r.statuses = append(r.statuses, st)
	r.mu.Unlock()
}

func (r *statusRecorder) phases() []types.SessionPhase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.SessionPhase, len(r.statuses))
	for i, st := range r.statuses {
		out[i] = st.Phase
	}
	return out
}

func (r *statusRecorder) countPhase(p types.SessionPhase) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, st := range r.statuses {
		if st.Phase == p {
			n++
		}
	}
	return n
}

func TestConnect_HappyPath(t *testing.T) {
	fb := &fakeBoundary{
		games: func(_ context.Context, _ string) ([]types.OwnedGame, error) {
			return []types.OwnedGame{
				{AppID: 730, Name: "Counter-Strike 2"},
				{AppID: 570, Name: "Dota 2"},
			}, nil
		},
		events: func(_ context.Context, appID int64, _ types.FilterSpec) ([]types.UpdateEvent, error) {
			return []types.UpdateEvent{
				{GID: "g", AppID: appID, PostTime: appID * 10},
			}, nil
		},
	}
	rec := &statusRecorder{}
	c, err := NewController(Config{
		Boundary:   fb,
		RetryDelay: time.Millisecond,
		OnStatus:   rec.record,
	})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	if err := c.Connect(t.Context(), handleA); err != nil {
		t.Fatalf("connect: %v", err)
	}

	want := []types.SessionPhase{
		types.PhaseResolving,
		types.PhaseLoadingProfile,
		types.PhaseLoadingLibrary,
		types.PhaseAggregating,
		types.PhaseReady,
	}
	got := rec.phases()
	if len(got) != len(want) {
		t.Fatalf("expected phases %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected phases %v, got %v", want, got)
		}
	}

	fd := c.Feed()
	if len(fd) != 2 {
		t.Fatalf("expected 2 feed events, got %d", len(fd))
	}
	if fd[0].AppID != 730 || fd[1].AppID != 570 {
		t.Errorf("expected descending feed [7300, 5700], got [%d, %d]", fd[0].PostTime, fd[1].PostTime)
	}
	if p := c.Profile(); p == nil || p.PersonaName != "tester" {
		t.Errorf("expected profile published, got %+v", p)
	}
	if len(c.Games()) != 2 {
		t.Errorf("expected 2 games published")
	}
}

func TestConnect_EmptyLibrarySkipsAggregation(t *testing.T) {
	eventCalls := 0
	fb := &fakeBoundary{
		events: func(_ context.Context, _ int64, _ types.FilterSpec) ([]types.UpdateEvent, error) {
			eventCalls++
			return nil, nil
		},
	}
	rec := &statusRecorder{}
	c, _ := NewController(Config{Boundary: fb, RetryDelay: time.Millisecond, OnStatus: rec.record})

	if err := c.Connect(t.Context(), handleA); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if eventCalls != 0 {
		t.Errorf("expected no event fetches for empty library, got %d", eventCalls)
	}
	if rec.countPhase(types.PhaseAggregating) != 0 {
		t.Error("expected no Aggregating phase for empty library")
	}
	if got := c.Status().Phase; got != types.PhaseReady {
		t.Errorf("expected Ready, got %s", got)
	}
}

func TestConnect_IdentityFailure(t *testing.T) {
	fb := &fakeBoundary{
		resolve: func(_ context.Context, _ string) (string, error) {
			return "", &steam.APIError{Op: "resolve_vanity", Message: "No match"}
		},
	}
	rec := &statusRecorder{}
	c, _ := NewController(Config{Boundary: fb, OnStatus: rec.record})

	err := c.Connect(t.Context(), "nobody")
	if !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}

	st := c.Status()
	if st.Phase != types.PhaseFailed {
		t.Fatalf("expected Failed, got %s", st.Phase)
	}
	if st.Reason != "No match" {
		t.Errorf("expected upstream message verbatim, got %q", st.Reason)
	}
	if rec.countPhase(types.PhaseFailed) != 1 {
		t.Errorf("expected exactly one Failed notification, got %d", rec.countPhase(types.PhaseFailed))
	}
}

func TestConnect_ProfileFailureSurfacesUpstreamMessage(t *testing.T) {
	fb := &fakeBoundary{
		profile: func(_ context.Context, _ string) (*types.Profile, error) {
			return nil, &steam.APIError{Op: "player_summary", Message: "player not found"}
		},
	}
	c, _ := NewController(Config{Boundary: fb})

	err := c.Connect(t.Context(), handleA)
	if !errors.Is(err, ErrProfileUnavailable) {
		t.Fatalf("expected ErrProfileUnavailable, got %v", err)
	}
	if got := c.Status().Reason; got != "player not found" {
		t.Errorf("expected upstream message verbatim, got %q", got)
	}
}

func TestConnect_TimeoutWrappedBoundaryErrorIsAFailure(t *testing.T) {
	// An http.Client{Timeout} failure propagates context.DeadlineExceeded
	// through the boundary's error wrap. With a live sequence context that
	// is an ordinary failure, not a cancellation.
	fb := &fakeBoundary{
		profile: func(_ context.Context, _ string) (*types.Profile, error) {
			return nil, fmt.Errorf("player_summary: request failed: %w", context.DeadlineExceeded)
		},
	}
	rec := &statusRecorder{}
	c, _ := NewController(Config{Boundary: fb, OnStatus: rec.record})

	err := c.Connect(t.Context(), handleA)
	if !errors.Is(err, ErrProfileUnavailable) {
		t.Fatalf("expected ErrProfileUnavailable, got %v", err)
	}
	if got := c.Status().Phase; got != types.PhaseFailed {
		t.Fatalf("expected Failed, got %s", got)
	}
	if got := rec.countPhase(types.PhaseFailed); got != 1 {
		t.Errorf("expected exactly one Failed notification, got %d", got)
	}
	if got := c.Status().Reason; got != "could not load the account profile" {
		t.Errorf("expected profile failure reason, got %q", got)
	}
}

func TestConnect_FailureDiagnosticsLogged(t *testing.T) {
	var buf bytes.Buffer
	fb := &fakeBoundary{
		resolve: func(_ context.Context, _ string) (string, error) {
			return "", errors.New("resolve exploded")
		},
	}
	c, _ := NewController(Config{Boundary: fb, LogWriter: &buf})

	if err := c.Connect(t.Context(), "nobody"); err == nil {
		t.Fatal("expected connect error")
	}

	out := buf.String()
	if !strings.Contains(out, "connect sequence failed") {
		t.Errorf("expected failure diagnostic in log, got %q", out)
	}
	if !strings.Contains(out, "resolve exploded") {
		t.Errorf("expected underlying error in log, got %q", out)
	}
}

func TestConnect_LibraryRetryNoticesThenFailure(t *testing.T) {
	fb := &fakeBoundary{
		games: func(_ context.Context, _ string) ([]types.OwnedGame, error) {
			return nil, errors.New("store 502")
		},
	}
	rec := &statusRecorder{}
	c, _ := NewController(Config{
		Boundary:    fb,
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
		OnStatus:    rec.record,
	})

	err := c.Connect(t.Context(), handleA)
	if !errors.Is(err, ErrLibraryUnavailable) {
		t.Fatalf("expected ErrLibraryUnavailable, got %v", err)
	}
	if got := rec.countPhase(types.PhaseLoadingLibrary); got != 3 {
		t.Errorf("expected 3 retry notices, got %d", got)
	}
	if got := rec.countPhase(types.PhaseFailed); got != 1 {
		t.Errorf("expected exactly one Failed notification, got %d", got)
	}
}

func TestConnect_SupersededSequenceIsSilentAndCannotPublish(t *testing.T) {
	gate := make(chan struct{})
	fb := &fakeBoundary{
		games: func(_ context.Context, id string) ([]types.OwnedGame, error) {
			if id == handleA {
				return []types.OwnedGame{{AppID: 1, Name: "Stale Game"}}, nil
			}
			return []types.OwnedGame{{AppID: 2, Name: "Fresh Game"}}, nil
		},
		events: func(_ context.Context, appID int64, _ types.FilterSpec) ([]types.UpdateEvent, error) {
			if appID == 1 {
				// Hold sequence A in its aggregation pass until released.
				<-gate
			}
			return []types.UpdateEvent{{GID: "g", AppID: appID, PostTime: appID * 100}}, nil
		},
	}
	rec := &statusRecorder{}
	c, _ := NewController(Config{Boundary: fb, RetryDelay: time.Millisecond, OnStatus: rec.record})

	done := make(chan error, 1)
	go func() {
		done <- c.Connect(t.Context(), handleA)
	}()

	// Wait for sequence A to reach its aggregation pass.
	deadline := time.Now().Add(5 * time.Second)
	for c.Status().Phase != types.PhaseAggregating {
		if time.Now().After(deadline) {
			t.Fatal("sequence A never reached Aggregating")
		}
		time.Sleep(time.Millisecond)
	}

	// Supersede with sequence B and let it finish.
	if err := c.Connect(t.Context(), handleB); err != nil {
		t.Fatalf("connect B: %v", err)
	}

	// Release A; its late result must not overwrite B's.
	close(gate)
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected superseded sequence to settle with context.Canceled, got %v", err)
	}

	fd := c.Feed()
	if len(fd) != 1 || fd[0].AppID != 2 {
		t.Fatalf("stale aggregation overwrote newer state: %+v", fd)
	}
	if got := c.Games(); len(got) != 1 || got[0].Name != "Fresh Game" {
		t.Errorf("stale games list published: %+v", got)
	}
	// Superseded sequences are silent: no Failed notification for A.
	if got := rec.countPhase(types.PhaseFailed); got != 0 {
		t.Errorf("expected no Failed notifications, got %d", got)
	}
}

func TestDisconnect_ClearsState(t *testing.T) {
	fb := &fakeBoundary{
		games: func(_ context.Context, _ string) ([]types.OwnedGame, error) {
			return []types.OwnedGame{{AppID: 730}}, nil
		},
		events: func(_ context.Context, appID int64, _ types.FilterSpec) ([]types.UpdateEvent, error) {
			return []types.UpdateEvent{{GID: "g", AppID: appID, PostTime: 1}}, nil
		},
	}
	c, _ := NewController(Config{Boundary: fb, RetryDelay: time.Millisecond})

	if err := c.Connect(t.Context(), handleA); err != nil {
		t.Fatalf("connect: %v", err)
	}
	c.Disconnect()

	if got := c.Status().Phase; got != types.PhaseDisconnected {
		t.Errorf("expected Disconnected, got %s", got)
	}
	if len(c.Feed()) != 0 || len(c.Games()) != 0 || c.Profile() != nil {
		t.Error("expected published state cleared on disconnect")
	}
}
