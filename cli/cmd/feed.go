package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/patchfeed/adapter"
	"github.com/pithecene-io/patchfeed/cli/render"
	"github.com/pithecene-io/patchfeed/cli/tui"
	"github.com/pithecene-io/patchfeed/log"
	"github.com/pithecene-io/patchfeed/metrics"
	"github.com/pithecene-io/patchfeed/session"
	"github.com/pithecene-io/patchfeed/types"
)

// Exit codes for the feed command.
const (
	exitSuccess     = 0
	exitFailure     = 1
	exitIdentity    = 2
	exitUnavailable = 3
)

// FeedItem is one row of the rendered update feed.
type FeedItem struct {
	Posted string `json:"posted"`
	Game   string `json:"game"`
	Title  string `json:"title"`
	AppID  int64  `json:"appid"`
	GID    string `json:"gid"`
}

// FeedCommand returns the feed command.
// This is the only command that runs a full connect sequence.
func FeedCommand() *cli.Command {
	return &cli.Command{
		Name:      "feed",
		Usage:     "Aggregate recent game updates for an account",
		ArgsUsage: "<handle>",
		Flags: append(append(OutputFlags(), SteamFlags()...),
			&cli.IntFlag{
				Name:  "capacity",
				Usage: "Number of updates to keep in the feed",
			},
			&cli.IntFlag{
				Name:  "count-after",
				Usage: "Events requested per game",
			},
			&cli.StringFlag{
				Name:  "event-type-filter",
				Usage: "Comma-separated event type filter",
			},
			&cli.BoolFlag{
				Name:  "show-metrics",
				Usage: "Print aggregation counters after the feed",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Emit JSON diagnostics to stderr",
			},
		),
		Action: feedAction,
	}
}

func feedAction(c *cli.Context) error {
	s, err := resolveSettings(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	client, err := s.steamClient()
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	pub, err := s.publisher()
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}
	if pub != nil {
		defer func() { _ = pub.Close() }()
	}

	// Set up context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if c.Bool("tui") {
		return runFeedTUI(ctx, c, s, client, pub)
	}

	ctrl, err := session.NewController(s.controllerConfig(client, progressNotifier(), logWriter(c)))
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	diag := feedDiagnostics(logWriter(c), s.handle)
	diag.Debugf("connecting with capacity=%d count_after=%d", s.capacity, s.countAfter)

	started := time.Now()
	if err := ctrl.Connect(ctx, s.handle); err != nil {
		msg := ctrl.Status().Reason
		if msg == "" {
			msg = err.Error()
		}
		return cli.Exit(msg, failureExitCode(err))
	}
	duration := time.Since(started)
	diag.Infof("connect sequence settled in %s, %d games, %d events kept",
		duration.Round(time.Millisecond), len(ctrl.Games()), len(ctrl.Feed()))

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	feedEvents := ctrl.Feed()
	if err := r.Render(feedItems(feedEvents)); err != nil {
		return err
	}

	if c.Bool("show-metrics") {
		printFeedMetrics(ctrl.Metrics(), len(ctrl.Games()), duration)
	}

	if pub != nil {
		if err := publishRefresh(ctx, pub, ctrl, s.handle, duration); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: adapter publish failed: %v\n", err)
		}
	}

	return nil
}

// runFeedTUI drives the connect sequence under the Bubble Tea dashboard.
func runFeedTUI(ctx context.Context, c *cli.Context, s *settings, client session.Boundary, pub adapter.Publisher) error {
	diag := feedDiagnostics(logWriter(c), s.handle)
	return tui.RunFeedTUI(s.handle, func(notify func(types.SessionStatus)) (tui.Result, error) {
		ctrl, err := session.NewController(s.controllerConfig(client, notify, logWriter(c)))
		if err != nil {
			return tui.Result{}, err
		}

		started := time.Now()
		if err := ctrl.Connect(ctx, s.handle); err != nil {
			return tui.Result{}, err
		}

		if pub != nil {
			// The dashboard owns the terminal here, so a raw stderr
			// warning would garble it. Surface through diagnostics.
			if err := publishRefresh(ctx, pub, ctrl, s.handle, time.Since(started)); err != nil {
				diag.Warnf("adapter publish failed: %v", err)
			}
		}

		var profile types.Profile
		if p := ctrl.Profile(); p != nil {
			profile = *p
		}
		return tui.Result{
			Profile: profile,
			Games:   len(ctrl.Games()),
			Feed:    ctrl.Feed(),
		}, nil
	})
}

// progressNotifier prints phase transitions to stderr when it is a TTY,
// so piped output stays clean.
func progressNotifier() func(types.SessionStatus) {
	if !isStderrTTY() {
		return nil
	}
	return func(st types.SessionStatus) {
		if st.Phase == types.PhaseReady || st.Phase == types.PhaseDisconnected {
			return
		}
		fmt.Fprintf(os.Stderr, "… %s\n", st)
	}
}

func feedItems(events []types.UpdateEvent) []FeedItem {
	items := make([]FeedItem, 0, len(events))
	for _, ev := range events {
		items = append(items, FeedItem{
			Posted: time.Unix(ev.PostTime, 0).UTC().Format("2006-01-02"),
			Game:   ev.GameName,
			Title:  ev.Title,
			AppID:  ev.AppID,
			GID:    ev.GID,
		})
	}
	return items
}

func printFeedMetrics(snap metrics.Snapshot, games int, duration time.Duration) {
	fmt.Fprintf(os.Stderr, "\n=== Aggregation ===\n")
	fmt.Fprintf(os.Stderr, "Games:            %d\n", games)
	fmt.Fprintf(os.Stderr, "Games Queried:    %d\n", snap.GamesQueried)
	fmt.Fprintf(os.Stderr, "Fetch Failures:   %d\n", snap.GameFetchFailures)
	fmt.Fprintf(os.Stderr, "Events Received:  %d\n", snap.EventsReceived)
	fmt.Fprintf(os.Stderr, "Inadmissible:     %d\n", snap.EventsInadmissible)
	fmt.Fprintf(os.Stderr, "Deduped:          %d\n", snap.EventsDeduped)
	fmt.Fprintf(os.Stderr, "Admitted:         %d\n", snap.EventsAdmitted)
	fmt.Fprintf(os.Stderr, "Library Attempts: %d\n", snap.LibraryAttempts)
	fmt.Fprintf(os.Stderr, "Duration:         %s\n", duration.Round(time.Millisecond))
}

// publishRefresh notifies the configured adapter that a fresh feed exists.
func publishRefresh(ctx context.Context, pub adapter.Publisher, ctrl *session.Controller, handle string, duration time.Duration) error {
	feedEvents := ctrl.Feed()
	st := ctrl.Status()

	event := &adapter.FeedRefreshedEvent{
		EventType:  "feed_refreshed",
		SessionID:  st.SessionID,
		Handle:     handle,
		Games:      len(ctrl.Games()),
		EventsKept: len(feedEvents),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		DurationMs: duration.Milliseconds(),
	}
	if p := ctrl.Profile(); p != nil {
		event.AccountID = p.AccountID
	}
	if len(feedEvents) > 0 {
		event.NewestPostTime = feedEvents[0].PostTime
	}

	return pub.Publish(ctx, event)
}

// failureExitCode maps a settled connect error to the process exit code.
func failureExitCode(err error) int {
	switch {
	case errors.Is(err, session.ErrIdentityNotFound):
		return exitIdentity
	case errors.Is(err, session.ErrProfileUnavailable), errors.Is(err, session.ErrLibraryUnavailable):
		return exitUnavailable
	default:
		return exitFailure
	}
}

// feedDiagnostics builds the printf-style logger for the command surface
// itself, outside any connect sequence. A nil writer silences it.
func feedDiagnostics(w io.Writer, handle string) *log.SugaredLogger {
	if w == nil {
		return log.Nop().Sugar()
	}
	return log.Nop().WithOutput(w).Sugar().With("handle", handle, "command", "feed")
}

// logWriter returns the diagnostics destination, nil unless --verbose.
func logWriter(c *cli.Context) io.Writer {
	if c.Bool("verbose") {
		return os.Stderr
	}
	return nil
}

// isStderrTTY returns true if stderr is a TTY.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
