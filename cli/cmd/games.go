package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/patchfeed/cli/render"
	"github.com/pithecene-io/patchfeed/session"
	"github.com/pithecene-io/patchfeed/types"
)

// GameRow is one row of the rendered owned-game list.
type GameRow struct {
	AppID    int64  `json:"appid"`
	Name     string `json:"name"`
	Playtime string `json:"playtime"`
	Icon     string `json:"icon,omitempty"`
}

// GamesCommand returns the games command.
func GamesCommand() *cli.Command {
	return &cli.Command{
		Name:      "games",
		Usage:     "List the owned games of an account",
		ArgsUsage: "<handle>",
		Flags:     append(OutputFlags(), SteamFlags()...),
		Action:    gamesAction,
	}
}

func gamesAction(c *cli.Context) error {
	s, err := resolveSettings(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for the games command", exitFailure)
	}

	client, err := s.steamClient()
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	ctx := context.Background()

	resolver := session.NewResolver(client)
	accountID, err := resolver.Resolve(ctx, s.handle)
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot resolve %q: %v", s.handle, err), exitIdentity)
	}

	fetcher := session.NewLibraryFetcher(session.LibraryConfig{
		Service:     client,
		MaxAttempts: s.maxAttempts,
		RetryDelay:  s.retryDelay,
	})
	games, err := fetcher.Fetch(ctx, accountID, nil)
	if err != nil {
		return cli.Exit(err.Error(), exitUnavailable)
	}

	return r.Render(gameRows(games))
}

func gameRows(games []types.OwnedGame) []GameRow {
	rows := make([]GameRow, 0, len(games))
	for _, g := range games {
		rows = append(rows, GameRow{
			AppID:    g.AppID,
			Name:     g.Name,
			Playtime: formatPlaytime(g.PlaytimeMinutes),
			Icon:     g.IconURL(),
		})
	}
	return rows
}

func formatPlaytime(minutes int64) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%.1fh", float64(minutes)/60)
}
