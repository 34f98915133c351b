package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/patchfeed/cli/render"
	"github.com/pithecene-io/patchfeed/session"
)

// ResolveResponse is the response for the resolve command.
type ResolveResponse struct {
	Handle    string `json:"handle"`
	AccountID string `json:"account_id"`
	Canonical bool   `json:"canonical"`
}

// ResolveCommand returns the resolve command, a diagnostic that maps a
// handle to its canonical account id without touching the library.
func ResolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve a handle to its canonical account id",
		ArgsUsage: "<handle>",
		Flags:     append(OutputFlags(), SteamFlags()...),
		Action:    resolveAction,
	}
}

func resolveAction(c *cli.Context) error {
	s, err := resolveSettings(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for the resolve command", exitFailure)
	}

	client, err := s.steamClient()
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	resolver := session.NewResolver(client)
	accountID, err := resolver.Resolve(context.Background(), s.handle)
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot resolve %q: %v", s.handle, err), exitIdentity)
	}

	return r.Render(ResolveResponse{
		Handle:    s.handle,
		AccountID: accountID,
		Canonical: session.IsCanonicalID(s.handle),
	})
}
