// Package cmd provides CLI commands for the patchfeed binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags for output-producing commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only the feed command supports TUI.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (feed only)",
	}

	// ConfigFlag points at a patchfeed.yaml config file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to patchfeed.yaml config file",
	}

	// APIKeyFlag supplies the Steam Web API key.
	APIKeyFlag = &cli.StringFlag{
		Name:    "api-key",
		Usage:   "Steam Web API key",
		EnvVars: []string{"STEAM_API_KEY"},
	}
)

// OutputFlags returns the shared flags for all output-producing commands.
// Includes --tui so that unsupported commands can provide explicit error
// messages instead of generic "flag not defined" errors.
func OutputFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// SteamFlags returns the flags every Steam-touching command needs.
func SteamFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		APIKeyFlag,
	}
}
