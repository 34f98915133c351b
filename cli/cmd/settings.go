package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/patchfeed/adapter"
	adapterredis "github.com/pithecene-io/patchfeed/adapter/redis"
	"github.com/pithecene-io/patchfeed/adapter/webhook"
	"github.com/pithecene-io/patchfeed/cli/config"
	"github.com/pithecene-io/patchfeed/session"
	"github.com/pithecene-io/patchfeed/steam"
	"github.com/pithecene-io/patchfeed/types"
)

// settings is the merged view of config file values and CLI flags.
// Flags always override config values.
type settings struct {
	apiKey      string
	handle      string
	capacity    int
	countAfter  int
	typeFilter  string
	maxAttempts int
	retryDelay  time.Duration
	steam       config.SteamConfig
	adapter     config.AdapterConfig
}

// resolveSettings loads the optional config file and overlays CLI flags.
// The handle comes from the first positional argument, falling back to the
// config file.
func resolveSettings(c *cli.Context) (*settings, error) {
	cfg := &config.Config{}
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	s := &settings{
		apiKey:      cfg.APIKey,
		handle:      cfg.Handle,
		capacity:    cfg.Capacity,
		countAfter:  cfg.CountAfter,
		typeFilter:  cfg.EventTypeFilter,
		maxAttempts: cfg.Library.MaxAttempts,
		retryDelay:  cfg.Library.RetryDelay.Duration,
		steam:       cfg.Steam,
		adapter:     cfg.Adapter,
	}

	if c.String("api-key") != "" {
		s.apiKey = c.String("api-key")
	}
	if c.Args().Len() > 0 {
		s.handle = c.Args().First()
	}
	if c.IsSet("capacity") {
		s.capacity = c.Int("capacity")
	}
	if c.IsSet("count-after") {
		s.countAfter = c.Int("count-after")
	}
	if c.IsSet("event-type-filter") {
		s.typeFilter = c.String("event-type-filter")
	}

	if s.apiKey == "" {
		return nil, fmt.Errorf("a Steam Web API key is required (--api-key, STEAM_API_KEY, or api_key in the config file)")
	}
	if s.handle == "" {
		return nil, fmt.Errorf("a handle is required (argument or handle in the config file)")
	}

	return s, nil
}

// controllerConfig builds the session controller config from resolved
// settings. Unset knobs fall through to the controller's own defaults.
func (s *settings) controllerConfig(boundary session.Boundary, onStatus func(types.SessionStatus), logWriter io.Writer) session.Config {
	filter := types.DefaultFilter()
	if s.countAfter > 0 {
		filter.CountAfter = s.countAfter
	}
	if s.typeFilter != "" {
		filter.TypeFilter = s.typeFilter
	}

	return session.Config{
		Boundary:    boundary,
		Capacity:    s.capacity,
		Filter:      filter,
		MaxAttempts: s.maxAttempts,
		RetryDelay:  s.retryDelay,
		OnStatus:    onStatus,
		LogWriter:   logWriter,
	}
}

// steamClient builds the Steam API client from resolved settings.
func (s *settings) steamClient() (*steam.Client, error) {
	return steam.New(steam.Config{
		APIKey:     s.apiKey,
		WebAPIBase: s.steam.WebAPIBase,
		StoreBase:  s.steam.StoreBase,
		Timeout:    s.steam.Timeout.Duration,
	})
}

// publisher builds the configured adapter, or nil when none is configured.
func (s *settings) publisher() (adapter.Publisher, error) {
	switch s.adapter.Type {
	case "":
		return nil, nil

	case "webhook":
		retries := webhook.DefaultRetries
		if s.adapter.Retries != nil {
			retries = *s.adapter.Retries
		}
		return webhook.New(webhook.Config{
			URL:     s.adapter.URL,
			Headers: s.adapter.Headers,
			Timeout: s.adapter.Timeout.Duration,
			Retries: retries,
		})

	case "redis":
		retries := adapterredis.DefaultRetries
		if s.adapter.Retries != nil {
			retries = *s.adapter.Retries
		}
		return adapterredis.New(adapterredis.Config{
			URL:     s.adapter.URL,
			Channel: s.adapter.Channel,
			Timeout: s.adapter.Timeout.Duration,
			Retries: retries,
		})

	default:
		return nil, fmt.Errorf("unknown adapter type: %s (must be webhook or redis)", s.adapter.Type)
	}
}
