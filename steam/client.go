// Package steam implements HTTP clients for the Steam Web API boundary.
//
// Every response crosses into the core as an explicit typed envelope;
// nothing downstream inspects raw JSON. The client itself never retries —
// retry policy belongs to the callers that own it (see session.LibraryFetcher).
package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pithecene-io/patchfeed/iox"
	"github.com/pithecene-io/patchfeed/types"
)

// Default service endpoints.
const (
	DefaultWebAPIBase = "https://api.steampowered.com"
	DefaultStoreBase  = "https://store.steampowered.com"
)

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 15 * time.Second

// Config configures the Steam API client.
type Config struct {
	// APIKey is the caller-supplied Steam Web API key (required).
	// It is passed through verbatim; the client performs no auth of its own.
	APIKey string
	// WebAPIBase overrides the Web API base URL (tests).
	WebAPIBase string
	// StoreBase overrides the store events base URL (tests).
	StoreBase string
	// Timeout is the per-request timeout (default 15s).
	Timeout time.Duration
}

// Client issues requests against the Steam Web API and store endpoints.
// It is stateless and safe for concurrent use.
type Client struct {
	config Config
	client *http.Client
}

// New creates a Steam API client from the given config.
// Returns an error if the API key is empty.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("steam client requires an API key")
	}
	if cfg.WebAPIBase == "" {
		cfg.WebAPIBase = DefaultWebAPIBase
	}
	if cfg.StoreBase == "" {
		cfg.StoreBase = DefaultStoreBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// resolveVanityResponse is the ResolveVanityURL envelope.
type resolveVanityResponse struct {
	Response struct {
		Success int    `json:"success"`
		SteamID string `json:"steamid"`
		Message string `json:"message"`
	} `json:"response"`
}

// ResolveVanity resolves a vanity name to a canonical SteamID64.
// A response without success=1 or without a steamid yields an *APIError
// carrying the upstream message when one was supplied.
func (c *Client) ResolveVanity(ctx context.Context, vanity string) (string, error) {
	q := url.Values{
		"key":       {c.config.APIKey},
		"vanityurl": {vanity},
	}

	var resp resolveVanityResponse
	if err := c.getJSON(ctx, "resolve_vanity",
		c.config.WebAPIBase+"/ISteamUser/ResolveVanityURL/v1/", q, &resp); err != nil {
		return "", err
	}

	if resp.Response.Success != 1 || resp.Response.SteamID == "" {
		return "", &APIError{Op: "resolve_vanity", Message: resp.Response.Message}
	}
	return resp.Response.SteamID, nil
}

// playerSummaryResponse is the GetPlayerSummaries envelope.
type playerSummaryResponse struct {
	Response struct {
		Players []struct {
			SteamID     string `json:"steamid"`
			PersonaName string `json:"personaname"`
			AvatarFull  string `json:"avatarfull"`
			ProfileURL  string `json:"profileurl"`
		} `json:"players"`
	} `json:"response"`
}

// PlayerSummary fetches the public profile for a canonical account id.
// An empty players list is a failure: the account either does not exist
// or exposes nothing.
func (c *Client) PlayerSummary(ctx context.Context, steamID string) (*types.Profile, error) {
	q := url.Values{
		"key":      {c.config.APIKey},
		"steamids": {steamID},
	}

	var resp playerSummaryResponse
	if err := c.getJSON(ctx, "player_summary",
		c.config.WebAPIBase+"/ISteamUser/GetPlayerSummaries/v0002/", q, &resp); err != nil {
		return nil, err
	}

	if len(resp.Response.Players) == 0 {
		return nil, &APIError{Op: "player_summary", Message: "player not found"}
	}

	p := resp.Response.Players[0]
	return &types.Profile{
		AccountID:   p.SteamID,
		PersonaName: p.PersonaName,
		AvatarURL:   p.AvatarFull,
		ProfileURL:  p.ProfileURL,
	}, nil
}

// ownedGamesResponse is the GetOwnedGames envelope.
type ownedGamesResponse struct {
	Response struct {
		Games []struct {
			AppID           int64  `json:"appid"`
			Name            string `json:"name"`
			PlaytimeForever int64  `json:"playtime_forever"`
			ImgIconURL      string `json:"img_icon_url"`
		} `json:"games"`
	} `json:"response"`
}

// OwnedGames fetches the account's owned-game list.
// A response without a games array (private library) is an empty list,
// not an error.
func (c *Client) OwnedGames(ctx context.Context, steamID string) ([]types.OwnedGame, error) {
	q := url.Values{
		"key":             {c.config.APIKey},
		"steamid":         {steamID},
		"include_appinfo": {"true"},
	}

	var resp ownedGamesResponse
	if err := c.getJSON(ctx, "owned_games",
		c.config.WebAPIBase+"/IPlayerService/GetOwnedGames/v1/", q, &resp); err != nil {
		return nil, err
	}

	games := make([]types.OwnedGame, 0, len(resp.Response.Games))
	for _, g := range resp.Response.Games {
		games = append(games, types.OwnedGame{
			AppID:           g.AppID,
			Name:            g.Name,
			PlaytimeMinutes: g.PlaytimeForever,
			IconHash:        g.ImgIconURL,
		})
	}
	return games, nil
}

// gameEventsResponse is the ajaxgetadjacentpartnerevents envelope.
type gameEventsResponse struct {
	Success int `json:"success"`
	Events  []struct {
		GID              string `json:"gid"`
		AppID            int64  `json:"appid"`
		EventName        string `json:"event_name"`
		AnnouncementBody struct {
			Headline string `json:"headline"`
			Body     string `json:"body"`
			PostTime int64  `json:"posttime"`
		} `json:"announcement_body"`
	} `json:"events"`
}

// GameEvents fetches recent update events for one game.
// The store endpoint needs no API key. A 2xx response without success=1
// means "no events", not a transport failure.
func (c *Client) GameEvents(ctx context.Context, appID int64, filter types.FilterSpec) ([]types.UpdateEvent, error) {
	q := url.Values{
		"appid":             {strconv.FormatInt(appID, 10)},
		"count_before":      {"0"},
		"count_after":       {strconv.Itoa(filter.CountAfter)},
		"event_type_filter": {filter.TypeFilter},
	}

	var resp gameEventsResponse
	if err := c.getJSON(ctx, "game_events",
		c.config.StoreBase+"/events/ajaxgetadjacentpartnerevents/", q, &resp); err != nil {
		return nil, err
	}

	if resp.Success != 1 {
		return nil, nil
	}

	events := make([]types.UpdateEvent, 0, len(resp.Events))
	for _, ev := range resp.Events {
		title := ev.AnnouncementBody.Headline
		if title == "" {
			title = ev.EventName
		}
		evAppID := ev.AppID
		if evAppID == 0 {
			// Some event payloads omit appid; the request scoped it.
			evAppID = appID
		}
		events = append(events, types.UpdateEvent{
			GID:      ev.GID,
			AppID:    evAppID,
			Title:    title,
			Body:     ev.AnnouncementBody.Body,
			PostTime: ev.AnnouncementBody.PostTime,
		})
	}
	return events, nil
}

// getJSON performs a GET request and decodes the JSON response.
// Non-2xx responses become a *StatusError.
func (c *Client) getJSON(ctx context.Context, op, base string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer iox.DiscardClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain body to allow connection reuse
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Op: op, Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
