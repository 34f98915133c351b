package types

import "fmt"

// iconBaseURL is the Steam CDN prefix for per-app icon images.
const iconBaseURL = "https://media.steampowered.com/steamcommunity/public/images/apps"

// OwnedGame is one entry in an account's owned-game list.
// The list is replaced wholesale on each successful library fetch;
// individual entries are never mutated after that.
type OwnedGame struct {
	// AppID is the stable Steam application id.
	AppID int64 `json:"appid"`
	// Name is the game's display name.
	Name string `json:"name"`
	// PlaytimeMinutes is the account's total playtime for this game.
	PlaytimeMinutes int64 `json:"playtime_minutes"`
	// IconHash is the raw icon image hash from the library service.
	// Empty when the service omits it.
	IconHash string `json:"icon_hash,omitempty"`
}

// IconURL derives the CDN URL for the game's icon.
// Returns empty string when no icon hash is known.
func (g OwnedGame) IconURL() string {
	if g.IconHash == "" {
		return ""
	}
	return fmt.Sprintf("%s/%d/%s.jpg", iconBaseURL, g.AppID, g.IconHash)
}

// Profile is the resolved account profile shown alongside the feed.
type Profile struct {
	// AccountID is the canonical SteamID64.
	AccountID string `json:"steamid"`
	// PersonaName is the account's display name.
	PersonaName string `json:"personaname"`
	// AvatarURL is the full-size avatar image URL.
	AvatarURL string `json:"avatar_url,omitempty"`
	// ProfileURL is the public profile page URL.
	ProfileURL string `json:"profile_url,omitempty"`
}
