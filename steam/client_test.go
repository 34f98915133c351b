package steam

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pithecene-io/patchfeed/types"
)

// testClient creates a client pointed at the given test server for both
// the web API and store endpoints.
func testClient(t *testing.T, ts *httptest.Server) *Client {
	t.Helper()
	c, err := New(Config{APIKey: "test-key", WebAPIBase: ts.URL, StoreBase: ts.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestResolveVanity_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("vanityurl"); got != "gaben" {
			t.Errorf("expected vanityurl=gaben, got %s", got)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("expected key pass-through, got %s", got)
		}
		fmt.Fprint(w, `{"response":{"success":1,"steamid":"76561197960287930"}}`)
	}))
	defer ts.Close()

	id, err := testClient(t, ts).ResolveVanity(t.Context(), "gaben")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != "76561197960287930" {
		t.Errorf("expected 76561197960287930, got %s", id)
	}
}

func TestResolveVanity_NoMatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"response":{"success":42,"message":"No match"}}`)
	}))
	defer ts.Close()

	_, err := testClient(t, ts).ResolveVanity(t.Context(), "nobody")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Message != "No match" {
		t.Errorf("expected upstream message preserved, got %q", apiErr.Message)
	}
}

func TestPlayerSummary_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"response":{"players":[{"steamid":"76561197960287930","personaname":"Rabscuttle","avatarfull":"https://avatars.example/full.jpg","profileurl":"https://steamcommunity.com/id/gaben/"}]}}`)
	}))
	defer ts.Close()

	p, err := testClient(t, ts).PlayerSummary(t.Context(), "76561197960287930")
	if err != nil {
		t.Fatalf("player summary: %v", err)
	}
	if p.PersonaName != "Rabscuttle" {
		t.Errorf("expected Rabscuttle, got %s", p.PersonaName)
	}
	if p.AccountID != "76561197960287930" {
		t.Errorf("unexpected account id %s", p.AccountID)
	}
}

func TestPlayerSummary_NoPlayers(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"response":{"players":[]}}`)
	}))
	defer ts.Close()

	_, err := testClient(t, ts).PlayerSummary(t.Context(), "76561197960287930")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError for empty players, got %v", err)
	}
}

func TestOwnedGames_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("include_appinfo"); got != "true" {
			t.Errorf("expected include_appinfo=true, got %s", got)
		}
		fmt.Fprint(w, `{"response":{"game_count":2,"games":[
			{"appid":730,"name":"Counter-Strike 2","playtime_forever":2847,"img_icon_url":"hash730"},
			{"appid":570,"name":"Dota 2","playtime_forever":1523,"img_icon_url":"hash570"}]}}`)
	}))
	defer ts.Close()

	games, err := testClient(t, ts).OwnedGames(t.Context(), "76561197960287930")
	if err != nil {
		t.Fatalf("owned games: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(games))
	}
	if games[0].AppID != 730 || games[0].Name != "Counter-Strike 2" {
		t.Errorf("unexpected first game: %+v", games[0])
	}
	if games[1].PlaytimeMinutes != 1523 {
		t.Errorf("expected playtime 1523, got %d", games[1].PlaytimeMinutes)
	}
}

func TestOwnedGames_PrivateLibraryIsEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"response":{}}`)
	}))
	defer ts.Close()

	games, err := testClient(t, ts).OwnedGames(t.Context(), "76561197960287930")
	if err != nil {
		t.Fatalf("owned games: %v", err)
	}
	if len(games) != 0 {
		t.Errorf("expected empty list for private library, got %d games", len(games))
	}
}

func TestOwnedGames_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := testClient(t, ts).OwnedGames(t.Context(), "76561197960287930")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", statusErr.Code)
	}
}

func TestGameEvents_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("count_before"); got != "0" {
			t.Errorf("expected count_before=0, got %s", got)
		}
		if got := q.Get("count_after"); got != "3" {
			t.Errorf("expected count_after=3, got %s", got)
		}
		if got := q.Get("event_type_filter"); got != "13,14" {
			t.Errorf("expected event_type_filter=13,14, got %s", got)
		}
		fmt.Fprint(w, `{"success":1,"events":[
			{"gid":"g1","appid":730,"event_name":"Update 1","announcement_body":{"headline":"Patch 1.2","body":"fixes","posttime":1700000000}},
			{"gid":"g2","event_name":"Hotfix","announcement_body":{"body":"more fixes","posttime":0}}]}`)
	}))
	defer ts.Close()

	events, err := testClient(t, ts).GameEvents(t.Context(), 730, types.DefaultFilter())
	if err != nil {
		t.Fatalf("game events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Title != "Patch 1.2" || events[0].PostTime != 1700000000 {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	// Missing appid falls back to the request's app; missing headline to event_name.
	if events[1].AppID != 730 {
		t.Errorf("expected appid fallback to 730, got %d", events[1].AppID)
	}
	if events[1].Title != "Hotfix" {
		t.Errorf("expected title fallback to event_name, got %s", events[1].Title)
	}
	if events[1].Admissible() {
		t.Error("event with posttime 0 must not be admissible")
	}
}

func TestGameEvents_UnsuccessfulPayloadIsEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"success":2}`)
	}))
	defer ts.Close()

	events, err := testClient(t, ts).GameEvents(t.Context(), 730, types.DefaultFilter())
	if err != nil {
		t.Fatalf("game events: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events for success!=1, got %d", len(events))
	}
}
