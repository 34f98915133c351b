package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/patchfeed/types"
)

func TestFeedModel_ProgressView(t *testing.T) {
	m := NewFeedModel("gabelogannewell")

	updated, _ := m.Update(StatusMsg{Phase: types.PhaseLoadingLibrary, Attempt: 3})
	m = updated.(FeedModel)

	view := m.View()
	if !strings.Contains(view, "gabelogannewell") {
		t.Errorf("view should contain the handle, got:\n%s", view)
	}
	if !strings.Contains(view, "loading_library (attempt 3)") {
		t.Errorf("view should show the library retry attempt, got:\n%s", view)
	}
}

func TestFeedModel_ReadyView(t *testing.T) {
	m := NewFeedModel("gabelogannewell")

	updated, _ := m.Update(ReadyMsg{
		Profile: types.Profile{PersonaName: "Rabscuttle"},
		Games:   12,
		Feed: []types.UpdateEvent{
			{GID: "1", AppID: 730, Title: "Patch notes", GameName: "Counter-Strike 2", PostTime: 1700000000},
		},
	})
	m = updated.(FeedModel)

	view := m.View()
	if !strings.Contains(view, "Rabscuttle") {
		t.Errorf("view should show the persona name, got:\n%s", view)
	}
	if !strings.Contains(view, "12 games") {
		t.Errorf("view should show the library size, got:\n%s", view)
	}
	if !strings.Contains(view, "Counter-Strike 2") {
		t.Errorf("view should list the game, got:\n%s", view)
	}
	if !strings.Contains(view, "Patch notes") {
		t.Errorf("view should list the update title, got:\n%s", view)
	}
}

func TestFeedModel_ReadyView_EmptyFeed(t *testing.T) {
	m := NewFeedModel("gabelogannewell")

	updated, _ := m.Update(ReadyMsg{Games: 2})
	m = updated.(FeedModel)

	if !strings.Contains(m.View(), "(no recent updates)") {
		t.Errorf("empty feed should render placeholder, got:\n%s", m.View())
	}
}

func TestFeedModel_FailedView(t *testing.T) {
	m := NewFeedModel("gabelogannewell")

	updated, _ := m.Update(StatusMsg{Phase: types.PhaseFailed, Reason: "could not resolve that handle to an account"})
	m = updated.(FeedModel)

	if !strings.Contains(m.View(), "could not resolve that handle to an account") {
		t.Errorf("failed view should show the reason, got:\n%s", m.View())
	}
}

func TestFeedModel_FailedMsgWithoutStatus(t *testing.T) {
	m := NewFeedModel("gabelogannewell")

	updated, _ := m.Update(FailedMsg{Err: errors.New("connection failed, try again later")})
	m = updated.(FeedModel)

	if !strings.Contains(m.View(), "connection failed, try again later") {
		t.Errorf("failed view should fall back to the error text, got:\n%s", m.View())
	}
}

func TestFeedModel_QuitKey(t *testing.T) {
	m := NewFeedModel("gabelogannewell")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m = updated.(FeedModel)

	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if m.View() != "" {
		t.Errorf("quitting model should render empty view, got %q", m.View())
	}
}

func TestFeedModel_Scroll(t *testing.T) {
	m := NewFeedModel("gabelogannewell")

	feed := make([]types.UpdateEvent, 3)
	for i := range feed {
		feed[i] = types.UpdateEvent{GID: string(rune('a' + i)), AppID: int64(i), PostTime: 100}
	}
	updated, _ := m.Update(ReadyMsg{Games: 3, Feed: feed})
	m = updated.(FeedModel)

	// Down twice moves the window; up once moves it back.
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(FeedModel)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(FeedModel)
	if m.offset != 2 {
		t.Errorf("expected offset=2 after two downs, got %d", m.offset)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = updated.(FeedModel)
	if m.offset != 1 {
		t.Errorf("expected offset=1 after up, got %d", m.offset)
	}

	// Down is clamped at the end of the feed.
	for i := 0; i < 10; i++ {
		updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
		m = updated.(FeedModel)
	}
	if m.offset != len(feed)-1 {
		t.Errorf("expected offset clamped to %d, got %d", len(feed)-1, m.offset)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"much too long for the column", 8, "much to…"},
		{"x", 1, "x"},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}
