package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/patchfeed/types"
)

// Result is the payload delivered to the TUI when a session reaches ready.
type Result struct {
	Profile types.Profile
	Games   int
	Feed    []types.UpdateEvent
}

// StatusMsg carries a session status notification into the TUI.
type StatusMsg types.SessionStatus

// ReadyMsg carries the finished session payload into the TUI.
type ReadyMsg Result

// FailedMsg carries a terminal session error into the TUI.
type FailedMsg struct {
	Err error
}

// FeedModel is a Bubble Tea model for the live feed dashboard.
type FeedModel struct {
	handle   string
	spinner  spinner.Model
	status   types.SessionStatus
	result   Result
	err      error
	offset   int
	width    int
	height   int
	quitting bool
}

// NewFeedModel creates a feed dashboard model for the given handle.
func NewFeedModel(handle string) FeedModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)
	return FeedModel{
		handle:  handle,
		spinner: sp,
		status:  types.SessionStatus{Phase: types.PhaseResolving},
	}
}

// Init implements tea.Model.
func (m FeedModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m FeedModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.offset > 0 {
				m.offset--
			}
			return m, nil
		case key.Matches(msg, keys.Down):
			if m.offset < len(m.result.Feed)-1 {
				m.offset++
			}
			return m, nil
		}
		return m, nil

	case StatusMsg:
		m.status = types.SessionStatus(msg)
		return m, nil

	case ReadyMsg:
		m.result = Result(msg)
		m.status.Phase = types.PhaseReady
		return m, nil

	case FailedMsg:
		m.err = msg.Err
		m.status.Phase = types.PhaseFailed
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m FeedModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.status.Phase {
	case types.PhaseReady:
		content = m.renderFeed()
	case types.PhaseFailed:
		content = m.renderFailure()
	default:
		content = m.renderProgress()
	}

	help := HelpStyle.Render("↑/↓ scroll · q quit")
	return content + "\n" + help
}

func (m FeedModel) renderProgress() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("patchfeed · " + m.handle))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), m.status.String()))
	return BoxStyle.Render(b.String())
}

func (m FeedModel) renderFailure() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("patchfeed · " + m.handle))
	b.WriteString("\n\n")
	reason := m.status.Reason
	if reason == "" && m.err != nil {
		reason = m.err.Error()
	}
	b.WriteString(ErrorStyle.Render("✗ " + reason))
	b.WriteString("\n")
	return BoxStyle.Render(b.String())
}

func (m FeedModel) renderFeed() string {
	var b strings.Builder

	title := m.result.Profile.PersonaName
	if title == "" {
		title = m.handle
	}
	b.WriteString(TitleStyle.Render("patchfeed · " + title))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s\n\n",
		LabelStyle.Render("Library:"),
		ValueStyle.Render(fmt.Sprintf("%d games · %d updates", m.result.Games, len(m.result.Feed)))))

	if len(m.result.Feed) == 0 {
		b.WriteString(ValueStyle.Render("(no recent updates)"))
		b.WriteString("\n")
		return BoxStyle.Render(b.String())
	}

	visible := m.visibleRows()
	end := m.offset + visible
	if end > len(m.result.Feed) {
		end = len(m.result.Feed)
	}

	for i := m.offset; i < end; i++ {
		ev := m.result.Feed[i]
		when := time.Unix(ev.PostTime, 0).UTC().Format("2006-01-02")
		b.WriteString(fmt.Sprintf("%s  %s  %s\n",
			SuccessStyle.Render(when),
			GameStyle.Render(truncate(ev.GameName, 28)),
			ValueStyle.Render(truncate(ev.Title, 48))))
	}

	if end < len(m.result.Feed) {
		b.WriteString(HelpStyle.Render(fmt.Sprintf("… %d more", len(m.result.Feed)-end)))
		b.WriteString("\n")
	}

	return BoxStyle.Render(b.String())
}

// visibleRows returns how many feed rows fit in the current terminal height,
// leaving room for the header and help line.
func (m FeedModel) visibleRows() int {
	rows := m.height - 10
	if rows < 5 {
		rows = 5
	}
	return rows
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return "…"
	}
	return s[:n-1] + "…"
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
	Up   key.Binding
	Down key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "scroll up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "scroll down"),
	),
}

// RunFeedTUI runs the feed dashboard. The connect callback performs the
// session work, invoking notify for each status transition; its result (or
// error) is delivered to the TUI when it returns.
func RunFeedTUI(handle string, connect func(notify func(types.SessionStatus)) (Result, error)) error {
	model := NewFeedModel(handle)
	p := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		res, err := connect(func(s types.SessionStatus) {
			p.Send(StatusMsg(s))
		})
		if err != nil {
			p.Send(FailedMsg{Err: err})
			return
		}
		p.Send(ReadyMsg(res))
	}()

	_, err := p.Run()
	return err
}
