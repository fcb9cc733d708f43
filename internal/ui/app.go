package ui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/tiny_audio_player/api"
	"github.com/jscyril/tiny_audio_player/internal/config"
	"github.com/jscyril/tiny_audio_player/internal/library"
	"github.com/jscyril/tiny_audio_player/internal/playlist"
	"github.com/jscyril/tiny_audio_player/internal/ui/components"
	"github.com/jscyril/tiny_audio_player/internal/ui/views"
	playerrors "github.com/jscyril/tiny_audio_player/pkg/errors"
)

const (
	refreshInterval = 250 * time.Millisecond
	seekStep        = 5.0 // seconds
	volumeStep      = 0.1
	maxVolume       = 2.0
	rateStep        = 0.1
	minRate         = 0.1
)

// Engine is what the UI drives.
type Engine interface {
	api.Player
	Paths() []string
	Subscribe(types ...api.EventType) <-chan api.AudioEvent
	Unsubscribe(ch <-chan api.AudioEvent)
}

// Model is the main bubbletea model
type Model struct {
	// Dimensions
	width  int
	height int

	// Views
	playerView    views.PlayerView
	tracklistView views.TracklistView
	browser       components.FileBrowser
	saveInput     components.TextInput
	browsing      bool
	saving        bool

	// Components
	engine        Engine
	scanner       *library.Scanner
	keys          config.KeyMap
	tracklistFile string
	events        <-chan api.AudioEvent

	// State
	state  *api.PlaybackState
	status string
	err    error

	// Styles
	headerStyle lipgloss.Style
	statusStyle lipgloss.Style
	errorStyle  lipgloss.Style
}

// TickMsg is sent periodically to refresh the UI
type TickMsg time.Time

// EventMsg carries one engine event
type EventMsg struct {
	Event api.AudioEvent
}

// PathsAddedMsg reports a finished folder import
type PathsAddedMsg struct {
	Added int
	Errs  []error
}

// NewModel creates a new application model. tracklistFile is the default
// name offered when saving.
func NewModel(engine Engine, keys config.KeyMap, tracklistFile string) Model {
	m := Model{
		width:         80,
		height:        24,
		engine:        engine,
		scanner:       library.NewScanner(0),
		keys:          keys,
		tracklistFile: tracklistFile,
		events:        engine.Subscribe(api.EventError, api.EventTracklistChanged, api.EventTrackStarted),
		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 2),
		statusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
	}

	m.playerView = views.NewPlayerView(m.width, 12)
	m.playerView.Help = helpLine(keys)
	m.tracklistView = views.NewTracklistView(m.width, m.height-14)
	m.browser = components.NewFileBrowser("", m.width, m.height-2)
	m.saveInput = components.NewTextInput("Save as: ", m.width-4)
	m.refresh()

	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.waitForEvent(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// waitForEvent blocks on the engine's event channel. A closed channel ends
// the listening loop.
func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return EventMsg{Event: event}
	}
}

// addPathsCmd expands path (a folder) and appends every playable file.
func (m Model) addPathsCmd(path string) tea.Cmd {
	engine, scanner := m.engine, m.scanner
	return func() tea.Msg {
		paths, errs := scanner.Expand(context.Background(), []string{path})
		added := 0
		for _, p := range paths {
			if engine.AddTrack(p) {
				added++
			}
		}
		return PathsAddedMsg{Added: added, Errs: errs}
	}
}

func (m *Model) refresh() {
	m.state = m.engine.State()
	m.playerView.SetState(m.state)
	m.tracklistView.SetState(m.state)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewSizes()

	case TickMsg:
		m.refresh()
		cmds = append(cmds, tickCmd())

	case EventMsg:
		if msg.Event.Type == api.EventError {
			if err, ok := msg.Event.Payload.(error); ok {
				m.err = err
			}
		}
		if msg.Event.Type == api.EventTrackStarted {
			m.err = nil
		}
		m.refresh()
		cmds = append(cmds, m.waitForEvent())

	case PathsAddedMsg:
		m.status = fmt.Sprintf("Added %d tracks", msg.Added)
		if len(msg.Errs) > 0 {
			m.err = errors.Join(msg.Errs...)
		}
		m.refresh()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch {
		case m.saving:
			return m.updateSaving(msg)
		case m.browsing:
			return m.updateBrowsing(msg)
		}
		return m.updateKeys(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) updateSaving(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.saving = false
		m.saveInput.Blur()
	case tea.KeyEnter:
		m.saving = false
		m.saveInput.Blur()
		m.saveTracklist(strings.TrimSpace(m.saveInput.Value))
	default:
		m.saveInput, _ = m.saveInput.Update(msg)
	}
	return m, nil
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.browsing = false
	case "enter":
		if path := m.browser.EnterSelected(); path != "" {
			if m.engine.AddTrack(path) {
				m.status = "Added " + library.TrackName(path)
			}
			m.refresh()
		}
	case "a":
		if path := m.browser.SelectedPath(); path != "" {
			m.status = "Importing " + path
			return m, m.addPathsCmd(path)
		}
	default:
		m.browser, _ = m.browser.Update(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	state := m.state

	switch key {
	case m.keys.Quit:
		return m, tea.Quit

	case m.keys.PlayPause:
		m.err = m.engine.TogglePlayback()

	case m.keys.PlaySelect:
		if i := m.tracklistView.Selected(); i >= 0 {
			m.err = m.engine.PlayTrack(i)
		}

	case m.keys.Stop:
		m.engine.Stop()

	case m.keys.VolumeUp:
		m.err = m.engine.SetVolume(math.Min(maxVolume, round1(state.Volume+volumeStep)))

	case m.keys.VolumeDown:
		m.err = m.engine.SetVolume(math.Max(0, round1(state.Volume-volumeStep)))

	case m.keys.RateUp:
		m.err = m.engine.SetPlaybackRate(round1(state.PlaybackRate + rateStep))

	case m.keys.RateDown:
		m.err = m.engine.SetPlaybackRate(math.Max(minRate, round1(state.PlaybackRate-rateStep)))

	case m.keys.SeekForward:
		m.engine.Seek(state.Position + seekStep)

	case m.keys.SeekBack:
		m.engine.Seek(math.Max(0, state.Position-seekStep))

	case m.keys.MoveUp:
		if i := m.tracklistView.Selected(); i >= 0 {
			m.engine.MoveTrackUp(i)
			m.refresh()
			m.tracklistView.TrackList.Select(wrap(i-1, len(m.state.Tracks)))
		}

	case m.keys.MoveDown:
		if i := m.tracklistView.Selected(); i >= 0 {
			m.engine.MoveTrackDown(i)
			m.refresh()
			m.tracklistView.TrackList.Select(wrap(i+1, len(m.state.Tracks)))
		}

	case m.keys.Remove:
		if i := m.tracklistView.Selected(); i >= 0 {
			m.engine.RemoveTrack(i)
		}

	case m.keys.Clear:
		m.engine.ClearTracklist()

	case m.keys.Save:
		m.saving = true
		m.saveInput.SetValue(m.tracklistFile)
		m.saveInput.Focus()

	case "a":
		m.browsing = true

	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
		m.engine.SeekFraction(float64(key[0]-'0') / 10)

	default:
		m.tracklistView, _ = m.tracklistView.Update(msg)
		return m, nil
	}

	m.refresh()
	return m, nil
}

func (m *Model) saveTracklist(name string) {
	if name == "" {
		return
	}
	file := playlist.WithExtension(name)
	err := playlist.SaveTracklist(file, m.engine.Paths())
	switch {
	case errors.Is(err, playerrors.ErrEmptyTracklist):
		m.status = "Nothing to save"
	case err != nil:
		m.err = err
	default:
		m.tracklistFile = file
		m.status = "Saved " + file
	}
}

// updateViewSizes updates view dimensions
func (m *Model) updateViewSizes() {
	m.playerView.SetWidth(m.width)
	m.tracklistView.SetSize(m.width, m.height-14)
	m.browser.Width = m.width
	m.browser.Height = m.height - 2
	m.saveInput.Width = m.width - 4
}

// View renders the UI
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.headerStyle.Render("tiny audio player"))
	sb.WriteString("\n")

	if m.browsing {
		sb.WriteString(m.browser.View())
	} else {
		sb.WriteString(m.playerView.View())
		sb.WriteString("\n")
		sb.WriteString(m.tracklistView.View())
	}

	if m.saving {
		sb.WriteString("\n")
		sb.WriteString(m.saveInput.View())
	}

	if m.status != "" {
		sb.WriteString("\n" + m.statusStyle.Render(m.status))
	}
	if m.err != nil {
		sb.WriteString("\n" + m.errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	return sb.String()
}

func helpLine(k config.KeyMap) string {
	label := func(key string) string {
		if key == " " {
			return "Space"
		}
		return key
	}
	return fmt.Sprintf("[%s] Play/Pause  [%s] Stop  [%s/%s] Volume  [%s/%s] Speed  [0-9] Jump  [a] Add  [%s] Save  [%s] Quit",
		label(k.PlayPause), k.Stop, k.VolumeUp, k.VolumeDown, k.RateUp, k.RateDown, k.Save, k.Quit)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func wrap(i, n int) int {
	if n == 0 {
		return 0
	}
	return (i%n + n) % n
}

// Run starts the bubbletea program. Cancelling ctx ends it.
func Run(ctx context.Context, engine Engine, keys config.KeyMap, tracklistFile string) error {
	model := NewModel(engine, keys, tracklistFile)
	// Closing the subscription releases a pending waitForEvent.
	defer engine.Unsubscribe(model.events)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
