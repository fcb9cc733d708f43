package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/tiny_audio_player/api"
	"github.com/jscyril/tiny_audio_player/internal/ui/components"
)

// PlayerView displays the current playback state
type PlayerView struct {
	Width       int
	Height      int
	State       *api.PlaybackState
	ProgressBar components.ProgressBar
	Waveform    components.Waveform
	Help        string

	// Styles
	TitleStyle    lipgloss.Style
	StatusStyle   lipgloss.Style
	InfoStyle     lipgloss.Style
	ControlsStyle lipgloss.Style
	BorderStyle   lipgloss.Style
}

// NewPlayerView creates a new player view
func NewPlayerView(width, height int) PlayerView {
	return PlayerView{
		Width:       width,
		Height:      height,
		ProgressBar: components.NewProgressBar(width - 8),
		Waveform:    components.NewWaveform(width - 8),
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		StatusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
		InfoStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
		ControlsStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
	}
}

// SetWidth resizes the view and its bars
func (v *PlayerView) SetWidth(width int) {
	v.Width = width
	v.ProgressBar.Width = width - 8
	v.Waveform.Width = width - 8
}

// SetState updates the playback state
func (v *PlayerView) SetState(state *api.PlaybackState) {
	v.State = state
	if state == nil {
		return
	}
	v.ProgressBar.SetProgress(state.Position, state.Duration)
	v.Waveform.Points = state.Waveform
	v.Waveform.Progress = v.ProgressBar.Fraction()
}

// View renders the player view
func (v PlayerView) View() string {
	var sb strings.Builder

	var entry api.TrackEntry
	var ok bool
	if v.State != nil {
		entry, ok = v.State.CurrentTrack()
	}

	if !ok {
		sb.WriteString(v.TitleStyle.Render("♪ No track selected"))
		sb.WriteString("\n\n")
		sb.WriteString(v.InfoStyle.Render("Press Enter on an entry to play, or Space to start from the top"))
	} else {
		var statusIcon string
		switch v.State.Status {
		case api.StatusPlaying:
			statusIcon = "▶"
		case api.StatusPaused:
			statusIcon = "⏸"
		default:
			statusIcon = "⏹"
		}

		sb.WriteString(v.StatusStyle.Render(statusIcon + " "))
		sb.WriteString(v.TitleStyle.Render(entry.Name))
		sb.WriteString("\n")
		sb.WriteString(v.InfoStyle.Render(entry.Path))
		sb.WriteString("\n\n")

		sb.WriteString(v.Waveform.View())
		sb.WriteString("\n")
		sb.WriteString(v.ProgressBar.View())
		sb.WriteString("\n\n")

		sb.WriteString(fmt.Sprintf("Volume: %s %d%%   Speed: %.1fx",
			renderVolumeBar(v.State.Volume), int(v.State.Volume*100+0.5), v.State.PlaybackRate))
	}

	if v.Help != "" {
		sb.WriteString("\n")
		sb.WriteString(v.ControlsStyle.Render(v.Help))
	}

	return v.BorderStyle.Width(v.Width - 4).Render(sb.String())
}

// renderVolumeBar renders ten dots per unit of gain, capped at ten
func renderVolumeBar(volume float64) string {
	filled := int(volume*10 + 0.5)
	if filled > 10 {
		filled = 10
	}
	if filled < 0 {
		filled = 0
	}
	empty := 10 - filled

	filledStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	return filledStyle.Render(strings.Repeat("●", filled)) + emptyStyle.Render(strings.Repeat("○", empty))
}
