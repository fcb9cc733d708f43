package views

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/tiny_audio_player/api"
	"github.com/jscyril/tiny_audio_player/internal/ui/components"
)

// TracklistView shows the tracklist with the current entry marked
type TracklistView struct {
	Width       int
	Height      int
	TrackList   components.TrackList
	BorderStyle lipgloss.Style
}

// NewTracklistView creates a new tracklist view
func NewTracklistView(width, height int) TracklistView {
	return TracklistView{
		Width:     width,
		Height:    height,
		TrackList: components.NewTrackList(height-4, width-6),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1),
	}
}

// SetSize resizes the view
func (v *TracklistView) SetSize(width, height int) {
	v.Width = width
	v.Height = height
	v.TrackList.Width = width - 6
	v.TrackList.Height = height - 4
}

// SetState copies entries and the current index from state
func (v *TracklistView) SetState(state *api.PlaybackState) {
	v.TrackList.SetItems(state.Tracks)
	v.TrackList.Playing = state.CurrentIndex
	v.TrackList.Title = fmt.Sprintf("Tracklist (%d)", len(state.Tracks))
}

// Selected returns the highlighted index, or -1
func (v *TracklistView) Selected() int {
	return v.TrackList.SelectedIndex()
}

// Update handles navigation keys
func (v TracklistView) Update(msg tea.Msg) (TracklistView, tea.Cmd) {
	var cmd tea.Cmd
	v.TrackList, cmd = v.TrackList.Update(msg)
	return v, cmd
}

// View renders the tracklist view
func (v TracklistView) View() string {
	return v.BorderStyle.Width(v.Width - 4).Render(v.TrackList.View())
}
