package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var levels = []rune("▁▂▃▄▅▆▇█")

// Waveform draws envelope points as a one-line bar chart, with the played
// part highlighted.
type Waveform struct {
	Width       int
	Points      []byte
	Progress    float64 // 0 to 1
	PlayedStyle lipgloss.Style
	RestStyle   lipgloss.Style
}

func NewWaveform(width int) Waveform {
	return Waveform{
		Width:       width,
		PlayedStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		RestStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("62")),
	}
}

// Columns folds the points into at most Width columns, keeping the loudest
// point of each column.
func (w Waveform) Columns() []byte {
	if w.Width <= 0 || len(w.Points) == 0 {
		return nil
	}
	if len(w.Points) <= w.Width {
		return w.Points
	}

	cols := make([]byte, w.Width)
	for i := range cols {
		start := i * len(w.Points) / w.Width
		end := (i + 1) * len(w.Points) / w.Width
		for _, p := range w.Points[start:end] {
			if p > cols[i] {
				cols[i] = p
			}
		}
	}
	return cols
}

// View renders the waveform
func (w Waveform) View() string {
	cols := w.Columns()
	if len(cols) == 0 {
		return w.RestStyle.Render(strings.Repeat(" ", max(w.Width, 0)))
	}

	var played, rest strings.Builder
	split := int(float64(len(cols)) * w.Progress)
	for i, c := range cols {
		r := levels[int(c)*(len(levels)-1)/255]
		if i < split {
			played.WriteRune(r)
		} else {
			rest.WriteRune(r)
		}
	}
	return w.PlayedStyle.Render(played.String()) + w.RestStyle.Render(rest.String())
}
