package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TextInput is a single-line prompt, used for the tracklist file name
type TextInput struct {
	Value       string
	Placeholder string
	Focused     bool
	Width       int
	CursorPos   int
	Style       lipgloss.Style
	FocusStyle  lipgloss.Style
	Prompt      string
}

// NewTextInput creates a new text input
func NewTextInput(prompt string, width int) TextInput {
	return TextInput{
		Placeholder: "file name",
		Width:       width,
		Prompt:      prompt,
		Style: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		FocusStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("212")).
			Padding(0, 1),
	}
}

func (s *TextInput) Focus() { s.Focused = true }

func (s *TextInput) Blur() { s.Focused = false }

func (s *TextInput) SetValue(value string) {
	s.Value = value
	s.CursorPos = len(s.runes())
}

// Update handles editing keys while focused
func (s TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if !s.Focused {
		return s, nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	r := s.runes()
	switch key.Type {
	case tea.KeyBackspace:
		if s.CursorPos > 0 {
			r = append(r[:s.CursorPos-1], r[s.CursorPos:]...)
			s.CursorPos--
		}
	case tea.KeyDelete:
		if s.CursorPos < len(r) {
			r = append(r[:s.CursorPos], r[s.CursorPos+1:]...)
		}
	case tea.KeyLeft:
		if s.CursorPos > 0 {
			s.CursorPos--
		}
	case tea.KeyRight:
		if s.CursorPos < len(r) {
			s.CursorPos++
		}
	case tea.KeyHome:
		s.CursorPos = 0
	case tea.KeyEnd:
		s.CursorPos = len(r)
	case tea.KeySpace:
		r = insert(r, s.CursorPos, []rune{' '})
		s.CursorPos++
	case tea.KeyRunes:
		r = insert(r, s.CursorPos, key.Runes)
		s.CursorPos += len(key.Runes)
	}
	s.Value = string(r)

	return s, nil
}

func (s TextInput) runes() []rune { return []rune(s.Value) }

func insert(r []rune, at int, add []rune) []rune {
	out := make([]rune, 0, len(r)+len(add))
	out = append(out, r[:at]...)
	out = append(out, add...)
	return append(out, r[at:]...)
}

// View renders the input
func (s TextInput) View() string {
	var content string

	if s.Value == "" && !s.Focused {
		content = s.Prompt + lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(s.Placeholder)
	} else if s.Focused {
		r := s.runes()
		cursor := lipgloss.NewStyle().Background(lipgloss.Color("212")).Render(" ")
		content = s.Prompt + string(r[:s.CursorPos]) + cursor + string(r[s.CursorPos:])
	} else {
		content = s.Prompt + s.Value
	}

	if s.Focused {
		return s.FocusStyle.Width(s.Width).Render(content)
	}
	return s.Style.Width(s.Width).Render(content)
}
