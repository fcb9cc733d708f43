package components

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/tiny_audio_player/internal/codec"
	"github.com/samber/lo"
)

const parentEntry = ".."

// FileEntry is one row of the browser
type FileEntry struct {
	Name  string
	Path  string
	IsDir bool
}

// FileBrowser walks the filesystem to pick tracks or folders for the
// tracklist. Only directories and playable files are listed.
type FileBrowser struct {
	Width      int
	Height     int
	Dir        string
	Home       string
	Entries    []FileEntry
	Cursor     int
	Offset     int
	ShowHidden bool
	Err        error

	dirStyle      lipgloss.Style
	fileStyle     lipgloss.Style
	selectedStyle lipgloss.Style
	pathStyle     lipgloss.Style
	dimStyle      lipgloss.Style
	borderStyle   lipgloss.Style
}

// NewFileBrowser opens a browser at dir, or at the home directory when dir
// is empty.
func NewFileBrowser(dir string, width, height int) FileBrowser {
	home, err := os.UserHomeDir()
	if err != nil {
		home = string(filepath.Separator)
	}
	if dir == "" {
		dir = home
	}

	fb := FileBrowser{
		Width:  width,
		Height: height,
		Home:   home,
		dirStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true),
		fileStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")),
		selectedStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("255")).
			Bold(true),
		pathStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true),
		dimStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		borderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
	}
	fb.Open(dir)
	return fb
}

// Open lists dir. On failure the entries are cleared and Err is set.
func (fb *FileBrowser) Open(dir string) {
	fb.Dir = filepath.Clean(dir)
	fb.Cursor, fb.Offset, fb.Err = 0, 0, nil

	entries, err := listDir(fb.Dir, fb.ShowHidden)
	if err != nil {
		fb.Entries, fb.Err = nil, err
		return
	}
	if parent := filepath.Dir(fb.Dir); parent != fb.Dir {
		entries = append([]FileEntry{{Name: parentEntry, Path: parent, IsDir: true}}, entries...)
	}
	fb.Entries = entries
}

// listDir returns directories first, then playable files, each group
// sorted case-insensitively.
func listDir(dir string, hidden bool) ([]FileEntry, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	items = lo.Filter(items, func(d os.DirEntry, _ int) bool {
		if !hidden && strings.HasPrefix(d.Name(), ".") {
			return false
		}
		return d.IsDir() || codec.IsSupported(d.Name())
	})
	entries := lo.Map(items, func(d os.DirEntry, _ int) FileEntry {
		return FileEntry{Name: d.Name(), Path: filepath.Join(dir, d.Name()), IsDir: d.IsDir()}
	})

	slices.SortStableFunc(entries, func(a, b FileEntry) int {
		if a.IsDir != b.IsDir {
			if a.IsDir {
				return -1
			}
			return 1
		}
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return entries, nil
}

// Update moves the cursor and changes directory.
func (fb FileBrowser) Update(msg tea.Msg) (FileBrowser, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return fb, nil
	}

	switch key.String() {
	case "up", "k":
		fb.move(-1)
	case "down", "j":
		fb.move(1)
	case "pgup":
		fb.move(-fb.rows())
	case "pgdown":
		fb.move(fb.rows())
	case "home", "g":
		fb.move(-len(fb.Entries))
	case "end", "G":
		fb.move(len(fb.Entries))
	case "backspace", "left", "h":
		if parent := filepath.Dir(fb.Dir); parent != fb.Dir {
			fb.Open(parent)
		}
	case "~":
		fb.Open(fb.Home)
	case ".":
		fb.ShowHidden = !fb.ShowHidden
		fb.Open(fb.Dir)
	}
	return fb, nil
}

func (fb *FileBrowser) move(delta int) {
	if len(fb.Entries) == 0 {
		return
	}
	fb.Cursor = lo.Clamp(fb.Cursor+delta, 0, len(fb.Entries)-1)

	rows := fb.rows()
	switch {
	case fb.Cursor < fb.Offset:
		fb.Offset = fb.Cursor
	case fb.Cursor >= fb.Offset+rows:
		fb.Offset = fb.Cursor - rows + 1
	}
}

// rows is the number of entries that fit between the path line and the
// footer.
func (fb *FileBrowser) rows() int {
	return max(1, fb.Height-6)
}

func (fb *FileBrowser) current() (FileEntry, bool) {
	if fb.Cursor < 0 || fb.Cursor >= len(fb.Entries) {
		return FileEntry{}, false
	}
	return fb.Entries[fb.Cursor], true
}

// EnterSelected opens the directory under the cursor and returns "", or
// returns the path of the file under the cursor.
func (fb *FileBrowser) EnterSelected() string {
	entry, ok := fb.current()
	if !ok {
		return ""
	}
	if entry.IsDir {
		fb.Open(entry.Path)
		return ""
	}
	return entry.Path
}

// SelectedPath returns the path under the cursor without opening it. The
// parent entry yields "".
func (fb *FileBrowser) SelectedPath() string {
	entry, ok := fb.current()
	if !ok || entry.Name == parentEntry {
		return ""
	}
	return entry.Path
}

// View renders the browser
func (fb FileBrowser) View() string {
	var sb strings.Builder

	sb.WriteString(fb.pathStyle.Render(fb.Dir))
	sb.WriteString("\n\n")

	if fb.Err != nil {
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("Error: " + fb.Err.Error()))
		sb.WriteString("\n")
	}

	rows := fb.rows()
	end := min(fb.Offset+rows, len(fb.Entries))
	for i := fb.Offset; i < end; i++ {
		entry := fb.Entries[i]
		line, style := "  "+entry.Name, fb.fileStyle
		if entry.IsDir {
			line, style = "▸ "+entry.Name+string(filepath.Separator), fb.dirStyle
		}
		line = truncate(line, fb.Width-10)
		if i == fb.Cursor {
			style = fb.selectedStyle
		}
		sb.WriteString(style.Render(line))
		sb.WriteString("\n")
	}
	sb.WriteString(strings.Repeat("\n", max(0, rows-(end-fb.Offset))))

	files := lo.CountBy(fb.Entries, func(e FileEntry) bool { return !e.IsDir })
	sb.WriteString(fb.dimStyle.Render(fmt.Sprintf("%d playable files", files)))
	sb.WriteString("\n\n")
	sb.WriteString(fb.dimStyle.Render("[Enter] Open/Add  [a] Add folder  [Backspace] Up  [~] Home  [.] Hidden  [Esc] Close"))

	return fb.borderStyle.Width(max(0, fb.Width-4)).Render(sb.String())
}
