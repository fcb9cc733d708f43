package components

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func browserFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"b.mp3", "A.flac", "notes.txt", ".hidden.wav"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{"zeta", "Alpha", ".cache"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func entryNames(fb FileBrowser) []string {
	var out []string
	for _, e := range fb.Entries {
		out = append(out, e.Name)
	}
	return out
}

func TestFileBrowserListing(t *testing.T) {
	dir := browserFixture(t)
	fb := NewFileBrowser(dir, 80, 30)

	want := []string{"..", "Alpha", "zeta", "A.flac", "b.mp3"}
	if got := entryNames(fb); !reflect.DeepEqual(got, want) {
		t.Errorf("entries = %v, want %v", got, want)
	}

	fb, _ = fb.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'.'}})
	want = []string{"..", ".cache", "Alpha", "zeta", ".hidden.wav", "A.flac", "b.mp3"}
	if got := entryNames(fb); !reflect.DeepEqual(got, want) {
		t.Errorf("entries with hidden = %v, want %v", got, want)
	}
}

func TestFileBrowserEnterAndSelect(t *testing.T) {
	dir := browserFixture(t)
	fb := NewFileBrowser(dir, 80, 30)

	if fb.SelectedPath() != "" {
		t.Error("parent entry should not be selectable")
	}

	fb.Cursor = 3 // A.flac
	if got := fb.EnterSelected(); got != filepath.Join(dir, "A.flac") {
		t.Errorf("EnterSelected = %q", got)
	}

	fb.Cursor = 1 // Alpha
	if got := fb.SelectedPath(); got != filepath.Join(dir, "Alpha") {
		t.Errorf("SelectedPath = %q", got)
	}
	if got := fb.EnterSelected(); got != "" {
		t.Errorf("EnterSelected on a dir = %q", got)
	}
	if fb.Dir != filepath.Join(dir, "Alpha") {
		t.Errorf("dir = %q", fb.Dir)
	}

	fb, _ = fb.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if fb.Dir != filepath.Clean(dir) {
		t.Errorf("backspace left dir at %q", fb.Dir)
	}
}

func TestFileBrowserCursorClamps(t *testing.T) {
	fb := NewFileBrowser(browserFixture(t), 80, 8)

	fb, _ = fb.Update(tea.KeyMsg{Type: tea.KeyEnd})
	if fb.Cursor != len(fb.Entries)-1 {
		t.Errorf("cursor = %d, want last", fb.Cursor)
	}
	if fb.Offset != fb.Cursor-fb.rows()+1 {
		t.Errorf("offset = %d, cursor not visible", fb.Offset)
	}
	fb, _ = fb.Update(tea.KeyMsg{Type: tea.KeyDown})
	if fb.Cursor != len(fb.Entries)-1 {
		t.Errorf("cursor moved past the end: %d", fb.Cursor)
	}
	fb, _ = fb.Update(tea.KeyMsg{Type: tea.KeyHome})
	if fb.Cursor != 0 || fb.Offset != 0 {
		t.Errorf("home: cursor=%d offset=%d", fb.Cursor, fb.Offset)
	}
}

func TestFileBrowserMissingDir(t *testing.T) {
	fb := NewFileBrowser(filepath.Join(t.TempDir(), "gone"), 80, 30)
	if fb.Err == nil {
		t.Error("expected an error for a missing directory")
	}
	if fb.EnterSelected() != "" || fb.SelectedPath() != "" {
		t.Error("empty browser should select nothing")
	}
}
