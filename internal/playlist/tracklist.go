package playlist

import (
	"github.com/jscyril/tiny_audio_player/api"
)

// NoTrack is the current index of a tracklist with nothing selected.
const NoTrack = -1

// Tracklist is an ordered list of entries with a current index that keeps
// pointing at the same logical entry across edits. It is not safe for
// concurrent use; the engine serializes access.
type Tracklist struct {
	entries []api.TrackEntry
	current int
}

// NewTracklist creates an empty tracklist with nothing selected.
func NewTracklist() *Tracklist {
	return &Tracklist{
		entries: make([]api.TrackEntry, 0),
		current: NoTrack,
	}
}

// Add appends entries to the end of the list.
func (t *Tracklist) Add(entries ...api.TrackEntry) {
	t.entries = append(t.entries, entries...)
}

// Len returns the number of entries.
func (t *Tracklist) Len() int {
	return len(t.entries)
}

// Get returns the entry at index.
func (t *Tracklist) Get(index int) (api.TrackEntry, bool) {
	if !t.valid(index) {
		return api.TrackEntry{}, false
	}
	return t.entries[index], true
}

// Entries returns a copy of all entries.
func (t *Tracklist) Entries() []api.TrackEntry {
	out := make([]api.TrackEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Paths returns the path of every entry, in order.
func (t *Tracklist) Paths() []string {
	paths := make([]string, len(t.entries))
	for i, e := range t.entries {
		paths[i] = e.Path
	}
	return paths
}

// Current returns the current index, or NoTrack.
func (t *Tracklist) Current() int {
	return t.current
}

// HasCurrent reports whether an entry is selected.
func (t *Tracklist) HasCurrent() bool {
	return t.current != NoTrack
}

// SetCurrent selects index. Out-of-range indices leave the selection alone
// and return false.
func (t *Tracklist) SetCurrent(index int) bool {
	if !t.valid(index) {
		return false
	}
	t.current = index
	return true
}

// ClearCurrent deselects without touching the entries.
func (t *Tracklist) ClearCurrent() {
	t.current = NoTrack
}

// Next returns the index after the current one, wrapping to 0 after the last
// entry.
func (t *Tracklist) Next() (int, bool) {
	if t.current == NoTrack || len(t.entries) == 0 {
		return NoTrack, false
	}
	return (t.current + 1) % len(t.entries), true
}

// Remove deletes the entry at index. removedCurrent is true when that entry
// was the current one; the selection is then cleared. A current index after
// index shifts down by one.
func (t *Tracklist) Remove(index int) (removedCurrent bool, ok bool) {
	if !t.valid(index) {
		return false, false
	}

	if index == t.current {
		t.current = NoTrack
		removedCurrent = true
	}

	t.entries = append(t.entries[:index], t.entries[index+1:]...)

	if t.current != NoTrack && t.current > index {
		t.current--
	}
	return removedCurrent, true
}

// MoveUp swaps index with the entry above it. The first entry swaps with the
// last.
func (t *Tracklist) MoveUp(index int) bool {
	if len(t.entries) <= 1 || !t.valid(index) {
		return false
	}
	target := index - 1
	if index == 0 {
		target = len(t.entries) - 1
	}
	t.swap(index, target)
	return true
}

// MoveDown swaps index with the entry below it. The last entry swaps with
// the first.
func (t *Tracklist) MoveDown(index int) bool {
	if len(t.entries) <= 1 || !t.valid(index) {
		return false
	}
	target := index + 1
	if index == len(t.entries)-1 {
		target = 0
	}
	t.swap(index, target)
	return true
}

// Clear removes all entries and the selection.
func (t *Tracklist) Clear() {
	t.entries = make([]api.TrackEntry, 0)
	t.current = NoTrack
}

func (t *Tracklist) swap(from, to int) {
	t.entries[from], t.entries[to] = t.entries[to], t.entries[from]

	switch t.current {
	case from:
		t.current = to
	case to:
		t.current = from
	}
}

func (t *Tracklist) valid(index int) bool {
	return index >= 0 && index < len(t.entries)
}
