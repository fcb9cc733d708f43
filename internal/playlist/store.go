package playlist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	playerrors "github.com/jscyril/tiny_audio_player/pkg/errors"
)

// TracklistExtension is the file extension of saved tracklists.
const TracklistExtension = "tapt"

// TracklistFile is the on-disk form of a tracklist.
type TracklistFile struct {
	Paths []string `toml:"paths"`
}

// WithExtension appends the tracklist extension to path unless it is there.
func WithExtension(path string) string {
	if strings.EqualFold(filepath.Ext(path), "."+TracklistExtension) {
		return path
	}
	return path + "." + TracklistExtension
}

// SaveTracklist writes paths to file as TOML. An empty tracklist is refused.
func SaveTracklist(file string, paths []string) error {
	if len(paths) == 0 {
		return playerrors.ErrEmptyTracklist
	}

	if dir := filepath.Dir(file); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create tracklist directory: %w", err)
		}
	}

	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("create tracklist file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(TracklistFile{Paths: paths}); err != nil {
		return fmt.Errorf("encode tracklist: %w", err)
	}
	return f.Close()
}

// LoadTracklist reads the paths saved in file.
func LoadTracklist(file string) ([]string, error) {
	var tl TracklistFile
	if _, err := toml.DecodeFile(file, &tl); err != nil {
		return nil, fmt.Errorf("decode tracklist %s: %w", file, err)
	}
	return tl.Paths, nil
}
