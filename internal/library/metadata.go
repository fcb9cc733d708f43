// Package library turns user-supplied paths into tracklist entries.
package library

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// MetadataReader derives display names for tracklist entries
type MetadataReader struct{}

// NewMetadataReader creates a new metadata reader
func NewMetadataReader() *MetadataReader {
	return &MetadataReader{}
}

// Name returns "Artist - Title" from the file's tags. Files without a title
// tag, or that cannot be read, are named after the file without extension.
func (r *MetadataReader) Name(filePath string) string {
	fallback := fileStem(filePath)

	file, err := os.Open(filePath)
	if err != nil {
		return fallback
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		return fallback
	}

	title := strings.TrimSpace(metadata.Title())
	if title == "" {
		return fallback
	}
	if artist := strings.TrimSpace(metadata.Artist()); artist != "" {
		return artist + " - " + title
	}
	return title
}

// TrackName is NewMetadataReader().Name(filePath).
func TrackName(filePath string) string {
	return NewMetadataReader().Name(filePath)
}

func fileStem(filePath string) string {
	base := filepath.Base(filePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
