package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jscyril/tiny_audio_player/internal/testutil"
	playerrors "github.com/jscyril/tiny_audio_player/pkg/errors"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestTrackNameFallsBackToStem(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"missing file", "/nowhere/Some Song.mp3", "Some Song"},
		{"no extension", "/nowhere/track", "track"},
		{"double extension", "/nowhere/a.b.flac", "a.b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrackName(tt.path); got != tt.want {
				t.Errorf("TrackName(%s) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestTrackNameUntaggedWAV(t *testing.T) {
	path := testutil.WriteWAV(t, "plain tone.wav", 8000, 1, 100, 1000)
	if got := TrackName(path); got != "plain tone" {
		t.Errorf("TrackName = %q, want %q", got, "plain tone")
	}
}

func TestExpandDirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.mp3"))
	touch(t, filepath.Join(dir, "a.FLAC"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "sub", "c.ogg"))

	paths, errs := NewScanner(2).Expand(context.Background(), []string{dir})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	want := []string{
		filepath.Join(dir, "a.FLAC"),
		filepath.Join(dir, "b.mp3"),
		filepath.Join(dir, "sub", "c.ogg"),
	}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestExpandPreservesInputOrder(t *testing.T) {
	dir := t.TempDir()
	var inputs []string
	for _, n := range []string{"z.wav", "m.mp3", "a.ogg", "k.flac", "c.wav"} {
		p := filepath.Join(dir, n)
		touch(t, p)
		inputs = append(inputs, p)
	}

	paths, errs := NewScanner(3).Expand(context.Background(), inputs)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !reflect.DeepEqual(paths, inputs) {
		t.Errorf("paths = %v, want %v", paths, inputs)
	}
}

func TestExpandSkipsUnsupportedAndMissing(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "song.mp3")
	bad := filepath.Join(dir, "cover.jpg")
	touch(t, good)
	touch(t, bad)
	missing := filepath.Join(dir, "gone.mp3")

	paths, errs := NewScanner(0).Expand(context.Background(), []string{bad, missing, good})
	if !reflect.DeepEqual(paths, []string{good}) {
		t.Errorf("paths = %v, want [%s]", paths, good)
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}

	var importErr *playerrors.ImportError
	if !errors.As(errs[0], &importErr) || importErr.Path != missing {
		t.Errorf("expected ImportError for %s, got %v", missing, errs[0])
	}
}

func TestExpandCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, errs := NewScanner(1).Expand(ctx, []string{t.TempDir()})
	if len(errs) == 0 || !errors.Is(errs[len(errs)-1], context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", errs)
	}
}
