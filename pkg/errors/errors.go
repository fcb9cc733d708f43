package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrOutputUnavailable = errors.New("audio output unavailable")
	ErrStreamOpen        = errors.New("failed to open stream")
	ErrInvalidFormat     = errors.New("unsupported audio format")
	ErrInvalidVolume     = errors.New("volume must not be negative")
	ErrInvalidRate       = errors.New("playback rate must be positive")
	ErrEmptyTracklist    = errors.New("tracklist is empty")
	ErrAlreadyRunning    = errors.New("another instance is already running")
	ErrUnknownCommand    = errors.New("unknown command")
	ErrBadPayload        = errors.New("bad command payload")
)

// PlayerError wraps errors with additional context
type PlayerError struct {
	Op    string // Operation that failed
	Track string // Track path if applicable
	Err   error  // Underlying error
}

func (e *PlayerError) Error() string {
	if e.Track != "" {
		return fmt.Sprintf("%s failed for track %s: %v", e.Op, e.Track, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *PlayerError) Unwrap() error {
	return e.Err
}

// NewPlayerError creates a new PlayerError
func NewPlayerError(op, track string, err error) *PlayerError {
	return &PlayerError{Op: op, Track: track, Err: err}
}

// IsFatal reports whether err is one of the resource-initialization failures
// that leave the player unable to continue.
func IsFatal(err error) bool {
	return errors.Is(err, ErrOutputUnavailable) || errors.Is(err, ErrStreamOpen)
}

// ImportError reports a path that could not be imported into the tracklist.
type ImportError struct {
	Path string
	Err  error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import error at %s: %v", e.Path, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}
