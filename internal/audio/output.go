package audio

// Output is the device side of playback: it turns a file into a controllable
// Stream and owns the master gain.
type Output interface {
	Open(path string) (Stream, error)
	// SetVolume sets the master gain as an amplitude multiplier.
	SetVolume(volume float64)
	Close() error
}

// Stream is one playing file. Times are in seconds.
type Stream interface {
	Stop()
	Pause()
	Resume()
	Paused() bool
	Seek(position float64) error
	SetPlaybackRate(rate float64)
	PlaybackRate() float64
	Position() float64
	Duration() float64
}
