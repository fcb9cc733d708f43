package audio

import (
	"github.com/jscyril/tiny_audio_player/internal/task"
	"github.com/jscyril/tiny_audio_player/internal/waveform"
)

// Session binds one playing stream to the analysis of its waveform. The
// analyzer task lives exactly as long as the session.
type Session struct {
	path     string
	stream   Stream
	duration float64
	wave     *waveform.Buffer
	analyzer *task.Scope
	stopped  bool
}

// StartSession opens path on out and starts analysing the same file in the
// background. An error from the output is returned unchanged.
func StartSession(out Output, analyzer *waveform.Analyzer, path string) (*Session, error) {
	stream, err := out.Open(path)
	if err != nil {
		return nil, err
	}

	wave := waveform.NewBuffer()
	return &Session{
		path:     path,
		stream:   stream,
		duration: stream.Duration(),
		wave:     wave,
		analyzer: analyzer.Start(path, wave),
	}, nil
}

// Stop joins the analyzer, then releases the stream. Calling it again, or on
// a nil session, does nothing.
func (s *Session) Stop() {
	if s == nil || s.stopped {
		return
	}
	s.stopped = true
	s.analyzer.Stop()
	s.stream.Stop()
}

// Path returns the file being played.
func (s *Session) Path() string { return s.path }

// Position returns seconds played so far.
func (s *Session) Position() float64 {
	if s == nil || s.stopped {
		return 0
	}
	return s.stream.Position()
}

// Duration returns the stream length in seconds.
func (s *Session) Duration() float64 {
	if s == nil {
		return 0
	}
	return s.duration
}

// Waveform returns a copy of the envelope computed so far.
func (s *Session) Waveform() []byte {
	if s == nil {
		return nil
	}
	return s.wave.Snapshot()
}

// WaveformLen returns the number of envelope points computed so far.
func (s *Session) WaveformLen() int {
	if s == nil {
		return 0
	}
	return s.wave.Len()
}

func (s *Session) Seek(position float64) error { return s.stream.Seek(position) }

// PauseResume toggles the stream between paused and playing.
func (s *Session) PauseResume() {
	if s.stream.Paused() {
		s.stream.Resume()
	} else {
		s.stream.Pause()
	}
}

func (s *Session) Paused() bool { return s.stream.Paused() }

func (s *Session) SetPlaybackRate(rate float64) { s.stream.SetPlaybackRate(rate) }

func (s *Session) PlaybackRate() float64 { return s.stream.PlaybackRate() }
