package audio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	playerrors "github.com/jscyril/tiny_audio_player/pkg/errors"
	pkgerrors "github.com/pkg/errors"
)

const (
	// DefaultSampleRate is the rate the speaker runs at; streams are resampled to it.
	DefaultSampleRate = beep.SampleRate(44100)
	resampleQuality   = 4
)

// SpeakerOutput plays streams through the system speaker. All streams go
// into one mixer behind a master volume.
type SpeakerOutput struct {
	mu         sync.Mutex
	sampleRate beep.SampleRate
	mixer      *beep.Mixer
	master     *effects.Volume
	closed     bool
}

// NewSpeakerOutput initializes the speaker. Failure means there is no usable
// output device.
func NewSpeakerOutput() (*SpeakerOutput, error) {
	sr := DefaultSampleRate
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return nil, playerrors.NewPlayerError("speaker_init", "", fmt.Errorf("%w: %v", playerrors.ErrOutputUnavailable, err))
	}

	mixer := &beep.Mixer{}
	master := &effects.Volume{Streamer: mixer, Base: 2}
	speaker.Play(master)

	return &SpeakerOutput{
		sampleRate: sr,
		mixer:      mixer,
		master:     master,
	}, nil
}

// Open decodes path and starts playing it immediately.
func (o *SpeakerOutput) Open(path string) (Stream, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, playerrors.NewPlayerError("open", path, playerrors.ErrOutputUnavailable)
	}

	source, format, err := DecodeFile(path)
	if err != nil {
		return nil, playerrors.NewPlayerError("open", path, fmt.Errorf("%w: %v", playerrors.ErrStreamOpen, err))
	}

	s := newSpeakerStream(source, format, o.sampleRate)

	speaker.Lock()
	o.mixer.Add(s.ctrl)
	speaker.Unlock()

	return s, nil
}

// SetVolume maps an amplitude multiplier onto the base-2 gain of the master
// volume. Zero or less is silence.
func (o *SpeakerOutput) SetVolume(volume float64) {
	speaker.Lock()
	defer speaker.Unlock()

	if volume <= 0 {
		o.master.Silent = true
		return
	}
	o.master.Silent = false
	o.master.Volume = math.Log2(volume)
}

// Close silences and shuts down the speaker. Later calls are no-ops.
func (o *SpeakerOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true
	speaker.Clear()
	speaker.Close()
	return nil
}

type speakerStream struct {
	source    beep.StreamSeekCloser
	format    beep.Format
	resampler *beep.Resampler
	ctrl      *beep.Ctrl
	baseRatio float64
	rate      float64
	stopped   bool
}

// newSpeakerStream resamples source from its own rate to the output rate.
func newSpeakerStream(source beep.StreamSeekCloser, format beep.Format, out beep.SampleRate) *speakerStream {
	baseRatio := float64(format.SampleRate) / float64(out)
	resampler := beep.ResampleRatio(resampleQuality, baseRatio, source)
	return &speakerStream{
		source:    source,
		format:    format,
		resampler: resampler,
		ctrl:      &beep.Ctrl{Streamer: resampler},
		baseRatio: baseRatio,
		rate:      1,
	}
}

func (s *speakerStream) Stop() {
	speaker.Lock()
	if s.stopped {
		speaker.Unlock()
		return
	}
	s.stopped = true
	// A Ctrl without a streamer reports drained, so the mixer drops it.
	s.ctrl.Streamer = nil
	speaker.Unlock()

	s.source.Close()
}

func (s *speakerStream) Pause() {
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
}

func (s *speakerStream) Resume() {
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
}

func (s *speakerStream) Paused() bool {
	speaker.Lock()
	defer speaker.Unlock()
	return s.ctrl.Paused
}

// Seek clamps position to the stream and moves there.
func (s *speakerStream) Seek(position float64) error {
	speaker.Lock()
	defer speaker.Unlock()

	if s.stopped {
		return nil
	}
	n := s.format.SampleRate.N(time.Duration(position * float64(time.Second)))
	n = max(0, min(n, s.source.Len()))
	if err := s.source.Seek(n); err != nil {
		return pkgerrors.Wrapf(err, "seek to sample %d", n)
	}
	return nil
}

func (s *speakerStream) SetPlaybackRate(rate float64) {
	speaker.Lock()
	defer speaker.Unlock()

	s.rate = rate
	s.resampler.SetRatio(s.baseRatio * rate)
}

func (s *speakerStream) PlaybackRate() float64 {
	speaker.Lock()
	defer speaker.Unlock()
	return s.rate
}

func (s *speakerStream) Position() float64 {
	speaker.Lock()
	defer speaker.Unlock()

	if s.stopped {
		return 0
	}
	return s.format.SampleRate.D(s.source.Position()).Seconds()
}

func (s *speakerStream) Duration() float64 {
	speaker.Lock()
	defer speaker.Unlock()

	if s.stopped {
		return 0
	}
	return s.format.SampleRate.D(s.source.Len()).Seconds()
}
