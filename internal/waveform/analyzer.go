// Package waveform computes a coarse loudness envelope of a track in the
// background while it plays.
package waveform

import (
	"errors"
	"math"

	"github.com/jscyril/tiny_audio_player/internal/codec"
	"github.com/jscyril/tiny_audio_player/internal/task"
	"github.com/rs/zerolog"
)

// DefaultWindow is the number of per-packet means averaged into one point.
const DefaultWindow = 20

// Analyzer decodes a file on its own and appends envelope points to a Buffer.
type Analyzer struct {
	Open   codec.OpenFunc
	Window int
	Log    zerolog.Logger
}

// NewAnalyzer returns an analyzer using the real codecs.
func NewAnalyzer(window int, log zerolog.Logger) *Analyzer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Analyzer{Open: codec.Open, Window: window, Log: log}
}

// Start runs the analysis of path on a scoped task writing into buf.
func (a *Analyzer) Start(path string, buf *Buffer) *task.Scope {
	return task.Go(func(s *task.Scope) {
		a.Run(s, path, buf)
	})
}

// Run decodes path packet by packet until the end of the stream, an
// unrecoverable error, or s asks it to stop. Points already written are kept
// whatever happens later.
func (a *Analyzer) Run(s *task.Scope, path string, buf *Buffer) {
	log := a.Log.With().Str("path", path).Logger()

	if s.ShouldStop() {
		return
	}
	r, err := a.Open(path)
	if err != nil {
		log.Warn().Err(err).Msg("waveform: cannot open source")
		return
	}
	defer r.Close()

	window := a.Window
	if window <= 0 {
		window = DefaultWindow
	}
	means := make([]float32, 0, window)
	skipped := 0

	for {
		if s.ShouldStop() {
			log.Debug().Int("points", buf.Len()).Msg("waveform: stopped")
			return
		}

		packet, err := r.Next()
		if err != nil {
			switch {
			case codec.IsEndOfStream(err):
				log.Debug().Int("points", buf.Len()).Int("skipped", skipped).Msg("waveform: done")
				return
			case errors.Is(err, codec.ErrDecode):
				skipped++
				continue
			default:
				log.Warn().Err(err).Int("points", buf.Len()).Msg("waveform: decode aborted")
				return
			}
		}

		if s.ShouldStop() {
			return
		}
		if len(packet.Samples) == 0 {
			continue
		}

		means = append(means, packet.MeanAbs())
		if len(means) >= window {
			buf.Append(Quantize(average(means)))
			means = means[:0]
		}
	}
}

// Quantize maps a mean absolute amplitude to a display byte: the value is
// doubled so typical program material fills the range, then clamped.
func Quantize(avg float32) byte {
	v := math.Round(float64(avg) * 2 * 255)
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	default:
		return byte(v)
	}
}

func average(values []float32) float32 {
	var sum float32
	for _, v := range values {
		sum += v
	}
	return sum / float32(len(values))
}
