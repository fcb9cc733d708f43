package codec

import (
	"io"
	"os"

	"github.com/faiface/beep"
	"github.com/faiface/beep/vorbis"
	"github.com/pkg/errors"
)

const vorbisPacketFrames = 1152

// streamerReader adapts a beep streamer into fixed-size packets.
type streamerReader struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	buf      [][2]float64
}

func newVorbisReader(f *os.File) (PacketReader, error) {
	streamer, format, err := vorbis.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(ErrNoDecodableTrack, "ogg: %v", err)
	}
	return &streamerReader{
		streamer: streamer,
		format:   format,
		buf:      make([][2]float64, vorbisPacketFrames),
	}, nil
}

func (r *streamerReader) Next() (Packet, error) {
	n, ok := r.streamer.Stream(r.buf)
	if !ok || n == 0 {
		if err := r.streamer.Err(); err != nil && !IsEndOfStream(err) {
			return Packet{}, errors.Wrap(err, "ogg read")
		}
		return Packet{}, io.EOF
	}

	samples := make([]float32, 0, n*2)
	for _, frame := range r.buf[:n] {
		samples = append(samples, float32(frame[0]), float32(frame[1]))
	}
	return Packet{Samples: samples, Channels: r.format.NumChannels}, nil
}

func (r *streamerReader) Duration() float64 {
	return r.format.SampleRate.D(r.streamer.Len()).Seconds()
}

// Close also closes the file, which the vorbis decoder owns.
func (r *streamerReader) Close() error { return r.streamer.Close() }
