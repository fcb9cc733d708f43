package codec

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
	"github.com/pkg/errors"
)

// go-mp3 always produces 16-bit stereo; one packet is one MPEG-1 Layer III
// frame worth of samples.
const (
	mp3BytesPerFrame = 4
	mp3PacketFrames  = 1152
)

type mp3Reader struct {
	file     *os.File
	dec      *mp3.Decoder
	buf      []byte
	duration float64
}

func newMP3Reader(f *os.File) (PacketReader, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, errors.Wrapf(ErrNoDecodableTrack, "mp3: %v", err)
	}

	var duration float64
	if length := dec.Length(); length > 0 && dec.SampleRate() > 0 {
		duration = float64(length/mp3BytesPerFrame) / float64(dec.SampleRate())
	}

	return &mp3Reader{
		file:     f,
		dec:      dec,
		buf:      make([]byte, mp3PacketFrames*mp3BytesPerFrame),
		duration: duration,
	}, nil
}

func (r *mp3Reader) Next() (Packet, error) {
	n, err := io.ReadFull(r.dec, r.buf)
	switch {
	case err == io.EOF:
		return Packet{}, io.EOF
	case err == io.ErrUnexpectedEOF:
		// Short final packet; the next call reports io.EOF.
	case err != nil:
		return Packet{}, errors.Wrap(err, "mp3 read")
	}

	samples := make([]float32, n/2)
	for i := range samples {
		s := int16(binary.LittleEndian.Uint16(r.buf[i*2:]))
		samples[i] = float32(s) / 32768
	}
	return Packet{Samples: samples, Channels: 2}, nil
}

func (r *mp3Reader) Duration() float64 { return r.duration }

func (r *mp3Reader) Close() error { return r.file.Close() }
