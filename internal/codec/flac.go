package codec

import (
	"io"
	"os"

	"github.com/mewkiz/flac"
	"github.com/pkg/errors"
)

type flacReader struct {
	file   *os.File
	stream *flac.Stream
	scale  float32
}

func newFLACReader(f *os.File) (PacketReader, error) {
	stream, err := flac.New(f)
	if err != nil {
		return nil, errors.Wrapf(ErrNoDecodableTrack, "flac: %v", err)
	}
	if stream.Info == nil || stream.Info.BitsPerSample == 0 {
		return nil, errors.Wrap(ErrNoDecodableTrack, "flac: missing stream info")
	}
	return &flacReader{
		file:   f,
		stream: stream,
		scale:  float32(uint64(1) << (stream.Info.BitsPerSample - 1)),
	}, nil
}

// Next demuxes one frame header, then decodes its subframes. A frame whose
// samples fail to decode (bad CRC, corrupt residual) is reported as ErrDecode.
func (r *flacReader) Next() (Packet, error) {
	frm, err := r.stream.Next()
	if err != nil {
		if IsEndOfStream(err) {
			return Packet{}, io.EOF
		}
		return Packet{}, errors.Wrap(err, "flac frame header")
	}
	if err := frm.Parse(); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Packet{}, io.EOF
		}
		return Packet{}, errors.Wrapf(ErrDecode, "flac frame: %v", err)
	}

	var total int
	for _, sub := range frm.Subframes {
		total += len(sub.Samples)
	}
	samples := make([]float32, 0, total)
	for _, sub := range frm.Subframes {
		for _, s := range sub.Samples {
			samples = append(samples, float32(s)/r.scale)
		}
	}
	return Packet{Samples: samples, Channels: len(frm.Subframes)}, nil
}

func (r *flacReader) Duration() float64 {
	info := r.stream.Info
	if info.SampleRate == 0 {
		return 0
	}
	return float64(info.NSamples) / float64(info.SampleRate)
}

func (r *flacReader) Close() error { return r.file.Close() }
