package codec

import (
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
	wavPacketFrames     = 1152
)

type wavReader struct {
	file     *os.File
	dec      *wav.Decoder
	buf      *audio.IntBuffer
	bitDepth int
	duration float64
}

func newWAVReader(f *os.File) (PacketReader, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, errors.Wrap(ErrNoDecodableTrack, "wav: invalid file")
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, errors.Wrapf(ErrNoDecodableTrack, "wav: audio format %d", dec.WavAudioFormat)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, errors.Wrapf(ErrNoDecodableTrack, "wav: %v", err)
	}

	var duration float64
	if d, err := dec.Duration(); err == nil {
		duration = d.Seconds()
	}

	channels := int(dec.NumChans)
	if channels == 0 {
		channels = 1
	}
	return &wavReader{
		file: f,
		dec:  dec,
		buf: &audio.IntBuffer{
			Data:           make([]int, wavPacketFrames*channels),
			Format:         &audio.Format{NumChannels: channels, SampleRate: int(dec.SampleRate)},
			SourceBitDepth: int(dec.BitDepth),
		},
		bitDepth: int(dec.BitDepth),
		duration: duration,
	}, nil
}

func (r *wavReader) Next() (Packet, error) {
	n, err := r.dec.PCMBuffer(r.buf)
	if err != nil && !IsEndOfStream(err) && n == 0 {
		return Packet{}, errors.Wrap(err, "wav read")
	}
	if n == 0 {
		return Packet{}, io.EOF
	}

	samples := make([]float32, n)
	switch {
	case r.bitDepth == 8:
		// 8-bit WAV is unsigned.
		for i, v := range r.buf.Data[:n] {
			samples[i] = float32(v-128) / 128
		}
	default:
		scale := float32(uint64(1) << (r.bitDepth - 1))
		for i, v := range r.buf.Data[:n] {
			samples[i] = float32(v) / scale
		}
	}
	return Packet{Samples: samples, Channels: r.buf.Format.NumChannels}, nil
}

func (r *wavReader) Duration() float64 { return r.duration }

func (r *wavReader) Close() error { return r.file.Close() }
