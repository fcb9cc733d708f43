// Package codec opens audio files as a sequence of decoded packets, independent
// of the playback path. It is used for waveform analysis.
package codec

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrUnsupportedFormat means no decoder is registered for the file type.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrNoDecodableTrack means the container was recognised but holds no
	// stream the decoder can handle.
	ErrNoDecodableTrack = errors.New("no decodable track")
	// ErrResetRequired means the stream parameters changed mid-stream and
	// the decoder cannot continue.
	ErrResetRequired = errors.New("decoder reset required")
	// ErrDecode marks a single bad packet. Readers returning it can be
	// asked for the next packet.
	ErrDecode = errors.New("packet decode error")
)

// Packet holds the samples of one decoded packet, all channels, normalised
// to [-1, 1].
type Packet struct {
	Samples  []float32
	Channels int
}

// MeanAbs returns the mean absolute sample value, or 0 for an empty packet.
func (p Packet) MeanAbs() float32 {
	if len(p.Samples) == 0 {
		return 0
	}
	var sum float32
	for _, s := range p.Samples {
		sum += float32(math.Abs(float64(s)))
	}
	return sum / float32(len(p.Samples))
}

// PacketReader yields packets until io.EOF. Errors wrapping ErrDecode are
// per-packet and recoverable; any other error ends the stream.
type PacketReader interface {
	Next() (Packet, error)
	// Duration is the stream length in seconds, 0 when unknown.
	Duration() float64
	Close() error
}

// OpenFunc opens a path as a PacketReader.
type OpenFunc func(path string) (PacketReader, error)

// SupportedFormats returns the accepted file extensions.
func SupportedFormats() []string {
	return []string{".mp3", ".wav", ".ogg", ".flac"}
}

// IsSupported checks the extension against SupportedFormats, ignoring case.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// Open selects a decoder by file extension.
func Open(path string) (PacketReader, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var open func(*os.File) (PacketReader, error)
	switch ext {
	case ".mp3":
		open = newMP3Reader
	case ".flac":
		open = newFLACReader
	case ".wav":
		open = newWAVReader
	case ".ogg":
		open = newVorbisReader
	default:
		return nil, pkgerrors.Wrapf(ErrUnsupportedFormat, "extension %q", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open source")
	}
	r, err := open(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// IsEndOfStream reports whether err marks a normal end of the stream.
func IsEndOfStream(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
