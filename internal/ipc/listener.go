// Package ipc keeps a single player instance per user session. The first
// process binds a loopback UDP port; later processes hand their paths to it
// and exit.
package ipc

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/jscyril/tiny_audio_player/internal/task"
	playerrors "github.com/jscyril/tiny_audio_player/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultAddr = "127.0.0.1:61313"
	// MaxMessageSize is the largest datagram accepted; one path per datagram.
	MaxMessageSize = 1500

	pollInterval = 200 * time.Millisecond
)

var ErrPathTooLong = errors.New("path does not fit in one message")

// Listener receives paths sent by other instances.
type Listener struct {
	conn  *net.UDPConn
	log   zerolog.Logger
	scope *task.Scope
}

// Listen binds addr. If another instance holds it the error wraps
// errors.ErrAlreadyRunning.
func Listen(addr string, log zerolog.Logger) (*Listener, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return nil, playerrors.NewPlayerError("listen", "", fmt.Errorf("%w: %s", playerrors.ErrAlreadyRunning, addr))
		}
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	return &Listener{conn: conn, log: log}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// Serve calls handle with every received path on a background task until
// Close. Calling it twice does nothing.
func (l *Listener) Serve(handle func(path string)) {
	if l.scope != nil {
		return
	}
	l.scope = task.Go(func(s *task.Scope) {
		l.serve(s, handle)
	})
}

func (l *Listener) serve(s *task.Scope, handle func(path string)) {
	buf := make([]byte, MaxMessageSize)

	for !s.ShouldStop() {
		if err := l.conn.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			l.log.Warn().Err(err).Msg("ipc: set deadline")
			return
		}

		n, from, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if !s.ShouldStop() {
				l.log.Warn().Err(err).Msg("ipc: read failed")
			}
			return
		}

		path, ok := decode(buf[:n])
		if !ok {
			l.log.Warn().Stringer("from", from).Int("bytes", n).Msg("ipc: ignoring malformed message")
			continue
		}
		l.log.Debug().Str("path", path).Msg("ipc: path received")
		handle(path)
	}
}

// Close stops serving and releases the port.
func (l *Listener) Close() error {
	l.scope.Signal()
	err := l.conn.Close()
	l.scope.Wait()
	return err
}

// Notify sends each path to the instance listening on addr.
func Notify(addr string, paths []string) error {
	for _, p := range paths {
		if len(p) >= MaxMessageSize {
			return playerrors.NewPlayerError("notify", p, ErrPathTooLong)
		}
	}

	conn, err := net.Dial("udp", addr)
	if err != nil {
		return playerrors.NewPlayerError("notify", "", err)
	}
	defer conn.Close()

	for _, p := range paths {
		if _, err := conn.Write([]byte(p)); err != nil {
			return playerrors.NewPlayerError("notify", p, err)
		}
	}
	return nil
}

// decode strips NUL padding and rejects non-UTF-8 or empty messages.
func decode(msg []byte) (string, bool) {
	msg = bytes.Trim(msg, "\x00")
	if len(msg) == 0 || !utf8.Valid(msg) {
		return "", false
	}
	return string(msg), true
}
