package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jscyril/tiny_audio_player/api"
	"github.com/jscyril/tiny_audio_player/internal/codec"
	"github.com/jscyril/tiny_audio_player/internal/library"
	"github.com/jscyril/tiny_audio_player/internal/playlist"
	"github.com/jscyril/tiny_audio_player/internal/task"
	"github.com/jscyril/tiny_audio_player/internal/waveform"
	playerrors "github.com/jscyril/tiny_audio_player/pkg/errors"
	"github.com/jscyril/tiny_audio_player/pkg/events"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Ensure AudioEngine implements Player interface at compile time
var _ api.Player = (*AudioEngine)(nil)

const (
	DefaultAdvanceInterval = time.Second
	DefaultEndEpsilon      = 0.01 // seconds
)

// AudioEngine owns the tracklist, the active session and the playback
// settings. Every command runs under one mutex.
type AudioEngine struct {
	mu        sync.Mutex
	output    Output
	analyzer  *waveform.Analyzer
	session   *Session
	tracklist *playlist.Tracklist
	names     *library.MetadataReader
	volume    float64
	rate      float64
	bus       *events.EventBus
	log       zerolog.Logger

	monitor  *task.Scope
	interval time.Duration
	epsilon  float64
	closed   bool
}

// Option configures an AudioEngine.
type Option func(*AudioEngine)

func WithLogger(log zerolog.Logger) Option {
	return func(e *AudioEngine) { e.log = log }
}

// WithAnalyzer replaces the waveform analyzer started with every session.
func WithAnalyzer(a *waveform.Analyzer) Option {
	return func(e *AudioEngine) { e.analyzer = a }
}

// WithWaveformWindow sets how many packets are averaged per waveform point.
func WithWaveformWindow(window int) Option {
	return func(e *AudioEngine) { e.analyzer.Window = window }
}

func WithAdvanceInterval(d time.Duration) Option {
	return func(e *AudioEngine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithEndEpsilon sets how close to the end (seconds) a track counts as finished.
func WithEndEpsilon(eps float64) Option {
	return func(e *AudioEngine) {
		if eps >= 0 {
			e.epsilon = eps
		}
	}
}

// WithVolume sets the initial volume. Negative values are ignored.
func WithVolume(v float64) Option {
	return func(e *AudioEngine) {
		if v >= 0 {
			e.volume = v
		}
	}
}

// WithPlaybackRate sets the initial playback rate. Non-positive values are ignored.
func WithPlaybackRate(r float64) Option {
	return func(e *AudioEngine) {
		if r > 0 {
			e.rate = r
		}
	}
}

// NewAudioEngine creates an engine playing through out.
func NewAudioEngine(out Output, opts ...Option) *AudioEngine {
	e := &AudioEngine{
		output:    out,
		tracklist: playlist.NewTracklist(),
		names:     library.NewMetadataReader(),
		volume:    1,
		rate:      1,
		bus:       events.NewEventBus(),
		log:       zerolog.Nop(),
		interval:  DefaultAdvanceInterval,
		epsilon:   DefaultEndEpsilon,
	}
	e.analyzer = waveform.NewAnalyzer(waveform.DefaultWindow, e.log)
	for _, opt := range opts {
		opt(e)
	}
	e.analyzer.Log = e.log
	e.output.SetVolume(e.volume)
	return e
}

// Events returns a channel receiving every engine event.
func (e *AudioEngine) Events() <-chan api.AudioEvent {
	return e.bus.Subscribe()
}

// Subscribe returns a channel receiving the given event types.
func (e *AudioEngine) Subscribe(types ...api.EventType) <-chan api.AudioEvent {
	return e.bus.Subscribe(types...)
}

// Unsubscribe closes a channel returned by Subscribe or Events.
func (e *AudioEngine) Unsubscribe(ch <-chan api.AudioEvent) {
	e.bus.Unsubscribe(ch)
}

// Start launches the advance monitor. It runs until ctx is done or the engine
// is closed. Starting twice does nothing.
func (e *AudioEngine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.monitor != nil {
		return
	}
	e.monitor = task.Go(func(s *task.Scope) {
		e.runMonitor(ctx, s)
	})
}

// Close stops the monitor, then the session, then the event bus.
func (e *AudioEngine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	monitor := e.monitor
	e.monitor = nil
	e.mu.Unlock()

	// The monitor takes the lock itself, so it is joined without holding it.
	monitor.Stop()

	e.mu.Lock()
	e.teardown()
	e.mu.Unlock()

	e.bus.Close()
}

// Dispatch runs one command to completion under the engine lock. Commands
// after Close are ignored.
func (e *AudioEngine) Dispatch(cmd api.AudioCommand) error {
	_, err := e.dispatch(cmd)
	return err
}

// dispatch is Dispatch that also reports whether cmd ran.
func (e *AudioEngine) dispatch(cmd api.AudioCommand) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false, nil
	}
	return true, e.handle(cmd)
}

// handle runs cmd. Caller holds e.mu.
func (e *AudioEngine) handle(cmd api.AudioCommand) error {
	switch cmd.Type {
	case api.CmdPlayTrack:
		index, ok := cmd.Payload.(int)
		if !ok {
			return badPayload(cmd)
		}
		return e.playTrack(index)

	case api.CmdAdvance:
		index, ok := cmd.Payload.(int)
		if !ok {
			return badPayload(cmd)
		}
		ended := e.tracklist.Current()
		e.bus.Publish(api.AudioEvent{Type: api.EventTrackEnded, Payload: ended})
		e.log.Debug().Int("from", ended).Int("to", index).Msg("advancing")
		return e.playTrack(index)

	case api.CmdPauseResume:
		e.pauseResume()

	case api.CmdTogglePlayback:
		if !e.tracklist.HasCurrent() {
			return e.playTrack(0)
		}
		e.pauseResume()

	case api.CmdStop:
		if e.session != nil {
			e.teardown()
			e.publishState()
		}

	case api.CmdSeek:
		position, ok := cmd.Payload.(float64)
		if !ok {
			return badPayload(cmd)
		}
		return e.seek(position)

	case api.CmdSeekFraction:
		portion, ok := cmd.Payload.(float64)
		if !ok {
			return badPayload(cmd)
		}
		if e.session != nil {
			return e.seek(lo.Clamp(portion, 0, 1) * e.session.Duration())
		}

	case api.CmdVolume:
		volume, ok := cmd.Payload.(float64)
		if !ok {
			return badPayload(cmd)
		}
		if volume < 0 {
			return playerrors.ErrInvalidVolume
		}
		e.volume = volume
		e.output.SetVolume(volume)
		e.publishState()

	case api.CmdPlaybackRate:
		rate, ok := cmd.Payload.(float64)
		if !ok {
			return badPayload(cmd)
		}
		if rate <= 0 {
			return playerrors.ErrInvalidRate
		}
		e.rate = rate
		if e.session != nil {
			e.session.SetPlaybackRate(rate)
		}
		e.publishState()

	case api.CmdAddTrack:
		entry, ok := cmd.Payload.(api.TrackEntry)
		if !ok {
			return badPayload(cmd)
		}
		if e.addTrack(entry) {
			e.publishTracklist()
		}

	case api.CmdRemoveTrack:
		index, ok := cmd.Payload.(int)
		if !ok {
			return badPayload(cmd)
		}
		e.removeTrack(index)

	case api.CmdMoveTrackUp, api.CmdMoveTrackDown:
		index, ok := cmd.Payload.(int)
		if !ok {
			return badPayload(cmd)
		}
		var moved bool
		if cmd.Type == api.CmdMoveTrackUp {
			moved = e.tracklist.MoveUp(index)
		} else {
			moved = e.tracklist.MoveDown(index)
		}
		if moved {
			e.publishTracklist()
		}

	case api.CmdClearTracklist:
		e.teardown()
		e.tracklist.Clear()
		e.publishTracklist()

	case api.CmdLoadPaths:
		entries, ok := cmd.Payload.([]api.TrackEntry)
		if !ok {
			return badPayload(cmd)
		}
		e.teardown()
		e.tracklist.Clear()
		if added := lo.CountBy(entries, e.addTrack); added < len(entries) {
			e.log.Debug().Int("rejected", len(entries)-added).Msg("unsupported paths skipped")
		}
		e.publishTracklist()

	default:
		return playerrors.NewPlayerError(cmd.Type.String(), "", playerrors.ErrUnknownCommand)
	}
	return nil
}

func badPayload(cmd api.AudioCommand) error {
	return playerrors.NewPlayerError(cmd.Type.String(), "", fmt.Errorf("%w: %T", playerrors.ErrBadPayload, cmd.Payload))
}

// playTrack replaces the session with one for index. Out-of-range indices
// are ignored. Caller holds e.mu.
func (e *AudioEngine) playTrack(index int) error {
	entry, ok := e.tracklist.Get(index)
	if !ok {
		return nil
	}

	e.tracklist.SetCurrent(index)
	e.teardown()

	session, err := StartSession(e.output, e.analyzer, entry.Path)
	if err != nil {
		e.log.Error().Err(err).Str("path", entry.Path).Msg("session start failed")
		e.bus.Publish(api.AudioEvent{Type: api.EventError, Payload: err})
		return err
	}
	session.SetPlaybackRate(e.rate)
	e.session = session

	e.log.Debug().Int("index", index).Str("path", entry.Path).Msg("session started")
	e.bus.Publish(api.AudioEvent{Type: api.EventTrackStarted, Payload: index})
	e.publishState()
	return nil
}

// teardown stops and forgets the session, joining its analyzer. Caller holds e.mu.
func (e *AudioEngine) teardown() {
	if e.session == nil {
		return
	}
	e.session.Stop()
	e.log.Debug().Str("path", e.session.Path()).Msg("session stopped")
	e.session = nil
}

func (e *AudioEngine) seek(position float64) error {
	if e.session == nil {
		return nil
	}
	if err := e.session.Seek(position); err != nil {
		e.log.Warn().Err(err).Str("path", e.session.Path()).Float64("position", position).Msg("seek failed")
		return err
	}
	return nil
}

func (e *AudioEngine) pauseResume() {
	if e.session == nil {
		return
	}
	e.session.PauseResume()
	e.publishState()
}

// addTrack appends entry unless its format is unsupported. Caller holds e.mu.
func (e *AudioEngine) addTrack(entry api.TrackEntry) bool {
	if !codec.IsSupported(entry.Path) {
		e.log.Debug().Str("path", entry.Path).Msg("unsupported track skipped")
		return false
	}
	e.tracklist.Add(entry)
	return true
}

// entry names path from its tags. It reads the file, so it runs before the
// engine lock is taken.
func (e *AudioEngine) entry(path string) api.TrackEntry {
	return api.TrackEntry{Name: e.names.Name(path), Path: path}
}

func (e *AudioEngine) removeTrack(index int) {
	if _, ok := e.tracklist.Get(index); !ok {
		return
	}
	if index == e.tracklist.Current() {
		e.teardown()
	}
	if removedCurrent, _ := e.tracklist.Remove(index); removedCurrent {
		e.publishState()
	}
	e.publishTracklist()
}

func (e *AudioEngine) publishState() {
	e.bus.Publish(api.AudioEvent{Type: api.EventStateChange})
}

func (e *AudioEngine) publishTracklist() {
	e.bus.Publish(api.AudioEvent{Type: api.EventTracklistChanged})
}

// PlayTrack starts playing the entry at index. Out-of-range indices are
// ignored.
func (e *AudioEngine) PlayTrack(index int) error {
	return e.Dispatch(api.AudioCommand{Type: api.CmdPlayTrack, Payload: index})
}

// PauseResume toggles the active session.
func (e *AudioEngine) PauseResume() {
	_ = e.Dispatch(api.AudioCommand{Type: api.CmdPauseResume})
}

// TogglePlayback starts the first entry if nothing is selected, otherwise
// pauses or resumes.
func (e *AudioEngine) TogglePlayback() error {
	return e.Dispatch(api.AudioCommand{Type: api.CmdTogglePlayback})
}

// Stop ends the session but keeps the current index.
func (e *AudioEngine) Stop() {
	_ = e.Dispatch(api.AudioCommand{Type: api.CmdStop})
}

// Seek jumps to position seconds.
func (e *AudioEngine) Seek(position float64) {
	_ = e.Dispatch(api.AudioCommand{Type: api.CmdSeek, Payload: position})
}

// SeekFraction jumps to portion (0 to 1) of the track.
func (e *AudioEngine) SeekFraction(portion float64) {
	_ = e.Dispatch(api.AudioCommand{Type: api.CmdSeekFraction, Payload: portion})
}

// SetVolume sets the volume multiplier. 1 is unity gain.
func (e *AudioEngine) SetVolume(volume float64) error {
	return e.Dispatch(api.AudioCommand{Type: api.CmdVolume, Payload: volume})
}

// SetPlaybackRate sets the speed multiplier kept across tracks.
func (e *AudioEngine) SetPlaybackRate(rate float64) error {
	return e.Dispatch(api.AudioCommand{Type: api.CmdPlaybackRate, Payload: rate})
}

// AddTrack appends path and reports whether it was accepted. Unsupported
// formats and a closed engine reject it.
func (e *AudioEngine) AddTrack(path string) bool {
	if !codec.IsSupported(path) {
		return false
	}
	ran, err := e.dispatch(api.AudioCommand{Type: api.CmdAddTrack, Payload: e.entry(path)})
	return ran && err == nil
}

func (e *AudioEngine) RemoveTrack(index int) {
	_ = e.Dispatch(api.AudioCommand{Type: api.CmdRemoveTrack, Payload: index})
}

func (e *AudioEngine) MoveTrackUp(index int) {
	_ = e.Dispatch(api.AudioCommand{Type: api.CmdMoveTrackUp, Payload: index})
}

func (e *AudioEngine) MoveTrackDown(index int) {
	_ = e.Dispatch(api.AudioCommand{Type: api.CmdMoveTrackDown, Payload: index})
}

func (e *AudioEngine) ClearTracklist() {
	_ = e.Dispatch(api.AudioCommand{Type: api.CmdClearTracklist})
}

// LoadPaths replaces the tracklist with paths. Unsupported paths are skipped.
func (e *AudioEngine) LoadPaths(paths []string) {
	entries := lo.FilterMap(paths, func(path string, _ int) (api.TrackEntry, bool) {
		if !codec.IsSupported(path) {
			return api.TrackEntry{}, false
		}
		return e.entry(path), true
	})
	_ = e.Dispatch(api.AudioCommand{Type: api.CmdLoadPaths, Payload: entries})
}

// Paths returns the path of every entry, in order.
func (e *AudioEngine) Paths() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracklist.Paths()
}

// CurrentTrackIndex returns the selected index, if any.
func (e *AudioEngine) CurrentTrackIndex() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracklist.Current(), e.tracklist.HasCurrent()
}

// Tracklist returns a copy of the entries.
func (e *AudioEngine) Tracklist() []api.TrackEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracklist.Entries()
}

// Position returns seconds played, or 0 without a session.
func (e *AudioEngine) Position() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Position()
}

// Duration returns the track length in seconds, or 0 without a session.
func (e *AudioEngine) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Duration()
}

func (e *AudioEngine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

func (e *AudioEngine) PlaybackRate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rate
}

// Waveform returns the envelope computed so far, or nil without a session.
func (e *AudioEngine) Waveform() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Waveform()
}

// State returns a copy of everything a front-end draws.
func (e *AudioEngine) State() *api.PlaybackState {
	e.mu.Lock()
	defer e.mu.Unlock()

	state := &api.PlaybackState{
		Status:       api.StatusStopped,
		CurrentIndex: e.tracklist.Current(),
		Tracks:       e.tracklist.Entries(),
		Position:     e.session.Position(),
		Duration:     e.session.Duration(),
		Volume:       e.volume,
		PlaybackRate: e.rate,
		Waveform:     e.session.Waveform(),
	}
	if e.session != nil {
		state.Status = api.StatusPlaying
		if e.session.Paused() {
			state.Status = api.StatusPaused
		}
	}
	return state
}
