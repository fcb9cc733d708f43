package audio

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/jscyril/tiny_audio_player/api"
	"github.com/jscyril/tiny_audio_player/internal/codec"
	"github.com/jscyril/tiny_audio_player/internal/waveform"
	playerrors "github.com/jscyril/tiny_audio_player/pkg/errors"
	"github.com/rs/zerolog"
)

type fakeStream struct {
	mu       sync.Mutex
	path     string
	position float64
	duration float64
	rate     float64
	paused   bool
	stopped  bool
	stops    int
}

func (s *fakeStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.stops++
}

func (s *fakeStream) Pause()  { s.mu.Lock(); s.paused = true; s.mu.Unlock() }
func (s *fakeStream) Resume() { s.mu.Lock(); s.paused = false; s.mu.Unlock() }

func (s *fakeStream) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *fakeStream) Seek(position float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = position
	return nil
}

func (s *fakeStream) SetPlaybackRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = rate
}

func (s *fakeStream) PlaybackRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

func (s *fakeStream) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

func (s *fakeStream) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

func (s *fakeStream) setPosition(p float64) { _ = s.Seek(p) }

type fakeOutput struct {
	mu      sync.Mutex
	streams []*fakeStream
	volume  float64
	failOn  string
}

func (o *fakeOutput) Open(path string) (Stream, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if path == o.failOn {
		return nil, playerrors.NewPlayerError("open", path, playerrors.ErrStreamOpen)
	}
	s := &fakeStream{path: path, duration: 10, rate: 1}
	o.streams = append(o.streams, s)
	return s, nil
}

func (o *fakeOutput) SetVolume(v float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.volume = v
}

func (o *fakeOutput) Close() error { return nil }

func (o *fakeOutput) last() *fakeStream {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.streams) == 0 {
		return nil
	}
	return o.streams[len(o.streams)-1]
}

func (o *fakeOutput) opened() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.streams)
}

// endlessPackets decodes forever so the analyzer only ends when stopped.
type endlessPackets struct{}

func (endlessPackets) Next() (codec.Packet, error) {
	time.Sleep(50 * time.Microsecond)
	return codec.Packet{Samples: []float32{0.5, -0.5}, Channels: 2}, nil
}
func (endlessPackets) Duration() float64 { return 0 }
func (endlessPackets) Close() error      { return nil }

func endlessAnalyzer() *waveform.Analyzer {
	return &waveform.Analyzer{
		Open:   func(string) (codec.PacketReader, error) { return endlessPackets{}, nil },
		Window: 1,
		Log:    zerolog.Nop(),
	}
}

func noWaveform() *waveform.Analyzer {
	return &waveform.Analyzer{
		Open:   func(string) (codec.PacketReader, error) { return nil, codec.ErrNoDecodableTrack },
		Window: waveform.DefaultWindow,
		Log:    zerolog.Nop(),
	}
}

func newTestEngine(t *testing.T, paths ...string) (*AudioEngine, *fakeOutput) {
	t.Helper()
	out := &fakeOutput{}
	e := NewAudioEngine(out, WithAnalyzer(noWaveform()))
	t.Cleanup(e.Close)
	for _, p := range paths {
		if !e.AddTrack(p) {
			t.Fatalf("AddTrack(%s) rejected", p)
		}
	}
	return e, out
}

func TestNewAudioEngineDefaults(t *testing.T) {
	e, out := newTestEngine(t)

	if _, ok := e.CurrentTrackIndex(); ok {
		t.Error("expected no current track")
	}
	if e.Position() != 0 || e.Duration() != 0 {
		t.Errorf("expected zero position/duration, got %f/%f", e.Position(), e.Duration())
	}
	if e.Volume() != 1 || e.PlaybackRate() != 1 {
		t.Errorf("expected unity volume and rate, got %f/%f", e.Volume(), e.PlaybackRate())
	}
	if e.Waveform() != nil {
		t.Error("expected nil waveform")
	}
	if out.volume != 1 {
		t.Errorf("initial volume not applied to output, got %f", out.volume)
	}

	state := e.State()
	if state.Status != api.StatusStopped || state.CurrentIndex != -1 || len(state.Tracks) != 0 {
		t.Errorf("unexpected initial state %+v", state)
	}
}

func TestStopWithoutSessionIsIdempotent(t *testing.T) {
	e, _ := newTestEngine(t, "/music/a.mp3")
	e.Stop()
	e.Stop()
	if e.State().Status != api.StatusStopped {
		t.Error("expected stopped")
	}

	e.PlayTrack(0)
	e.Stop()
	e.Stop()
	if _, ok := e.CurrentTrackIndex(); !ok {
		t.Error("Stop should keep the current index")
	}
	if e.Position() != 0 {
		t.Errorf("position after stop = %f", e.Position())
	}
}

func TestAddTrackFiltersExtensions(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/music/a.mp3", true},
		{"/music/b.FLAC", true},
		{"/music/c.ogg", true},
		{"/music/d.wav", true},
		{"/music/e.aac", false},
		{"/music/cover.jpg", false},
	}

	e, _ := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := e.AddTrack(tt.path); got != tt.want {
				t.Errorf("AddTrack(%s) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
	if got := len(e.Tracklist()); got != 4 {
		t.Errorf("tracklist len = %d, want 4", got)
	}
}

func TestAddTrackNamesEntry(t *testing.T) {
	e, _ := newTestEngine(t, "/music/First Song.mp3")
	if got := e.Tracklist()[0].Name; got != "First Song" {
		t.Errorf("name = %q, want %q", got, "First Song")
	}
}

func TestPlayTrackOutOfRangeIsNoop(t *testing.T) {
	e, out := newTestEngine(t, "/music/a.mp3")
	for _, i := range []int{-1, 1, 10} {
		if err := e.PlayTrack(i); err != nil {
			t.Errorf("PlayTrack(%d) returned %v", i, err)
		}
	}
	if out.opened() != 0 {
		t.Errorf("expected no streams, got %d", out.opened())
	}
}

func TestPlayTrackReplacesSession(t *testing.T) {
	e, out := newTestEngine(t, "/music/a.mp3", "/music/b.mp3")
	if err := e.PlayTrack(0); err != nil {
		t.Fatal(err)
	}
	first := out.last()
	if err := e.PlayTrack(1); err != nil {
		t.Fatal(err)
	}

	if !first.stopped {
		t.Error("previous stream should be stopped")
	}
	if out.last().path != "/music/b.mp3" {
		t.Errorf("playing %s", out.last().path)
	}
	if i, _ := e.CurrentTrackIndex(); i != 1 {
		t.Errorf("current = %d, want 1", i)
	}
	if e.State().Status != api.StatusPlaying {
		t.Error("expected playing")
	}
}

func TestPlayTrackFailure(t *testing.T) {
	e, out := newTestEngine(t, "/music/a.mp3", "/music/broken.mp3")
	out.failOn = "/music/broken.mp3"
	errs := e.Subscribe(api.EventError)

	err := e.PlayTrack(1)
	if !errors.Is(err, playerrors.ErrStreamOpen) || !playerrors.IsFatal(err) {
		t.Fatalf("expected fatal stream error, got %v", err)
	}
	var pe *playerrors.PlayerError
	if !errors.As(err, &pe) {
		t.Errorf("expected *PlayerError, got %T", err)
	}
	if e.State().Status != api.StatusStopped {
		t.Error("no session should be active")
	}

	select {
	case ev := <-errs:
		if ev.Payload != err {
			t.Errorf("event payload = %v", ev.Payload)
		}
	default:
		t.Error("expected an error event")
	}
}

func TestPlaybackRatePersistsAcrossTracks(t *testing.T) {
	e, out := newTestEngine(t, "/music/a.mp3", "/music/b.mp3")
	e.PlayTrack(0)
	if err := e.SetPlaybackRate(1.3); err != nil {
		t.Fatal(err)
	}
	if got := out.last().PlaybackRate(); got != 1.3 {
		t.Errorf("active stream rate = %f, want 1.3", got)
	}

	e.PlayTrack(1)
	if got := out.last().PlaybackRate(); got != 1.3 {
		t.Errorf("new stream rate = %f, want 1.3", got)
	}
	if e.PlaybackRate() != 1.3 {
		t.Errorf("PlaybackRate() = %f", e.PlaybackRate())
	}
}

func TestRateAppliedWithoutSession(t *testing.T) {
	e, out := newTestEngine(t, "/music/a.mp3")
	e.SetPlaybackRate(0.75)
	e.PlayTrack(0)
	if got := out.last().PlaybackRate(); got != 0.75 {
		t.Errorf("stream rate = %f, want 0.75", got)
	}
}

func TestSetVolumeValidation(t *testing.T) {
	e, out := newTestEngine(t)

	tests := []struct {
		name    string
		volume  float64
		wantErr error
	}{
		{"zero volume", 0.0, nil},
		{"half volume", 0.5, nil},
		{"amplified", 2.0, nil},
		{"below zero", -0.1, playerrors.ErrInvalidVolume},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.SetVolume(tt.volume)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SetVolume(%f) error = %v, want %v", tt.volume, err, tt.wantErr)
			}
			if err == nil && out.volume != tt.volume {
				t.Errorf("output volume = %f, want %f", out.volume, tt.volume)
			}
		})
	}
	if e.Volume() != 2.0 {
		t.Errorf("rejected volume changed state: %f", e.Volume())
	}
}

func TestSetPlaybackRateValidation(t *testing.T) {
	e, _ := newTestEngine(t)
	for _, r := range []float64{0, -1} {
		if err := e.SetPlaybackRate(r); !errors.Is(err, playerrors.ErrInvalidRate) {
			t.Errorf("SetPlaybackRate(%f) = %v", r, err)
		}
	}
	if e.PlaybackRate() != 1 {
		t.Errorf("rate changed to %f", e.PlaybackRate())
	}
}

func TestPauseResume(t *testing.T) {
	e, out := newTestEngine(t, "/music/a.mp3")
	e.PauseResume() // no session

	e.PlayTrack(0)
	e.PauseResume()
	if !out.last().Paused() || e.State().Status != api.StatusPaused {
		t.Error("expected paused")
	}
	e.PauseResume()
	if out.last().Paused() || e.State().Status != api.StatusPlaying {
		t.Error("expected playing")
	}
}

func TestTogglePlayback(t *testing.T) {
	e, out := newTestEngine(t, "/music/a.mp3", "/music/b.mp3")

	if err := e.TogglePlayback(); err != nil {
		t.Fatal(err)
	}
	if i, ok := e.CurrentTrackIndex(); !ok || i != 0 {
		t.Fatalf("expected first track, got %d %v", i, ok)
	}

	e.TogglePlayback()
	if !out.last().Paused() {
		t.Error("second toggle should pause")
	}
	if out.opened() != 1 {
		t.Errorf("toggle should not reopen, opened %d", out.opened())
	}
}

func TestSeek(t *testing.T) {
	e, out := newTestEngine(t, "/music/a.mp3")
	e.Seek(3) // no session

	e.PlayTrack(0)
	e.Seek(4.5)
	if got := e.Position(); got != 4.5 {
		t.Errorf("position = %f, want 4.5", got)
	}

	tests := []struct {
		portion float64
		want    float64
	}{
		{0.5, 5},
		{0, 0},
		{1, 10},
		{1.5, 10},
		{-0.2, 0},
	}
	for _, tt := range tests {
		e.SeekFraction(tt.portion)
		if got := out.last().Position(); got != tt.want {
			t.Errorf("SeekFraction(%f) position = %f, want %f", tt.portion, got, tt.want)
		}
	}
}

func TestRemoveTrackRenormalizesIndex(t *testing.T) {
	tests := []struct {
		name        string
		play        int
		remove      int
		wantCurrent int
		wantHas     bool
		wantStopped bool
	}{
		{"before current", 2, 0, 1, true, false},
		{"at current", 1, 1, -1, false, true},
		{"after current", 0, 2, 0, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, out := newTestEngine(t, "/music/a.mp3", "/music/b.mp3", "/music/c.mp3")
			e.PlayTrack(tt.play)
			stream := out.last()

			e.RemoveTrack(tt.remove)
			i, ok := e.CurrentTrackIndex()
			if i != tt.wantCurrent || ok != tt.wantHas {
				t.Errorf("current = %d %v, want %d %v", i, ok, tt.wantCurrent, tt.wantHas)
			}
			if stream.stopped != tt.wantStopped {
				t.Errorf("stream stopped = %v, want %v", stream.stopped, tt.wantStopped)
			}
			if len(e.Tracklist()) != 2 {
				t.Errorf("tracklist len = %d", len(e.Tracklist()))
			}
		})
	}
}

func TestMoveTrackWraparound(t *testing.T) {
	paths := []string{"/music/a.mp3", "/music/b.mp3", "/music/c.mp3"}
	e, _ := newTestEngine(t, paths...)
	e.PlayTrack(0)

	e.MoveTrackUp(0)
	want := []string{"/music/c.mp3", "/music/b.mp3", "/music/a.mp3"}
	if got := e.Paths(); !reflect.DeepEqual(got, want) {
		t.Errorf("after MoveTrackUp(0) = %v, want %v", got, want)
	}
	if i, _ := e.CurrentTrackIndex(); i != 2 {
		t.Errorf("current followed to %d, want 2", i)
	}

	e.MoveTrackDown(2)
	if got := e.Paths(); !reflect.DeepEqual(got, paths) {
		t.Errorf("after MoveTrackDown(2) = %v, want %v", got, paths)
	}
	if i, _ := e.CurrentTrackIndex(); i != 0 {
		t.Errorf("current followed to %d, want 0", i)
	}
}

func TestClearAndLoadPaths(t *testing.T) {
	e, out := newTestEngine(t, "/music/a.mp3")
	e.PlayTrack(0)

	e.LoadPaths([]string{"/music/x.wav", "/music/readme.txt", "/music/y.ogg"})
	if !out.last().stopped {
		t.Error("loading paths should stop the session")
	}
	want := []string{"/music/x.wav", "/music/y.ogg"}
	if got := e.Paths(); !reflect.DeepEqual(got, want) {
		t.Errorf("paths = %v, want %v", got, want)
	}
	if _, ok := e.CurrentTrackIndex(); ok {
		t.Error("expected no current after load")
	}

	e.ClearTracklist()
	if len(e.Paths()) != 0 {
		t.Error("expected empty tracklist")
	}
}

func TestCheckAdvance(t *testing.T) {
	tests := []struct {
		name     string
		play     int
		position float64
		want     bool
		wantNext int
	}{
		{"not finished", 0, 5, false, 0},
		{"within epsilon", 0, 9.995, true, 1},
		{"past end", 1, 10, true, 2},
		{"wraps from last", 2, 10, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, out := newTestEngine(t, "/music/a.mp3", "/music/b.mp3", "/music/c.mp3")
			e.PlayTrack(tt.play)
			out.last().setPosition(tt.position)

			if got := e.checkAdvance(); got != tt.want {
				t.Fatalf("checkAdvance() = %v, want %v", got, tt.want)
			}
			if i, _ := e.CurrentTrackIndex(); i != tt.wantNext {
				t.Errorf("current = %d, want %d", i, tt.wantNext)
			}
		})
	}
}

func TestCheckAdvanceIdle(t *testing.T) {
	e, _ := newTestEngine(t, "/music/a.mp3")
	if e.checkAdvance() {
		t.Error("should not advance without a current track")
	}

	// Current track but stopped: both getters read 0.
	e.PlayTrack(0)
	e.Stop()
	if e.checkAdvance() {
		t.Error("should not advance without a session")
	}
}

func TestAdvanceScenario(t *testing.T) {
	e, out := newTestEngine(t, "/music/a.mp3", "/music/b.mp3", "/music/c.mp3")
	events := e.Subscribe(api.EventTrackEnded, api.EventTrackStarted)

	e.PlayTrack(2)
	<-events // started 2
	out.last().setPosition(10)
	if !e.checkAdvance() {
		t.Fatal("expected advance")
	}

	if i, ok := e.CurrentTrackIndex(); !ok || i != 0 {
		t.Fatalf("current = %d %v, want 0 true", i, ok)
	}
	session := out.last()
	if session.path != "/music/a.mp3" || session.stopped {
		t.Fatalf("expected live session for a, got %+v", session)
	}

	ended := <-events
	started := <-events
	if ended.Type != api.EventTrackEnded || ended.Payload != 2 {
		t.Errorf("ended event = %+v", ended)
	}
	if started.Type != api.EventTrackStarted || started.Payload != 0 {
		t.Errorf("started event = %+v", started)
	}

	e.RemoveTrack(0)
	if _, ok := e.CurrentTrackIndex(); ok {
		t.Error("expected no current track")
	}
	if !session.stopped {
		t.Error("session for a should be stopped")
	}
	if e.State().Status != api.StatusStopped {
		t.Error("expected stopped state")
	}
}

func TestMonitorAdvances(t *testing.T) {
	out := &fakeOutput{}
	e := NewAudioEngine(out, WithAnalyzer(noWaveform()), WithAdvanceInterval(5*time.Millisecond))
	defer e.Close()
	e.AddTrack("/music/a.mp3")
	e.AddTrack("/music/b.mp3")

	started := e.Subscribe(api.EventTrackStarted)
	e.Start(context.Background())
	e.PlayTrack(0)
	<-started
	out.last().setPosition(10)

	select {
	case ev := <-started:
		if ev.Payload != 1 {
			t.Errorf("advanced to %v, want 1", ev.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not advance")
	}
}

func TestMonitorStopsWithContext(t *testing.T) {
	out := &fakeOutput{}
	e := NewAudioEngine(out, WithAnalyzer(noWaveform()), WithAdvanceInterval(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	e.Start(ctx)
	cancel()
	e.Close()
	e.Close()
}

func TestWaveformStopsAfterTeardown(t *testing.T) {
	out := &fakeOutput{}
	e := NewAudioEngine(out, WithAnalyzer(endlessAnalyzer()))
	defer e.Close()
	e.AddTrack("/music/a.mp3")
	e.PlayTrack(0)

	deadline := time.Now().Add(2 * time.Second)
	for len(e.Waveform()) < 3 {
		if time.Now().After(deadline) {
			t.Fatal("waveform did not grow")
		}
		time.Sleep(time.Millisecond)
	}

	e.mu.Lock()
	session := e.session
	e.mu.Unlock()

	prev := 0
	for i := 0; i < 5; i++ {
		n := session.WaveformLen()
		if n < prev {
			t.Fatalf("waveform shrank from %d to %d", prev, n)
		}
		prev = n
		time.Sleep(time.Millisecond)
	}

	e.Stop()
	after := session.WaveformLen()
	time.Sleep(10 * time.Millisecond)
	if got := session.WaveformLen(); got != after {
		t.Errorf("waveform grew after teardown: %d -> %d", after, got)
	}
	if e.Waveform() != nil {
		t.Error("engine should report no waveform without a session")
	}
}

func TestCloseIgnoresLaterCommands(t *testing.T) {
	e, out := newTestEngine(t, "/music/a.mp3")
	e.PlayTrack(0)
	events := e.Events()

	e.Close()
	if !out.last().stopped {
		t.Error("Close should stop the session")
	}
	if err := e.PlayTrack(0); err != nil {
		t.Errorf("PlayTrack after Close = %v", err)
	}
	if out.opened() != 1 {
		t.Error("no stream should open after Close")
	}

	for range events {
	}
}

func TestDispatchRejectsBadCommands(t *testing.T) {
	e, _ := newTestEngine(t)

	tests := []struct {
		name    string
		cmd     api.AudioCommand
		wantErr error
	}{
		{"bad payload", api.AudioCommand{Type: api.CmdPlayTrack, Payload: "zero"}, playerrors.ErrBadPayload},
		{"missing payload", api.AudioCommand{Type: api.CmdSeek}, playerrors.ErrBadPayload},
		{"unknown type", api.AudioCommand{Type: api.CommandType(99)}, playerrors.ErrUnknownCommand},
		{"path instead of entry", api.AudioCommand{Type: api.CmdAddTrack, Payload: "/x.mp3"}, playerrors.ErrBadPayload},
		{"paths instead of entries", api.AudioCommand{Type: api.CmdLoadPaths, Payload: []string{"/x.mp3"}}, playerrors.ErrBadPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := e.Dispatch(tt.cmd); !errors.Is(err, tt.wantErr) {
				t.Errorf("Dispatch() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDispatchSkipsUnsupportedEntries(t *testing.T) {
	e, _ := newTestEngine(t)

	err := e.Dispatch(api.AudioCommand{Type: api.CmdAddTrack, Payload: api.TrackEntry{Name: "x", Path: "/x.txt"}})
	if err != nil {
		t.Errorf("unsupported entry returned %v", err)
	}
	entries := []api.TrackEntry{{Name: "a", Path: "/a.mp3"}, {Name: "b", Path: "/b.doc"}}
	if err := e.Dispatch(api.AudioCommand{Type: api.CmdLoadPaths, Payload: entries}); err != nil {
		t.Errorf("load returned %v", err)
	}
	if got := e.Paths(); !reflect.DeepEqual(got, []string{"/a.mp3"}) {
		t.Errorf("paths = %v, want [/a.mp3]", got)
	}
}

func TestAddTrackAfterClose(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Close()
	if e.AddTrack("/music/a.mp3") {
		t.Error("AddTrack on a closed engine should report false")
	}
}
