package api

// TrackEntry is one tracklist item. Entries are identified by their position
// in the tracklist, not by value.
type TrackEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// PlaybackStatus describes what the output is doing with the current session.
type PlaybackStatus int

const (
	StatusStopped PlaybackStatus = iota
	StatusPlaying
	StatusPaused
)

func (s PlaybackStatus) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "stopped"
	}
}

// PlaybackState is a point-in-time copy of the engine for presentation.
type PlaybackState struct {
	Status       PlaybackStatus `json:"status"`
	CurrentIndex int            `json:"current_index"` // -1 when no track is selected
	Tracks       []TrackEntry   `json:"tracks"`
	Position     float64        `json:"position"` // seconds
	Duration     float64        `json:"duration"` // seconds
	Volume       float64        `json:"volume"`
	PlaybackRate float64        `json:"playback_rate"`
	Waveform     []byte         `json:"-"`
}

// CurrentTrack returns the selected entry, if any.
func (s *PlaybackState) CurrentTrack() (TrackEntry, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Tracks) {
		return TrackEntry{}, false
	}
	return s.Tracks[s.CurrentIndex], true
}

// CommandType enumerates everything the engine can be asked to do.
type CommandType int

const (
	CmdPlayTrack CommandType = iota
	CmdPauseResume
	CmdTogglePlayback
	CmdStop
	CmdSeek
	CmdSeekFraction
	CmdVolume
	CmdPlaybackRate
	CmdAddTrack
	CmdRemoveTrack
	CmdMoveTrackUp
	CmdMoveTrackDown
	CmdClearTracklist
	CmdLoadPaths
	CmdAdvance
)

var commandNames = map[CommandType]string{
	CmdPlayTrack:      "play_track",
	CmdPauseResume:    "pause_resume",
	CmdTogglePlayback: "toggle_playback",
	CmdStop:           "stop",
	CmdSeek:           "seek",
	CmdSeekFraction:   "seek_fraction",
	CmdVolume:         "volume",
	CmdPlaybackRate:   "playback_rate",
	CmdAddTrack:       "add_track",
	CmdRemoveTrack:    "remove_track",
	CmdMoveTrackUp:    "move_track_up",
	CmdMoveTrackDown:  "move_track_down",
	CmdClearTracklist: "clear_tracklist",
	CmdLoadPaths:      "load_paths",
	CmdAdvance:        "advance",
}

func (c CommandType) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// AudioCommand is a tagged command. Payload type depends on Type:
// int for track indices, float64 for seek/volume/rate, TrackEntry for
// AddTrack, []TrackEntry for LoadPaths, nil otherwise.
type AudioCommand struct {
	Type    CommandType
	Payload interface{}
}

// EventType identifies engine notifications.
type EventType int

const (
	EventTrackStarted EventType = iota
	EventTrackEnded
	EventStateChange
	EventTracklistChanged
	EventError
)

// AudioEvent is published by the engine. Payload is the track index for
// TrackStarted/TrackEnded, an error for EventError, nil otherwise.
type AudioEvent struct {
	Type    EventType
	Payload interface{}
}

// Player is the control surface offered to front-ends.
type Player interface {
	PlayTrack(index int) error
	PauseResume()
	TogglePlayback() error
	Stop()
	Seek(position float64)
	SeekFraction(portion float64)
	SetVolume(volume float64) error
	SetPlaybackRate(rate float64) error
	AddTrack(path string) bool
	RemoveTrack(index int)
	MoveTrackUp(index int)
	MoveTrackDown(index int)
	ClearTracklist()
	State() *PlaybackState
}
