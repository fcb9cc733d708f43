package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/jscyril/tiny_audio_player/internal/playlist"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Environment variables read on top of the config file.
const (
	EnvConfigPath = "MUSIC_PLAYER_CONFIG"
	EnvLogLevel   = "TINYPLAYER_LOG_LEVEL"
	EnvListenAddr = "TINYPLAYER_LISTEN_ADDR"
	EnvDataDir    = "TINYPLAYER_DATA_DIR"
)

// Config holds application configuration
type Config struct {
	DataDir             string  `json:"data_dir"`
	TracklistPath       string  `json:"tracklist_path"`
	DefaultVolume       float64 `json:"default_volume"`
	DefaultPlaybackRate float64 `json:"default_playback_rate"`
	AdvanceIntervalMs   int     `json:"advance_interval_ms"`
	EndEpsilon          float64 `json:"end_epsilon"`
	WaveformWindow      int     `json:"waveform_window"`
	ListenAddr          string  `json:"listen_addr"`
	LogLevel            string  `json:"log_level"`
	KeyBindings         KeyMap  `json:"key_bindings"`
}

// KeyMap defines keyboard shortcuts
type KeyMap struct {
	PlayPause   string `json:"play_pause"`
	Stop        string `json:"stop"`
	PlaySelect  string `json:"play_select"`
	VolumeUp    string `json:"volume_up"`
	VolumeDown  string `json:"volume_down"`
	RateUp      string `json:"rate_up"`
	RateDown    string `json:"rate_down"`
	SeekForward string `json:"seek_forward"`
	SeekBack    string `json:"seek_back"`
	MoveUp      string `json:"move_up"`
	MoveDown    string `json:"move_down"`
	Remove      string `json:"remove"`
	Clear       string `json:"clear"`
	Save        string `json:"save"`
	Quit        string `json:"quit"`
}

// GetDefaultConfig returns default configuration
func GetDefaultConfig() *Config {
	return &Config{
		DataDir:             "./data",
		TracklistPath:       "",
		DefaultVolume:       1.0,
		DefaultPlaybackRate: 1.0,
		AdvanceIntervalMs:   1000,
		EndEpsilon:          0.01,
		WaveformWindow:      20,
		ListenAddr:          "127.0.0.1:61313",
		LogLevel:            "info",
		KeyBindings: KeyMap{
			PlayPause:   " ",
			Stop:        "s",
			PlaySelect:  "enter",
			VolumeUp:    "+",
			VolumeDown:  "-",
			RateUp:      "]",
			RateDown:    "[",
			SeekForward: "right",
			SeekBack:    "left",
			MoveUp:      "K",
			MoveDown:    "J",
			Remove:      "d",
			Clear:       "C",
			Save:        "w",
			Quit:        "q",
		},
	}
}

// AdvanceInterval returns AdvanceIntervalMs as a duration.
func (c *Config) AdvanceInterval() time.Duration {
	return time.Duration(c.AdvanceIntervalMs) * time.Millisecond
}

// Tracklist returns the tracklist file, defaulting to one inside DataDir.
// The result always carries the tracklist extension, so loading at startup
// and saving from the UI agree on the file.
func (c *Config) Tracklist() string {
	if c.TracklistPath != "" {
		return playlist.WithExtension(c.TracklistPath)
	}
	return filepath.Join(c.DataDir, "tracklist."+playlist.TracklistExtension)
}

// Level parses LogLevel.
func (c *Config) Level() (zerolog.Level, error) {
	return zerolog.ParseLevel(c.LogLevel)
}

// Validate rejects values the player cannot run with.
func (c *Config) Validate() error {
	if c.DefaultVolume < 0 {
		return fmt.Errorf("default_volume must not be negative, got %v", c.DefaultVolume)
	}
	if c.DefaultPlaybackRate <= 0 {
		return fmt.Errorf("default_playback_rate must be positive, got %v", c.DefaultPlaybackRate)
	}
	if c.AdvanceIntervalMs <= 0 {
		return fmt.Errorf("advance_interval_ms must be positive, got %d", c.AdvanceIntervalMs)
	}
	if c.EndEpsilon < 0 {
		return fmt.Errorf("end_epsilon must not be negative, got %v", c.EndEpsilon)
	}
	if c.WaveformWindow <= 0 {
		return fmt.Errorf("waveform_window must be positive, got %d", c.WaveformWindow)
	}
	if c.ListenAddr != "" {
		if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
			return fmt.Errorf("listen_addr: %w", err)
		}
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// LoadConfig reads and unmarshals configuration from file. Fields missing
// from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	config := GetDefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return config, nil
}

// SaveConfig marshals and saves configuration to file
func SaveConfig(config *Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadOrCreate loads config from path or creates default if not exists.
// Environment overrides are applied after loading and are never written back.
func LoadOrCreate(path string) (*Config, error) {
	config, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	// Save default config if file didn't exist
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveConfig(config, path); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
	}

	config.ApplyEnv()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// LoadDotEnv loads .env files into the environment without overriding
// variables that are already set. With no names it loads ./.env. Missing
// files are ignored.
func LoadDotEnv(names ...string) error {
	if len(names) == 0 {
		names = []string{".env"}
	}
	for _, name := range names {
		if _, err := os.Stat(name); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvListenAddr); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	// Check environment variable first
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path
	}

	// Use XDG config directory if available
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "tinyplayer", "config.json")
	}

	// Fall back to home directory
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}

	return filepath.Join(home, ".config", "tinyplayer", "config.json")
}
