package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jscyril/tiny_audio_player/api"
	"github.com/jscyril/tiny_audio_player/internal/audio"
	"github.com/jscyril/tiny_audio_player/internal/config"
	"github.com/jscyril/tiny_audio_player/internal/ipc"
	"github.com/jscyril/tiny_audio_player/internal/library"
	"github.com/jscyril/tiny_audio_player/internal/playlist"
	"github.com/jscyril/tiny_audio_player/internal/ui"
	playerrors "github.com/jscyril/tiny_audio_player/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	tracklist  string
	headless   bool
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "player [files or folders...]",
		Short: "A tiny terminal audio player",
		Long: "Plays mp3, wav, ogg and flac files from a tracklist, drawing a waveform of the current track.\n" +
			"If another instance is running, the given paths are added to it instead.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "config file (default "+config.GetConfigPath()+")")
	cmd.Flags().StringVarP(&opts.tracklist, "tracklist", "t", "", "tracklist file to load at start and save on exit")
	cmd.Flags().BoolVar(&opts.headless, "headless", false, "play without the terminal UI until interrupted")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	return cmd
}

func run(ctx context.Context, opts options, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	// Load configuration
	configPath := opts.configPath
	if configPath == "" {
		configPath = config.GetConfigPath()
	}
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.tracklist != "" {
		cfg.TracklistPath = opts.tracklist
	}

	// Create data directory
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger, closeLog, err := newLogger(cfg, opts.headless)
	if err != nil {
		return err
	}
	defer closeLog()
	log.Logger = logger

	scanner := library.NewScanner(0)
	inputs := absPaths(args)

	// Hand the paths to a running instance if there is one
	var listener *ipc.Listener
	if cfg.ListenAddr != "" {
		listener, err = ipc.Listen(cfg.ListenAddr, logger)
		if errors.Is(err, playerrors.ErrAlreadyRunning) {
			paths, _ := scanner.Expand(ctx, inputs)
			if err := ipc.Notify(cfg.ListenAddr, paths); err != nil {
				return fmt.Errorf("notify running instance: %w", err)
			}
			logger.Info().Int("paths", len(paths)).Msg("handed paths to running instance")
			return nil
		}
		if err != nil {
			logger.Warn().Err(err).Msg("single-instance listener disabled")
			listener = nil
		}
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out, err := audio.NewSpeakerOutput()
	if err != nil {
		log.Fatal().Err(err).Msg("no audio output")
	}
	defer out.Close()

	engine := audio.NewAudioEngine(out,
		audio.WithLogger(logger),
		audio.WithVolume(cfg.DefaultVolume),
		audio.WithPlaybackRate(cfg.DefaultPlaybackRate),
		audio.WithAdvanceInterval(cfg.AdvanceInterval()),
		audio.WithEndEpsilon(cfg.EndEpsilon),
		audio.WithWaveformWindow(cfg.WaveformWindow),
	)
	defer engine.Close()

	// Fatal engine errors cancel everything; they are reported once the UI
	// has given the terminal back.
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	fatal := engine.Subscribe(api.EventError)
	go watchFatal(fatal, cancel)

	engine.Start(ctx)

	tracklistFile := cfg.Tracklist()
	if _, err := os.Stat(tracklistFile); err == nil {
		paths, err := playlist.LoadTracklist(tracklistFile)
		if err != nil {
			logger.Warn().Err(err).Str("file", tracklistFile).Msg("cannot load tracklist")
		} else {
			engine.LoadPaths(paths)
			logger.Info().Int("tracks", len(paths)).Str("file", tracklistFile).Msg("tracklist loaded")
		}
	}

	addPaths(ctx, engine, scanner, inputs)

	if listener != nil {
		listener.Serve(func(path string) {
			addPaths(ctx, engine, scanner, []string{path})
		})
		defer listener.Close()
	}

	if opts.headless {
		if err := engine.TogglePlayback(); err != nil {
			log.Fatal().Err(err).Msg("cannot start playback")
		}
		<-ctx.Done()
	} else if err := ui.Run(ctx, engine, cfg.KeyBindings, tracklistFile); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}

	engine.Unsubscribe(fatal)
	if cause := context.Cause(ctx); cause != nil && playerrors.IsFatal(cause) {
		log.Fatal().Err(cause).Msg("playback failed")
	}

	if err := playlist.SaveTracklist(tracklistFile, engine.Paths()); err != nil && !errors.Is(err, playerrors.ErrEmptyTracklist) {
		logger.Warn().Err(err).Str("file", tracklistFile).Msg("cannot save tracklist")
	}
	return nil
}

func newLogger(cfg *config.Config, headless bool) (zerolog.Logger, func(), error) {
	level, err := cfg.Level()
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("log level: %w", err)
	}

	// The TUI owns the terminal, so logs go to a file next to the data.
	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	closeFn := func() {}
	if !headless {
		f, err := os.OpenFile(filepath.Join(cfg.DataDir, "player.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { f.Close() }
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), closeFn, nil
}

func watchFatal(events <-chan api.AudioEvent, cancel context.CancelCauseFunc) {
	for ev := range events {
		if err, ok := ev.Payload.(error); ok && playerrors.IsFatal(err) {
			cancel(err)
			return
		}
	}
}

func addPaths(ctx context.Context, engine *audio.AudioEngine, scanner *library.Scanner, inputs []string) {
	if len(inputs) == 0 {
		return
	}
	paths, errs := scanner.Expand(ctx, inputs)
	for _, err := range errs {
		log.Warn().Err(err).Msg("skipping path")
	}
	for _, p := range paths {
		engine.AddTrack(p)
	}
}

func absPaths(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if abs, err := filepath.Abs(a); err == nil {
			a = abs
		}
		out = append(out, a)
	}
	return out
}
