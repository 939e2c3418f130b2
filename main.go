// rally - terminal chat shell for the RALLY duo-matching engine.
//
// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/innerbloo/RALLY-sub001/internal/completion"
	"github.com/innerbloo/RALLY-sub001/internal/config"
	"github.com/innerbloo/RALLY-sub001/internal/directory"
	"github.com/innerbloo/RALLY-sub001/internal/persona"
	"github.com/innerbloo/RALLY-sub001/internal/session"
	"github.com/innerbloo/RALLY-sub001/internal/store"
	"github.com/innerbloo/RALLY-sub001/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("rally %s (%s)\n", Version, GitCommit)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "rally:", err)
		os.Exit(1)
	}

	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rally:", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("fatal")
		fmt.Fprintln(os.Stderr, "rally:", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("rally needs an interactive terminal")
	}
	logger.Info().
		Str("version", Version).
		Bool("true_color", termenv.ColorProfile() == termenv.TrueColor).
		Bool("dark_background", termenv.HasDarkBackground()).
		Msg("starting")

	dataDir, err := cfg.DataDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return err
	}

	st, err := store.Open(cfg.Storage.Backend, dataDir, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	dir := directory.New(st)
	client := completion.NewClientWithConfig(&completion.ClientConfig{
		BaseURL:           cfg.Completion.BaseURL,
		ChunkTimeout:      time.Duration(cfg.Completion.ChunkTimeoutSecs) * time.Second,
		RequestsPerSecond: cfg.Completion.RequestsPerSecond,
	})

	var program *tea.Program

	eng := session.NewEngine(st, dir, client, persona.Default(), logger, func(ev session.Event) {
		if program == nil {
			return
		}
		if msg := ui.TranslateEvent(ev); msg != nil {
			program.Send(msg)
		}
	})

	app := ui.NewApp(eng, cfg, logger)
	program = tea.NewProgram(app, tea.WithAltScreen())

	// External writers (another rally process, a sync tool) invalidate the
	// directory; the UI refreshes on the debounced signal.
	if cfg.Storage.WatchEnabled {
		watcher, err := store.NewWatcher(dataDir, 0, func() {
			dir.Invalidate()
			program.Send(ui.StoreChangedMsg{})
		}, logger)
		if err == nil {
			err = watcher.Watch()
		}
		if err != nil {
			logger.Warn().Err(err).Msg("store watcher unavailable")
		} else {
			defer watcher.Close()
		}
	}

	_, err = program.Run()
	return err
}

// openLogger sets up the file-backed diagnostic log. UI programs cannot log
// to the terminal they draw on.
func openLogger(cfg *config.Config) (zerolog.Logger, func(), error) {
	path, err := cfg.LogFile()
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return zerolog.Nop(), nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(f).Level(level).With().Timestamp().Logger()
	return logger, func() { f.Close() }, nil
}
