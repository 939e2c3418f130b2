// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// =============================================================================
// STORE WATCHER
// =============================================================================

// Watcher observes the storage directory for writes made by another process
// and fires a debounced callback. The room directory uses it to invalidate
// its merged snapshot when the durable state changes under it.
//
// Only the file backend produces watchable writes; callers using the SQLite
// backend simply don't start a watcher.
type Watcher struct {
	dir      string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func()
	logger   zerolog.Logger

	mu      sync.Mutex
	pending bool
	closed  chan struct{}
}

// NewWatcher creates a watcher over the store directory. onChange fires at
// most once per debounce window, from the watcher goroutine.
func NewWatcher(dir string, debounce time.Duration, onChange func(), logger zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	w := &Watcher{
		dir:      dir,
		watcher:  fsw,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		closed:   make(chan struct{}),
	}
	return w, nil
}

// Watch starts watching. It returns after registering the directory; events
// are processed on a background goroutine until Close.
func (w *Watcher) Watch() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}
	go w.processEvents()
	return nil
}

// Close stops watching and releases the underlying watcher.
func (w *Watcher) Close() error {
	close(w.closed)
	return w.watcher.Close()
}

func (w *Watcher) processEvents() {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-w.closed:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.mu.Lock()
			if !w.pending {
				w.pending = true
				timer.Reset(w.debounce)
			}
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("store watcher error")

		case <-timer.C:
			w.mu.Lock()
			w.pending = false
			w.mu.Unlock()
			if w.onChange != nil {
				w.onChange()
			}
		}
	}
}

// relevant filters out temp files from our own atomic writes; only the
// renamed-into-place namespace files matter.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".tmp-") {
		return false
	}
	return strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".db")
}
