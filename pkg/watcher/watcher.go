// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package watcher implements the per-workspace subscription to source and
// seed changes described in §4.D: an fsnotify watch over the tracked
// directories, debounced per path, emitted as a typed event stream rather
// than invoking a single hard-coded reindex callback.
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/devac-project/devac/pkg/metrics"
)

// State is the watcher's lifecycle state.
type State string

const (
	Idle     State = "idle"
	Starting State = "starting"
	Running  State = "running"
	Stopping State = "stopping"
)

var skipDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true,
	"dist": true, "build": true, ".devac": true, "bin": true,
}

var sourceExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".mjs": true, ".cjs": true,
	".py": true, ".cs": true,
}

const seedPrefix = ".devac/seed/"

// EventType discriminates the watcher's event stream.
type EventType string

const (
	EventWatcherState  EventType = "watcher-state"
	EventFileChange    EventType = "file-change"
	EventRepoDiscovery EventType = "repo-discovery"
)

// ChangeType classifies a file-change event.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeModify ChangeType = "change"
	ChangeUnlink ChangeType = "unlink"
)

// Event is one item on the watcher's event stream.
type Event struct {
	Type EventType

	// watcher-state
	WatcherState string

	// file-change
	RepoPath   string
	FilePath   string
	ChangeType ChangeType

	// repo-discovery
	DiscoveryAction string
}

// Options configures a Watcher.
type Options struct {
	DebounceMs      int
	WatchSeeds      bool
	IgnorePatterns  []string
}

func (o Options) debounce() time.Duration {
	ms := o.DebounceMs
	if ms <= 0 {
		ms = 300
	}
	return time.Duration(ms) * time.Millisecond
}

// Stats is a point-in-time snapshot of the watcher's counters.
type Stats struct {
	EventsProcessed int64
	ReposWatched    int
	LastEventTime   time.Time
	IsWatching      bool
	StartedAt       time.Time
}

// Watcher subscribes to filesystem changes under a workspace root and
// emits a debounced, filtered event stream.
type Watcher struct {
	workspacePath string
	opts          Options
	logger        *slog.Logger

	mu     sync.Mutex
	state  State
	events chan Event
	done   chan struct{}
	fsw    *fsnotify.Watcher
	repos  map[string]bool

	stats Stats

	pendingMu sync.Mutex
	pending   map[string]*pendingChange // key: repo|file
}

type pendingChange struct {
	repoPath   string
	filePath   string
	changeType ChangeType
	timer      *time.Timer
}

// New creates a Watcher in the Idle state.
func New(workspacePath string, opts Options, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		workspacePath: workspacePath,
		opts:          opts,
		logger:        logger,
		state:         Idle,
		repos:         make(map[string]bool),
		pending:       make(map[string]*pendingChange),
	}
}

// Events returns the event stream. Valid only after Start.
func (w *Watcher) Events() <-chan Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.events
}

// Start is idempotent: calling it while already Running or Starting is a
// no-op.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.state == Running || w.state == Starting {
		w.mu.Unlock()
		return nil
	}
	w.state = Starting
	w.events = make(chan Event, 256)
	w.done = make(chan struct{})
	w.mu.Unlock()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Lock()
		w.state = Idle
		w.mu.Unlock()
		return err
	}

	w.mu.Lock()
	w.fsw = fsw
	repos := w.discoverRepos()
	for _, r := range repos {
		w.repos[r] = true
		w.addTree(r)
	}
	w.stats.ReposWatched = len(w.repos)
	w.stats.StartedAt = time.Now()
	w.stats.IsWatching = true
	w.state = Running
	w.mu.Unlock()

	for _, r := range repos {
		w.emit(Event{Type: EventRepoDiscovery, RepoPath: r, DiscoveryAction: "added"})
	}
	w.emit(Event{Type: EventWatcherState, WatcherState: "started"})

	go w.loop()
	return nil
}

// Stop is idempotent and discards all pending debounced events without
// emitting them, per §4.D.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.state != Running && w.state != Starting {
		w.mu.Unlock()
		return
	}
	w.state = Stopping
	fsw := w.fsw
	done := w.done
	w.mu.Unlock()

	w.pendingMu.Lock()
	for _, p := range w.pending {
		p.timer.Stop()
	}
	w.pending = make(map[string]*pendingChange)
	w.pendingMu.Unlock()

	if fsw != nil {
		fsw.Close()
	}
	if done != nil {
		close(done)
	}

	w.mu.Lock()
	w.stats.IsWatching = false
	w.state = Idle
	w.mu.Unlock()

	w.emit(Event{Type: EventWatcherState, WatcherState: "stopped"})
}

// StatsSnapshot returns a fresh copy of the watcher's counters.
func (w *Watcher) StatsSnapshot() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) discoverRepos() []string {
	entries, err := os.ReadDir(w.workspacePath)
	if err != nil {
		w.logger.Warn("watcher.discover_failed", "err", err)
		return nil
	}
	var repos []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		repos = append(repos, filepath.Join(w.workspacePath, e.Name()))
	}
	return repos
}

func (w *Watcher) addTree(root string) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if skipDirs[base] || (strings.HasPrefix(base, ".") && base != filepath.Base(root)) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil && !os.IsPermission(err) {
			w.logger.Warn("watcher.add_failed", "path", path, "err", err)
		}
		return nil
	})
}

func (w *Watcher) emit(ev Event) {
	w.mu.Lock()
	ch := w.events
	w.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
		w.logger.Warn("watcher.event_dropped", "type", ev.Type)
	}
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher.fsnotify_error", "err", err)
		}
	}
}

func (w *Watcher) repoFor(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for r := range w.repos {
		if strings.HasPrefix(path, r+string(os.PathSeparator)) || path == r {
			return r, true
		}
	}
	return "", false
}

func (w *Watcher) handleFSEvent(ev fsnotify.Event) {
	repo, ok := w.repoFor(ev.Name)
	if !ok {
		return
	}
	rel, err := filepath.Rel(repo, ev.Name)
	if err != nil {
		return
	}
	relSlash := filepath.ToSlash(rel)

	isSeed := w.opts.WatchSeeds && strings.Contains(relSlash, seedPrefix)
	isCode := sourceExtensions[filepath.Ext(ev.Name)]
	if !isSeed && !isCode {
		return
	}

	var changeType ChangeType
	switch {
	case ev.Op&fsnotify.Remove != 0 || ev.Op&fsnotify.Rename != 0:
		changeType = ChangeUnlink
	case ev.Op&fsnotify.Create != 0:
		changeType = ChangeAdd
	default:
		changeType = ChangeModify
	}

	w.debounce(repo, ev.Name, changeType)
}

func (w *Watcher) debounce(repo, file string, changeType ChangeType) {
	key := repo + "|" + file
	debounceDur := w.opts.debounce()

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if existing, ok := w.pending[key]; ok {
		existing.timer.Stop()
		existing.changeType = changeType
		existing.timer = time.AfterFunc(debounceDur, func() { w.flush(key) })
		return
	}
	pc := &pendingChange{repoPath: repo, filePath: file, changeType: changeType}
	pc.timer = time.AfterFunc(debounceDur, func() { w.flush(key) })
	w.pending[key] = pc
}

func (w *Watcher) flush(key string) {
	w.pendingMu.Lock()
	pc, ok := w.pending[key]
	if ok {
		delete(w.pending, key)
	}
	w.pendingMu.Unlock()
	if !ok {
		return
	}

	w.mu.Lock()
	w.stats.EventsProcessed++
	w.stats.LastEventTime = time.Now()
	w.mu.Unlock()
	metrics.WatcherEventsTotal.Inc()

	w.emit(Event{
		Type:       EventFileChange,
		RepoPath:   pc.repoPath,
		FilePath:   pc.filePath,
		ChangeType: pc.changeType,
	})
}
