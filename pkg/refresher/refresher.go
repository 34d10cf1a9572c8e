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

// Package refresher turns a stream of seed-change notifications into
// batched per-repo refresh operations against the hub (§4.E): each
// notification adds its repo to a pending set and re-arms that repo's
// debounce timer, and the whole pending set is flushed when any repo's
// debounce timer or the global max-wait timer fires, whichever comes first.
package refresher

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// RefreshResult is what one hub.RefreshRepo call reports back.
type RefreshResult struct {
	ReposRefreshed  int
	PackagesUpdated int
	EdgesUpdated    int
	Errors          []string
}

// Hub is the minimal surface the refresher needs from the central hub.
type Hub interface {
	RefreshRepo(repoID string) (RefreshResult, error)
}

// Options configures a Refresher.
type Options struct {
	DebounceMs     int
	BatchChanges   bool
	MaxBatchWaitMs int
}

func (o Options) debounce() time.Duration {
	ms := o.DebounceMs
	if ms <= 0 {
		ms = 500
	}
	return time.Duration(ms) * time.Millisecond
}

func (o Options) maxWait() time.Duration {
	ms := o.MaxBatchWaitMs
	if ms <= 0 {
		ms = 2000
	}
	return time.Duration(ms) * time.Millisecond
}

// Event is the single event type the refresher emits: one per flush.
type Event struct {
	Timestamp       time.Time
	RefreshedRepos  []string
	PackagesUpdated int
	Errors          []string
}

// Stats is a point-in-time snapshot of the refresher's counters.
type Stats struct {
	RefreshCount   int64
	ReposRefreshed int64
	LastRefreshTime time.Time
	IsActive       bool
	PendingRepos   int
}

// Refresher batches seed-change notifications per repo and flushes them
// through the hub's RefreshRepo.
type Refresher struct {
	hub    Hub
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	active   bool
	pending  map[string]bool
	timers   map[string]*time.Timer
	capTimer *time.Timer

	events chan Event
	stats  Stats
}

// New creates a Refresher bound to hub.
func New(hub Hub, opts Options, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		hub:     hub,
		opts:    opts,
		logger:  logger,
		pending: make(map[string]bool),
		timers:  make(map[string]*time.Timer),
		events:  make(chan Event, 64),
	}
}

// Events returns the refresher's hub-refresh event stream.
func (r *Refresher) Events() <-chan Event { return r.events }

// Start resumes from empty pending state; idempotent.
func (r *Refresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = true
	r.stats.IsActive = true
}

// Stop cancels all pending timers and clears the pending set; idempotent.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.timers {
		t.Stop()
	}
	if r.capTimer != nil {
		r.capTimer.Stop()
		r.capTimer = nil
	}
	r.timers = make(map[string]*time.Timer)
	r.pending = make(map[string]bool)
	r.active = false
	r.stats.IsActive = false
	r.stats.PendingRepos = 0
}

// NotifyChange registers a pending seed change for repoID, (re)arming its
// per-repo debounce timer and the global cap timer if not already armed.
func (r *Refresher) NotifyChange(repoID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	r.pending[repoID] = true
	r.stats.PendingRepos = len(r.pending)

	if t, ok := r.timers[repoID]; ok {
		t.Stop()
	}
	r.timers[repoID] = time.AfterFunc(r.opts.debounce(), r.flushAll)

	if r.capTimer == nil {
		r.capTimer = time.AfterFunc(r.opts.maxWait(), r.flushAll)
	}
}

func (r *Refresher) flushAll() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.pending))
	for id := range r.pending {
		ids = append(ids, id)
	}
	for _, t := range r.timers {
		t.Stop()
	}
	r.timers = make(map[string]*time.Timer)
	if r.capTimer != nil {
		r.capTimer.Stop()
		r.capTimer = nil
	}
	r.pending = make(map[string]bool)
	r.stats.PendingRepos = 0
	r.mu.Unlock()

	if len(ids) == 0 {
		return
	}
	r.flush(ids)
}

// RefreshRepos performs an immediate, un-debounced flush over ids and
// returns the resulting event.
func (r *Refresher) RefreshRepos(ids []string) Event {
	return r.flush(ids)
}

func (r *Refresher) flush(ids []string) Event {
	ev := Event{Timestamp: time.Now()}
	for _, id := range ids {
		result, err := r.hub.RefreshRepo(id)
		if err != nil {
			ev.Errors = append(ev.Errors, fmt.Sprintf("%s: %v", id, err))
			continue
		}
		ev.Errors = append(ev.Errors, result.Errors...)
		ev.PackagesUpdated += result.PackagesUpdated
		if result.ReposRefreshed > 0 || result.PackagesUpdated > 0 || result.EdgesUpdated > 0 {
			ev.RefreshedRepos = append(ev.RefreshedRepos, id)
		}
	}

	r.mu.Lock()
	r.stats.RefreshCount++
	r.stats.ReposRefreshed += int64(len(ev.RefreshedRepos))
	r.stats.LastRefreshTime = ev.Timestamp
	r.mu.Unlock()

	select {
	case r.events <- ev:
	default:
		r.logger.Warn("refresher.event_dropped")
	}
	return ev
}

// StatsSnapshot returns a fresh copy of the refresher's counters.
func (r *Refresher) StatsSnapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}
