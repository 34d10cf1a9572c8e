// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_StartStopIdempotent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "repo1"), 0o755))

	w := New(dir, Options{DebounceMs: 50}, nil)
	require.NoError(t, w.Start())
	require.NoError(t, w.Start())

	stats := w.StatsSnapshot()
	assert.True(t, stats.IsWatching)
	assert.Equal(t, 1, stats.ReposWatched)

	w.Stop()
	w.Stop()
	assert.False(t, w.StatsSnapshot().IsWatching)
}

func TestWatcher_FileChangeDebounced(t *testing.T) {
	dir := t.TempDir()
	repo := filepath.Join(dir, "repo1")
	require.NoError(t, os.Mkdir(repo, 0o755))

	w := New(dir, Options{DebounceMs: 50}, nil)
	require.NoError(t, w.Start())
	defer w.Stop()

	file := filepath.Join(repo, "a.ts")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(file, []byte("y"), 0o644))

	// Start emits repo-discovery and watcher-state events before any
	// debounced file-change event arrives; pass over them.
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-w.Events():
			if ev.Type == EventRepoDiscovery || ev.Type == EventWatcherState {
				continue
			}
			assert.Equal(t, EventFileChange, ev.Type)
			return
		case <-timeout:
			t.Fatal("timed out waiting for file-change event")
		}
	}
}

func TestWatcher_StatsSnapshotIsCopy(t *testing.T) {
	w := New(t.TempDir(), Options{}, nil)
	s1 := w.StatsSnapshot()
	s1.EventsProcessed = 99
	s2 := w.StatsSnapshot()
	assert.NotEqual(t, int64(99), s2.EventsProcessed)
}
