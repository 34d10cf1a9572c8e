// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package refresher

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHub struct {
	calls  int32
	result RefreshResult
	err    error
}

func (f *fakeHub) RefreshRepo(repoID string) (RefreshResult, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return RefreshResult{}, f.err
	}
	return f.result, nil
}

func TestRefresher_DebouncedFlush(t *testing.T) {
	hub := &fakeHub{result: RefreshResult{ReposRefreshed: 1, PackagesUpdated: 3}}
	r := New(hub, Options{DebounceMs: 30, MaxBatchWaitMs: 500}, nil)
	r.Start()

	r.NotifyChange("repo1")
	r.NotifyChange("repo1")
	r.NotifyChange("repo1")

	select {
	case ev := <-r.Events():
		assert.Equal(t, []string{"repo1"}, ev.RefreshedRepos)
		assert.Equal(t, 3, ev.PackagesUpdated)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for hub-refresh event")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hub.calls))
}

func TestRefresher_ErrorsCoercedNotAborted(t *testing.T) {
	hub := &fakeHub{err: errors.New("boom")}
	r := New(hub, Options{}, nil)
	r.Start()

	ev := r.RefreshRepos([]string{"repo1", "repo2"})
	require.Len(t, ev.Errors, 2)
	assert.Empty(t, ev.RefreshedRepos)
}

func TestRefresher_StopClearsPending(t *testing.T) {
	hub := &fakeHub{result: RefreshResult{ReposRefreshed: 1}}
	r := New(hub, Options{DebounceMs: 5000}, nil)
	r.Start()
	r.NotifyChange("repo1")
	assert.Equal(t, 1, r.StatsSnapshot().PendingRepos)

	r.Stop()
	assert.Equal(t, 0, r.StatsSnapshot().PendingRepos)
	assert.False(t, r.StatsSnapshot().IsActive)
}
