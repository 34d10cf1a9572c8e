// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsNil(t *testing.T) {
	ws, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, ws)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	root := t.TempDir()
	in := &Workspace{
		Repos: []RepoConfig{
			{RepoID: "acme/widgets", Path: "../widgets"},
		},
		Watcher:   WatcherConfig{DebounceMS: 500},
		Refresher: RefresherConfig{BatchSize: 200, MaxWaitMS: 2000},
	}
	require.NoError(t, Save(root, in))

	out, err := Load(root)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "1", out.Version)
	assert.Equal(t, in.Repos, out.Repos)
	assert.Equal(t, 500, out.Watcher.DebounceMS)
	assert.Equal(t, 200, out.Refresher.BatchSize)
}

func TestLoad_RejectsUnsupportedVersion(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Save(root, &Workspace{Version: "1"}))
	// Overwrite with a bumped version number.
	require.NoError(t, Save(root, &Workspace{Version: "2"}))

	_, err := Load(root)
	assert.Error(t, err)
}
