// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_MissingFileReturnsDefaults(t *testing.T) {
	settings, err := LoadSettings(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
}

func TestLoadSettings_PartialOverride(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".devac"), 0o750))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, ".devac", "workspace.json"),
		[]byte(`{"hub":{"auto_refresh":false}}`),
		0o644,
	))

	settings, err := LoadSettings(root)
	require.NoError(t, err)
	assert.False(t, settings.Hub.AutoRefresh)
	assert.Equal(t, 500, settings.Hub.RefreshDebounceMS) // unset field keeps default
	assert.False(t, settings.Watcher.AutoStart)
}

func TestSaveLoadSettings_RoundTrip(t *testing.T) {
	root := t.TempDir()
	in := Settings{
		Version: "1.0",
		Hub:     HubSettings{AutoRefresh: true, RefreshDebounceMS: 750},
		Watcher: WatcherSettings{AutoStart: true},
	}
	require.NoError(t, SaveSettings(root, in))

	out, err := LoadSettings(root)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
