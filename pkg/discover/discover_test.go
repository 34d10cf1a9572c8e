// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspace_FindsGoModRepos(t *testing.T) {
	root := t.TempDir()
	widgets := filepath.Join(root, "widgets")
	require.NoError(t, os.MkdirAll(widgets, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(widgets, "go.mod"), []byte("module github.com/acme/widgets\n\ngo 1.24\n"), 0o644))

	nested := filepath.Join(widgets, "vendor", "something")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "go.mod"), []byte("module vendored\n"), 0o644))

	repos, err := Workspace(root)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "github.com/acme/widgets", repos[0].RepoID)
	assert.Equal(t, widgets, repos[0].Path)
}

func TestWorkspace_FallsBackToDirName(t *testing.T) {
	root := t.TempDir()
	gadgets := filepath.Join(root, "gadgets")
	require.NoError(t, os.MkdirAll(gadgets, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(gadgets, "go.mod"), []byte("not a valid go.mod"), 0o644))

	repos, err := Workspace(root)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "gadgets", repos[0].RepoID)
}
