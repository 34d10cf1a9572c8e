// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package hub

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devac-project/devac/pkg/seed"
)

func TestHub_RegisterAndRefreshRepo(t *testing.T) {
	workspace := t.TempDir()
	repoPath := filepath.Join(workspace, "widgets")
	require.NoError(t, os.MkdirAll(repoPath, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "index.ts"),
		[]byte("export function widget() {}\n"), 0o644))

	store := seed.New(repoPath, nil)
	require.NoError(t, store.WriteManifest(seed.Manifest{
		RepoID: "acme/widgets",
		Packages: []seed.ManifestPackage{
			{Path: ".", Name: "widgets", Language: "tsx"},
		},
	}))

	h := New(workspace, nil)
	h.RegisterRepo(RepoRegistration{RepoID: "acme/widgets", LocalPath: repoPath})

	result, err := h.RefreshRepo("acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, 1, result.PackagesUpdated)

	repos := h.ListRepos()
	require.Len(t, repos, 1)
	assert.Equal(t, 1, repos[0].PackagesCount)
	assert.Equal(t, RepoActive, repos[0].Status)

	// Nothing changed on disk since the first refresh, so the seed of
	// every package is unchanged and the second refresh reports zero
	// packages updated.
	result, err = h.RefreshRepo("acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, 0, result.PackagesUpdated)
}

func TestHub_DiagnosticsSummaryAndCounts(t *testing.T) {
	h := New(t.TempDir(), nil)
	h.AddDiagnostic(Diagnostic{Source: "lint", Severity: SeverityError, RepoID: "a"})
	h.AddDiagnostic(Diagnostic{Source: "lint", Severity: SeverityWarning, RepoID: "a"})
	h.AddDiagnostic(Diagnostic{Source: "test", Severity: SeverityError, RepoID: "b"})

	counts := h.GetDiagnosticsCounts()
	assert.Equal(t, 2, counts.Error)
	assert.Equal(t, 1, counts.Warning)
	assert.Equal(t, 3, counts.Total)

	bySource := h.GetDiagnosticsSummary(GroupBySource)
	assert.Equal(t, 2, bySource["lint"])
	assert.Equal(t, 1, bySource["test"])

	filtered := h.GetDiagnostics(DiagnosticFilter{RepoID: "a"})
	assert.Len(t, filtered, 2)
}

func TestHub_GetAffectedRepos(t *testing.T) {
	workspace := t.TempDir()
	repoPath := filepath.Join(workspace, "widgets")
	store := seed.New(repoPath, nil)
	require.NoError(t, store.WriteManifest(seed.Manifest{
		RepoID:   "acme/widgets",
		Packages: []seed.ManifestPackage{{Path: ".", Name: "widgets", Language: "tsx"}},
	}))

	h := New(workspace, nil)
	h.RegisterRepo(RepoRegistration{RepoID: "acme/widgets", LocalPath: repoPath})
	_, err := h.RefreshRepo("acme/widgets")
	require.NoError(t, err)

	affected := h.GetAffectedRepos([]string{filepath.Join(repoPath, "src", "a.ts")})
	assert.Equal(t, []string{"acme/widgets"}, affected)
}
