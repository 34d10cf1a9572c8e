// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package seed

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devac-project/devac/pkg/model"
)

func TestStore_WriteReadBase(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)

	base := Tables{Nodes: []model.Node{{EntityID: "fn:a", Name: "a", Kind: string(model.KindFunction)}}}
	require.NoError(t, s.Write(model.BranchBase, base))

	got, err := s.Read()
	require.NoError(t, err)
	require.Len(t, got.Nodes, 1)
	assert.Equal(t, "fn:a", got.Nodes[0].EntityID)
}

func TestStore_BranchSupersedesBase(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)

	require.NoError(t, s.Write(model.BranchBase, Tables{Nodes: []model.Node{
		{EntityID: "fn:a", Name: "a"},
		{EntityID: "fn:b", Name: "b"},
	}}))
	require.NoError(t, s.Write(model.BranchBranch, Tables{Nodes: []model.Node{
		{EntityID: "fn:a", Name: "a_renamed"},
	}}))

	got, err := s.Read()
	require.NoError(t, err)
	byID := map[string]model.Node{}
	for _, n := range got.Nodes {
		byID[n.EntityID] = n
	}
	require.Contains(t, byID, "fn:a")
	require.Contains(t, byID, "fn:b")
	assert.Equal(t, "a_renamed", byID["fn:a"].Name)
}

func TestStore_BranchTombstoneRemovesBaseRow(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)

	require.NoError(t, s.Write(model.BranchBase, Tables{Nodes: []model.Node{
		{EntityID: "fn:a", Name: "a"},
	}}))
	require.NoError(t, s.Write(model.BranchBranch, Tables{Nodes: []model.Node{
		Tombstone("fn:a"),
	}}))

	got, err := s.Read()
	require.NoError(t, err)
	assert.Empty(t, got.Nodes)
}

func TestDetectChanges(t *testing.T) {
	existing := []FileState{{Path: "a.ts", Hash: "h1"}, {Path: "b.ts", Hash: "h2"}}
	current := map[string]string{"a.ts": "h1", "b.ts": "h2-changed", "c.ts": "h3"}

	delta := DetectChanges([]string{"a.ts", "b.ts", "c.ts"}, current, existing)
	assert.ElementsMatch(t, []string{"c.ts"}, delta.Added)
	assert.ElementsMatch(t, []string{"b.ts"}, delta.Modified)
	assert.Empty(t, delta.Deleted)
}

func TestDetectChanges_Deleted(t *testing.T) {
	existing := []FileState{{Path: "a.ts", Hash: "h1"}}
	delta := DetectChanges(nil, nil, existing)
	assert.ElementsMatch(t, []string{"a.ts"}, delta.Deleted)
}

func TestRemoveFile_CascadesExternalRefsAndEffects(t *testing.T) {
	tables := Tables{
		Nodes: []model.Node{
			{EntityID: "fn:a", FilePath: "a.ts", SourceFileHash: "stale"},
			{EntityID: "fn:b", FilePath: "b.ts", SourceFileHash: "fresh"},
		},
		Edges: []model.Edge{
			{SourceEntityID: "fn:a", TargetEntityID: "fn:b", SourceFileHash: "stale"},
			{SourceEntityID: "fn:b", TargetEntityID: "fn:a", SourceFileHash: "fresh"},
		},
		ExternalRefs: []model.ExternalRef{
			{SourceEntityID: "fn:a", ModuleSpecifier: "lodash"},
			{SourceEntityID: "fn:b", ModuleSpecifier: "lodash"},
		},
		Effects: []model.Effect{
			{EffectType: "http", SourceEntityID: "fn:a", SourceFilePath: "a.ts"},
			{EffectType: "http", SourceEntityID: "fn:b", SourceFilePath: "b.ts"},
		},
	}

	out := RemoveFile(tables, map[string]bool{"stale": true})

	require.Len(t, out.Nodes, 1)
	assert.Equal(t, "fn:b", out.Nodes[0].EntityID)
	require.Len(t, out.Edges, 1)
	assert.Equal(t, "fn:b", out.Edges[0].SourceEntityID)
	require.Len(t, out.ExternalRefs, 1)
	assert.Equal(t, "fn:b", out.ExternalRefs[0].SourceEntityID)
	require.Len(t, out.Effects, 1)
	assert.Equal(t, "b.ts", out.Effects[0].SourceFilePath)
}

func TestManifest_WriteRead(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)
	m := Manifest{RepoID: "acme/widgets", Packages: []ManifestPackage{{Path: ".", Name: "widgets", Language: "tsx"}}}
	require.NoError(t, s.WriteManifest(m))

	got, err := s.ReadManifest()
	require.NoError(t, err)
	assert.Equal(t, m, got)
	assert.FileExists(t, filepath.Join(dir, ".devac", "manifest.json"))
}
