// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package csharp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devac-project/devac/pkg/model"
	"github.com/devac-project/devac/pkg/parse"
)

func cfg() parse.Config {
	return parse.Config{RepoName: "acme/widgets", PackagePath: "src", Branch: string(model.BranchBase)}
}

func TestBackend_CanParse(t *testing.T) {
	b := New()
	assert.True(t, b.CanParse("a.cs"))
	assert.False(t, b.CanParse("a.py"))
}

func TestParseContent_EmptyFile(t *testing.T) {
	b := New()
	res, err := b.ParseContent([]byte(""), "empty.cs", cfg())
	require.NoError(t, err)
	require.Len(t, res.Nodes, 1)
	assert.Empty(t, res.Edges)
}

func TestParseContent_ClassBaseAndInterface(t *testing.T) {
	src := "public class Widget : Base, IRenderable {\n  public void Render() {}\n}\n"
	b := New()
	res, err := b.ParseContent([]byte(src), "widget.cs", cfg())
	require.NoError(t, err)

	var sawExtends, sawImplements bool
	for _, e := range res.Edges {
		if e.EdgeType == string(model.EdgeExtends) {
			sawExtends = true
		}
		if e.EdgeType == string(model.EdgeImplements) {
			sawImplements = true
		}
	}
	assert.True(t, sawExtends)
	assert.True(t, sawImplements)
}
