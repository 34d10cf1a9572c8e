// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pyscript

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
	assert.True(t, b.CanParse("a.py"))
	assert.False(t, b.CanParse("a.ts"))
}

func TestParseContent_EmptyFile(t *testing.T) {
	b := New()
	res, err := b.ParseContent([]byte(""), "empty.py", cfg())
	require.NoError(t, err)
	require.Len(t, res.Nodes, 1)
	assert.Equal(t, string(model.KindModule), res.Nodes[0].Kind)
	assert.Empty(t, res.Edges)
}

func TestParseContent_FunctionsAndCall(t *testing.T) {
	src := "def bar():\n    pass\n\ndef foo():\n    bar()\n"
	b := New()
	res, err := b.ParseContent([]byte(src), "file.py", cfg())
	require.NoError(t, err)

	var fnNames []string
	for _, n := range res.Nodes {
		if n.Kind == string(model.KindFunction) {
			fnNames = append(fnNames, n.Name)
		}
	}
	assert.ElementsMatch(t, []string{"foo", "bar"}, fnNames)

	var hasCall bool
	for _, e := range res.Edges {
		if e.EdgeType == string(model.EdgeCalls) {
			hasCall = true
		}
	}
	assert.True(t, hasCall)
}

func TestParseContent_ClassBaseAndInterfaceConvention(t *testing.T) {
	src := "class Widget(Base, IRenderable):\n    def render(self):\n        pass\n"
	b := New()
	res, err := b.ParseContent([]byte(src), "widget.py", cfg())
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

func TestParseContent_FromImport(t *testing.T) {
	src := "from boto3 import client\n"
	b := New()
	res, err := b.ParseContent([]byte(src), "upload.py", cfg())
	require.NoError(t, err)
	require.Len(t, res.ExternalRefs, 1)
	assert.Equal(t, "boto3", res.ExternalRefs[0].ModuleSpecifier)
	assert.Equal(t, "client", res.ExternalRefs[0].ImportedSymbol)
}
