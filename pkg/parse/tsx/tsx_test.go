// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package tsx

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
	assert.True(t, b.CanParse("a.ts"))
	assert.True(t, b.CanParse("a.tsx"))
	assert.True(t, b.CanParse("a.js"))
	assert.False(t, b.CanParse("a.py"))
}

func TestParseContent_EmptyFile(t *testing.T) {
	b := New()
	res, err := b.ParseContent([]byte(""), "empty.ts", cfg())
	require.NoError(t, err)
	require.Len(t, res.Nodes, 1)
	assert.Equal(t, string(model.KindModule), res.Nodes[0].Kind)
	assert.Empty(t, res.Edges)
}

func TestParseContent_FunctionDeclarationsAndCall(t *testing.T) {
	src := `
function foo() {
  bar();
}
function bar() {}
`
	b := New()
	res, err := b.ParseContent([]byte(src), "file.ts", cfg())
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

func TestParseContent_ClassExtendsImplements(t *testing.T) {
	src := `
class Widget extends Base implements IRenderable {
  render() {}
}
`
	b := New()
	res, err := b.ParseContent([]byte(src), "widget.ts", cfg())
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

func TestParseContent_ExternalImportEffect(t *testing.T) {
	src := "import S3Client from '@aws-sdk/client-s3';\nfunction upload() {\n  new S3Client({}).send(cmd);\n}\n"
	b := New()
	res, err := b.ParseContent([]byte(src), "upload.ts", cfg())
	require.NoError(t, err)

	var found bool
	for _, eff := range res.Effects {
		if eff.EffectType == string(model.EffectFunctionCall) && eff.Properties["is_external"] == "true" {
			assert.Equal(t, "@aws-sdk/client-s3", eff.Properties["external_module"])
			found = true
		}
	}
	assert.True(t, found)
}

func TestParseContent_SideEffectImport(t *testing.T) {
	src := "import './polyfill';\n"
	b := New()
	res, err := b.ParseContent([]byte(src), "entry.ts", cfg())
	require.NoError(t, err)
	require.Len(t, res.ExternalRefs, 1)
	assert.Equal(t, string(model.ImportSideEffect), res.ExternalRefs[0].ImportStyle)
}
