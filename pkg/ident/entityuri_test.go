// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntityURI_FullForm(t *testing.T) {
	u, ok := ParseEntityURI("devac://myws/acme/widgets@main/src/a.ts#foo")
	require.True(t, ok)
	assert.Equal(t, "myws", u.Workspace)
	assert.Equal(t, "acme/widgets", u.Repo)
	assert.Equal(t, "main", u.Ref)
	assert.Equal(t, "src", u.PackagePath)
	assert.Equal(t, "a.ts", u.FilePath)
	assert.Equal(t, "foo", u.Fragment)
}

func TestParseEntityURI_RepoRootPackage(t *testing.T) {
	u, ok := ParseEntityURI("devac://myws/acme/widgets/./a.ts#L10")
	require.True(t, ok)
	assert.Equal(t, ".", u.PackagePath)
	assert.Equal(t, "a.ts", u.ResolveFilePath())
}

func TestParseEntityURI_NestedFilePath(t *testing.T) {
	u, ok := ParseEntityURI("devac://myws/acme/widgets/src/nested/dir/a.ts")
	require.True(t, ok)
	assert.Equal(t, "nested/dir/a.ts", u.FilePath)
	assert.Equal(t, "src/nested/dir/a.ts", u.ResolveFilePath())
}

func TestParseEntityURI_NoRef(t *testing.T) {
	u, ok := ParseEntityURI("devac://myws/acme/widgets/src/a.ts")
	require.True(t, ok)
	assert.Equal(t, "", u.Ref)
}

func TestParseEntityURI_RejectsNonDevacScheme(t *testing.T) {
	_, ok := ParseEntityURI("https://example.com/a.ts")
	assert.False(t, ok)
}

func TestParseEntityURI_RejectsMissingSegments(t *testing.T) {
	_, ok := ParseEntityURI("devac://myws/acme")
	assert.False(t, ok)
}

func TestResolvePath_PassesThroughRawPaths(t *testing.T) {
	assert.Equal(t, "src/a.ts", ResolvePath("src/a.ts"))
}

func TestResolvePath_CollapsesURI(t *testing.T) {
	assert.Equal(t, "src/a.ts", ResolvePath("devac://myws/acme/widgets/src/a.ts#foo"))
}
