// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct{ calls int }

func (f *fakeBackend) Language() string     { return "fake" }
func (f *fakeBackend) Extensions() []string { return []string{".fk"} }
func (f *fakeBackend) Version() string      { return "0" }
func (f *fakeBackend) CanParse(path string) bool {
	return strings.HasSuffix(path, ".fk")
}
func (f *fakeBackend) ParseFile(path string, cfg Config) (*ParseResult, error) {
	f.calls++
	return &ParseResult{FilePath: path}, nil
}
func (f *fakeBackend) ParseContent(content []byte, path string, cfg Config) (*ParseResult, error) {
	return f.ParseFile(path, cfg)
}

func TestRegistry_DispatchByExtension(t *testing.T) {
	r := NewRegistry()
	b := &fakeBackend{}
	r.Register(b)

	res, err := r.ParseFile("widget.fk", Config{})
	require.NoError(t, err)
	assert.Equal(t, "widget.fk", res.FilePath)
	assert.Equal(t, 1, b.calls)
}

func TestRegistry_NoBackendForExtension(t *testing.T) {
	r := NewRegistry()
	_, err := r.ParseFile("widget.unknown", Config{})
	assert.Error(t, err)
}
