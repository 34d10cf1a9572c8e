// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package parse

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Registry dispatches a file path to the backend that claims its
// extension.
type Registry struct {
	byExt map[string]Backend
}

// NewRegistry builds an empty registry. Backends register themselves via
// Register.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Backend)}
}

// Register adds backend under every extension it declares. A later
// registration for the same extension overrides an earlier one.
func (r *Registry) Register(b Backend) {
	for _, ext := range b.Extensions() {
		r.byExt[strings.ToLower(ext)] = b
	}
}

// Lookup returns the backend that can parse path, or ok=false if no
// registered backend claims its extension.
func (r *Registry) Lookup(path string) (Backend, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	b, ok := r.byExt[ext]
	if !ok || !b.CanParse(path) {
		return nil, false
	}
	return b, true
}

// ParseFile dispatches path to the matching backend. A path with no
// matching backend is an error. A backend failure is not: it is turned
// into an empty result carrying the failure as a warning, with a nil error.
func (r *Registry) ParseFile(path string, cfg Config) (*ParseResult, error) {
	b, ok := r.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("parse.Registry: no backend for %s", path)
	}
	start := time.Now()
	res, err := b.ParseFile(path, cfg)
	if err != nil {
		return emptyResult(path, "", start, err.Error()), nil
	}
	return res, nil
}
