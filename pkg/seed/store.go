// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package seed

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/devac-project/devac/pkg/model"
)

// Store is the per-package seed store: a base/branch overlay of the four
// structural graph tables persisted as columnar files under
// <pkg>/.devac/seed/{base,branch}/.
//
// A per-package mutex enforces the single-writer invariant from §5; reads
// take the same lock in shared mode so a read never observes a half
// completed overlay swap.
type Store struct {
	mu         sync.RWMutex
	packageDir string
	logger     *slog.Logger
}

// New opens (without yet reading) the seed store rooted at packageDir, the
// package directory that contains the .devac subtree.
func New(packageDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{packageDir: packageDir, logger: logger}
}

func (s *Store) dir(branch model.Branch) string {
	level := "base"
	if branch == model.BranchBranch {
		level = "branch"
	}
	return filepath.Join(s.packageDir, ".devac", "seed", level)
}

func (s *Store) manifestPath() string {
	return filepath.Join(s.packageDir, ".devac", "manifest.json")
}

// Write overwrites one overlay level wholesale, per §4.C's "a write is a
// whole-table overwrite of one overlay level for one package" contract.
func (s *Store) Write(branch model.Branch, t Tables) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeTables(s.dir(branch), t); err != nil {
		return fmt.Errorf("seed: write %s: %w", branch, err)
	}
	s.logger.Info("seed.write",
		"package", s.packageDir, "branch", branch,
		"nodes", len(t.Nodes), "edges", len(t.Edges),
		"external_refs", len(t.ExternalRefs), "effects", len(t.Effects))
	return nil
}

// Read returns the base table overlaid by the branch table, per the
// overlay semantics of §4.C: a branch row supersedes the base row sharing
// its entity_id, rows only in branch are added, rows only in base pass
// through, and a branch row carrying the tombstone flag removes the base
// row instead of replacing it.
func (s *Store) Read() (Tables, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	base, err := readTables(s.dir(model.BranchBase))
	if err != nil {
		return Tables{}, fmt.Errorf("seed: read base: %w", err)
	}
	if _, statErr := os.Stat(s.dir(model.BranchBranch)); statErr != nil {
		return base, nil
	}
	overlay, err := readTables(s.dir(model.BranchBranch))
	if err != nil {
		return Tables{}, fmt.Errorf("seed: read branch: %w", err)
	}
	return mergeOverlay(base, overlay), nil
}

func mergeOverlay(base, overlay Tables) Tables {
	return Tables{
		Nodes:        mergeNodes(base.Nodes, overlay.Nodes),
		Edges:        append(append([]model.Edge{}, base.Edges...), overlay.Edges...),
		ExternalRefs: append(append([]model.ExternalRef{}, base.ExternalRefs...), overlay.ExternalRefs...),
		Effects:      append(append([]model.Effect{}, base.Effects...), overlay.Effects...),
	}
}

// mergeNodes applies entity_id-keyed supersede/tombstone semantics; edges,
// external_refs and effects have no single natural key in this schema,
// so they are simply unioned (a branch re-parse is expected to rewrite
// its whole table rather than patch individual rows of those).
func mergeNodes(base, overlay []model.Node) []model.Node {
	tombstoned := make(map[string]bool, len(overlay))
	byID := make(map[string]model.Node, len(base)+len(overlay))
	order := make([]string, 0, len(base)+len(overlay))

	for _, n := range base {
		if _, exists := byID[n.EntityID]; !exists {
			order = append(order, n.EntityID)
		}
		byID[n.EntityID] = n
	}
	for _, n := range overlay {
		if IsTombstone(n.Properties) {
			tombstoned[n.EntityID] = true
			continue
		}
		if _, exists := byID[n.EntityID]; !exists {
			order = append(order, n.EntityID)
		}
		byID[n.EntityID] = n
	}

	merged := make([]model.Node, 0, len(order))
	for _, id := range order {
		if tombstoned[id] {
			continue
		}
		merged = append(merged, byID[id])
	}
	return merged
}

// ReadManifest loads the package manifest, returning a zero-value manifest
// (not an error) when none has been written yet.
func (s *Store) ReadManifest() (Manifest, error) {
	data, err := os.ReadFile(s.manifestPath())
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, nil
		}
		return Manifest{}, fmt.Errorf("seed: read manifest: %w", err)
	}
	return decodeManifest(data)
}

// WriteManifest persists the package manifest atomically (temp + rename),
// the same pattern used for table writes.
func (s *Store) WriteManifest(m Manifest) error {
	data, err := encodeManifest(m)
	if err != nil {
		return fmt.Errorf("seed: encode manifest: %w", err)
	}
	path := s.manifestPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("seed: mkdir manifest dir: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("seed: write manifest temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("seed: rename manifest: %w", err)
	}
	return nil
}
