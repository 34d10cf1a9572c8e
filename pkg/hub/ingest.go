// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package hub

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/devac-project/devac/pkg/model"
	"github.com/devac-project/devac/pkg/parse"
	"github.com/devac-project/devac/pkg/parse/backends"
	"github.com/devac-project/devac/pkg/seed"
)

// ingestRegistry is shared across every refresh: language backends carry no
// per-call state, so one registry serves the whole hub.
var ingestRegistry = backends.Default()

// ingestPackage re-seeds one package directory, re-parsing only the files
// whose content hash changed since the last seed write and dropping the
// rows of files that disappeared, per §4.C. It reports whether the
// package's seed actually changed, so RefreshRepo can report a real delta
// rather than a constant full count.
func ingestPackage(repoName, pkgDir string, logger *slog.Logger) (bool, error) {
	store := seed.New(pkgDir, nil)
	existing, err := store.Read()
	if err != nil {
		return false, fmt.Errorf("hub: ingest %s: read seed: %w", pkgDir, err)
	}
	existingStates := seed.CurrentHashes(existing)
	existingHashByPath := make(map[string]string, len(existingStates))
	for _, s := range existingStates {
		existingHashByPath[s.Path] = s.Hash
	}

	absFiles, err := ingestRegistry.WalkFiles(pkgDir)
	if err != nil {
		return false, fmt.Errorf("hub: ingest %s: walk: %w", pkgDir, err)
	}

	absByRel := make(map[string]string, len(absFiles))
	currentHashes := make(map[string]string, len(absFiles))
	currentPaths := make([]string, 0, len(absFiles))
	for _, abs := range absFiles {
		rel := strings.TrimPrefix(strings.TrimPrefix(abs, pkgDir), "/")
		hash, err := seed.HashFile(abs)
		if err != nil {
			return false, fmt.Errorf("hub: ingest %s: %w", pkgDir, err)
		}
		absByRel[rel] = abs
		currentHashes[rel] = hash
		currentPaths = append(currentPaths, rel)
	}

	delta := seed.DetectChanges(currentPaths, currentHashes, existingStates)
	if !delta.Changed() {
		return false, nil
	}

	staleHashes := make(map[string]bool)
	for _, rel := range delta.Modified {
		if h, ok := existingHashByPath[rel]; ok {
			staleHashes[h] = true
		}
	}
	for _, rel := range delta.Deleted {
		if h, ok := existingHashByPath[rel]; ok {
			staleHashes[h] = true
		}
	}
	cleaned := seed.RemoveFile(existing, staleHashes)

	cfg := parse.Config{
		RepoName:    repoName,
		PackagePath: pkgDir,
		PackageRoot: pkgDir,
		Branch:      string(model.BranchBase),
	}
	toParse := make([]string, 0, len(delta.Added)+len(delta.Modified))
	toParse = append(toParse, delta.Added...)
	toParse = append(toParse, delta.Modified...)
	for _, rel := range toParse {
		abs := absByRel[rel]
		res, err := ingestRegistry.ParseFile(abs, cfg)
		if err != nil {
			if logger != nil {
				logger.Warn("hub.ingest_parse_failed", "path", abs, "err", err)
			}
			continue
		}
		cleaned.Nodes = append(cleaned.Nodes, res.Nodes...)
		cleaned.Edges = append(cleaned.Edges, res.Edges...)
		cleaned.ExternalRefs = append(cleaned.ExternalRefs, res.ExternalRefs...)
		cleaned.Effects = append(cleaned.Effects, res.Effects...)
	}

	if err := store.Write(model.BranchBase, cleaned); err != nil {
		return false, fmt.Errorf("hub: ingest %s: write seed: %w", pkgDir, err)
	}
	return true, nil
}

// ingestManifest runs ingestPackage over every package a repo's manifest
// lists, returning the count whose seed actually changed. A package that
// fails to ingest is logged and skipped rather than failing the whole
// refresh, matching LoadTables's per-repo failure handling.
func ingestManifest(repoName, repoRoot string, packages []seed.ManifestPackage, logger *slog.Logger) int {
	changed := 0
	for _, pkg := range packages {
		pkgDir := filepath.Join(repoRoot, pkg.Path)
		didChange, err := ingestPackage(repoName, pkgDir, logger)
		if err != nil {
			if logger != nil {
				logger.Warn("hub.ingest_package_failed", "path", pkgDir, "err", err)
			}
			continue
		}
		if didChange {
			changed++
		}
	}
	return changed
}
