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

// Package seed implements the columnar, content-addressed package-local
// persistence layer described for §4.C: a base/branch overlay over the
// structural graph tables, written atomically and invalidated by source
// file hash rather than by VCS state.
package seed

import "github.com/devac-project/devac/pkg/model"

// Manifest is the per-package manifest persisted at <pkg>/.devac/manifest.json.
type Manifest struct {
	RepoID   string           `json:"repo_id"`
	Packages []ManifestPackage `json:"packages"`
}

// ManifestPackage describes one package entry within a repo manifest.
type ManifestPackage struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

// Tables groups the four seed tables for a single overlay level.
type Tables struct {
	Nodes        []model.Node
	Edges        []model.Edge
	ExternalRefs []model.ExternalRef
	Effects      []model.Effect
}

func (t Tables) empty() bool {
	return len(t.Nodes) == 0 && len(t.Edges) == 0 && len(t.ExternalRefs) == 0 && len(t.Effects) == 0
}

const tombstoneKey = "_tombstone"

// IsTombstone reports whether a node carries the deletion marker used by
// the branch overlay to represent removal without mutating the base level
// in place (§4.C: "deletions are represented by a branch row with a
// tombstone flag in properties").
func IsTombstone(props map[string]string) bool {
	return props != nil && props[tombstoneKey] == "true"
}

// Tombstone returns a minimal node that marks entityID as deleted in the
// branch overlay.
func Tombstone(entityID string) model.Node {
	return model.Node{
		EntityID:   entityID,
		Properties: map[string]string{tombstoneKey: "true"},
	}
}
