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

// Package queryengine answers graph queries by combining per-package
// seeds (§4.G): find_symbol, dependencies/dependents, a transitive
// call-graph BFS (cycle-broken, depth-ordered), SQL passthrough, a
// rules engine, and C4 generation, all built in the same table-oriented
// style over seed.Tables.
package queryengine

import (
	"fmt"
	"sort"

	"github.com/devac-project/devac/pkg/metrics"
	"github.com/devac-project/devac/pkg/model"
	"github.com/devac-project/devac/pkg/seed"
)

// Mode selects package-mode (one package) vs hub-mode (every package
// listed in every repo manifest, table references unioned across them).
type Mode int

const (
	PackageMode Mode = iota
	HubMode
)

// Engine answers queries against one or more package seeds.
type Engine struct {
	mode   Mode
	tables []seed.Tables // one entry in package mode, N in hub mode
}

// NewPackage opens the engine against a single package's merged tables.
func NewPackage(t seed.Tables) *Engine {
	return &Engine{mode: PackageMode, tables: []seed.Tables{t}}
}

// NewHub opens the engine against every package's merged tables listed
// across a workspace's repo manifests.
func NewHub(tables []seed.Tables) *Engine {
	return &Engine{mode: HubMode, tables: tables}
}

func (e *Engine) allNodes() []model.Node {
	var out []model.Node
	for _, t := range e.tables {
		out = append(out, t.Nodes...)
	}
	return out
}

func (e *Engine) allEdges() []model.Edge {
	var out []model.Edge
	for _, t := range e.tables {
		out = append(out, t.Edges...)
	}
	return out
}

func (e *Engine) allExternalRefs() []model.ExternalRef {
	var out []model.ExternalRef
	for _, t := range e.tables {
		out = append(out, t.ExternalRefs...)
	}
	return out
}

func (e *Engine) allEffects() []model.Effect {
	var out []model.Effect
	for _, t := range e.tables {
		out = append(out, t.Effects...)
	}
	return out
}

// FindSymbol returns nodes whose name matches exactly, optionally
// restricted to kind.
func (e *Engine) FindSymbol(name string, kind string) []model.Node {
	var out []model.Node
	for _, n := range e.allNodes() {
		if n.Name != name {
			continue
		}
		if kind != "" && n.Kind != kind {
			continue
		}
		out = append(out, n)
	}
	return out
}

// GetDependencies returns the nodes entityID CALLS, EXTENDS, IMPLEMENTS,
// or is PARAMETER_OF, i.e. everything entityID directly points to.
func (e *Engine) GetDependencies(entityID string) []string {
	var out []string
	for _, ed := range e.allEdges() {
		if ed.SourceEntityID == entityID {
			out = append(out, ed.TargetEntityID)
		}
	}
	return out
}

// GetDependents returns the nodes that directly point at entityID.
func (e *Engine) GetDependents(entityID string) []string {
	var out []string
	for _, ed := range e.allEdges() {
		if ed.TargetEntityID == entityID {
			out = append(out, ed.SourceEntityID)
		}
	}
	return out
}

// GetFileSymbols returns every node whose file_path matches filePath.
func (e *Engine) GetFileSymbols(filePath string) []model.Node {
	var out []model.Node
	for _, n := range e.allNodes() {
		if n.FilePath == filePath {
			out = append(out, n)
		}
	}
	return out
}

// GetAffected returns the set of entity IDs reachable within maxDepth
// hops from any node declared in one of files, following edges of every
// type backwards (target to source), plus those starting nodes.
func (e *Engine) GetAffected(files []string, maxDepth int) []string {
	seedIDs := make(map[string]bool)
	for _, n := range e.allNodes() {
		for _, f := range files {
			if n.FilePath == f {
				seedIDs[n.EntityID] = true
			}
		}
	}
	visited := make(map[string]bool)
	queue := make([]string, 0, len(seedIDs))
	for id := range seedIDs {
		queue = append(queue, id)
		visited[id] = true
	}
	edges := e.allEdges()
	for depth := 0; depth < maxDepth && len(queue) > 0; depth++ {
		var next []string
		for _, id := range queue {
			for _, ed := range edges {
				if ed.TargetEntityID == id && !visited[ed.SourceEntityID] {
					visited[ed.SourceEntityID] = true
					next = append(next, ed.SourceEntityID)
				}
			}
		}
		queue = next
	}
	out := make([]string, 0, len(visited))
	for id := range visited {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Direction selects which edge direction GetCallGraph follows.
type Direction string

const (
	DirectionCallers Direction = "callers"
	DirectionCallees Direction = "callees"
	DirectionBoth    Direction = "both"
)

// CallGraphNode is one row of a call-graph traversal result.
type CallGraphNode struct {
	EntityID string
	Name     string
	Depth    int
}

const callGraphCap = 100

// GetCallGraph performs a transitive BFS over CALLS edges up to maxDepth,
// maintaining a path accumulator to suppress cycles, DISTINCT on
// (entity_id, depth), ordered by depth then name, capped at 100 per
// direction — per §4.G. With DirectionBoth the callees come first, then
// the callers, each ordered and capped on its own.
func (e *Engine) GetCallGraph(entityID string, direction Direction, maxDepth int) []CallGraphNode {
	var deduped []CallGraphNode
	metrics.ObserveQuery("get_call_graph", func() {
		deduped = e.getCallGraph(entityID, direction, maxDepth)
	})
	return deduped
}

func (e *Engine) getCallGraph(entityID string, direction Direction, maxDepth int) []CallGraphNode {
	nameByID := make(map[string]string)
	for _, n := range e.allNodes() {
		nameByID[n.EntityID] = n.Name
	}

	var result []CallGraphNode
	if direction == DirectionCallees || direction == DirectionBoth {
		result = append(result, distinctSortedCapped(e.bfsCalls(entityID, maxDepth, false, nameByID))...)
	}
	if direction == DirectionCallers || direction == DirectionBoth {
		result = append(result, distinctSortedCapped(e.bfsCalls(entityID, maxDepth, true, nameByID))...)
	}
	return result
}

func distinctSortedCapped(result []CallGraphNode) []CallGraphNode {
	seen := make(map[string]bool)
	deduped := result[:0]
	for _, r := range result {
		key := fmt.Sprintf("%s|%d", r.EntityID, r.Depth)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, r)
	}
	sort.Slice(deduped, func(i, j int) bool {
		if deduped[i].Depth != deduped[j].Depth {
			return deduped[i].Depth < deduped[j].Depth
		}
		return deduped[i].Name < deduped[j].Name
	})
	if len(deduped) > callGraphCap {
		deduped = deduped[:callGraphCap]
	}
	return deduped
}

func (e *Engine) bfsCalls(start string, maxDepth int, reverse bool, nameByID map[string]string) []CallGraphNode {
	calls := make([]model.Edge, 0)
	for _, ed := range e.allEdges() {
		if ed.EdgeType == string(model.EdgeCalls) {
			calls = append(calls, ed)
		}
	}

	type frontier struct {
		id    string
		depth int
		path  map[string]bool
	}
	var out []CallGraphNode
	queue := []frontier{{id: start, depth: 0, path: map[string]bool{start: true}}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth > 0 {
			out = append(out, CallGraphNode{EntityID: cur.id, Name: nameByID[cur.id], Depth: cur.depth})
		}
		if cur.depth >= maxDepth {
			continue
		}
		for _, ed := range calls {
			var next string
			if reverse {
				if ed.TargetEntityID != cur.id {
					continue
				}
				next = ed.SourceEntityID
			} else {
				if ed.SourceEntityID != cur.id {
					continue
				}
				next = ed.TargetEntityID
			}
			if cur.path[next] {
				continue // cycle
			}
			newPath := make(map[string]bool, len(cur.path)+1)
			for k := range cur.path {
				newPath[k] = true
			}
			newPath[next] = true
			queue = append(queue, frontier{id: next, depth: cur.depth + 1, path: newPath})
		}
	}
	return out
}

// QueryEffectsFilter narrows QueryEffects.
type QueryEffectsFilter struct {
	EffectType string
	SourceFile string
}

// QueryEffects returns effects matching filter.
func (e *Engine) QueryEffects(filter QueryEffectsFilter) []model.Effect {
	var out []model.Effect
	for _, eff := range e.allEffects() {
		if filter.EffectType != "" && eff.EffectType != filter.EffectType {
			continue
		}
		if filter.SourceFile != "" && eff.SourceFilePath != filter.SourceFile {
			continue
		}
		out = append(out, eff)
	}
	return out
}

// QuerySQL executes a SELECT-only statement against the engine's merged
// tables: the rows of every loaded package go into one in-memory database,
// so in hub mode each canonical table name (nodes, edges, external_refs,
// effects) refers to that table's rows across all packages. The statement
// text itself is not rewritten.
func (e *Engine) QuerySQL(sqlText string) ([]seed.Row, error) {
	if !seed.IsSelectOnly(sqlText) {
		return nil, fmt.Errorf("queryengine: only SELECT statements are accepted")
	}
	merged := e.merged()
	qe, err := seed.Open(merged)
	if err != nil {
		return nil, fmt.Errorf("queryengine: open: %w", err)
	}
	defer qe.Close()

	var rows []seed.Row
	metrics.ObserveQuery("query_sql", func() {
		rows, err = qe.Query(sqlText)
	})
	return rows, err
}

func (e *Engine) merged() seed.Tables {
	var out seed.Tables
	out.Nodes = e.allNodes()
	out.Edges = e.allEdges()
	out.ExternalRefs = e.allExternalRefs()
	out.Effects = e.allEffects()
	return out
}
