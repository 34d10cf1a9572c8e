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

// Package parse drives a syntax tree per source file and emits normalized
// nodes, edges, external refs and effects. The package itself only holds
// the shared contract (Config, ParseResult, Backend, Registry); concrete
// language backends live in subpackages (tsx, pyscript, csharp) and
// register themselves with a Registry by file extension.
package parse

import (
	"time"

	"github.com/devac-project/devac/pkg/model"
)

// Config is the parser configuration threaded into every backend call.
type Config struct {
	RepoName            string
	PackagePath         string
	PackageRoot         string // if set, emitted file paths are relative to this
	Branch              string
	IncludeDocumentation bool
	IncludeTypes        bool
	MaxScopeDepth       int
}

// Warning carries a non-fatal parse issue. The parser never throws out of
// a backend; unrecoverable syntax failures become an empty result plus a
// warning instead.
type Warning struct {
	Message string
	Line    int
}

// ParseResult is the one-result-per-file output of a language backend.
type ParseResult struct {
	Nodes          []Node
	Edges          []Edge
	ExternalRefs   []ExternalRef
	Effects        []Effect
	SourceFileHash string
	FilePath       string
	ParseTimeMs    int64 // not persisted; informational only
	Warnings       []Warning
}

// Node, Edge, ExternalRef and Effect alias the model package's row types so
// backend code can refer to parse.Node without a second import; this keeps
// backend packages focused on syntax-tree walking.
type (
	Node        = model.Node
	Edge        = model.Edge
	ExternalRef = model.ExternalRef
	Effect      = model.Effect
)

// Backend is the per-language contract every parser implementation
// exposes, matching §4.B's {language, extensions[], version, can_parse,
// parse_file, parse_content} shape.
type Backend interface {
	Language() string
	Extensions() []string
	Version() string
	CanParse(path string) bool
	ParseFile(path string, cfg Config) (*ParseResult, error)
	ParseContent(content []byte, path string, cfg Config) (*ParseResult, error)
}

// emptyResult builds the degraded-but-valid result returned when a backend
// fails on a file: it carries the file path, hash, parse time and an
// optional warning, and no nodes, edges, external refs or effects.
func emptyResult(filePath, hash string, start time.Time, warn string) *ParseResult {
	r := &ParseResult{
		FilePath:       filePath,
		SourceFileHash: hash,
		ParseTimeMs:    time.Since(start).Milliseconds(),
	}
	if warn != "" {
		r.Warnings = append(r.Warnings, Warning{Message: warn})
	}
	return r
}
