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

package ident

import (
	"net/url"
	"strings"
)

// EntityURI is a parsed canonical reference:
// devac://<ws>/<repo>[@<ref>]/<pkg_or_.>/<file>#<symbol|Lline>, per §6.
type EntityURI struct {
	Workspace   string
	Repo        string
	Ref         string // empty if the URI named no @ref
	PackagePath string // "." denotes the repo root
	FilePath    string
	Fragment    string // symbol name or "L<line>"; ignored for path resolution
}

// ParseEntityURI parses a devac:// URI. It reports false for anything that
// isn't a devac-scheme URI or is missing the repo/pkg/file segments.
func ParseEntityURI(raw string) (EntityURI, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "devac" || u.Host == "" {
		return EntityURI{}, false
	}

	// <repo> is an owner/name pair (e.g. "acme/widgets"), so a complete URI
	// has at least four path segments: owner, name[@ref], pkg, file.
	segments := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	if len(segments) < 4 {
		return EntityURI{}, false
	}

	repo, ref := segments[0]+"/"+segments[1], ""
	if i := strings.IndexByte(repo, '@'); i >= 0 {
		repo, ref = repo[:i], repo[i+1:]
	}

	return EntityURI{
		Workspace:   u.Host,
		Repo:        repo,
		Ref:         ref,
		PackagePath: segments[2],
		FilePath:    strings.Join(segments[3:], "/"),
		Fragment:    u.Fragment,
	}, true
}

// ResolveFilePath collapses a URI to the file path its tools should open:
// <pkg>/<file>, or bare <file> when PackagePath is ".", per §6. The
// fragment plays no part in file-path resolution.
func (u EntityURI) ResolveFilePath() string {
	if u.PackagePath == "." || u.PackagePath == "" {
		return u.FilePath
	}
	return u.PackagePath + "/" + u.FilePath
}

// ResolvePath accepts either a raw file path or a devac:// URI and returns
// a plain file path, per §6's "File-path tools accept either a raw path or
// a URI" contract.
func ResolvePath(input string) string {
	if u, ok := ParseEntityURI(input); ok {
		return u.ResolveFilePath()
	}
	return input
}
