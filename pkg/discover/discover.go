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

// Package discover finds repos within a workspace by locating go.mod files
// and reading the declared module path (directories without a go.mod are
// not reported as repos), feeding the Watcher's repo list and
// the Hub's registration set without requiring the caller to enumerate
// repos by hand.
package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// Repo is one discovered repository root.
type Repo struct {
	RepoID string // the go.mod module path, or the directory name as a fallback
	Path   string
}

var skipDirNames = map[string]bool{
	".git": true, "node_modules": true, "vendor": true, "dist": true,
	"build": true, ".devac": true, "bin": true,
}

// Workspace walks root looking for go.mod files at any depth, stopping the
// descent at the first one found in a given subtree (nested go.mod files,
// e.g. in a vendor snapshot, do not also count as separate repos).
func Workspace(root string) ([]Repo, error) {
	var repos []Repo
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && skipDirNames[info.Name()] {
			return filepath.SkipDir
		}
		modPath := filepath.Join(path, "go.mod")
		data, readErr := os.ReadFile(modPath)
		if readErr != nil {
			return nil // no go.mod here, keep descending
		}
		repoID := modulePathOrFallback(data, path)
		repos = append(repos, Repo{RepoID: repoID, Path: path})
		return filepath.SkipDir // don't descend into a repo we already found
	})
	if err != nil {
		return nil, fmt.Errorf("discover: walk %s: %w", root, err)
	}
	return repos, nil
}

func modulePathOrFallback(goModContents []byte, path string) string {
	f, err := modfile.ParseLax("go.mod", goModContents, nil)
	if err != nil || f.Module == nil || strings.TrimSpace(f.Module.Mod.Path) == "" {
		return filepath.Base(path)
	}
	return f.Module.Mod.Path
}
