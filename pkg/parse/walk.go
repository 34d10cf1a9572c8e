// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package parse

import (
	"os"
	"path/filepath"
)

// SkipDirs names directories an ingest pass never descends into: VCS
// metadata, dependency trees, build output, and the seed store itself.
var SkipDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true, "dist": true,
	"build": true, ".devac": true, "bin": true,
}

// WalkFiles returns every file under root whose extension some backend
// registered with r claims, skipping SkipDirs.
func (r *Registry) WalkFiles(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if p != root && SkipDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := r.Lookup(p); !ok {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
