// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/devac-project/devac/pkg/seed"
)

// runStatus reports the seed's manifest and row counts for --path (default
// cwd).
func runStatus(args []string, globals GlobalFlags) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	path := fs.String("path", ".", "package root to inspect")
	if err := fs.Parse(args); err != nil {
		return ExitUserError
	}

	root, err := filepath.Abs(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devac status: %v\n", err)
		return ExitUserError
	}

	store := seed.New(root, nil)
	manifest, err := store.ReadManifest()
	if err != nil {
		fmt.Fprintf(os.Stderr, "devac status: read manifest: %v\n", err)
		return ExitInternalErr
	}
	tables, err := store.Read()
	if err != nil {
		fmt.Fprintf(os.Stderr, "devac status: read seed: %v\n", err)
		return ExitInternalErr
	}

	if globals.JSON {
		fmt.Printf(`{"repo_id":%q,"packages":%d,"nodes":%d,"edges":%d}`+"\n",
			manifest.RepoID, len(manifest.Packages), len(tables.Nodes), len(tables.Edges))
		return ExitOK
	}

	fmt.Printf("repo:     %s\n", manifest.RepoID)
	fmt.Printf("packages: %d\n", len(manifest.Packages))
	fmt.Printf("nodes:    %d\n", len(tables.Nodes))
	fmt.Printf("edges:    %d\n", len(tables.Edges))
	return ExitOK
}
