// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/devac-project/devac/pkg/model"
	"github.com/devac-project/devac/pkg/parse"
	"github.com/devac-project/devac/pkg/parse/backends"
	"github.com/devac-project/devac/pkg/seed"
)

// runSync parses every source file under --path (default: cwd) with the
// backend matching its extension and writes the merged result as the
// package's base-branch seed.
func runSync(args []string, globals GlobalFlags) int {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	path := fs.String("path", ".", "package root to parse")
	repoName := fs.String("repo", "", "repo identifier recorded on emitted nodes")
	branch := fs.String("branch", string(model.BranchBase), "seed overlay level to write (base|branch)")
	if err := fs.Parse(args); err != nil {
		return ExitUserError
	}

	root, err := filepath.Abs(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devac sync: %v\n", err)
		return ExitUserError
	}

	registry := backends.Default()
	var tables seed.Tables

	cfg := parse.Config{RepoName: *repoName, PackagePath: root, PackageRoot: root, Branch: *branch}

	files, err := registry.WalkFiles(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devac sync: %v\n", err)
		return ExitInternalErr
	}

	bar := newProgressBar(globals, len(files), "parsing")
	for _, p := range files {
		res, parseErr := registry.ParseFile(p, cfg)
		if parseErr != nil {
			fmt.Fprintf(os.Stderr, "devac sync: %s: %v\n", p, parseErr)
			if bar != nil {
				_ = bar.Add(1)
			}
			continue
		}
		tables.Nodes = append(tables.Nodes, res.Nodes...)
		tables.Edges = append(tables.Edges, res.Edges...)
		tables.ExternalRefs = append(tables.ExternalRefs, res.ExternalRefs...)
		tables.Effects = append(tables.Effects, res.Effects...)
		for _, w := range res.Warnings {
			if !globals.Quiet {
				fmt.Fprintf(os.Stderr, "devac sync: %s: %s\n", p, w.Message)
			}
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	store := seed.New(root, nil)
	if err := store.Write(model.Branch(*branch), tables); err != nil {
		fmt.Fprintf(os.Stderr, "devac sync: write seed: %v\n", err)
		return ExitInternalErr
	}

	if globals.JSON {
		fmt.Printf(`{"nodes":%d,"edges":%d,"external_refs":%d,"effects":%d}`+"\n",
			len(tables.Nodes), len(tables.Edges), len(tables.ExternalRefs), len(tables.Effects))
	} else if !globals.Quiet {
		fmt.Printf("synced %s: %d nodes, %d edges, %d external refs, %d effects\n",
			root, len(tables.Nodes), len(tables.Edges), len(tables.ExternalRefs), len(tables.Effects))
	}
	return ExitOK
}
