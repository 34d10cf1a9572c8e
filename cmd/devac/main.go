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

// Package main is devac's thin CLI boundary: a demonstration harness
// wiring pkg/watcher, pkg/refresher, pkg/hub and pkg/queryengine together,
// not a complete user-facing product — the command-line front-end is
// treated as an external collaborator that talks to the workspace hub
// over its socket like any other client would.
//
// Usage:
//
//	devac sync [--path DIR]       Parse a package tree and write its seed
//	devac status [--path DIR]     Show a package seed's manifest and row counts
//	devac query <sql> [--json]    Run a read-only SQL query against a seed
//	devac hub [--workspace DIR]   Bind (or connect to) the workspace's hub
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/fatih/color"
)

// GlobalFlags holds flags shared across every subcommand.
type GlobalFlags struct {
	JSON    bool
	NoColor bool
	Verbose int
	Quiet   bool
}

// Exit codes per spec §6: 0 success, 1 user/input error, 2 internal error.
const (
	ExitOK          = 0
	ExitUserError   = 1
	ExitInternalErr = 2
)

func main() {
	var (
		jsonOutput = flag.Bool("json", false, "Output in JSON format")
		noColor    = flag.Bool("no-color", false, "Disable color output")
		verbose    = flag.CountP("verbose", "v", "Increase verbosity (-v, -vv)")
		quiet      = flag.BoolP("quiet", "q", false, "Suppress non-essential output")
	)
	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `devac - Developer Assistance Code-Knowledge-Graph

Usage:
  devac <command> [options]

Commands:
  sync     Parse a package tree and write/update its seed
  status   Show a package seed's manifest and row counts
  query    Run a read-only SQL query against a package's seed
  hub      Bind (or connect) to the workspace-level hub

Global Options:
  --json         Output in JSON format
  --no-color     Disable color output (respects NO_COLOR env var)
  -v, --verbose  Increase verbosity
  -q, --quiet    Suppress non-essential output

`)
	}
	flag.Parse()

	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}
	if *quiet && *verbose > 0 {
		fmt.Fprintln(os.Stderr, "Error: cannot use --quiet and --verbose together")
		os.Exit(ExitUserError)
	}
	if *jsonOutput {
		*quiet = true
	}
	color.NoColor = *noColor || color.NoColor

	globals := GlobalFlags{JSON: *jsonOutput, NoColor: *noColor, Verbose: *verbose, Quiet: *quiet}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(ExitUserError)
	}

	command := args[0]
	cmdArgs := args[1:]

	var code int
	switch command {
	case "sync":
		code = runSync(cmdArgs, globals)
	case "status":
		code = runStatus(cmdArgs, globals)
	case "query":
		code = runQuery(cmdArgs, globals)
	case "hub":
		code = runHub(cmdArgs, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		code = ExitUserError
	}
	os.Exit(code)
}
