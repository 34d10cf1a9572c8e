// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/devac-project/devac/pkg/queryengine"
	"github.com/devac-project/devac/pkg/seed"
)

// runQuery executes a SELECT-only SQL statement against a package's
// merged seed, per §4.G's query_sql operation.
func runQuery(args []string, globals GlobalFlags) int {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	path := fs.String("path", ".", "package root whose seed to query")
	if err := fs.Parse(args); err != nil {
		return ExitUserError
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "devac query: missing SQL statement")
		return ExitUserError
	}
	sqlText := rest[0]

	root, err := filepath.Abs(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devac query: %v\n", err)
		return ExitUserError
	}

	store := seed.New(root, nil)
	tables, err := store.Read()
	if err != nil {
		fmt.Fprintf(os.Stderr, "devac query: read seed: %v\n", err)
		return ExitInternalErr
	}

	engine := queryengine.NewPackage(tables)
	rows, err := engine.QuerySQL(sqlText)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devac query: %v\n", err)
		return ExitUserError
	}

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		return jsonExit(enc.Encode(rows))
	}
	for _, row := range rows {
		fmt.Println(row)
	}
	return ExitOK
}

func jsonExit(err error) int {
	if err != nil {
		fmt.Fprintf(os.Stderr, "devac query: encode result: %v\n", err)
		return ExitInternalErr
	}
	return ExitOK
}
