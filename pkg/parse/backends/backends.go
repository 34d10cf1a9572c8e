// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backends wires every language backend §4.B names into one
// registry. It exists separately from pkg/parse itself so that pkg/parse's
// core (Registry, Backend, Config) stays free of a dependency on the
// concrete backends, which themselves depend on pkg/parse.
package backends

import (
	"github.com/devac-project/devac/pkg/parse"
	"github.com/devac-project/devac/pkg/parse/csharp"
	"github.com/devac-project/devac/pkg/parse/pyscript"
	"github.com/devac-project/devac/pkg/parse/tsx"
)

// Default returns a registry carrying the curly-brace/structural,
// whitespace-scoped, and nominal-managed backends.
func Default() *parse.Registry {
	r := parse.NewRegistry()
	r.Register(tsx.New())
	r.Register(pyscript.New())
	r.Register(csharp.New())
	return r
}
