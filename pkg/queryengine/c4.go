// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// §4.G's generate_c4: derives a C4-style model (context, containers,
// domains, externals) from the graph — grouped by file, by external
// module reference, and by rules-engine domain label — rather than
// requiring a hand-maintained architecture diagram.
package queryengine

import "sort"

// C4Level selects how much of the model generate_c4 returns.
type C4Level string

const (
	C4LevelContext    C4Level = "context"
	C4LevelContainers C4Level = "containers"
	C4LevelDomains    C4Level = "domains"
	C4LevelExternals  C4Level = "externals"
)

// C4Options configures GenerateC4.
type C4Options struct {
	Level C4Level
}

// C4Container is one source file, the unit c4Containers groups symbols and
// external dependencies by.
type C4Container struct {
	Name         string
	SymbolCount  int
	ExternalDeps []string
}

// C4External is one external dependency surfaced to a reader.
type C4External struct {
	ModuleSpecifier string
	ReferenceCount  int
}

// C4Domain is one rules-engine-derived domain effect grouping.
type C4Domain struct {
	DomainEffect string
	EffectCount  int
}

// C4Model is the generate_c4 result; only the fields relevant to
// opts.Level are populated by GenerateC4, the rest left as nil/zero.
type C4Model struct {
	Level      C4Level
	Containers []C4Container
	Externals  []C4External
	Domains    []C4Domain
	System     string
}

// GenerateC4 builds the requested level of a C4 model from the engine's
// currently loaded tables.
func (e *Engine) GenerateC4(opts C4Options) C4Model {
	model := C4Model{Level: opts.Level, System: "workspace"}
	switch opts.Level {
	case C4LevelContainers:
		model.Containers = e.c4Containers()
	case C4LevelExternals:
		model.Externals = e.c4Externals()
	case C4LevelDomains:
		model.Domains = e.c4Domains()
	default: // C4LevelContext, or unset: a summary across all three
		model.Containers = e.c4Containers()
		model.Externals = e.c4Externals()
		model.Domains = e.c4Domains()
	}
	return model
}

func (e *Engine) c4Containers() []C4Container {
	byFile := make(map[string]int)
	for _, n := range e.allNodes() {
		byFile[n.FilePath]++
	}
	depsByFile := make(map[string]map[string]bool)
	nodeFile := make(map[string]string)
	for _, n := range e.allNodes() {
		nodeFile[n.EntityID] = n.FilePath
	}
	for _, ref := range e.allExternalRefs() {
		f := nodeFile[ref.SourceEntityID]
		if depsByFile[f] == nil {
			depsByFile[f] = make(map[string]bool)
		}
		depsByFile[f][ref.ModuleSpecifier] = true
	}

	names := make([]string, 0, len(byFile))
	for f := range byFile {
		names = append(names, f)
	}
	sort.Strings(names)

	out := make([]C4Container, 0, len(names))
	for _, f := range names {
		var deps []string
		for d := range depsByFile[f] {
			deps = append(deps, d)
		}
		sort.Strings(deps)
		out = append(out, C4Container{Name: f, SymbolCount: byFile[f], ExternalDeps: deps})
	}
	return out
}

func (e *Engine) c4Externals() []C4External {
	counts := make(map[string]int)
	for _, ref := range e.allExternalRefs() {
		counts[ref.ModuleSpecifier]++
	}
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]C4External, 0, len(names))
	for _, n := range names {
		out = append(out, C4External{ModuleSpecifier: n, ReferenceCount: counts[n]})
	}
	return out
}

func (e *Engine) c4Domains() []C4Domain {
	result := e.RunRules(nil)
	counts := make(map[string]int)
	for _, d := range result.DomainEffects {
		counts[d.DomainEffect]++
	}
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]C4Domain, 0, len(names))
	for _, n := range names {
		out = append(out, C4Domain{DomainEffect: n, EffectCount: counts[n]})
	}
	return out
}
