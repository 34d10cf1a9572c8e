// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// §4.G's rules engine: turns CodeEffect rows (the Effect table) into
// DomainEffect rows by matching each effect against a small set of
// pattern rules, grounded on the same classification shape pkg/parse's
// ClassifySend/HTTPVerbForDecorator helpers already use for effect
// detection at parse time — here applied post-hoc, over the seed's
// persisted effects, instead of at parse time.
package queryengine

import (
	"fmt"
	"strings"

	"github.com/devac-project/devac/pkg/model"
)

// Rule matches effects whose EffectType equals Kind and whose matched
// property equals (or, if Contains is set, contains) Match, and labels
// hits with DomainEffect.
type Rule struct {
	Name     string
	Kind     string // model.EffectType value to match
	Property string // Effect.Properties key to inspect
	Match    string
	Contains bool

	DomainEffect string
}

// DefaultRules is the built-in rule set: send effects targeting a known
// third-party API surface are labelled by provider, and request effects
// are labelled by HTTP verb.
var DefaultRules = []Rule{
	{Name: "outbound-stripe", Kind: string(model.EffectSend), Property: "target_service", Match: "stripe", Contains: true, DomainEffect: "payment.charge"},
	{Name: "outbound-s3", Kind: string(model.EffectSend), Property: "target_service", Match: "s3", Contains: true, DomainEffect: "storage.write"},
	{Name: "inbound-get", Kind: string(model.EffectRequest), Property: "method", Match: "GET", DomainEffect: "read.query"},
	{Name: "inbound-write", Kind: string(model.EffectRequest), Property: "method", Match: "POST", DomainEffect: "write.command"},
}

// DomainEffectRow is one matched (or unmatched) effect's rules-engine
// verdict.
type DomainEffectRow struct {
	Effect       model.Effect
	DomainEffect string // empty if unmatched
	RuleName     string
}

// RuleStats tallies how many effects each rule matched.
type RuleStats struct {
	RuleName string
	Matches  int
}

// RunRulesResult is the shape run_rules returns per §4.G.
type RunRulesResult struct {
	DomainEffects []DomainEffectRow
	MatchedCount  int
	UnmatchedCount int
	RuleStats     []RuleStats
}

func matchRule(r Rule, eff model.Effect) bool {
	if eff.EffectType != r.Kind {
		return false
	}
	val := eff.Properties[r.Property]
	if r.Contains {
		return strings.Contains(strings.ToLower(val), strings.ToLower(r.Match))
	}
	return strings.EqualFold(val, r.Match)
}

// RunRules evaluates rules (or DefaultRules if nil) against every effect
// currently loaded in e, in rule-list order, first match wins per effect.
func (e *Engine) RunRules(rules []Rule) RunRulesResult {
	if rules == nil {
		rules = DefaultRules
	}
	statsByName := make(map[string]int, len(rules))
	var result RunRulesResult
	for _, eff := range e.allEffects() {
		matched := false
		for _, r := range rules {
			if matchRule(r, eff) {
				result.DomainEffects = append(result.DomainEffects, DomainEffectRow{
					Effect:       eff,
					DomainEffect: r.DomainEffect,
					RuleName:     r.Name,
				})
				statsByName[r.Name]++
				matched = true
				break
			}
		}
		if matched {
			result.MatchedCount++
		} else {
			result.UnmatchedCount++
		}
	}
	for _, r := range rules {
		result.RuleStats = append(result.RuleStats, RuleStats{RuleName: r.Name, Matches: statsByName[r.Name]})
	}
	return result
}

// ListRulesFilter narrows ListRules.
type ListRulesFilter struct {
	Kind string
}

// ListRules returns the rules (from DefaultRules) matching filter, for
// introspection by a caller wanting to know what run_rules will attempt.
func (e *Engine) ListRules(filter ListRulesFilter) []Rule {
	var out []Rule
	for _, r := range DefaultRules {
		if filter.Kind != "" && filter.Kind != r.Kind {
			continue
		}
		out = append(out, r)
	}
	return out
}

// describeRule is a small helper used by CLI/formatting callers.
func describeRule(r Rule) string {
	op := "=="
	if r.Contains {
		op = "contains"
	}
	return fmt.Sprintf("%s: %s.%s %s %q -> %s", r.Name, r.Kind, r.Property, op, r.Match, r.DomainEffect)
}
