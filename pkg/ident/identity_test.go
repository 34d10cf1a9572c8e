// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityID_StableAcrossLinePosition(t *testing.T) {
	// entity_id must depend only on (repo, pkg, kind, file, scoped_name),
	// never on where in the file the symbol sits.
	id1 := EntityID("acme/widgets", "src", "function", "a.ts", "foo")
	id2 := EntityID("acme/widgets", "src", "function", "a.ts", "foo")
	require.Equal(t, id1, id2)
}

func TestEntityID_DiffersByKind(t *testing.T) {
	fn := EntityID("acme/widgets", "src", "function", "a.ts", "foo")
	cls := EntityID("acme/widgets", "src", "class", "a.ts", "foo")
	assert.NotEqual(t, fn, cls)
}

func TestEntityID_HasKindPrefix(t *testing.T) {
	id := EntityID("acme/widgets", "src", "function", "a.ts", "foo")
	assert.Equal(t, "fn:", id[:3])
}

func TestUnresolved(t *testing.T) {
	assert.Equal(t, "unresolved:fetch", Unresolved("fetch"))
}

func TestScopedName_IIFE(t *testing.T) {
	s := NewScope()
	n1 := s.ScopedName(Symbol{IsIIFE: true})
	n2 := s.ScopedName(Symbol{IsIIFE: true})
	assert.Equal(t, "$iife_1", n1)
	assert.Equal(t, "$iife_2", n2)
}

func TestScopedName_TopLevelReassignment(t *testing.T) {
	s := NewScope()
	first := s.ScopedName(Symbol{IsTopLevel: true, Name: "handler"})
	second := s.ScopedName(Symbol{IsTopLevel: true, Name: "handler"})
	assert.Equal(t, "handler", first)
	assert.Equal(t, "handler$1", second)
}

func TestScopedName_ClassMember(t *testing.T) {
	s := NewScope()
	name := s.ScopedName(Symbol{IsClassMember: true, ParentName: "Widget", Name: "render"})
	assert.Equal(t, "Widget.render", name)
}

func TestScopedName_ClassMemberComputedKey(t *testing.T) {
	s := NewScope()
	name := s.ScopedName(Symbol{IsClassMember: true, ParentName: "Widget", ComputedKey: "Symbol.iterator"})
	assert.Equal(t, "Widget.[Symbol.iterator]", name)
}

func TestScopedName_CallbackArgumentCounters(t *testing.T) {
	s := NewScope()
	first := s.ScopedName(Symbol{IsCallback: true, CallExpression: "arr.map", ArgumentIndex: 0})
	second := s.ScopedName(Symbol{IsCallback: true, CallExpression: "arr.map", ArgumentIndex: 0})
	assert.Equal(t, "arr.map.$arg0", first)
	assert.Equal(t, "arr.map.$arg0_1", second)
}

func TestScopedName_ArrayElement(t *testing.T) {
	s := NewScope()
	name := s.ScopedName(Symbol{ArrayName: "handlers", ArrayIndex: 2})
	assert.Equal(t, "handlers.$2", name)
}

func TestScopedName_NestedScope(t *testing.T) {
	s := NewScope()
	s.Push("Widget")
	s.Push("render")
	name := s.ScopedName(Symbol{Name: "helper"})
	assert.Equal(t, "Widget.render.helper", name)
}

func TestScopedName_AnonymousFallback(t *testing.T) {
	s := NewScope()
	n1 := s.ScopedName(Symbol{Kind: "function"})
	n2 := s.ScopedName(Symbol{Kind: "function"})
	assert.Equal(t, "$anon_function_1", n1)
	assert.Equal(t, "$anon_function_2", n2)
}
