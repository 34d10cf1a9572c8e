// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pyscript

import (
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/devac-project/devac/pkg/ident"
	"github.com/devac-project/devac/pkg/model"
	"github.com/devac-project/devac/pkg/parse"
)

func (w *walker) emitClass(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	name := w.text(nameNode)
	if name == "" {
		return
	}
	scopedName := w.scope.ScopedName(ident.Symbol{IsTopLevel: true, Name: name})
	classID := w.entityID(string(model.KindClass), scopedName)

	body := n.ChildByFieldName("body")
	w.nodes = append(w.nodes, model.Node{
		EntityID:       classID,
		Name:           name,
		QualifiedName:  scopedName,
		Kind:           string(model.KindClass),
		FilePath:       w.filePath,
		SourceFileHash: w.hash,
		StartLine:      w.line(n),
		EndLine:        w.endLine(n),
		IsExported:     !hasLeadingUnderscore(name),
		Documentation:  w.docstringOf(body),
		Branch:         w.cfg.Branch,
	})
	w.contains(w.currentContainer(), classID)

	// Base classes via the superclasses argument list: "class Foo(Base, IRenderable):".
	// No interface keyword exists in this language, so an I+Uppercase base
	// name is treated as an IMPLEMENTS edge per the documented convention;
	// any other base name is treated as EXTENDS.
	if sup := n.ChildByFieldName("superclasses"); sup != nil {
		for i := 0; i < int(sup.NamedChildCount()); i++ {
			base := sup.NamedChild(i)
			if base.Type() != "identifier" && base.Type() != "attribute" {
				continue
			}
			baseName := w.text(base)
			edgeType := string(model.EdgeExtends)
			if parse.IsInterfaceByConvention(baseName) {
				edgeType = string(model.EdgeImplements)
			}
			w.edges = append(w.edges, model.Edge{
				SourceEntityID: classID,
				TargetEntityID: ident.Unresolved(baseName),
				EdgeType:       edgeType,
				SourceFilePath: w.filePath,
				SourceFileHash: w.hash,
				Branch:         w.cfg.Branch,
			})
		}
	}

	w.containerStack = append(w.containerStack, classID)
	if body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			member := body.NamedChild(i)
			switch member.Type() {
			case "function_definition":
				w.emitMethod(member, classID, name, nil)
			case "decorated_definition":
				var defNode *sitter.Node
				for j := 0; j < int(member.ChildCount()); j++ {
					c := member.Child(j)
					if c.Type() == "function_definition" {
						defNode = c
					}
				}
				if defNode != nil {
					w.emitMethod(defNode, classID, name, decoratorNames(member, w.content))
				}
			default:
				w.walk(member)
			}
		}
	}
	w.containerStack = w.containerStack[:len(w.containerStack)-1]
}

func hasLeadingUnderscore(name string) bool {
	return len(name) > 0 && name[0] == '_'
}

func (w *walker) emitFunction(n *sitter.Node, decNames []string) {
	nameNode := n.ChildByFieldName("name")
	name := w.text(nameNode)
	if name == "" {
		return
	}
	scopedName := w.scope.ScopedName(ident.Symbol{IsTopLevel: true, Name: name, Kind: "function"})
	fnID := w.entityID(string(model.KindFunction), scopedName)

	body := n.ChildByFieldName("body")
	w.nodes = append(w.nodes, model.Node{
		EntityID:       fnID,
		Name:           name,
		QualifiedName:  scopedName,
		Kind:           string(model.KindFunction),
		FilePath:       w.filePath,
		SourceFileHash: w.hash,
		StartLine:      w.line(n),
		EndLine:        w.endLine(n),
		IsAsync:        n.Child(0) != nil && w.text(n.Child(0)) == "async",
		IsExported:     !hasLeadingUnderscore(name),
		TypeSignature:  w.signature(n),
		Decorators:     decNames,
		Documentation:  w.docstringOf(body),
		Branch:         w.cfg.Branch,
	})
	w.contains(w.currentContainer(), fnID)
	w.emitParameters(n, fnID)

	w.containerStack = append(w.containerStack, fnID)
	if body != nil {
		w.walk(body)
	}
	w.containerStack = w.containerStack[:len(w.containerStack)-1]
}

func (w *walker) emitMethod(n *sitter.Node, classID, className string, decNames []string) {
	nameNode := n.ChildByFieldName("name")
	name := w.text(nameNode)
	if name == "" {
		return
	}
	scopedName := w.scope.ScopedName(ident.Symbol{IsClassMember: true, ParentName: className, Name: name})
	methID := w.entityID(string(model.KindMethod), scopedName)

	body := n.ChildByFieldName("body")
	visibility := "public"
	if hasLeadingUnderscore(name) {
		visibility = "private"
	}
	isStatic := false
	for _, d := range decNames {
		if d == "staticmethod" {
			isStatic = true
		}
	}

	w.nodes = append(w.nodes, model.Node{
		EntityID:       methID,
		Name:           name,
		QualifiedName:  scopedName,
		Kind:           string(model.KindMethod),
		FilePath:       w.filePath,
		SourceFileHash: w.hash,
		StartLine:      w.line(n),
		EndLine:        w.endLine(n),
		IsAsync:        n.Child(0) != nil && w.text(n.Child(0)) == "async",
		IsStatic:       isStatic,
		Visibility:     visibility,
		TypeSignature:  w.signature(n),
		Decorators:     decNames,
		Documentation:  w.docstringOf(body),
		Branch:         w.cfg.Branch,
	})
	w.contains(classID, methID)
	w.emitParameters(n, methID)

	for _, dn := range decNames {
		if verb, ok := parse.HTTPVerbForDecorator(dn); ok {
			w.effects = append(w.effects, model.Effect{
				EffectType:     string(model.EffectRequest),
				SourceEntityID: methID,
				SourceFilePath: w.filePath,
				SourceLine:     w.line(n),
				Properties:     model.RequestProps(verb, name, "decorator"),
				Branch:         w.cfg.Branch,
			})
		}
	}

	w.containerStack = append(w.containerStack, methID)
	if body != nil {
		w.walk(body)
	}
	w.containerStack = w.containerStack[:len(w.containerStack)-1]
}

func (w *walker) signature(fnNode *sitter.Node) string {
	params := fnNode.ChildByFieldName("parameters")
	ret := fnNode.ChildByFieldName("return_type")
	sig := w.text(params)
	if ret != nil {
		sig += " -> " + w.text(ret)
	}
	return sig
}

func (w *walker) emitParameters(fnNode *sitter.Node, ownerID string) {
	params := fnNode.ChildByFieldName("parameters")
	if params == nil {
		return
	}
	idx := 0
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		name, typ := paramNameAndType(p, w.content)
		if name == "" || name == "self" || name == "cls" {
			continue
		}
		paramID := ident.EntityID(w.cfg.RepoName, w.cfg.PackagePath, string(model.KindParameter), w.filePath, ownerID+"."+name)
		w.nodes = append(w.nodes, model.Node{
			EntityID:       paramID,
			Name:           name,
			QualifiedName:  ownerID + "." + name,
			Kind:           string(model.KindParameter),
			FilePath:       w.filePath,
			SourceFileHash: w.hash,
			StartLine:      w.line(p),
			EndLine:        w.endLine(p),
			TypeSignature:  typ,
			Branch:         w.cfg.Branch,
		})
		w.edges = append(w.edges, model.Edge{
			SourceEntityID: paramID,
			TargetEntityID: ownerID,
			EdgeType:       string(model.EdgeParameterOf),
			SourceFilePath: w.filePath,
			SourceFileHash: w.hash,
			SourceLine:     w.line(p),
			Properties:     map[string]string{"index": strconv.Itoa(idx)},
			Branch:         w.cfg.Branch,
		})
		idx++
	}
}

func paramNameAndType(p *sitter.Node, content []byte) (name, typ string) {
	switch p.Type() {
	case "identifier":
		return string(content[p.StartByte():p.EndByte()]), ""
	case "typed_parameter":
		id := p.NamedChild(0)
		t := p.ChildByFieldName("type")
		if id != nil {
			name = string(content[id.StartByte():id.EndByte()])
		}
		if t != nil {
			typ = string(content[t.StartByte():t.EndByte()])
		}
		return name, typ
	case "default_parameter", "typed_default_parameter":
		id := p.ChildByFieldName("name")
		if id != nil {
			return paramNameAndType(id, content)
		}
	case "list_splat_pattern", "dictionary_splat_pattern":
		if id := p.NamedChild(0); id != nil {
			return string(content[id.StartByte():id.EndByte()]), ""
		}
	}
	return "", ""
}
