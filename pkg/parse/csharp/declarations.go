// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package csharp

import (
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/devac-project/devac/pkg/ident"
	"github.com/devac-project/devac/pkg/model"
)

func (w *walker) emitClass(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	name := w.text(nameNode)
	if name == "" {
		return
	}
	kind := string(model.KindClass)
	if n.Type() == "record_declaration" {
		kind = string(model.KindRecord)
	}
	scopedName := w.scope.ScopedName(ident.Symbol{IsTopLevel: true, Name: name})
	classID := w.entityID(kind, scopedName)

	w.nodes = append(w.nodes, model.Node{
		EntityID:       classID,
		Name:           name,
		QualifiedName:  scopedName,
		Kind:           kind,
		FilePath:       w.filePath,
		SourceFileHash: w.hash,
		StartLine:      w.line(n),
		EndLine:        w.endLine(n),
		IsAbstract:     hasModifier(n, w.content, "abstract"),
		IsExported:     hasModifier(n, w.content, "public"),
		Branch:         w.cfg.Branch,
	})
	w.contains(w.currentContainer(), classID)

	// base_list holds the base class (at most one, by C# grammar rules) and
	// any number of implemented interfaces; interfaces are identified by the
	// language's own "I" naming convention as applied by its compiler
	// tooling, which this backend mirrors via name-prefix inspection since
	// the parse tree does not distinguish them structurally.
	if bases := n.ChildByFieldName("bases"); bases != nil {
		for i := 0; i < int(bases.NamedChildCount()); i++ {
			base := bases.NamedChild(i)
			baseName := w.text(base)
			edgeType := string(model.EdgeExtends)
			if looksLikeInterfaceName(baseName) {
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
	body := n.ChildByFieldName("body")
	if body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			member := body.NamedChild(i)
			switch member.Type() {
			case "method_declaration", "constructor_declaration":
				w.emitMethod(member, classID, name)
			case "property_declaration", "field_declaration":
				w.emitField(member, classID, name)
			default:
				w.walk(member)
			}
		}
	}
	w.containerStack = w.containerStack[:len(w.containerStack)-1]
}

// looksLikeInterfaceName applies the nominal-managed-language convention
// where an interface name starts with "I" followed by an uppercase letter,
// since this language's explicit interface keyword only disambiguates at
// the declaration site, not at a base-list reference site.
func looksLikeInterfaceName(name string) bool {
	return len(name) >= 2 && name[0] == 'I' && name[1] >= 'A' && name[1] <= 'Z'
}

func (w *walker) emitInterface(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	name := w.text(nameNode)
	scopedName := w.scope.ScopedName(ident.Symbol{IsTopLevel: true, Name: name})
	ifaceID := w.entityID(string(model.KindInterface), scopedName)

	w.nodes = append(w.nodes, model.Node{
		EntityID:       ifaceID,
		Name:           name,
		QualifiedName:  scopedName,
		Kind:           string(model.KindInterface),
		FilePath:       w.filePath,
		SourceFileHash: w.hash,
		StartLine:      w.line(n),
		EndLine:        w.endLine(n),
		IsExported:     hasModifier(n, w.content, "public"),
		Branch:         w.cfg.Branch,
	})
	w.contains(w.currentContainer(), ifaceID)

	if bases := n.ChildByFieldName("bases"); bases != nil {
		for i := 0; i < int(bases.NamedChildCount()); i++ {
			base := bases.NamedChild(i)
			w.edges = append(w.edges, model.Edge{
				SourceEntityID: ifaceID,
				TargetEntityID: ident.Unresolved(w.text(base)),
				EdgeType:       string(model.EdgeExtends),
				SourceFilePath: w.filePath,
				SourceFileHash: w.hash,
				Branch:         w.cfg.Branch,
			})
		}
	}

	w.containerStack = append(w.containerStack, ifaceID)
	if body := n.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			member := body.NamedChild(i)
			if member.Type() == "method_declaration" {
				w.emitMethod(member, ifaceID, name)
			}
		}
	}
	w.containerStack = w.containerStack[:len(w.containerStack)-1]
}

func (w *walker) emitMethod(n *sitter.Node, ownerID, ownerName string) {
	nameNode := n.ChildByFieldName("name")
	name := w.text(nameNode)
	if name == "" {
		name = ownerName
	}
	scopedName := w.scope.ScopedName(ident.Symbol{IsClassMember: true, ParentName: ownerName, Name: name})
	methID := w.entityID(string(model.KindMethod), scopedName)

	w.nodes = append(w.nodes, model.Node{
		EntityID:       methID,
		Name:           name,
		QualifiedName:  scopedName,
		Kind:           string(model.KindMethod),
		FilePath:       w.filePath,
		SourceFileHash: w.hash,
		StartLine:      w.line(n),
		EndLine:        w.endLine(n),
		IsStatic:       hasModifier(n, w.content, "static"),
		Visibility:     memberVisibility(n, w.content),
		TypeSignature:  w.signature(n),
		Branch:         w.cfg.Branch,
	})
	w.contains(ownerID, methID)
	w.emitParameters(n, methID)

	w.containerStack = append(w.containerStack, methID)
	if body := n.ChildByFieldName("body"); body != nil {
		w.walk(body)
	}
	w.containerStack = w.containerStack[:len(w.containerStack)-1]
}

func (w *walker) emitField(n *sitter.Node, classID, className string) {
	var nameNode *sitter.Node
	if decl := n.ChildByFieldName("declaration"); decl != nil {
		if v := decl.NamedChild(1); v != nil {
			nameNode = v
		}
	}
	if nameNode == nil {
		nameNode = n.ChildByFieldName("name")
	}
	name := w.text(nameNode)
	if name == "" {
		return
	}
	scopedName := w.scope.ScopedName(ident.Symbol{IsClassMember: true, ParentName: className, Name: name})
	fieldID := w.entityID(string(model.KindProperty), scopedName)
	w.nodes = append(w.nodes, model.Node{
		EntityID:       fieldID,
		Name:           name,
		QualifiedName:  scopedName,
		Kind:           string(model.KindProperty),
		FilePath:       w.filePath,
		SourceFileHash: w.hash,
		StartLine:      w.line(n),
		EndLine:        w.endLine(n),
		IsStatic:       hasModifier(n, w.content, "static"),
		Visibility:     memberVisibility(n, w.content),
		Branch:         w.cfg.Branch,
	})
	w.contains(classID, fieldID)
}

func (w *walker) signature(fnNode *sitter.Node) string {
	params := fnNode.ChildByFieldName("parameters")
	ret := fnNode.ChildByFieldName("type")
	sig := w.text(params)
	if ret != nil {
		sig = w.text(ret) + " " + sig
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
		if p.Type() != "parameter" {
			continue
		}
		nameNode := p.ChildByFieldName("name")
		typeNode := p.ChildByFieldName("type")
		name := w.text(nameNode)
		if name == "" {
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
			TypeSignature:  w.text(typeNode),
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

func hasModifier(n *sitter.Node, content []byte, modifier string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "modifier" && string(content[c.StartByte():c.EndByte()]) == modifier {
			return true
		}
	}
	return false
}

func memberVisibility(n *sitter.Node, content []byte) string {
	for _, v := range []string{"public", "private", "protected", "internal"} {
		if hasModifier(n, content, v) {
			return v
		}
	}
	return "private"
}
