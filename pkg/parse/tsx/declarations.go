// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package tsx

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/devac-project/devac/pkg/ident"
	"github.com/devac-project/devac/pkg/model"
)

func (w *walker) emitClass(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	name := w.text(nameNode)
	if name == "" {
		name = "$anon_class"
	}
	scopedName := w.scope.ScopedName(ident.Symbol{IsTopLevel: true, Name: name})
	classID := w.entityID(string(model.KindClass), scopedName)

	isAbstract := n.Type() == "abstract_class_declaration"
	decNames := w.emitDecorators(w.decoratorsOf(n), classID)

	w.nodes = append(w.nodes, model.Node{
		EntityID:       classID,
		Name:           name,
		QualifiedName:  scopedName,
		Kind:           string(model.KindClass),
		FilePath:       w.filePath,
		SourceFileHash: w.hash,
		StartLine:      w.line(n),
		EndLine:        w.endLine(n),
		StartColumn:    w.col(n),
		EndColumn:      w.endCol(n),
		IsAbstract:     isAbstract,
		IsExported:     isExported(n),
		Decorators:     decNames,
		Documentation:  w.precedingDocComment(n),
		Branch:         w.cfg.Branch,
	})
	w.contains(w.currentContainer(), classID)

	// EXTENDS / IMPLEMENTS via class_heritage: "extends X implements Y, Z"
	if heritage := n.ChildByFieldName("heritage"); heritage != nil {
		w.emitHeritage(heritage, classID)
	} else {
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			if c.Type() == "class_heritage" {
				w.emitHeritage(c, classID)
			}
		}
	}

	// route-container decorator prefix, threaded to each method below so a
	// class-level @Controller('/widgets') combines with a method-level
	// @Get(':id') per rule 9.
	routePrefix := ""
	for _, dn := range decNames {
		if !isRouteContainer(dn) {
			continue
		}
		if arg := decoratorStringArg(n, w.content); arg != "" {
			routePrefix = arg
		}
	}

	w.containerStack = append(w.containerStack, classID)
	body := n.ChildByFieldName("body")
	if body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			member := body.Child(i)
			switch member.Type() {
			case "method_definition":
				w.emitMethod(member, classID, name, routePrefix)
			case "public_field_definition", "field_definition":
				w.emitField(member, classID, name)
			default:
				w.walk(member)
			}
		}
	}
	w.containerStack = w.containerStack[:len(w.containerStack)-1]
}

func (w *walker) emitHeritage(heritage *sitter.Node, classID string) {
	for i := 0; i < int(heritage.ChildCount()); i++ {
		c := heritage.Child(i)
		switch c.Type() {
		case "extends_clause":
			for j := 0; j < int(c.ChildCount()); j++ {
				base := c.Child(j)
				if base.Type() == "identifier" || base.Type() == "member_expression" || base.Type() == "type_identifier" {
					w.emitBaseEdge(classID, w.text(base))
				}
			}
		case "implements_clause":
			for j := 0; j < int(c.ChildCount()); j++ {
				iface := c.Child(j)
				if iface.Type() == "type_identifier" || iface.Type() == "identifier" {
					w.emitImplementsEdge(classID, w.text(iface))
				}
			}
		}
	}
}

func (w *walker) emitBaseEdge(sourceID, baseName string) {
	target := ident.Unresolved(baseName)
	w.edges = append(w.edges, model.Edge{
		SourceEntityID: sourceID,
		TargetEntityID: target,
		EdgeType:       string(model.EdgeExtends),
		SourceFilePath: w.filePath,
		SourceFileHash: w.hash,
		Branch:         w.cfg.Branch,
	})
}

func (w *walker) emitImplementsEdge(sourceID, ifaceName string) {
	target := ident.Unresolved(ifaceName)
	w.edges = append(w.edges, model.Edge{
		SourceEntityID: sourceID,
		TargetEntityID: target,
		EdgeType:       string(model.EdgeImplements),
		SourceFilePath: w.filePath,
		SourceFileHash: w.hash,
		Branch:         w.cfg.Branch,
	})
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
		IsExported:     isExported(n),
		Documentation:  w.precedingDocComment(n),
		Branch:         w.cfg.Branch,
	})
	w.contains(w.currentContainer(), ifaceID)

	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "extends_type_clause" || c.Type() == "extends_clause" {
			for j := 0; j < int(c.ChildCount()); j++ {
				base := c.Child(j)
				if base.Type() == "type_identifier" || base.Type() == "identifier" {
					w.emitBaseEdge(ifaceID, w.text(base))
				}
			}
		}
	}
}

func (w *walker) emitEnum(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	name := w.text(nameNode)
	scopedName := w.scope.ScopedName(ident.Symbol{IsTopLevel: true, Name: name})
	enumID := w.entityID(string(model.KindEnum), scopedName)

	w.nodes = append(w.nodes, model.Node{
		EntityID:       enumID,
		Name:           name,
		QualifiedName:  scopedName,
		Kind:           string(model.KindEnum),
		FilePath:       w.filePath,
		SourceFileHash: w.hash,
		StartLine:      w.line(n),
		EndLine:        w.endLine(n),
		IsExported:     isExported(n),
		Branch:         w.cfg.Branch,
	})
	w.contains(w.currentContainer(), enumID)

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		if member.Type() != "enum_assignment" && member.Type() != "property_identifier" {
			continue
		}
		memberName := w.text(member)
		if member.Type() == "enum_assignment" {
			if nm := member.ChildByFieldName("name"); nm != nil {
				memberName = w.text(nm)
			}
		}
		if memberName == "" {
			continue
		}
		memberID := w.entityID(string(model.KindEnumMember), scopedName+"."+memberName)
		w.nodes = append(w.nodes, model.Node{
			EntityID:       memberID,
			Name:           memberName,
			QualifiedName:  scopedName + "." + memberName,
			Kind:           string(model.KindEnumMember),
			FilePath:       w.filePath,
			SourceFileHash: w.hash,
			StartLine:      w.line(member),
			EndLine:        w.endLine(member),
			Branch:         w.cfg.Branch,
		})
		w.contains(enumID, memberID)
	}
}

func (w *walker) emitTypeAlias(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	name := w.text(nameNode)
	scopedName := w.scope.ScopedName(ident.Symbol{IsTopLevel: true, Name: name})
	typeID := w.entityID(string(model.KindType), scopedName)

	valueNode := n.ChildByFieldName("value")
	w.nodes = append(w.nodes, model.Node{
		EntityID:       typeID,
		Name:           name,
		QualifiedName:  scopedName,
		Kind:           string(model.KindType),
		FilePath:       w.filePath,
		SourceFileHash: w.hash,
		StartLine:      w.line(n),
		EndLine:        w.endLine(n),
		TypeSignature:  w.text(valueNode),
		IsExported:     isExported(n),
		Branch:         w.cfg.Branch,
	})
	w.contains(w.currentContainer(), typeID)
}

func (w *walker) emitField(n *sitter.Node, classID, className string) {
	nameNode := n.ChildByFieldName("name")
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
