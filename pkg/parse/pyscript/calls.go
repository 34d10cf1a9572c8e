// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pyscript

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/devac-project/devac/pkg/ident"
	"github.com/devac-project/devac/pkg/model"
	"github.com/devac-project/devac/pkg/parse"
)

func (w *walker) emitCall(n *sitter.Node) {
	fnNode := n.ChildByFieldName("function")
	if fnNode == nil {
		return
	}
	receiver, calleeName := w.splitCallee(fnNode)
	if calleeName == "" {
		return
	}
	isConstructor := calleeName != "" && calleeName[0] >= 'A' && calleeName[0] <= 'Z'

	callerID := w.currentContainer()
	target := ident.Unresolved(calleeName)
	if calleeName == "self" {
		target = ident.Unresolved("self")
	}
	props := map[string]string{}
	if isConstructor {
		props["is_constructor"] = "true"
	}

	w.edges = append(w.edges, model.Edge{
		SourceEntityID: callerID,
		TargetEntityID: target,
		EdgeType:       string(model.EdgeCalls),
		SourceFilePath: w.filePath,
		SourceFileHash: w.hash,
		SourceLine:     w.line(n),
		Properties:     props,
		Branch:         w.cfg.Branch,
	})

	argCount := 0
	if args := n.ChildByFieldName("arguments"); args != nil {
		argCount = int(args.NamedChildCount())
	}

	isExternal, externalModule := w.resolveExternal(receiver)
	w.effects = append(w.effects, model.Effect{
		EffectType:     string(model.EffectFunctionCall),
		SourceEntityID: callerID,
		SourceFilePath: w.filePath,
		SourceLine:     w.line(n),
		Properties: model.FunctionCallProps(
			calleeName, receiverQualified(receiver, calleeName),
			receiver != "", false, isConstructor, argCount, isExternal, externalModule,
		),
		Branch: w.cfg.Branch,
	})

	w.maybeEmitSend(n, receiver, calleeName, callerID)
}

func (w *walker) splitCallee(fnNode *sitter.Node) (receiver, name string) {
	switch fnNode.Type() {
	case "identifier":
		return "", w.text(fnNode)
	case "attribute":
		obj := fnNode.ChildByFieldName("object")
		attr := fnNode.ChildByFieldName("attribute")
		return w.text(obj), w.text(attr)
	default:
		return "", w.text(fnNode)
	}
}

func receiverQualified(receiver, name string) string {
	if receiver == "" {
		return name
	}
	return receiver + "." + name
}

func (w *walker) resolveExternal(receiver string) (bool, string) {
	base := receiver
	if idx := strings.Index(base, "."); idx >= 0 {
		base = base[:idx]
	}
	spec, ok := w.importedFrom[base]
	if !ok {
		return false, ""
	}
	return true, spec
}

func (w *walker) maybeEmitSend(n *sitter.Node, receiver, calleeName, callerID string) {
	verb, ok := parse.HTTPMethodForCall(receiver, calleeName)
	if !ok {
		return
	}
	args := n.ChildByFieldName("arguments")
	if args == nil {
		return
	}
	urlLiteral := ""
	for i := 0; i < int(args.ChildCount()); i++ {
		a := args.Child(i)
		if a.Type() == "string" {
			urlLiteral = w.text(a)
			break
		}
	}
	if urlLiteral == "" {
		return
	}
	pattern := parse.TemplatePattern(strings.Trim(urlLiteral, "'\""))
	kind, service := parse.ClassifySend(pattern)
	_, isExternal := w.resolveExternal(receiver)
	w.effects = append(w.effects, model.Effect{
		EffectType:     string(model.EffectSend),
		SourceEntityID: callerID,
		SourceFilePath: w.filePath,
		SourceLine:     w.line(n),
		Properties:     model.SendProps(kind, verb, pattern, isExternal, service),
		Branch:         w.cfg.Branch,
	})
}

// emitImport implements rule 10 for both "import x.y" and "from x import y"
// forms.
func (w *walker) emitImport(n *sitter.Node) {
	if n.Type() == "import_statement" {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			var modName, alias string
			switch c.Type() {
			case "dotted_name":
				modName = w.text(c)
				alias = modName
			case "aliased_import":
				nm := c.ChildByFieldName("name")
				al := c.ChildByFieldName("alias")
				modName = w.text(nm)
				alias = w.text(al)
			default:
				continue
			}
			w.importedFrom[alias] = modName
			w.externalRefs = append(w.externalRefs, model.ExternalRef{
				SourceEntityID:  w.currentContainer(),
				ModuleSpecifier: modName,
				ImportedSymbol:  "*",
				LocalAlias:      alias,
				ImportStyle:     string(model.ImportNamespace),
				Branch:          w.cfg.Branch,
			})
		}
		return
	}

	moduleNode := n.ChildByFieldName("module_name")
	module := w.text(moduleNode)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		var imported, alias string
		switch c.Type() {
		case "dotted_name", "identifier":
			if c == moduleNode {
				continue
			}
			imported = w.text(c)
			alias = imported
		case "aliased_import":
			nm := c.ChildByFieldName("name")
			al := c.ChildByFieldName("alias")
			imported = w.text(nm)
			alias = w.text(al)
		case "wildcard_import":
			imported = "*"
			alias = "*"
		default:
			continue
		}
		w.importedFrom[alias] = module
		w.externalRefs = append(w.externalRefs, model.ExternalRef{
			SourceEntityID:  w.currentContainer(),
			ModuleSpecifier: module,
			ImportedSymbol:  imported,
			LocalAlias:      alias,
			ImportStyle:     string(model.ImportNamed),
			Branch:          w.cfg.Branch,
		})
	}
}
