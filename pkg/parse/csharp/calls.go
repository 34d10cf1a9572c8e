// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package csharp

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/devac-project/devac/pkg/ident"
	"github.com/devac-project/devac/pkg/model"
	"github.com/devac-project/devac/pkg/parse"
)

func (w *walker) emitCall(n *sitter.Node) {
	isConstructor := n.Type() == "object_creation_expression"
	var fnNode *sitter.Node
	if isConstructor {
		fnNode = n.ChildByFieldName("type")
	} else {
		fnNode = n.ChildByFieldName("function")
	}
	if fnNode == nil {
		return
	}
	receiver, calleeName := w.splitCallee(fnNode, isConstructor)
	if calleeName == "" {
		return
	}

	callerID := w.currentContainer()
	target := ident.Unresolved(calleeName)
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

func (w *walker) splitCallee(fnNode *sitter.Node, isConstructor bool) (receiver, name string) {
	if isConstructor {
		return "", w.text(fnNode)
	}
	switch fnNode.Type() {
	case "identifier":
		return "", w.text(fnNode)
	case "member_access_expression":
		obj := fnNode.ChildByFieldName("expression")
		prop := fnNode.ChildByFieldName("name")
		return w.text(obj), w.text(prop)
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
		if a.Type() == "string_literal" {
			urlLiteral = w.text(a)
			break
		}
	}
	if urlLiteral == "" {
		return
	}
	pattern := parse.TemplatePattern(strings.Trim(urlLiteral, "\""))
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
