// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package tsx

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/devac-project/devac/pkg/ident"
	"github.com/devac-project/devac/pkg/model"
	"github.com/devac-project/devac/pkg/parse"
)

// emitCall handles rule 6 (CALLS edge to an unresolved sentinel) and rule
// 7 (the matching FunctionCallEffect), plus rule 8 (outbound HTTP send
// recognition) for both call_expression and new_expression ("new X()")
// nodes.
func (w *walker) emitCall(n *sitter.Node) {
	fnNode := n.ChildByFieldName("function")
	if fnNode == nil {
		fnNode = n.ChildByFieldName("constructor")
	}
	if fnNode == nil {
		return
	}
	isConstructor := n.Type() == "new_expression"
	receiver, calleeName := w.splitCallee(fnNode)
	if calleeName == "" {
		return
	}

	callerID := w.currentContainer()
	target := ident.Unresolved(calleeName)
	props := map[string]string{}
	if isConstructor {
		props["is_constructor"] = "true"
	}
	if calleeName == "this" || calleeName == "super" {
		// base-call / self-call initializer convention (rule 6)
		calleeName = map[string]string{"this": "this", "super": "base"}[calleeName]
		target = ident.Unresolved(calleeName)
	}

	w.edges = append(w.edges, model.Edge{
		SourceEntityID: callerID,
		TargetEntityID: target,
		EdgeType:       string(model.EdgeCalls),
		SourceFilePath: w.filePath,
		SourceFileHash: w.hash,
		SourceLine:     w.line(n),
		SourceColumn:   w.col(n),
		Properties:     props,
		Branch:         w.cfg.Branch,
	})

	argCount := 0
	if args := n.ChildByFieldName("arguments"); args != nil {
		argCount = int(args.NamedChildCount())
	}

	// With no receiver (foo(), new S3Client()), the callee name itself is
	// the base identifier that may trace back to an import.
	lookup := receiver
	if lookup == "" {
		lookup = calleeName
	}
	isExternal, externalModule := w.resolveExternal(lookup)
	w.effects = append(w.effects, model.Effect{
		EffectType:     string(model.EffectFunctionCall),
		SourceEntityID: callerID,
		SourceFilePath: w.filePath,
		SourceLine:     w.line(n),
		SourceColumn:   w.col(n),
		Properties: model.FunctionCallProps(
			calleeName, receiverQualified(receiver, calleeName),
			receiver != "", hasModifier(n, w.content, "await"), isConstructor,
			argCount, isExternal, externalModule,
		),
		Branch: w.cfg.Branch,
	})

	w.maybeEmitSend(n, receiver, calleeName, callerID)
}

func (w *walker) splitCallee(fnNode *sitter.Node) (receiver, name string) {
	switch fnNode.Type() {
	case "identifier":
		return "", w.text(fnNode)
	case "member_expression":
		obj := fnNode.ChildByFieldName("object")
		prop := fnNode.ChildByFieldName("property")
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

// resolveExternal reports whether receiver's base identifier traces back
// to an import whose module specifier is external (not path-like, not a
// built-in), per rule 7.
func (w *walker) resolveExternal(receiver string) (bool, string) {
	base := receiver
	if idx := strings.Index(base, "."); idx >= 0 {
		base = base[:idx]
	}
	spec, ok := w.importedFrom[base]
	if !ok {
		return false, ""
	}
	if strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/") || strings.HasPrefix(spec, "node:") {
		return false, ""
	}
	return true, spec
}

// maybeEmitSend implements rule 8: recognized HTTP-client call shapes
// produce a SendEffect alongside the FunctionCallEffect.
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
		if a.Type() == "string" || a.Type() == "template_string" {
			urlLiteral = w.text(a)
			break
		}
	}
	if urlLiteral == "" {
		return
	}
	pattern := parse.TemplatePattern(strings.Trim(urlLiteral, "'\"`"))
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

// emitImport implements rule 10: imports produce ExternalRef rows.
func (w *walker) emitImport(n *sitter.Node) {
	sourceNode := n.ChildByFieldName("source")
	spec := strings.Trim(w.text(sourceNode), "'\"`")

	// import_clause is a plain child of import_statement, not a named field.
	var clause *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "import_clause" {
			clause = c
		}
	}
	if clause == nil {
		// zero-specifier side-effect import: import "./polyfill";
		w.externalRefs = append(w.externalRefs, model.ExternalRef{
			SourceEntityID:  w.currentContainer(),
			ModuleSpecifier: spec,
			ImportedSymbol:  "*",
			ImportStyle:     string(model.ImportSideEffect),
			Branch:          w.cfg.Branch,
		})
		return
	}

	for i := 0; i < int(clause.ChildCount()); i++ {
		part := clause.Child(i)
		switch part.Type() {
		case "identifier":
			name := w.text(part)
			w.importedFrom[name] = spec
			w.externalRefs = append(w.externalRefs, model.ExternalRef{
				SourceEntityID:  w.currentContainer(),
				ModuleSpecifier: spec,
				ImportedSymbol:  "default",
				LocalAlias:      name,
				ImportStyle:     string(model.ImportDefault),
				Branch:          w.cfg.Branch,
			})
		case "namespace_import":
			if id := part.NamedChild(0); id != nil {
				name := w.text(id)
				w.importedFrom[name] = spec
				w.externalRefs = append(w.externalRefs, model.ExternalRef{
					SourceEntityID:  w.currentContainer(),
					ModuleSpecifier: spec,
					ImportedSymbol:  "*",
					LocalAlias:      name,
					ImportStyle:     string(model.ImportNamespace),
					Branch:          w.cfg.Branch,
				})
			}
		case "named_imports":
			for j := 0; j < int(part.ChildCount()); j++ {
				spec2 := part.Child(j)
				if spec2.Type() != "import_specifier" {
					continue
				}
				nameNode := spec2.ChildByFieldName("name")
				aliasNode := spec2.ChildByFieldName("alias")
				imported := w.text(nameNode)
				alias := imported
				if aliasNode != nil {
					alias = w.text(aliasNode)
				}
				w.importedFrom[alias] = spec
				w.externalRefs = append(w.externalRefs, model.ExternalRef{
					SourceEntityID:  w.currentContainer(),
					ModuleSpecifier: spec,
					ImportedSymbol:  imported,
					LocalAlias:      alias,
					ImportStyle:     string(model.ImportNamed),
					IsTypeOnly:      hasModifier(n, w.content, "type"),
					Branch:          w.cfg.Branch,
				})
			}
		}
	}
}

// emitExportOrReexport handles re-exports with a source module ("export {
// x } from './y'") per rule 10's reexport sentinel, and otherwise
// delegates to the default walk of its child declaration.
func (w *walker) emitExportOrReexport(n *sitter.Node) {
	sourceNode := n.ChildByFieldName("source")
	if sourceNode == nil {
		// Non-reexport export statements fall through to walk's own
		// trailing recursion over n's children, so the wrapped
		// declaration still gets visited exactly once.
		return
	}
	spec := strings.Trim(w.text(sourceNode), "'\"`")
	reexportSourceID := "reexport:" + w.filePath
	clause := n.NamedChild(0)
	if clause == nil || clause.Type() != "export_clause" {
		return
	}
	for i := 0; i < int(clause.ChildCount()); i++ {
		spec2 := clause.Child(i)
		if spec2.Type() != "export_specifier" {
			continue
		}
		nameNode := spec2.ChildByFieldName("name")
		aliasNode := spec2.ChildByFieldName("alias")
		name := w.text(nameNode)
		alias := name
		if aliasNode != nil {
			alias = w.text(aliasNode)
		}
		w.externalRefs = append(w.externalRefs, model.ExternalRef{
			SourceEntityID:  reexportSourceID + ":" + name,
			ModuleSpecifier: spec,
			ImportedSymbol:  name,
			ExportAlias:     alias,
			ImportStyle:     string(model.ImportNamed),
			IsReexport:      true,
			Branch:          w.cfg.Branch,
		})
	}
}
