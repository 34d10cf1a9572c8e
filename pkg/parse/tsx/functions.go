// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package tsx

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/devac-project/devac/pkg/ident"
	"github.com/devac-project/devac/pkg/model"
	"github.com/devac-project/devac/pkg/parse"
)

func (w *walker) emitFunctionDeclaration(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	name := w.text(nameNode)
	if name == "" {
		w.emitAnonymousArrow(n)
		return
	}
	scopedName := w.scope.ScopedName(ident.Symbol{IsTopLevel: true, Name: name, Kind: "function"})
	fnID := w.entityID(string(model.KindFunction), scopedName)
	w.funcIDs[name] = fnID

	w.nodes = append(w.nodes, model.Node{
		EntityID:       fnID,
		Name:           name,
		QualifiedName:  scopedName,
		Kind:           string(model.KindFunction),
		FilePath:       w.filePath,
		SourceFileHash: w.hash,
		StartLine:      w.line(n),
		EndLine:        w.endLine(n),
		IsAsync:        hasModifier(n, w.content, "async"),
		IsGenerator:    strings.Contains(n.Type(), "generator"),
		IsExported:     isExported(n),
		TypeSignature:  w.signature(n),
		Documentation:  w.precedingDocComment(n),
		Branch:         w.cfg.Branch,
	})
	w.contains(w.currentContainer(), fnID)
	w.emitParameters(n, fnID)

	w.containerStack = append(w.containerStack, fnID)
	if body := n.ChildByFieldName("body"); body != nil {
		w.walk(body)
	}
	w.containerStack = w.containerStack[:len(w.containerStack)-1]
}

// emitVariableBoundFunction handles "const foo = () => {}" / "const foo =
// function() {}" per rule 5. Returns true if it handled n as such a
// binding (the caller should not also walk n's default children).
func (w *walker) emitVariableBoundFunction(n *sitter.Node) bool {
	nameNode := n.ChildByFieldName("name")
	valueNode := n.ChildByFieldName("value")
	if nameNode == nil || valueNode == nil {
		return false
	}
	switch valueNode.Type() {
	case "arrow_function", "function_expression", "function":
	default:
		return false
	}
	name := w.text(nameNode)
	scopedName := w.scope.ScopedName(ident.Symbol{VariableName: name, Kind: "function"})
	fnID := w.entityID(string(model.KindFunction), scopedName)
	w.funcIDs[name] = fnID

	w.nodes = append(w.nodes, model.Node{
		EntityID:       fnID,
		Name:           name,
		QualifiedName:  scopedName,
		Kind:           string(model.KindFunction),
		FilePath:       w.filePath,
		SourceFileHash: w.hash,
		StartLine:      w.line(n),
		EndLine:        w.endLine(valueNode),
		IsAsync:        hasModifier(valueNode, w.content, "async"),
		TypeSignature:  w.signature(valueNode),
		Documentation:  w.precedingDocComment(n),
		Branch:         w.cfg.Branch,
	})
	w.contains(w.currentContainer(), fnID)
	w.emitParameters(valueNode, fnID)

	w.containerStack = append(w.containerStack, fnID)
	if body := valueNode.ChildByFieldName("body"); body != nil {
		w.walk(body)
	}
	w.containerStack = w.containerStack[:len(w.containerStack)-1]
	return true
}

func (w *walker) emitAnonymousArrow(n *sitter.Node) {
	// A callback passed directly as a call argument gets rule 6's
	// <call_expr>.$argN naming; any other anonymous function falls
	// through to rule 10's $anon_<kind>_<n>.
	parent := n.Parent()
	var sym ident.Symbol
	sym.Kind = "function"
	if parent != nil && parent.Type() == "arguments" {
		call := parent.Parent()
		if call != nil && call.Type() == "call_expression" {
			fn := call.ChildByFieldName("function")
			idx := argIndex(parent, n)
			sym = ident.Symbol{IsCallback: true, CallExpression: w.text(fn), ArgumentIndex: idx}
		}
	}
	scopedName := w.scope.ScopedName(sym)
	fnID := w.entityID(string(model.KindFunction), scopedName)

	w.nodes = append(w.nodes, model.Node{
		EntityID:       fnID,
		Name:           scopedName,
		QualifiedName:  scopedName,
		Kind:           string(model.KindFunction),
		FilePath:       w.filePath,
		SourceFileHash: w.hash,
		StartLine:      w.line(n),
		EndLine:        w.endLine(n),
		IsAsync:        hasModifier(n, w.content, "async"),
		TypeSignature:  w.signature(n),
		Branch:         w.cfg.Branch,
	})
	w.contains(w.currentContainer(), fnID)
	w.emitParameters(n, fnID)

	w.containerStack = append(w.containerStack, fnID)
	if body := n.ChildByFieldName("body"); body != nil {
		w.walk(body)
	}
	w.containerStack = w.containerStack[:len(w.containerStack)-1]
}

func (w *walker) emitMethod(n *sitter.Node, classID, className, routePrefix string) {
	nameNode := n.ChildByFieldName("name")
	name := w.text(nameNode)
	if name == "" {
		return
	}
	scopedName := w.scope.ScopedName(ident.Symbol{IsClassMember: true, ParentName: className, Name: name})
	methID := w.entityID(string(model.KindMethod), scopedName)

	decNames := w.emitDecorators(w.decoratorsOf(n), methID)

	w.nodes = append(w.nodes, model.Node{
		EntityID:       methID,
		Name:           name,
		QualifiedName:  scopedName,
		Kind:           string(model.KindMethod),
		FilePath:       w.filePath,
		SourceFileHash: w.hash,
		StartLine:      w.line(n),
		EndLine:        w.endLine(n),
		IsAsync:        hasModifier(n, w.content, "async"),
		IsStatic:       hasModifier(n, w.content, "static"),
		Visibility:     memberVisibility(n, w.content),
		TypeSignature:  w.signature(n),
		Decorators:     decNames,
		Documentation:  w.precedingDocComment(n),
		Branch:         w.cfg.Branch,
	})
	w.contains(classID, methID)
	w.emitParameters(n, methID)

	// rule 9: method-level HTTP verb decorator + class route prefix
	for _, dn := range decNames {
		if verb, ok := parse.HTTPVerbForDecorator(dn); ok {
			segment := decoratorStringArg(n, w.content)
			route := parse.ConcatRoute(routePrefix, segment)
			w.effects = append(w.effects, model.Effect{
				EffectType:     string(model.EffectRequest),
				SourceEntityID: methID,
				SourceFilePath: w.filePath,
				SourceLine:     w.line(n),
				Properties:     model.RequestProps(verb, route, "decorator"),
				Branch:         w.cfg.Branch,
			})
		}
	}

	w.containerStack = append(w.containerStack, methID)
	if body := n.ChildByFieldName("body"); body != nil {
		w.walk(body)
	}
	w.containerStack = w.containerStack[:len(w.containerStack)-1]
}

func (w *walker) emitParameters(fnNode *sitter.Node, ownerID string) {
	params := fnNode.ChildByFieldName("parameters")
	if params == nil {
		return
	}
	idx := 0
	for i := 0; i < int(params.ChildCount()); i++ {
		p := params.Child(i)
		switch p.Type() {
		case "required_parameter", "optional_parameter", "identifier", "rest_pattern":
		default:
			continue
		}
		name := paramName(p, w.content)
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
			TypeSignature:  paramType(p, w.content),
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

func (w *walker) signature(fnNode *sitter.Node) string {
	params := fnNode.ChildByFieldName("parameters")
	ret := fnNode.ChildByFieldName("return_type")
	sig := w.text(params)
	if ret != nil {
		sig += ": " + w.text(ret)
	}
	return sig
}

func argIndex(arguments, target *sitter.Node) int {
	idx := 0
	for i := 0; i < int(arguments.ChildCount()); i++ {
		c := arguments.Child(i)
		if c == target {
			return idx
		}
		if c.IsNamed() {
			idx++
		}
	}
	return idx
}

func paramName(p *sitter.Node, content []byte) string {
	switch p.Type() {
	case "identifier":
		return string(content[p.StartByte():p.EndByte()])
	case "rest_pattern":
		if id := p.NamedChild(0); id != nil {
			return string(content[id.StartByte():id.EndByte()])
		}
	default:
		pat := p.ChildByFieldName("pattern")
		if pat != nil {
			return string(content[pat.StartByte():pat.EndByte()])
		}
	}
	return ""
}

func paramType(p *sitter.Node, content []byte) string {
	t := p.ChildByFieldName("type")
	if t == nil {
		return ""
	}
	return string(content[t.StartByte():t.EndByte()])
}

func isExported(n *sitter.Node) bool {
	return n.Parent() != nil && n.Parent().Type() == "export_statement"
}

func hasModifier(n *sitter.Node, content []byte, modifier string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !c.IsNamed() && string(content[c.StartByte():c.EndByte()]) == modifier {
			return true
		}
	}
	return false
}

func memberVisibility(n *sitter.Node, content []byte) string {
	for _, v := range []string{"public", "private", "protected"} {
		if hasModifier(n, content, v) {
			return v
		}
	}
	return ""
}

func isRouteContainer(name string) bool {
	return parse.IsRouteContainerDecorator(name)
}

// decoratorStringArg extracts the first string-literal argument of n's
// first decorator, stripping quotes, e.g. @Get('/widgets') -> "/widgets".
func decoratorStringArg(n *sitter.Node, content []byte) string {
	node := n
	if node.Parent() != nil && node.Parent().Type() == "export_statement" {
		node = node.Parent()
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		d := node.Child(i)
		if d.Type() != "decorator" {
			continue
		}
		call := d.Child(1)
		if call == nil || call.Type() != "call_expression" {
			continue
		}
		args := call.ChildByFieldName("arguments")
		if args == nil {
			continue
		}
		for j := 0; j < int(args.ChildCount()); j++ {
			a := args.Child(j)
			if a.Type() == "string" {
				raw := string(content[a.StartByte():a.EndByte()])
				return strings.Trim(raw, "'\"`")
			}
		}
	}
	return ""
}
