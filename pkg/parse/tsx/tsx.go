// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tsx implements the curly-brace/structural language backend
// covering .ts .tsx .js .jsx .mjs .cjs, per §4.B. It drives one
// tree-sitter grammar per language out of a sync.Pool, emitting the full
// rule set (CONTAINS/EXTENDS/IMPLEMENTS/PARAMETER_OF/DECORATES edges,
// effects, external refs) this backend owns across the three grammars.
package tsx

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"

	"github.com/devac-project/devac/pkg/ident"
	"github.com/devac-project/devac/pkg/model"
	"github.com/devac-project/devac/pkg/parse"
)

// Backend is the curly-brace/structural language backend.
type Backend struct {
	jsPool  sync.Pool
	tsPool  sync.Pool
	tsxPool sync.Pool
	once    sync.Once
}

// New returns a ready Backend. Parser pools are initialized lazily on
// first use.
func New() *Backend { return &Backend{} }

func (b *Backend) init() {
	b.once.Do(func() {
		b.jsPool.New = func() any {
			p := sitter.NewParser()
			p.SetLanguage(javascript.GetLanguage())
			return p
		}
		b.tsPool.New = func() any {
			p := sitter.NewParser()
			p.SetLanguage(typescript.GetLanguage())
			return p
		}
		b.tsxPool.New = func() any {
			p := sitter.NewParser()
			p.SetLanguage(tsx.GetLanguage())
			return p
		}
	})
}

func (b *Backend) Language() string     { return "tsx" }
func (b *Backend) Extensions() []string { return []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"} }
func (b *Backend) Version() string      { return "1" }

func (b *Backend) CanParse(path string) bool {
	for _, ext := range b.Extensions() {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func (b *Backend) poolFor(path string) *sync.Pool {
	switch {
	case strings.HasSuffix(path, ".tsx"):
		return &b.tsxPool
	case strings.HasSuffix(path, ".ts"):
		return &b.tsPool
	default:
		return &b.jsPool
	}
}

func (b *Backend) ParseFile(path string, cfg parse.Config) (*parse.ParseResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tsx: read file: %w", err)
	}
	return b.ParseContent(content, path, cfg)
}

func (b *Backend) ParseContent(content []byte, path string, cfg parse.Config) (*parse.ParseResult, error) {
	start := time.Now()
	b.init()

	filePath := path
	if cfg.PackageRoot != "" {
		filePath = strings.TrimPrefix(strings.TrimPrefix(path, cfg.PackageRoot), "/")
	}
	hashBytes := sha256.Sum256(content)
	hash := hex.EncodeToString(hashBytes[:])

	pool := b.poolFor(path)
	parserObj := pool.Get()
	parser, _ := parserObj.(*sitter.Parser)
	defer pool.Put(parser)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return &parse.ParseResult{
			FilePath:       filePath,
			SourceFileHash: hash,
			ParseTimeMs:    time.Since(start).Milliseconds(),
			Warnings:       []parse.Warning{{Message: "tree-sitter parse: " + err.Error()}},
		}, nil
	}
	defer tree.Close()

	w := &walker{
		content:  content,
		filePath: filePath,
		hash:     hash,
		cfg:      cfg,
		scope:    ident.NewScope(),
		funcIDs:  make(map[string]string),
		importedFrom: make(map[string]string),
	}

	moduleID := ident.FileID(cfg.RepoName, cfg.PackagePath, filePath)
	w.nodes = append(w.nodes, model.Node{
		EntityID:       moduleID,
		Name:           filePath,
		QualifiedName:  filePath,
		Kind:           string(model.KindModule),
		FilePath:       filePath,
		SourceFileHash: hash,
		Branch:         cfg.Branch,
	})
	w.containerStack = []string{moduleID}

	root := tree.RootNode()
	if root.HasError() {
		w.warnings = append(w.warnings, parse.Warning{Message: "syntax errors present; partial result"})
	}
	w.walk(root)

	return &parse.ParseResult{
		Nodes:          w.nodes,
		Edges:          w.edges,
		ExternalRefs:   w.externalRefs,
		Effects:        w.effects,
		SourceFileHash: hash,
		FilePath:       filePath,
		ParseTimeMs:    time.Since(start).Milliseconds(),
		Warnings:       w.warnings,
	}, nil
}

// walker accumulates the parse result while traversing one file's tree.
type walker struct {
	content  []byte
	filePath string
	hash     string
	cfg      parse.Config

	scope          *ident.Scope
	containerStack []string // entity IDs of enclosing class/module, for CONTAINS
	funcIDs        map[string]string
	importedFrom   map[string]string // local alias -> module specifier, for is_external resolution

	nodes        []model.Node
	edges        []model.Edge
	externalRefs []model.ExternalRef
	effects      []model.Effect
	warnings     []parse.Warning
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(w.content[n.StartByte():n.EndByte()])
}

func (w *walker) line(n *sitter.Node) int32   { return int32(n.StartPoint().Row) + 1 }
func (w *walker) col(n *sitter.Node) int32    { return int32(n.StartPoint().Column) + 1 }
func (w *walker) endLine(n *sitter.Node) int32 { return int32(n.EndPoint().Row) + 1 }
func (w *walker) endCol(n *sitter.Node) int32  { return int32(n.EndPoint().Column) + 1 }

func (w *walker) currentContainer() string {
	return w.containerStack[len(w.containerStack)-1]
}

func (w *walker) entityID(kind, scopedName string) string {
	return ident.EntityID(w.cfg.RepoName, w.cfg.PackagePath, kind, w.filePath, scopedName)
}

func (w *walker) contains(parent, child string) {
	w.edges = append(w.edges, model.Edge{
		SourceEntityID: parent,
		TargetEntityID: child,
		EdgeType:       string(model.EdgeContains),
		SourceFilePath: w.filePath,
		SourceFileHash: w.hash,
		Branch:         w.cfg.Branch,
	})
}

// walk is the pre-order traversal driving emission. It dispatches on node
// type; children not explicitly recursed into by a case are still walked
// at the bottom so nested declarations (a function inside a function) are
// always found.
func (w *walker) walk(n *sitter.Node) {
	if n == nil {
		return
	}

	switch n.Type() {
	case "import_statement":
		w.emitImport(n)
	case "export_statement":
		w.emitExportOrReexport(n)
	case "class_declaration", "abstract_class_declaration":
		w.emitClass(n)
		return // emitClass recurses into the body itself
	case "interface_declaration":
		w.emitInterface(n)
		return
	case "enum_declaration":
		w.emitEnum(n)
		return
	case "type_alias_declaration":
		w.emitTypeAlias(n)
	case "function_declaration", "generator_function_declaration":
		w.emitFunctionDeclaration(n)
		return
	case "variable_declarator":
		if w.emitVariableBoundFunction(n) {
			return
		}
	case "arrow_function":
		if n.Parent() == nil || n.Parent().Type() != "variable_declarator" {
			w.emitAnonymousArrow(n)
			return
		}
	case "call_expression", "new_expression":
		w.emitCall(n)
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		w.walk(n.Child(i))
	}
}

// precedingDocComment looks for a comment node immediately preceding n
// (walking back over the previous sibling) and, if it looks like a JSDoc
// block ("/**"), cleans it per rule 11.
func (w *walker) precedingDocComment(n *sitter.Node) string {
	target := n
	if target.Parent() != nil {
		switch target.Parent().Type() {
		case "export_statement":
			target = target.Parent()
		}
	}
	prev := target.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	raw := w.text(prev)
	if !strings.HasPrefix(raw, "/**") {
		return ""
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(raw, "/*"), "*/")
	return parse.CleanDocumentation(inner)
}

func (w *walker) decoratorsOf(n *sitter.Node) []*sitter.Node {
	var decs []*sitter.Node
	node := n
	if node.Parent() != nil && node.Parent().Type() == "export_statement" {
		node = node.Parent()
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "decorator" {
			decs = append(decs, child)
		}
	}
	return decs
}

func (w *walker) emitDecorators(decs []*sitter.Node, targetID string) []string {
	var names []string
	for _, d := range decs {
		call := d.Child(1) // decorator := '@' (identifier | call_expression)
		if call == nil {
			continue
		}
		name := ""
		switch call.Type() {
		case "call_expression":
			fn := call.ChildByFieldName("function")
			name = w.text(fn)
		default:
			name = w.text(call)
		}
		name = parse.StripAttributeSuffix(name)
		if name == "" {
			continue
		}
		names = append(names, name)
		decID := ident.DecoratorID(w.cfg.RepoName, w.cfg.PackagePath, w.filePath, name)
		w.nodes = append(w.nodes, model.Node{
			EntityID:      decID,
			Name:          name,
			QualifiedName: name,
			Kind:          string(model.KindDecorator),
			FilePath:      w.filePath,
			SourceFileHash: w.hash,
			StartLine:     w.line(d),
			EndLine:       w.endLine(d),
			Branch:        w.cfg.Branch,
		})
		w.edges = append(w.edges, model.Edge{
			SourceEntityID: decID,
			TargetEntityID: targetID,
			EdgeType:       string(model.EdgeDecorates),
			SourceFilePath: w.filePath,
			SourceFileHash: w.hash,
			SourceLine:     w.line(d),
			Branch:         w.cfg.Branch,
		})
	}
	return names
}
