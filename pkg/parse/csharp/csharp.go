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

// Package csharp implements the nominal managed language backend covering
// .cs, following the explicit class/interface declaration extraction
// pattern used for languages whose grammar already distinguishes the two.
package csharp

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
	"github.com/smacker/go-tree-sitter/csharp"

	"github.com/devac-project/devac/pkg/ident"
	"github.com/devac-project/devac/pkg/model"
	"github.com/devac-project/devac/pkg/parse"
)

type Backend struct {
	pool sync.Pool
	once sync.Once
}

func New() *Backend { return &Backend{} }

func (b *Backend) init() {
	b.once.Do(func() {
		b.pool.New = func() any {
			p := sitter.NewParser()
			p.SetLanguage(csharp.GetLanguage())
			return p
		}
	})
}

func (b *Backend) Language() string        { return "csharp" }
func (b *Backend) Extensions() []string    { return []string{".cs"} }
func (b *Backend) Version() string         { return "1" }
func (b *Backend) CanParse(path string) bool { return strings.HasSuffix(path, ".cs") }

func (b *Backend) ParseFile(path string, cfg parse.Config) (*parse.ParseResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("csharp: read file: %w", err)
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

	parserObj := b.pool.Get()
	parser, _ := parserObj.(*sitter.Parser)
	defer b.pool.Put(parser)

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
		content:      content,
		filePath:     filePath,
		hash:         hash,
		cfg:          cfg,
		scope:        ident.NewScope(),
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

type walker struct {
	content  []byte
	filePath string
	hash     string
	cfg      parse.Config

	scope          *ident.Scope
	containerStack []string
	importedFrom   map[string]string

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
func (w *walker) line(n *sitter.Node) int32    { return int32(n.StartPoint().Row) + 1 }
func (w *walker) endLine(n *sitter.Node) int32 { return int32(n.EndPoint().Row) + 1 }
func (w *walker) currentContainer() string     { return w.containerStack[len(w.containerStack)-1] }

func (w *walker) entityID(kind, scopedName string) string {
	return ident.EntityID(w.cfg.RepoName, w.cfg.PackagePath, kind, w.filePath, scopedName)
}

func (w *walker) contains(parent, child string) {
	w.edges = append(w.edges, model.Edge{
		SourceEntityID: parent, TargetEntityID: child,
		EdgeType: string(model.EdgeContains), SourceFilePath: w.filePath,
		SourceFileHash: w.hash, Branch: w.cfg.Branch,
	})
}

func (w *walker) walk(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "using_directive":
		w.emitUsing(n)
	case "namespace_declaration":
		w.emitNamespace(n)
		return
	case "class_declaration", "record_declaration":
		w.emitClass(n)
		return
	case "interface_declaration":
		w.emitInterface(n)
		return
	case "method_declaration", "constructor_declaration":
		w.emitMethod(n, w.currentContainer(), "")
		return
	case "invocation_expression", "object_creation_expression":
		w.emitCall(n)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		w.walk(n.Child(i))
	}
}

func (w *walker) emitUsing(n *sitter.Node) {
	nameNode := n.NamedChild(0)
	if nameNode == nil {
		return
	}
	ns := w.text(nameNode)
	w.externalRefs = append(w.externalRefs, model.ExternalRef{
		SourceEntityID:  w.currentContainer(),
		ModuleSpecifier: ns,
		ImportedSymbol:  "*",
		ImportStyle:     string(model.ImportNamespace),
		Branch:          w.cfg.Branch,
	})
}

func (w *walker) emitNamespace(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	name := w.text(nameNode)
	nsID := w.entityID(string(model.KindNamespace), name)
	w.nodes = append(w.nodes, model.Node{
		EntityID:      nsID,
		Name:          name,
		QualifiedName: name,
		Kind:          string(model.KindNamespace),
		FilePath:      w.filePath, SourceFileHash: w.hash,
		StartLine: w.line(n), EndLine: w.endLine(n),
		Branch: w.cfg.Branch,
	})
	w.contains(w.currentContainer(), nsID)
	w.containerStack = append(w.containerStack, nsID)
	if body := n.ChildByFieldName("body"); body != nil {
		w.walk(body)
	}
	w.containerStack = w.containerStack[:len(w.containerStack)-1]
}
