// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package scanner parses PHP source with tree-sitter and records the
// namespaces, classes, interfaces, traits, functions and constants it
// declares in a symbol registry.
package scanner

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"

	"github.com/petar-djukic/go-scoper/internal/fsys"
	"github.com/petar-djukic/go-scoper/internal/logging"
	"github.com/petar-djukic/go-scoper/internal/symbols"
	"github.com/petar-djukic/go-scoper/pkg/types"
)

// Stats counts what a scan saw.
type Stats struct {
	FilesScanned int
	FilesSkipped int
	ParseErrors  int
	Symbols      int
}

// Scanner extracts declarations from PHP files.
type Scanner struct {
	fs       *fsys.FileSystem
	registry *symbols.Registry
	logger   *log.Logger
	lang     *sitter.Language
	stats    Stats
}

// New returns a Scanner that adds what it finds to registry.
func New(fs *fsys.FileSystem, registry *symbols.Registry, logger *log.Logger) *Scanner {
	return &Scanner{
		fs:       fs,
		registry: registry,
		logger:   logging.OrDiscard(logger),
		lang:     php.GetLanguage(),
	}
}

// ScanFiles scans every file in order. Files that cannot be read are
// skipped with a warning; a sealed registry aborts the scan.
func (s *Scanner) ScanFiles(ctx context.Context, files []*types.File) (Stats, error) {
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return s.stats, err
		}
		src, err := s.fs.Read(f.SourcePath)
		if err != nil {
			s.logger.Warn("cannot read file", "file", f.RelativePath, "error", err)
			s.stats.FilesSkipped++
			continue
		}
		if err := s.ScanSource(ctx, f, src); err != nil {
			return s.stats, err
		}
	}
	return s.stats, nil
}

// ScanSource scans one file's content.
func (s *Scanner) ScanSource(ctx context.Context, file *types.File, src []byte) error {
	root, err := sitter.ParseCtx(ctx, src, s.lang)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", file.RelativePath, err)
	}
	s.stats.FilesScanned++
	if root.HasError() {
		// tree-sitter recovers; keep whatever declarations parsed cleanly.
		s.stats.ParseErrors++
		s.logger.Warn("syntax errors in file", "file", file.RelativePath)
	}

	w := &walker{
		s:     s,
		file:  file,
		src:   src,
		scope: newScope(types.RootNamespace),
	}
	if err := w.statements(root, false); err != nil {
		return err
	}
	if len(file.Namespaces) == 0 {
		if err := w.namespace(types.RootNamespace); err != nil {
			return err
		}
	}
	return nil
}

// walker carries per-file state through the syntax tree.
type walker struct {
	s     *Scanner
	file  *types.File
	src   []byte
	scope *scope
}

// statements visits the children of n. Unbraced namespace declarations
// change the scope of the siblings that follow them.
func (w *walker) statements(n *sitter.Node, inClass bool) error {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "namespace_definition" {
			if err := w.namespaceDefinition(child); err != nil {
				return err
			}
			continue
		}
		if err := w.visit(child, inClass); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) visit(n *sitter.Node, inClass bool) error {
	switch n.Type() {
	case "namespace_use_declaration":
		w.scope.addImports(w.text(n))
		return nil
	case "class_declaration":
		return w.classLike(n, types.Class)
	case "interface_declaration":
		return w.classLike(n, types.Interface)
	case "trait_declaration":
		return w.classLike(n, types.Trait)
	case "enum_declaration":
		return w.statements(n, true)
	case "function_definition":
		if name := w.fieldText(n, "name"); name != "" {
			if _, err := w.declare(types.Function, w.scope.qualify(name)); err != nil {
				return err
			}
		}
	case "const_declaration":
		if !inClass {
			return w.constDeclaration(n)
		}
		return nil
	case "function_call_expression":
		if err := w.defineCall(n); err != nil {
			return err
		}
	}
	return w.statements(n, inClass)
}

func (w *walker) namespaceDefinition(n *sitter.Node) error {
	name := w.fieldText(n, "name")
	if name == "" {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); c.Type() == "namespace_name" {
				name = w.text(c)
				break
			}
		}
	}
	name = strings.Trim(name, `\ `)
	if name == "" {
		name = types.RootNamespace
	}

	if err := w.namespace(name); err != nil {
		return err
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		w.scope = newScope(name)
		return nil
	}
	outer := w.scope
	w.scope = newScope(name)
	err := w.statements(body, false)
	w.scope = outer
	return err
}

func (w *walker) namespace(name string) error {
	w.file.AddNamespace(name)
	_, err := w.declare(types.Namespace, name)
	return err
}

func (w *walker) classLike(n *sitter.Node, kind types.SymbolKind) error {
	name := w.fieldText(n, "name")
	if name == "" {
		return nil
	}
	sym, err := w.declare(kind, w.scope.qualify(name))
	if err != nil {
		return err
	}

	var body *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "base_clause":
			if sym != nil {
				sym.Extends = append(sym.Extends, w.names(c)...)
			}
		case "class_interface_clause":
			if sym != nil {
				sym.Implements = append(sym.Implements, w.names(c)...)
			}
		case "declaration_list":
			body = c
		case "abstract_modifier":
			if sym != nil {
				sym.Abstract = true
			}
		}
	}
	if sym != nil && kind == types.Class && !sym.Abstract {
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			head := string(w.src[n.StartByte():nameNode.StartByte()])
			sym.Abstract = containsWord(strings.ToLower(head), "abstract")
		}
	}
	if body == nil {
		return nil
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		c := body.NamedChild(i)
		if c.Type() == "use_declaration" && sym != nil {
			sym.Uses = append(sym.Uses, w.traitUses(c)...)
		}
	}
	return w.statements(body, true)
}

func (w *walker) constDeclaration(n *sitter.Node) error {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		el := n.NamedChild(i)
		if el.Type() != "const_element" {
			continue
		}
		nameNode := el.ChildByFieldName("name")
		if nameNode == nil && el.NamedChildCount() > 0 {
			nameNode = el.NamedChild(0)
		}
		if nameNode == nil {
			continue
		}
		if _, err := w.declare(types.Constant, w.scope.qualify(w.text(nameNode))); err != nil {
			return err
		}
	}
	return nil
}

// defineCall records define('NAME', ...) when NAME is a literal.
func (w *walker) defineCall(n *sitter.Node) error {
	fn := n.ChildByFieldName("function")
	if fn == nil || !strings.EqualFold(strings.TrimPrefix(w.text(fn), `\`), "define") {
		return nil
	}
	args := n.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return nil
	}
	name, ok := stringLiteral(w.text(args.NamedChild(0)))
	if !ok || name == "" {
		return nil
	}
	_, err := w.declare(types.Constant, strings.TrimPrefix(name, `\`))
	return err
}

// declare registers a symbol and returns it when this declaration is the
// first one seen, nil when the name was already known.
func (w *walker) declare(kind types.SymbolKind, name string) (*symbols.Symbol, error) {
	sym := symbols.New(kind, name, w.file)
	got, err := w.s.registry.Add(sym)
	if err != nil {
		return nil, err
	}
	if got != sym {
		return nil, nil
	}
	w.s.stats.Symbols++
	w.s.logger.Debug("found symbol", "kind", kind, "name", name, "file", w.file.RelativePath)
	return sym, nil
}

// names resolves the class names listed in an extends or implements
// clause.
func (w *walker) names(n *sitter.Node) []string {
	var result []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "name", "qualified_name":
			result = append(result, w.scope.resolveClass(w.text(c)))
		}
	}
	return result
}

// traitUses resolves the traits of a "use A, B { ... }" member.
func (w *walker) traitUses(n *sitter.Node) []string {
	text := strings.TrimSpace(w.text(n))
	text = strings.TrimPrefix(text, "use")
	if i := strings.IndexAny(text, ";{"); i >= 0 {
		text = text[:i]
	}
	var result []string
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, w.scope.resolveClass(part))
		}
	}
	return result
}

func (w *walker) fieldText(n *sitter.Node, field string) string {
	c := n.ChildByFieldName(field)
	if c == nil {
		return ""
	}
	return w.text(c)
}

func (w *walker) text(n *sitter.Node) string {
	return n.Content(w.src)
}

// stringLiteral returns the value of a plain PHP string literal. Double
// quoted strings with interpolation are rejected.
func stringLiteral(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return "", false
	}
	q := s[0]
	if (q != '\'' && q != '"') || s[len(s)-1] != q {
		return "", false
	}
	body := s[1 : len(s)-1]
	if q == '"' && strings.ContainsAny(body, "${") {
		return "", false
	}
	return strings.ReplaceAll(body, `\\`, `\`), true
}

func containsWord(s, word string) bool {
	for _, f := range strings.Fields(s) {
		if f == word {
			return true
		}
	}
	return false
}
