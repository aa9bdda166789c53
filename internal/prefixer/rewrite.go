// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package prefixer

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"

	"github.com/petar-djukic/go-scoper/pkg/types"
)

// nameArgs are built-ins whose first argument is a symbol name.
var nameArgs = map[string]string{
	"define":           "const",
	"defined":          "const",
	"constant":         "const",
	"function_exists":  "function",
	"class_exists":     "class",
	"interface_exists": "class",
	"trait_exists":     "class",
}

var nameLiteral = regexp.MustCompile(`^(\\\\|\\)?[A-Za-z_][A-Za-z0-9_]*((\\\\|\\)[A-Za-z_][A-Za-z0-9_]*)*(\\\\|\\)?$`)

// skipped nodes never hold a reference to a global symbol.
var skipped = map[string]bool{
	"comment":                   true,
	"text":                      true,
	"php_tag":                   true,
	"heredoc":                   true,
	"nowdoc":                    true,
	"variable_name":             true,
	"dynamic_variable_name":     true,
	"named_label_statement":     true,
	"goto_statement":            true,
	"enum_case":                 true,
	"namespace_aliasing_clause": true,
	"use_as_clause":             true,
	"use_instead_of_clause":     true,
}

// classContexts are nodes whose bare name children are class references.
var classContexts = map[string]bool{
	"object_creation_expression": true,
	"base_clause":                true,
	"class_interface_clause":     true,
	"named_type":                 true,
	"optional_type":              true,
	"union_type":                 true,
	"intersection_type":          true,
	"type_list":                  true,
	"catch_clause":               true,
	"attribute":                  true,
	"use_declaration":            true,
}

// edit replaces src[start:end] with text.
type edit struct {
	start, end uint32
	text       string
}

// Rewrite returns src with every renamed symbol reference substituted.
// The file is parsed once; replacements are spliced in reverse byte order
// so earlier offsets stay valid. Syntax errors do not stop the rewrite:
// names tree-sitter recovers inside error nodes are still resolved.
func (t *Table) Rewrite(ctx context.Context, src []byte) ([]byte, error) {
	if t.Empty() {
		return src, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, err := sitter.ParseCtx(ctx, src, php.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	r := &rewriter{t: t, src: src, ns: types.RootNamespace}
	r.children(root)
	if len(r.edits) == 0 {
		return src, nil
	}

	sort.Slice(r.edits, func(i, j int) bool { return r.edits[i].start > r.edits[j].start })
	out := append([]byte(nil), src...)
	for _, e := range r.edits {
		tail := append([]byte(e.text), out[e.end:]...)
		out = append(out[:e.start], tail...)
	}
	return out, nil
}

// rewriter collects the edits for one parsed file.
type rewriter struct {
	t       *Table
	src     []byte
	ns      string // namespace in effect, original spelling
	inClass bool
	edits   []edit
}

func (r *rewriter) children(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		r.visit(n.NamedChild(i))
	}
}

// except visits the named children of n other than the given ones.
func (r *rewriter) except(n *sitter.Node, skip ...*sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if !isOneOf(c, skip) {
			r.visit(c)
		}
	}
}

func (r *rewriter) visit(n *sitter.Node) {
	typ := n.Type()
	if skipped[typ] {
		return
	}
	if classContexts[typ] {
		r.classContext(n)
		return
	}

	switch typ {
	case "namespace_definition":
		r.namespaceDefinition(n)
	case "namespace_use_declaration":
		r.useDeclaration(n)
	case "class_declaration", "interface_declaration", "trait_declaration":
		name := n.ChildByFieldName("name")
		if name != nil && r.global() {
			if repl, ok := r.t.class(r.text(name)); ok {
				r.replace(name, repl)
			}
		}
		r.classBody(n, name)
	case "enum_declaration":
		r.classBody(n, n.ChildByFieldName("name"))
	case "function_definition":
		name := n.ChildByFieldName("name")
		if name != nil && r.global() {
			if repl, ok := r.t.function(r.text(name), types.RootNamespace, true); ok {
				r.replace(name, repl)
			}
		}
		r.except(n, name)
	case "method_declaration":
		r.except(n, n.ChildByFieldName("name"))
	case "const_declaration":
		r.constDeclaration(n)
	case "function_call_expression":
		r.call(n)
	case "scoped_call_expression", "class_constant_access_expression", "scoped_property_access_expression":
		r.scoped(n)
	case "member_call_expression", "nullsafe_member_call_expression",
		"member_access_expression", "nullsafe_member_access_expression":
		r.except(n, n.ChildByFieldName("name"))
	case "binary_expression":
		r.binary(n)
	case "argument":
		r.argument(n)
	case "string", "encapsed_string":
		r.literal(n, "")
	case "name", "qualified_name", "namespace_name":
		r.expression(n)
	default:
		r.children(n)
	}
}

func (r *rewriter) global() bool { return r.ns == types.RootNamespace }

func (r *rewriter) namespaceDefinition(n *sitter.Node) {
	name := n.ChildByFieldName("name")
	if name == nil {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); c.Type() == "namespace_name" {
				name = c
				break
			}
		}
	}
	ns := types.RootNamespace
	if name != nil {
		if trimmed := strings.Trim(r.text(name), `\ `); trimmed != "" {
			ns = trimmed
		}
		r.namespacePrefix(name)
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		r.ns = ns
		return
	}
	r.ns = ns
	r.children(body)
	r.ns = types.RootNamespace
}

// namespacePrefix rewrites a namespace name, keeping any leading or
// trailing separator.
func (r *rewriter) namespacePrefix(n *sitter.Node) {
	text := r.text(n)
	bare := strings.Trim(text, `\`)
	repl, ok := r.t.qualified(bare, true)
	if !ok {
		return
	}
	if strings.HasPrefix(text, `\`) {
		repl = `\` + repl
	}
	if strings.HasSuffix(text, `\`) && bare != "" {
		repl += `\`
	}
	r.replace(n, repl)
}

// useDeclaration rewrites a namespace-level import. Imported names are
// always fully qualified; a renamed global symbol keeps its old name as
// the alias so the importing file needs no other change.
func (r *rewriter) useDeclaration(n *sitter.Node) {
	kind := ""
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.IsNamed() {
			continue
		}
		switch k := strings.ToLower(r.text(c)); k {
		case "function", "const":
			kind = k
		}
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "namespace_use_clause":
			r.useClause(c, kind)
		case "namespace_name", "namespace_name_as_prefix", "qualified_name", "name":
			// Prefix of a group import; the names inside the braces are
			// relative to it.
			r.namespacePrefix(c)
		}
	}
}

func (r *rewriter) useClause(n *sitter.Node, kind string) {
	var target *sitter.Node
	aliased := false
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "name", "qualified_name", "namespace_name":
			if target == nil {
				target = c
			}
		case "namespace_aliasing_clause":
			aliased = true
		}
	}
	if target == nil {
		return
	}

	text := r.text(target)
	lead, bare := splitLead(text)
	if strings.Contains(bare, `\`) {
		if repl, ok := r.t.qualified(bare, true); ok {
			r.replace(target, lead+repl)
		}
		return
	}

	var repl string
	var ok bool
	switch kind {
	case "function":
		repl, ok = r.t.function(bare, types.RootNamespace, true)
	case "const":
		repl, ok = r.t.constant(bare, types.RootNamespace, true)
	default:
		repl, ok = r.t.class(bare)
	}
	if !ok {
		return
	}
	repl = lead + repl
	if !aliased {
		repl += " as " + bare
	}
	r.replace(target, repl)
}

// classBody visits a class-like declaration other than its name. Constants
// declared in the body belong to the class.
func (r *rewriter) classBody(n, name *sitter.Node) {
	outer := r.inClass
	r.inClass = true
	r.except(n, name)
	r.inClass = outer
}

func (r *rewriter) constDeclaration(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		el := n.NamedChild(i)
		if el.Type() != "const_element" {
			r.visit(el)
			continue
		}
		name := el.ChildByFieldName("name")
		if name == nil && el.NamedChildCount() > 0 {
			name = el.NamedChild(0)
		}
		if name != nil && !r.inClass && r.global() {
			if repl, ok := r.t.constant(r.text(name), types.RootNamespace, true); ok {
				r.replace(name, repl)
			}
		}
		r.except(el, name)
	}
}

// call rewrites the called function and, for built-ins such as define or
// class_exists, the symbol name passed as the first argument.
func (r *rewriter) call(n *sitter.Node) {
	fn := n.ChildByFieldName("function")
	kind := ""
	if fn != nil && isName(fn) {
		_, bare := splitLead(r.text(fn))
		kind = nameArgs[strings.ToLower(bare)]
		r.functionRef(fn)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch {
		case isOneOf(c, []*sitter.Node{fn}) && isName(fn):
		case c.Type() == "arguments" && kind != "":
			r.nameArguments(c, kind)
		default:
			r.visit(c)
		}
	}
}

func (r *rewriter) nameArguments(args *sitter.Node, kind string) {
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if i == 0 {
			if lit := stringArgument(arg); lit != nil {
				r.literal(lit, kind)
				continue
			}
		}
		r.visit(arg)
	}
}

// stringArgument returns the literal when arg is a plain string argument.
func stringArgument(arg *sitter.Node) *sitter.Node {
	if isString(arg) {
		return arg
	}
	if arg.Type() != "argument" || arg.NamedChildCount() != 1 {
		return nil
	}
	if c := arg.NamedChild(0); isString(c) {
		return c
	}
	return nil
}

// scoped handles Foo::bar(), Foo::BAR and Foo::$bar: only the class on the
// left of :: is a global symbol.
func (r *rewriter) scoped(n *sitter.Node) {
	scope := n.ChildByFieldName("scope")
	if scope == nil && n.NamedChildCount() > 0 {
		scope = n.NamedChild(0)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch {
		case isOneOf(c, []*sitter.Node{scope}):
			if isName(c) {
				r.classRef(c)
			} else {
				r.visit(c)
			}
		case isName(c):
			// member name
		default:
			r.visit(c)
		}
	}
}

func (r *rewriter) binary(n *sitter.Node) {
	op := n.ChildByFieldName("operator")
	right := n.ChildByFieldName("right")
	if op == nil || right == nil || !strings.EqualFold(r.text(op), "instanceof") || !isName(right) {
		r.children(n)
		return
	}
	r.classRef(right)
	r.except(n, right)
}

// argument skips the label of a named argument.
func (r *rewriter) argument(n *sitter.Node) {
	label := n.ChildByFieldName("name")
	if label != nil {
		if next := label.NextSibling(); next == nil || next.Type() != ":" {
			label = nil
		}
	}
	r.except(n, label)
}

func (r *rewriter) classContext(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if isName(c) {
			r.classRef(c)
			continue
		}
		r.visit(c)
	}
}

// classRef rewrites a name used as a class. Unqualified names inside a
// namespace resolve against that namespace or its imports, which the
// use statements already cover.
func (r *rewriter) classRef(n *sitter.Node) {
	lead, bare, ok := r.reference(n)
	if !ok {
		return
	}
	if strings.Contains(bare, `\`) {
		r.qualifiedRef(n, lead, bare)
		return
	}
	if lead != "" || r.global() {
		if repl, ok := r.t.class(bare); ok {
			r.replace(n, lead+repl)
		}
	}
}

// functionRef rewrites a called name. Unqualified calls in a namespace
// fall back to the global function unless the namespace declares its own.
func (r *rewriter) functionRef(n *sitter.Node) {
	lead, bare, ok := r.reference(n)
	if !ok {
		return
	}
	if strings.Contains(bare, `\`) {
		r.qualifiedRef(n, lead, bare)
		return
	}
	if repl, ok := r.t.function(bare, r.ns, lead != ""); ok {
		r.replace(n, lead+repl)
	}
}

// expression rewrites a name whose role the tree does not give away: a
// constant in well-formed code, or anything inside an error node.
func (r *rewriter) expression(n *sitter.Node) {
	lead, bare, ok := r.reference(n)
	if !ok {
		return
	}
	if strings.Contains(bare, `\`) {
		r.qualifiedRef(n, lead, bare)
		return
	}
	absolute := lead != ""
	if r.followedByCall(n) {
		if repl, ok := r.t.function(bare, r.ns, absolute); ok {
			r.replace(n, lead+repl)
			return
		}
	}
	if absolute || r.global() {
		if repl, ok := r.t.class(bare); ok {
			r.replace(n, lead+repl)
			return
		}
	}
	if repl, ok := r.t.constant(bare, r.ns, absolute); ok {
		r.replace(n, lead+repl)
	}
}

// qualifiedRef rewrites a name with a namespace part. A relative name in a
// namespaced file resolves under that namespace, so only absolute names
// and names in global code can point into a renamed namespace.
func (r *rewriter) qualifiedRef(n *sitter.Node, lead, bare string) {
	if lead == "" && !r.global() {
		return
	}
	if repl, ok := r.t.qualified(bare, false); ok {
		r.replace(n, lead+repl)
	}
}

// reference splits a name node into its leading separator and the rest.
// Names relative to the current namespace (namespace\foo) are never
// global.
func (r *rewriter) reference(n *sitter.Node) (lead, bare string, ok bool) {
	lead, bare = splitLead(r.text(n))
	if bare == "" || strings.HasPrefix(strings.ToLower(bare), `namespace\`) {
		return "", "", false
	}
	return lead, bare, true
}

func (r *rewriter) followedByCall(n *sitter.Node) bool {
	for i := int(n.EndByte()); i < len(r.src); i++ {
		switch r.src[i] {
		case ' ', '\t', '\n', '\r':
			continue
		case '(':
			return true
		}
		return false
	}
	return false
}

// literal rewrites the body of a string literal that spells a symbol
// name.
func (r *rewriter) literal(n *sitter.Node, kind string) {
	text := r.text(n)
	if len(text) < 2 {
		return
	}
	q := text[0]
	if (q != '\'' && q != '"') || text[len(text)-1] != q {
		return
	}
	raw := text[1 : len(text)-1]
	if repl := r.t.rewriteString(raw, kind); repl != raw {
		r.edits = append(r.edits, edit{start: n.StartByte() + 1, end: n.EndByte() - 1, text: repl})
	}
}

func (r *rewriter) replace(n *sitter.Node, text string) {
	if text == r.text(n) {
		return
	}
	r.edits = append(r.edits, edit{start: n.StartByte(), end: n.EndByte(), text: text})
}

func (r *rewriter) text(n *sitter.Node) string {
	return n.Content(r.src)
}

// rewriteString rewrites the body of a string literal that spells a
// symbol name. kind is set when the literal is the name argument of a
// built-in such as define or class_exists; otherwise only names inside a
// renamed namespace are rewritten.
func (t *Table) rewriteString(raw, kind string) string {
	if !nameLiteral.MatchString(raw) {
		return raw
	}
	doubled := strings.Contains(raw, `\\`)
	value := raw
	if doubled {
		value = strings.ReplaceAll(raw, `\\`, `\`)
	}
	lead := strings.HasPrefix(value, `\`)
	trail := strings.HasSuffix(value, `\`) && len(value) > 1
	value = strings.TrimSuffix(strings.TrimPrefix(value, `\`), `\`)

	var repl string
	var ok bool
	switch {
	case strings.Contains(value, `\`) || trail:
		repl, ok = t.qualified(value, true)
	case kind == "const":
		repl, ok = t.constant(value, types.RootNamespace, true)
	case kind == "function":
		repl, ok = t.function(value, types.RootNamespace, true)
	case kind == "class":
		repl, ok = t.class(value)
	}
	if !ok {
		return raw
	}
	if lead {
		repl = `\` + repl
	}
	if trail {
		repl += `\`
	}
	if doubled {
		repl = strings.ReplaceAll(repl, `\`, `\\`)
	}
	return repl
}

func splitLead(text string) (lead, bare string) {
	if strings.HasPrefix(text, `\`) {
		return `\`, text[1:]
	}
	return "", text
}

func isName(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "name", "qualified_name", "namespace_name":
		return true
	}
	return false
}

func isString(n *sitter.Node) bool {
	t := n.Type()
	return t == "string" || t == "encapsed_string"
}

func isOneOf(n *sitter.Node, set []*sitter.Node) bool {
	for _, s := range set {
		if s != nil && n.Equal(s) {
			return true
		}
	}
	return false
}
