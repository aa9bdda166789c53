// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package prefixer

import (
	"sort"
	"strings"

	"github.com/petar-djukic/go-scoper/internal/symbols"
	"github.com/petar-djukic/go-scoper/pkg/types"
)

// nsRename is one renamed namespace.
type nsRename struct {
	from  string // lower-cased original
	to    string
	width int // length of the original
}

// Table holds the decided names the rewriter substitutes. PHP resolves
// class and function names case-insensitively, so those keys are
// lower-cased; constants are case-sensitive.
type Table struct {
	namespaces []nsRename // longest original first
	classes    map[string]string
	functions  map[string]string
	constants  map[string]string

	// declared namespaced functions and constants, lower-cased, used to
	// decide whether an unqualified name falls back to the global symbol.
	nsFunctions map[string]bool
	nsConstants map[string]bool
}

// NewTable reads the renamed symbols of a sealed registry.
func NewTable(reg *symbols.Registry) *Table {
	t := &Table{
		classes:     make(map[string]string),
		functions:   make(map[string]string),
		constants:   make(map[string]string),
		nsFunctions: make(map[string]bool),
		nsConstants: make(map[string]bool),
	}
	for _, ns := range reg.Changed(types.Namespace) {
		t.namespaces = append(t.namespaces, nsRename{
			from:  strings.ToLower(ns.OriginalName()),
			to:    ns.ReplacementName(),
			width: len(ns.OriginalName()),
		})
	}
	sort.SliceStable(t.namespaces, func(i, j int) bool {
		return t.namespaces[i].width > t.namespaces[j].width
	})

	for _, sym := range reg.Classmap() {
		if sym.IsGlobal() && sym.IsRenamed() {
			t.classes[strings.ToLower(sym.OriginalName())] = sym.ReplacementName()
		}
	}
	for _, fn := range reg.Functions() {
		switch {
		case !fn.IsGlobal():
			t.nsFunctions[strings.ToLower(fn.OriginalName())] = true
		case fn.IsRenamed():
			t.functions[strings.ToLower(fn.OriginalName())] = fn.ReplacementName()
		}
	}
	for _, c := range reg.Constants() {
		switch {
		case !c.IsGlobal():
			t.nsConstants[c.OriginalName()] = true
		case c.IsRenamed():
			t.constants[c.OriginalName()] = c.ReplacementName()
		}
	}
	return t
}

// Empty reports whether nothing was renamed.
func (t *Table) Empty() bool {
	return len(t.namespaces) == 0 && len(t.classes) == 0 && len(t.functions) == 0 && len(t.constants) == 0
}

// qualified renames a fully-qualified name, without leading separator,
// whose leading segments are a renamed namespace. exact allows the name to
// be the namespace itself.
func (t *Table) qualified(fq string, exact bool) (string, bool) {
	lower := strings.ToLower(fq)
	for _, ns := range t.namespaces {
		if lower == ns.from {
			if exact {
				return ns.to, true
			}
			continue
		}
		if strings.HasPrefix(lower, ns.from+`\`) {
			return ns.to + fq[ns.width:], true
		}
	}
	return "", false
}

func (t *Table) class(name string) (string, bool) {
	v, ok := t.classes[strings.ToLower(name)]
	return v, ok
}

// function resolves an unqualified call. In a namespaced file PHP tries
// the namespaced function first and falls back to the global one.
func (t *Table) function(name, currentNS string, absolute bool) (string, bool) {
	repl, ok := t.functions[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	if !absolute && currentNS != types.RootNamespace && t.nsFunctions[strings.ToLower(currentNS+`\`+name)] {
		return "", false
	}
	return repl, true
}

func (t *Table) constant(name, currentNS string, absolute bool) (string, bool) {
	repl, ok := t.constants[name]
	if !ok {
		return "", false
	}
	if !absolute && currentNS != types.RootNamespace && t.nsConstants[currentNS+`\`+name] {
		return "", false
	}
	return repl, true
}
