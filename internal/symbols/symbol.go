// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package symbols holds the in-memory model of every renameable PHP symbol
// discovered in dependency source, and the registry that groups them by
// kind.
package symbols

import (
	"github.com/petar-djukic/go-scoper/pkg/types"
)

// Symbol is one discovered namespace, class, interface, trait, function or
// constant. The original name is its identity within its kind; the
// replacement starts equal to it and is set at most once through
// Registry.Rename.
type Symbol struct {
	kind        types.SymbolKind
	original    string
	replacement string
	namespace   string
	local       string
	files       []*types.File

	// Abstract is set for abstract classes.
	Abstract bool
	// Extends holds the parent class (at most one) or the parent
	// interfaces of an interface.
	Extends []string
	// Implements holds the interfaces a class implements.
	Implements []string
	// Uses holds the traits a trait composes.
	Uses []string
}

// New creates a symbol of the given kind. name is the fully-qualified name
// without a leading separator. file may be nil for synthetic symbols.
func New(kind types.SymbolKind, name string, file *types.File) *Symbol {
	ns, local := types.SplitName(name)
	if kind == types.Namespace {
		ns, local = name, name
	}
	s := &Symbol{
		kind:        kind,
		original:    name,
		replacement: name,
		namespace:   ns,
		local:       local,
	}
	if file != nil {
		s.files = append(s.files, file)
	}
	return s
}

// Kind returns the symbol kind.
func (s *Symbol) Kind() types.SymbolKind { return s.kind }

// OriginalName returns the fully-qualified name as discovered.
func (s *Symbol) OriginalName() string { return s.original }

// ReplacementName returns the decided name, equal to OriginalName until
// the symbol is renamed.
func (s *Symbol) ReplacementName() string { return s.replacement }

// IsRenamed reports whether the replacement differs from the original.
func (s *Symbol) IsRenamed() bool { return s.replacement != s.original }

// Namespace returns the owning namespace qualifier, types.RootNamespace for
// global symbols. For namespace symbols it is the namespace itself.
func (s *Symbol) Namespace() string { return s.namespace }

// LocalName returns the unqualified name.
func (s *Symbol) LocalName() string { return s.local }

// IsGlobal reports whether the symbol lives in the root namespace.
func (s *Symbol) IsGlobal() bool {
	return s.kind != types.Namespace && s.namespace == types.RootNamespace
}

// SourceFiles returns the files the symbol was discovered in.
func (s *Symbol) SourceFiles() []*types.File {
	result := make([]*types.File, len(s.files))
	copy(result, s.files)
	return result
}

// addFile records another file declaring the same symbol.
func (s *Symbol) addFile(file *types.File) {
	if file == nil {
		return
	}
	for _, f := range s.files {
		if f == file {
			return
		}
	}
	s.files = append(s.files, file)
}
