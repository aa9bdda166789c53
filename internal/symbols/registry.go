// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package symbols

import (
	"errors"
	"fmt"

	"github.com/petar-djukic/go-scoper/pkg/types"
)

var (
	// ErrRegistrySealed is returned when a sealed registry is mutated.
	ErrRegistrySealed = errors.New("symbol registry is sealed")
	// ErrReplacementAlreadySet is returned when a symbol is renamed to a
	// second, different name.
	ErrReplacementAlreadySet = errors.New("replacement already set")
	// ErrRootNamespace is returned when the root namespace is renamed.
	ErrRootNamespace = errors.New("root namespace cannot be renamed")
)

// Registry holds every discovered symbol, one table per kind keyed by
// original name. It always contains the root namespace sentinel.
//
// The registry is filled during discovery, receives replacements during
// renaming decisions, and is read-only once sealed.
type Registry struct {
	byName map[types.SymbolKind]map[string]*Symbol
	order  map[types.SymbolKind][]*Symbol
	root   *Symbol
	sealed bool
}

// NewRegistry creates an empty registry holding only the root namespace.
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[types.SymbolKind]map[string]*Symbol, len(types.Kinds)),
		order:  make(map[types.SymbolKind][]*Symbol, len(types.Kinds)),
	}
	for _, k := range types.Kinds {
		r.byName[k] = make(map[string]*Symbol)
	}
	r.root = New(types.Namespace, types.RootNamespace, nil)
	r.byName[types.Namespace][types.RootNamespace] = r.root
	return r
}

// Add registers sym and returns the registered symbol. When a symbol of the
// same kind and name already exists, the new symbol's files are appended
// to it and the existing symbol is returned.
//
// Add panics on an unsupported kind: that is a programming error, not a
// recoverable condition.
func (r *Registry) Add(sym *Symbol) (*Symbol, error) {
	if !sym.kind.Valid() {
		panic(fmt.Sprintf("symbols: unsupported symbol kind %d for %q", sym.kind, sym.original))
	}
	if r.sealed {
		return nil, fmt.Errorf("%w: adding %s %s", ErrRegistrySealed, sym.kind, sym.original)
	}
	if existing, ok := r.byName[sym.kind][sym.original]; ok {
		for _, f := range sym.files {
			existing.addFile(f)
		}
		return existing, nil
	}
	r.byName[sym.kind][sym.original] = sym
	r.order[sym.kind] = append(r.order[sym.kind], sym)
	return sym, nil
}

// Rename sets the replacement name of sym. Renaming to the current
// replacement is a no-op; renaming an already renamed symbol to a
// different name fails.
func (r *Registry) Rename(sym *Symbol, replacement string) error {
	if r.sealed {
		return fmt.Errorf("%w: renaming %s %s", ErrRegistrySealed, sym.kind, sym.original)
	}
	if sym == r.root {
		return ErrRootNamespace
	}
	if replacement == sym.replacement {
		return nil
	}
	if sym.IsRenamed() {
		return fmt.Errorf("%w: %s %s is %s, not %s", ErrReplacementAlreadySet,
			sym.kind, sym.original, sym.replacement, replacement)
	}
	sym.replacement = replacement
	return nil
}

// Seal ends the decision phase. Add and Rename fail afterwards.
func (r *Registry) Seal() { r.sealed = true }

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool { return r.sealed }

// Root returns the root namespace sentinel.
func (r *Registry) Root() *Symbol { return r.root }

// Lookup returns the symbol of the given kind and original name, or nil.
func (r *Registry) Lookup(kind types.SymbolKind, name string) *Symbol {
	return r.byName[kind][name]
}

// Namespace returns the namespace symbol with exactly the given name, or
// nil. The root namespace is returned for types.RootNamespace.
func (r *Registry) Namespace(name string) *Symbol {
	return r.byName[types.Namespace][name]
}

// ByKind returns the symbols of one kind in discovery order. The root
// namespace sentinel is not included.
func (r *Registry) ByKind(kind types.SymbolKind) []*Symbol {
	list := r.order[kind]
	result := make([]*Symbol, len(list))
	copy(result, list)
	return result
}

// Namespaces returns every discovered namespace except the root sentinel.
func (r *Registry) Namespaces() []*Symbol { return r.ByKind(types.Namespace) }

// Classes returns every discovered class.
func (r *Registry) Classes() []*Symbol { return r.ByKind(types.Class) }

// Interfaces returns every discovered interface.
func (r *Registry) Interfaces() []*Symbol { return r.ByKind(types.Interface) }

// Traits returns every discovered trait.
func (r *Registry) Traits() []*Symbol { return r.ByKind(types.Trait) }

// Functions returns every discovered function.
func (r *Registry) Functions() []*Symbol { return r.ByKind(types.Function) }

// Constants returns every discovered constant.
func (r *Registry) Constants() []*Symbol { return r.ByKind(types.Constant) }

// GlobalClasses returns the classes declared in the root namespace.
func (r *Registry) GlobalClasses() []*Symbol {
	var result []*Symbol
	for _, s := range r.order[types.Class] {
		if s.IsGlobal() {
			result = append(result, s)
		}
	}
	return result
}

// Classmap returns classes, interfaces and traits: the symbols an
// autoloader can materialize on demand.
func (r *Registry) Classmap() []*Symbol {
	var result []*Symbol
	for _, k := range []types.SymbolKind{types.Class, types.Interface, types.Trait} {
		result = append(result, r.order[k]...)
	}
	return result
}

// Changed returns the renamed symbols of one kind.
func (r *Registry) Changed(kind types.SymbolKind) []*Symbol {
	var result []*Symbol
	for _, s := range r.order[kind] {
		if s.IsRenamed() {
			result = append(result, s)
		}
	}
	return result
}

// All returns every symbol, grouped by kind in types.Kinds order.
func (r *Registry) All() []*Symbol {
	var result []*Symbol
	for _, k := range types.Kinds {
		result = append(result, r.order[k]...)
	}
	return result
}

// Len returns the number of discovered symbols, excluding the sentinel.
func (r *Registry) Len() int {
	n := 0
	for _, k := range types.Kinds {
		n += len(r.order[k])
	}
	return n
}
