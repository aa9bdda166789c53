// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package types defines shared types used across go-scoper packages.
package types

import "strings"

// SymbolKind identifies the category of a renameable PHP symbol.
type SymbolKind int

const (
	Namespace SymbolKind = iota // namespace declaration
	Class                       // class declaration
	Interface                   // interface declaration
	Trait                       // trait declaration
	Function                    // free function declaration
	Constant                    // const or define() declaration
)

// Kinds lists every supported kind in registry order.
var Kinds = []SymbolKind{Namespace, Class, Interface, Trait, Function, Constant}

// String returns the lower-case name PHP uses for the kind.
func (k SymbolKind) String() string {
	switch k {
	case Namespace:
		return "namespace"
	case Class:
		return "class"
	case Interface:
		return "interface"
	case Trait:
		return "trait"
	case Function:
		return "function"
	case Constant:
		return "constant"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the supported kinds.
func (k SymbolKind) Valid() bool {
	return k >= Namespace && k <= Constant
}

// IsClassmap reports whether symbols of this kind can be materialized on
// demand by an autoloader.
func (k SymbolKind) IsClassmap() bool {
	return k == Class || k == Interface || k == Trait
}

// RootNamespace is the qualifier of the global namespace.
const RootNamespace = `\`

// SplitName splits a fully-qualified name into its namespace and local
// name. Names without a separator live in RootNamespace.
func SplitName(fqn string) (namespace, local string) {
	fqn = strings.TrimPrefix(fqn, `\`)
	i := strings.LastIndex(fqn, `\`)
	if i < 0 {
		return RootNamespace, fqn
	}
	return fqn[:i], fqn[i+1:]
}
