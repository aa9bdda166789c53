// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package scanner

import (
	"strings"

	"github.com/petar-djukic/go-scoper/pkg/types"
)

// scope is the namespace and class imports in effect at a point in a file.
type scope struct {
	namespace string
	imports   map[string]string // lower-cased alias to fully-qualified name
}

func newScope(ns string) *scope {
	return &scope{namespace: ns, imports: make(map[string]string)}
}

// qualify prefixes a declared local name with the current namespace.
func (s *scope) qualify(local string) string {
	if s.namespace == types.RootNamespace {
		return local
	}
	return s.namespace + `\` + local
}

// resolveClass turns a class reference into a fully-qualified name using
// PHP's rules: a leading separator is absolute, an imported first segment
// is expanded, anything else is relative to the current namespace.
func (s *scope) resolveClass(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, `\`) {
		return strings.TrimPrefix(name, `\`)
	}
	if rest, ok := strings.CutPrefix(name, `namespace\`); ok {
		return s.qualify(rest)
	}
	first, rest, qualified := strings.Cut(name, `\`)
	if fqn, ok := s.imports[strings.ToLower(first)]; ok {
		if qualified {
			return fqn + `\` + rest
		}
		return fqn
	}
	return s.qualify(name)
}

// addImports records the class imports of a "use ...;" statement. Function
// and constant imports do not affect class resolution and are ignored.
func (s *scope) addImports(stmt string) {
	stmt = strings.TrimSpace(stmt)
	stmt = strings.TrimSuffix(strings.TrimPrefix(stmt, "use"), ";")
	stmt = strings.TrimSpace(stmt)
	lower := strings.ToLower(stmt)
	if strings.HasPrefix(lower, "function ") || strings.HasPrefix(lower, "const ") {
		return
	}

	if open := strings.Index(stmt, "{"); open >= 0 {
		prefix := strings.Trim(stmt[:open], `\ `)
		group := strings.TrimSuffix(strings.TrimSpace(stmt[open+1:]), "}")
		for _, clause := range strings.Split(group, ",") {
			clause = strings.TrimSpace(clause)
			l := strings.ToLower(clause)
			if clause == "" || strings.HasPrefix(l, "function ") || strings.HasPrefix(l, "const ") {
				continue
			}
			s.addClause(prefix + `\` + clause)
		}
		return
	}
	for _, clause := range strings.Split(stmt, ",") {
		s.addClause(clause)
	}
}

func (s *scope) addClause(clause string) {
	fields := strings.Fields(clause)
	if len(fields) == 0 {
		return
	}
	fqn := strings.TrimPrefix(fields[0], `\`)
	alias := fqn
	if i := strings.LastIndex(fqn, `\`); i >= 0 {
		alias = fqn[i+1:]
	}
	if len(fields) == 3 && strings.EqualFold(fields[1], "as") {
		alias = fields[2]
	}
	s.imports[strings.ToLower(alias)] = fqn
}
