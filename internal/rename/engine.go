// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package rename decides the replacement name of every discovered symbol.
// It only writes replacement names into the registry; rewriting source text
// is the prefixer's job.
package rename

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/petar-djukic/go-scoper/internal/config"
	"github.com/petar-djukic/go-scoper/internal/logging"
	"github.com/petar-djukic/go-scoper/internal/symbols"
	"github.com/petar-djukic/go-scoper/pkg/types"
)

// Options carries the prefixes, patterns and exclusions a run renames
// with.
type Options struct {
	NamespacePrefix string // without surrounding separators
	ClassmapPrefix  string
	FunctionsPrefix string
	ConstantsPrefix string
	Rules           []config.ReplacementRule // highest priority first
	Exclude         *config.Exclusion
	// CopiedOnly skips symbols whose files all stay behind in vendor.
	CopiedOnly bool
}

// OptionsFromConfig extracts the renaming options of a run.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		NamespacePrefix: cfg.NamespacePrefix,
		ClassmapPrefix:  cfg.ClassmapPrefix,
		FunctionsPrefix: cfg.FunctionsPrefix,
		ConstantsPrefix: cfg.ConstantsPrefix,
		Rules:           cfg.Rules(),
		Exclude:         &cfg.ExcludeFromPrefix,
		CopiedOnly:      true,
	}
}

// Stats counts renamed and skipped symbols per kind.
type Stats struct {
	Renamed map[types.SymbolKind]int
	Skipped int
	// AlreadyPrefixed counts symbols left alone because they carry the
	// prefix, the mark of an earlier run.
	AlreadyPrefixed int
}

// Total returns the number of renamed symbols.
func (s Stats) Total() int {
	n := 0
	for _, c := range s.Renamed {
		n += c
	}
	return n
}

// Engine applies the renaming rules to a registry.
type Engine struct {
	opts   Options
	logger *log.Logger
}

// New returns an Engine.
func New(opts Options, logger *log.Logger) *Engine {
	opts.NamespacePrefix = strings.Trim(opts.NamespacePrefix, `\`)
	if opts.Exclude == nil {
		opts.Exclude = &config.Exclusion{}
	}
	return &Engine{opts: opts, logger: logging.OrDiscard(logger)}
}

// Decide sets replacement names and seals the registry. Namespaces are
// decided first because namespaced classes follow their namespace.
func (e *Engine) Decide(reg *symbols.Registry) (Stats, error) {
	stats := Stats{Renamed: make(map[types.SymbolKind]int)}

	apply := func(sym *symbols.Symbol, replacement string) error {
		if replacement == "" || replacement == sym.OriginalName() {
			if e.carriesPrefix(sym) {
				stats.AlreadyPrefixed++
			}
			return nil
		}
		if err := reg.Rename(sym, replacement); err != nil {
			return fmt.Errorf("renaming %s %s: %w", sym.Kind(), sym.OriginalName(), err)
		}
		stats.Renamed[sym.Kind()]++
		e.logger.Debug("renamed", "kind", sym.Kind(), "from", sym.OriginalName(), "to", replacement)
		return nil
	}

	for _, ns := range reg.Namespaces() {
		if e.excluded(ns) {
			stats.Skipped++
			continue
		}
		if err := apply(ns, e.namespaceReplacement(ns.OriginalName())); err != nil {
			return stats, err
		}
	}

	for _, sym := range reg.Classmap() {
		if e.excluded(sym) {
			stats.Skipped++
			continue
		}
		if err := apply(sym, e.classReplacement(reg, sym)); err != nil {
			return stats, err
		}
	}

	for _, fn := range reg.Functions() {
		if e.excluded(fn) {
			stats.Skipped++
			continue
		}
		if fn.IsGlobal() {
			if err := apply(fn, prefixed(e.opts.FunctionsPrefix, fn.OriginalName())); err != nil {
				return stats, err
			}
		}
	}

	for _, c := range reg.Constants() {
		if e.excluded(c) {
			stats.Skipped++
			continue
		}
		if c.IsGlobal() {
			if err := apply(c, prefixed(e.opts.ConstantsPrefix, c.OriginalName())); err != nil {
				return stats, err
			}
		}
	}

	reg.Seal()
	e.logger.Info("renaming decided",
		"namespaces", stats.Renamed[types.Namespace],
		"classes", stats.Renamed[types.Class]+stats.Renamed[types.Interface]+stats.Renamed[types.Trait],
		"functions", stats.Renamed[types.Function],
		"constants", stats.Renamed[types.Constant],
		"skipped", stats.Skipped)
	return stats, nil
}

// excluded reports whether any file declaring sym belongs to an excluded
// package or matches an excluded path pattern.
func (e *Engine) excluded(sym *symbols.Symbol) bool {
	if e.opts.CopiedOnly && !anyCopied(sym.SourceFiles()) {
		return true
	}
	for _, f := range sym.SourceFiles() {
		if e.opts.Exclude.HasPackage(f.PackageName) {
			return true
		}
	}
	for _, f := range sym.SourceFiles() {
		if e.opts.Exclude.MatchesPath(f.RelativePath) {
			return true
		}
	}
	return false
}

// carriesPrefix reports whether sym's name already starts with the prefix
// for its kind.
func (e *Engine) carriesPrefix(sym *symbols.Symbol) bool {
	name := sym.OriginalName()
	has := func(prefix string) bool { return prefix != "" && strings.HasPrefix(name, prefix) }
	switch {
	case sym.Kind() == types.Namespace:
		p := e.opts.NamespacePrefix
		return p != "" && (name == p || strings.HasPrefix(name, p+`\`))
	case !sym.IsGlobal():
		return false
	case sym.Kind().IsClassmap():
		return has(e.opts.ClassmapPrefix)
	case sym.Kind() == types.Function:
		return has(e.opts.FunctionsPrefix)
	case sym.Kind() == types.Constant:
		return has(e.opts.ConstantsPrefix)
	}
	return false
}

func anyCopied(files []*types.File) bool {
	for _, f := range files {
		if f.DoCopy {
			return true
		}
	}
	return false
}

// namespaceReplacement walks the configured patterns and then the
// implicit prefix pattern. The first substitution that changes the name
// wins; a pattern that matches without changing anything does not stop
// the walk. It returns "" when the namespace stays as it is.
func (e *Engine) namespaceReplacement(ns string) string {
	prefix := e.opts.NamespacePrefix
	if prefix != "" && (ns == prefix || strings.HasPrefix(ns, prefix+`\`)) {
		return ""
	}
	if e.opts.Exclude.HasNamespace(ns) {
		return ""
	}

	targeted := false
	for _, rule := range e.opts.Rules {
		if loc := rule.Regexp.FindStringIndex(ns); loc != nil && loc[0] == 0 && loc[1] == len(ns) {
			targeted = true
		}
		if out := rule.Regexp.ReplaceAllString(ns, rule.Template); out != ns {
			return strings.Trim(out, `\`)
		}
	}
	if targeted || prefix == "" {
		return ""
	}
	return prefix + `\` + ns
}

// classReplacement prefixes global types and moves namespaced types with
// their namespace.
func (e *Engine) classReplacement(reg *symbols.Registry, sym *symbols.Symbol) string {
	if sym.IsGlobal() {
		return prefixed(e.opts.ClassmapPrefix, sym.OriginalName())
	}
	owner := reg.Namespace(sym.Namespace())
	if owner == nil || !owner.IsRenamed() {
		return ""
	}
	return owner.ReplacementName() + `\` + sym.LocalName()
}

// prefixed returns prefix+name unless the prefix is empty or name already
// carries it.
func prefixed(prefix, name string) string {
	if prefix == "" || strings.HasPrefix(name, prefix) {
		return ""
	}
	return prefix + name
}
