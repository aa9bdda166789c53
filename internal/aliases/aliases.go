// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package aliases generates vendor/composer/autoload_aliases.php, the
// companion file that keeps every renamed class, function and constant
// reachable under its original name.
package aliases

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/charmbracelet/log"

	"github.com/petar-djukic/go-scoper/internal/fsys"
	"github.com/petar-djukic/go-scoper/internal/logging"
	"github.com/petar-djukic/go-scoper/internal/symbols"
	"github.com/petar-djukic/go-scoper/pkg/types"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var artifactTemplate = template.Must(template.New("autoload_aliases.php.tmpl").
	Funcs(template.FuncMap{"php": phpString}).
	ParseFS(templateFS, "templates/autoload_aliases.php.tmpl"))

// FileName is the artifact's name inside vendor/composer.
const FileName = "autoload_aliases.php"

// requireLine loads the artifact from vendor/autoload.php. The guard keeps
// autoload.php valid after a run that removed the artifact.
const requireLine = "if (file_exists(__DIR__ . '/composer/" + FileName + "')) { require_once __DIR__ . '/composer/" + FileName + "'; }"

// Descriptor describes the type declared under a class's original name.
type Descriptor struct {
	Key        string // original fully-qualified name
	Kind       string // class, interface or trait
	ClassName  string
	Namespace  string // types.RootNamespace for global types
	Extends    string // the renamed type
	Implements []string
	IsAbstract bool
}

// FunctionShim forwards calls from Old to Target.
type FunctionShim struct {
	Old    string
	Local  string
	Target string
}

// FunctionGroup holds the shims declared in one original namespace.
type FunctionGroup struct {
	Namespace string
	Global    bool
	Shims     []FunctionShim
}

// ConstantShim defines Old from Target.
type ConstantShim struct {
	Old    string
	Target string
}

// Shims is everything the artifact declares.
type Shims struct {
	Classes   []Descriptor
	Functions []FunctionGroup
	Constants []ConstantShim
}

// Build collects the shims for a decided registry. The result depends only
// on the registry's contents, never on discovery order.
func Build(reg *symbols.Registry) *Shims {
	s := &Shims{}

	for _, sym := range reg.Classmap() {
		if !sym.IsRenamed() {
			continue
		}
		d := Descriptor{
			Key:        sym.OriginalName(),
			Kind:       sym.Kind().String(),
			ClassName:  sym.LocalName(),
			Namespace:  sym.Namespace(),
			Extends:    sym.ReplacementName(),
			Implements: []string{},
		}
		if sym.Kind() == types.Class {
			d.IsAbstract = sym.Abstract
			d.Implements = append(d.Implements, sym.Implements...)
		}
		s.Classes = append(s.Classes, d)
	}
	sort.Slice(s.Classes, func(i, j int) bool { return s.Classes[i].Key < s.Classes[j].Key })

	groups := make(map[string]*FunctionGroup)
	for _, fn := range reg.Functions() {
		target, ok := forwardTarget(reg, fn)
		if !ok {
			continue
		}
		ns := fn.Namespace()
		g, exists := groups[ns]
		if !exists {
			g = &FunctionGroup{Namespace: ns, Global: ns == types.RootNamespace}
			groups[ns] = g
		}
		g.Shims = append(g.Shims, FunctionShim{Old: fn.OriginalName(), Local: fn.LocalName(), Target: target})
	}
	for _, g := range groups {
		sort.Slice(g.Shims, func(i, j int) bool { return g.Shims[i].Old < g.Shims[j].Old })
		s.Functions = append(s.Functions, *g)
	}
	sort.Slice(s.Functions, func(i, j int) bool {
		a, b := s.Functions[i], s.Functions[j]
		if a.Global != b.Global {
			return a.Global
		}
		return a.Namespace < b.Namespace
	})

	for _, c := range reg.Constants() {
		if target, ok := forwardTarget(reg, c); ok {
			s.Constants = append(s.Constants, ConstantShim{Old: c.OriginalName(), Target: target})
		}
	}
	sort.Slice(s.Constants, func(i, j int) bool { return s.Constants[i].Old < s.Constants[j].Old })

	return s
}

// forwardTarget returns the new name of a function or constant. A symbol
// renamed itself forwards to its replacement; otherwise it forwards to its
// name with the owning namespace's qualifier replaced.
func forwardTarget(reg *symbols.Registry, sym *symbols.Symbol) (string, bool) {
	if sym.IsRenamed() {
		return sym.ReplacementName(), true
	}
	if sym.IsGlobal() {
		return "", false
	}
	ns := reg.Namespace(sym.Namespace())
	if ns == nil || !ns.IsRenamed() {
		return "", false
	}
	return ns.ReplacementName() + strings.TrimPrefix(sym.OriginalName(), ns.OriginalName()), true
}

// Empty reports whether there is nothing to declare.
func (s *Shims) Empty() bool {
	return len(s.Classes) == 0 && len(s.Functions) == 0 && len(s.Constants) == 0
}

// Render produces the artifact source.
func (s *Shims) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := artifactTemplate.Execute(&buf, s); err != nil {
		return nil, fmt.Errorf("executing aliases template: %w", err)
	}
	return buf.Bytes(), nil
}

// phpString quotes s as a single-quoted PHP string literal.
func phpString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// Stats reports what Write did.
type Stats struct {
	Classes   int
	Functions int
	Constants int
	Written   bool // the artifact was (re)written
	Removed   bool // a stale artifact was removed
	Hooked    bool // the require line was added to autoload.php
}

// Generator writes the artifact into a vendor directory.
type Generator struct {
	fs        *fsys.FileSystem
	vendorDir string
	logger    *log.Logger
}

// New returns a Generator for vendorDir.
func New(fs *fsys.FileSystem, vendorDir string, logger *log.Logger) *Generator {
	return &Generator{fs: fs, vendorDir: vendorDir, logger: logging.OrDiscard(logger)}
}

// Path returns the artifact location.
func (g *Generator) Path() string {
	return filepath.Join(g.vendorDir, "composer", FileName)
}

// Write regenerates the artifact from reg. When nothing was renamed the
// artifact is removed instead. Any write failure is returned.
func (g *Generator) Write(reg *symbols.Registry) (Stats, error) {
	shims := Build(reg)
	stats := Stats{Classes: len(shims.Classes), Constants: len(shims.Constants)}
	for _, grp := range shims.Functions {
		stats.Functions += len(grp.Shims)
	}

	path := g.Path()
	if shims.Empty() {
		if g.fs.FileExists(path) {
			if err := g.fs.Remove(path); err != nil {
				return stats, fmt.Errorf("removing stale %s: %w", path, err)
			}
			stats.Removed = true
			g.logger.Info("removed stale aliases file", "path", path)
		}
		return stats, nil
	}

	content, err := shims.Render()
	if err != nil {
		return stats, err
	}
	var before []byte
	if g.fs.FileExists(path) {
		if before, err = g.fs.Read(path); err != nil {
			return stats, fmt.Errorf("reading %s: %w", path, err)
		}
	}
	if !bytes.Equal(before, content) {
		if g.fs.IsDryRun() {
			g.logger.Debug("would write aliases", "path", path, "diff", fsys.Diff(string(before), string(content)))
		}
		if err := g.fs.Write(path, content); err != nil {
			return stats, fmt.Errorf("writing %s: %w", path, err)
		}
		stats.Written = true
	}

	hooked, err := g.hook()
	if err != nil {
		return stats, err
	}
	stats.Hooked = hooked
	g.logger.Info("aliases generated",
		"classes", stats.Classes, "functions", stats.Functions, "constants", stats.Constants, "path", path)
	return stats, nil
}

// hook adds the require line to vendor/autoload.php once, ahead of its
// return statement.
func (g *Generator) hook() (bool, error) {
	path := filepath.Join(g.vendorDir, "autoload.php")
	if !g.fs.FileExists(path) {
		g.logger.Warn("autoload.php not found; aliases file must be required manually", "path", path)
		return false, nil
	}
	data, err := g.fs.Read(path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	content := string(data)
	if strings.Contains(content, "/composer/"+FileName) {
		return false, nil
	}

	lines := strings.SplitAfter(content, "\n")
	at := len(lines)
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "return ") {
			at = i
			break
		}
	}
	if at == len(lines) && !strings.HasSuffix(content, "\n") {
		content += "\n"
		lines = strings.SplitAfter(content, "\n")
		at = len(lines)
	}

	var out strings.Builder
	for _, line := range lines[:at] {
		out.WriteString(line)
	}
	out.WriteString(requireLine + "\n\n")
	for _, line := range lines[at:] {
		out.WriteString(line)
	}
	if err := g.fs.Write(path, []byte(out.String())); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}
