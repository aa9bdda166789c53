// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package discover enumerates the source files of the packages being
// processed, following each package's autoload section.
package discover

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/petar-djukic/go-scoper/internal/composer"
	"github.com/petar-djukic/go-scoper/internal/fsys"
	"github.com/petar-djukic/go-scoper/internal/logging"
	"github.com/petar-djukic/go-scoper/pkg/types"
)

// skipDirs contains directory names never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".github":      true,
	"node_modules": true,
}

// Enumerator lists package files inside a vendor directory.
type Enumerator struct {
	fs        *fsys.FileSystem
	vendorDir string
	logger    *log.Logger
}

// New returns an Enumerator for the given vendor directory.
func New(fs *fsys.FileSystem, vendorDir string, logger *log.Logger) *Enumerator {
	return &Enumerator{fs: fs, vendorDir: vendorDir, logger: logging.OrDiscard(logger)}
}

// PackageDir returns the absolute directory a package is installed in.
func (e *Enumerator) PackageDir(pkg *composer.Package) string {
	return filepath.Join(e.vendorDir, "composer", filepath.FromSlash(pkg.InstallPath()))
}

// Files returns every autoloaded file of pkgs, sorted by relative path.
// "files" entries are recorded first so a file reachable through several
// sections reports the files autoloader. A package without an autoload
// section contributes every PHP file under its directory.
func (e *Enumerator) Files(pkgs []*composer.Package) ([]*types.File, error) {
	seen := make(map[string]*types.File)
	for _, pkg := range pkgs {
		dir := e.PackageDir(pkg)
		if !e.fs.DirectoryExists(dir) {
			e.logger.Warn("package directory missing", "package", pkg.Name(), "dir", dir)
			continue
		}

		al, err := pkg.Autoload()
		if err != nil {
			return nil, fmt.Errorf("reading autoload of %s: %w", pkg.Name(), err)
		}

		add := func(kind types.AutoloadKind, rel string) error {
			return e.collect(pkg.Name(), dir, rel, kind, seen)
		}

		empty := true
		for _, f := range al.Files {
			empty = false
			if err := add(types.AutoloadFiles, f); err != nil {
				return nil, err
			}
		}
		for _, m := range al.PSR4 {
			for _, p := range m.Paths {
				empty = false
				if err := add(types.AutoloadPSR4, p); err != nil {
					return nil, err
				}
			}
		}
		for _, m := range al.PSR0 {
			for _, p := range m.Paths {
				empty = false
				if err := add(types.AutoloadPSR0, p); err != nil {
					return nil, err
				}
			}
		}
		for _, p := range al.Classmap {
			empty = false
			if err := add(types.AutoloadClassmap, p); err != nil {
				return nil, err
			}
		}
		if empty {
			if err := add(types.AutoloadClassmap, ""); err != nil {
				return nil, err
			}
		}
	}

	files := make([]*types.File, 0, len(seen))
	for _, f := range seen {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].RelativePath < files[j].RelativePath
	})
	return files, nil
}

// collect records rel, a file or directory relative to the package
// directory. Directories contribute their .php files.
func (e *Enumerator) collect(pkgName, pkgDir, rel string, kind types.AutoloadKind, seen map[string]*types.File) error {
	target := filepath.Join(pkgDir, filepath.FromSlash(rel))

	if e.fs.FileExists(target) {
		e.record(pkgName, pkgDir, target, kind, seen)
		return nil
	}
	if !e.fs.DirectoryExists(target) {
		e.logger.Warn("autoload path missing", "package", pkgName, "path", rel)
		return nil
	}

	err := e.fs.Walk(target, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if skipDirs[info.Name()] && p != target {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(p), ".php") {
			e.record(pkgName, pkgDir, p, kind, seen)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", target, err)
	}
	return nil
}

func (e *Enumerator) record(pkgName, pkgDir, abs string, kind types.AutoloadKind, seen map[string]*types.File) {
	if _, ok := seen[abs]; ok {
		return
	}
	inPkg, err := filepath.Rel(pkgDir, abs)
	if err != nil {
		inPkg = filepath.Base(abs)
	}
	seen[abs] = &types.File{
		PackageName:  pkgName,
		SourcePath:   abs,
		RelativePath: path.Join(pkgName, filepath.ToSlash(inPkg)),
		Autoloader:   kind,
	}
	e.logger.Debug("discovered file", "package", pkgName, "file", inPkg, "autoloader", kind)
}
