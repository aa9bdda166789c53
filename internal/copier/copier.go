// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package copier moves dependency files into the target directory and
// cleans the vendor directory afterwards.
package copier

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/petar-djukic/go-scoper/internal/fsys"
	"github.com/petar-djukic/go-scoper/internal/logging"
	"github.com/petar-djukic/go-scoper/pkg/types"
)

// Stats counts what a copy or cleanup did.
type Stats struct {
	Copied          int
	DeletedFiles    int
	DeletedPackages int
	PrunedDirs      int
}

// Copier copies files from vendorDir to targetDir.
type Copier struct {
	fs        *fsys.FileSystem
	vendorDir string
	targetDir string
	logger    *log.Logger
}

// New returns a Copier.
func New(fs *fsys.FileSystem, vendorDir, targetDir string, logger *log.Logger) *Copier {
	return &Copier{
		fs:        fs,
		vendorDir: filepath.Clean(vendorDir),
		targetDir: filepath.Clean(targetDir),
		logger:    logging.OrDiscard(logger),
	}
}

// InPlace reports whether the target is the vendor directory itself.
func (c *Copier) InPlace() bool { return c.vendorDir == c.targetDir }

// Destination returns where a file is copied to.
func (c *Copier) Destination(f *types.File) string {
	return filepath.Join(c.targetDir, filepath.FromSlash(f.RelativePath))
}

// Copy writes every file marked DoCopy to the target directory. Target
// package directories left by a previous run are cleared first, as long as
// the vendor copy is still there to copy from.
func (c *Copier) Copy(files []*types.File) (Stats, error) {
	var stats Stats
	if c.InPlace() {
		return stats, nil
	}

	cleared := make(map[string]bool)
	for _, f := range files {
		if !f.DoCopy || cleared[f.PackageName] {
			continue
		}
		cleared[f.PackageName] = true
		dir := filepath.Join(c.targetDir, filepath.FromSlash(f.PackageName))
		if c.inTarget(f.SourcePath) {
			continue
		}
		if c.fs.DirectoryExists(dir) && c.fs.FileExists(f.SourcePath) {
			if err := c.fs.RemoveAll(dir); err != nil {
				return stats, fmt.Errorf("clearing %s: %w", dir, err)
			}
		}
	}

	for _, f := range files {
		if !f.DoCopy {
			continue
		}
		dst := c.Destination(f)
		if filepath.Clean(f.SourcePath) == dst {
			// Relocated by an earlier run.
			continue
		}
		if !c.fs.FileExists(f.SourcePath) {
			if c.fs.FileExists(dst) {
				// Deleted from vendor by an earlier run; the copy is current.
				continue
			}
			return stats, fmt.Errorf("copying %s: source missing", f.RelativePath)
		}
		if err := c.fs.Copy(f.SourcePath, dst); err != nil {
			return stats, fmt.Errorf("copying %s: %w", f.RelativePath, err)
		}
		stats.Copied++
	}
	c.logger.Info("copied files", "count", stats.Copied, "target", c.targetDir)
	return stats, nil
}

// Cleanup deletes vendor files marked DoDelete. Packages listed in
// packageDirs are removed whole; otherwise directories left empty are
// pruned up to the vendor directory.
func (c *Copier) Cleanup(files []*types.File, packageDirs map[string]string) (Stats, error) {
	var stats Stats
	if c.InPlace() {
		return stats, nil
	}

	names := make([]string, 0, len(packageDirs))
	for name := range packageDirs {
		names = append(names, name)
	}
	sort.Strings(names)
	dirs := make(map[string]bool)
	for _, name := range names {
		dir := packageDirs[name]
		if !c.within(dir) || c.inTarget(dir) || !c.fs.DirectoryExists(dir) {
			continue
		}
		if err := c.fs.RemoveAll(dir); err != nil {
			return stats, fmt.Errorf("deleting package %s: %w", name, err)
		}
		stats.DeletedPackages++
		dirs[filepath.Dir(dir)] = true
		c.logger.Debug("deleted vendor package", "package", name)
	}

	for _, f := range files {
		if !f.DoDelete || c.inTarget(f.SourcePath) || !c.fs.FileExists(f.SourcePath) {
			continue
		}
		if _, whole := packageDirs[f.PackageName]; whole {
			continue
		}
		if err := c.fs.Remove(f.SourcePath); err != nil {
			return stats, fmt.Errorf("deleting %s: %w", f.SourcePath, err)
		}
		stats.DeletedFiles++
		dirs[filepath.Dir(f.SourcePath)] = true
	}

	pruned, err := c.prune(dirs)
	stats.PrunedDirs = pruned
	if err != nil {
		return stats, err
	}
	if stats.DeletedFiles+stats.DeletedPackages > 0 {
		c.logger.Info("cleaned vendor directory",
			"files", stats.DeletedFiles, "packages", stats.DeletedPackages, "dirs", stats.PrunedDirs)
	}
	return stats, nil
}

// prune removes empty directories, walking up towards the vendor
// directory. Deeper directories go first.
func (c *Copier) prune(dirs map[string]bool) (int, error) {
	list := make([]string, 0, len(dirs))
	for d := range dirs {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool { return len(list[i]) > len(list[j]) })

	pruned := 0
	for _, dir := range list {
		for d := dir; c.within(d); d = filepath.Dir(d) {
			if !c.fs.DirectoryExists(d) {
				continue
			}
			entries, err := c.fs.List(d)
			if err != nil {
				return pruned, fmt.Errorf("listing %s: %w", d, err)
			}
			if len(entries) > 0 {
				break
			}
			if err := c.fs.Remove(d); err != nil {
				return pruned, fmt.Errorf("removing %s: %w", d, err)
			}
			pruned++
		}
	}
	return pruned, nil
}

// inTarget reports whether path is the target directory or below it.
func (c *Copier) inTarget(path string) bool {
	rel, err := filepath.Rel(c.targetDir, path)
	return err == nil && !strings.HasPrefix(rel, "..")
}

// within reports whether path is strictly inside the vendor directory and
// not its composer bookkeeping directory.
func (c *Copier) within(path string) bool {
	rel, err := filepath.Rel(c.vendorDir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	return rel != "composer" && !strings.HasPrefix(rel, "composer"+string(filepath.Separator))
}
