// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package repair keeps Composer's generated bookkeeping consistent after
// packages were copied, prefixed and removed from vendor.
package repair

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/petar-djukic/go-scoper/internal/composer"
	"github.com/petar-djukic/go-scoper/internal/fsys"
	"github.com/petar-djukic/go-scoper/internal/logging"
	"github.com/petar-djukic/go-scoper/internal/symbols"
)

const stubContent = "<?php\n"

// fileEntry matches a vendor file in autoload_files.php.
var fileEntry = regexp.MustCompile(`\$vendorDir\s*\.\s*'(/[^']+)'`)

// Stats reports what a repair changed.
type Stats struct {
	ManifestMissing bool
	Relocated       int // install paths pointed at the target directory
	KeysRenamed     int // PSR-4 keys renamed
	Stubs           int // stub files written for missing file-list entries
	LinesRewritten  int
}

// Repairer rewrites installed.json, autoload_files.php and
// autoload_static.php in vendor/composer.
type Repairer struct {
	fs        *fsys.FileSystem
	vendorDir string
	targetDir string
	logger    *log.Logger
}

// New returns a Repairer.
func New(fs *fsys.FileSystem, vendorDir, targetDir string, logger *log.Logger) *Repairer {
	return &Repairer{
		fs:        fs,
		vendorDir: filepath.Clean(vendorDir),
		targetDir: filepath.Clean(targetDir),
		logger:    logging.OrDiscard(logger),
	}
}

func (r *Repairer) composerDir() string { return filepath.Join(r.vendorDir, "composer") }

// Repair runs the manifest and loader repairs. processed names the
// packages that had files copied.
func (r *Repairer) Repair(reg *symbols.Registry, processed []string) (Stats, error) {
	var stats Stats
	if err := r.manifest(reg, processed, &stats); err != nil {
		return stats, err
	}
	if err := r.loaders(&stats); err != nil {
		return stats, err
	}
	r.logger.Info("metadata repaired",
		"relocated", stats.Relocated, "keys", stats.KeysRenamed,
		"stubs", stats.Stubs, "lines", stats.LinesRewritten)
	return stats, nil
}

// manifest relocates processed packages whose install directory is gone
// and renames their PSR-4 keys.
func (r *Repairer) manifest(reg *symbols.Registry, processed []string, stats *Stats) error {
	path := filepath.Join(r.composerDir(), "installed.json")
	if !r.fs.FileExists(path) {
		stats.ManifestMissing = true
		r.logger.Warn("installed.json not found, skipping manifest repair", "path", path)
		return nil
	}
	data, err := r.fs.Read(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	installed, err := composer.ParseInstalled(data)
	if err != nil {
		return fmt.Errorf("repairing %s: %w", path, err)
	}

	inPlace := r.vendorDir == r.targetDir
	changed := false
	for _, name := range processed {
		pkg := installed.Package(name)
		if pkg == nil {
			continue
		}

		relocated := false
		if !inPlace && !r.fs.DirectoryExists(filepath.Join(r.composerDir(), filepath.FromSlash(pkg.InstallPath()))) {
			rel, err := filepath.Rel(r.composerDir(), filepath.Join(r.targetDir, filepath.FromSlash(pkg.Name())))
			if err != nil {
				return fmt.Errorf("relocating %s: %w", name, err)
			}
			if err := pkg.SetInstallPath(filepath.ToSlash(rel)); err != nil {
				return fmt.Errorf("relocating %s: %w", name, err)
			}
			relocated = true
			stats.Relocated++
			changed = true
			r.logger.Debug("relocated package", "package", name, "install-path", filepath.ToSlash(rel))
		}
		if !relocated && !inPlace {
			continue
		}

		n, err := pkg.RenamePSR4(func(key string) (string, bool) {
			ns := reg.Namespace(strings.TrimSuffix(key, `\`))
			if ns == nil || !ns.IsRenamed() {
				return "", false
			}
			if strings.HasSuffix(key, `\`) {
				return ns.ReplacementName() + `\`, true
			}
			return ns.ReplacementName(), true
		})
		if err != nil {
			return fmt.Errorf("renaming autoload keys of %s: %w", name, err)
		}
		if n > 0 {
			stats.KeysRenamed += n
			changed = true
		}
	}
	if !changed {
		return nil
	}

	out, err := installed.Marshal()
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return r.write(path, string(data), string(out))
}

// loaders stubs file-list entries that no longer exist in vendor and
// points the generated loaders at the copies in the target directory.
func (r *Repairer) loaders(stats *Stats) error {
	filesPath := filepath.Join(r.composerDir(), "autoload_files.php")
	if !r.fs.FileExists(filesPath) {
		return nil
	}
	data, err := r.fs.Read(filesPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filesPath, err)
	}

	replacements := make(map[string]string)
	var order []string
	for _, m := range fileEntry.FindAllStringSubmatch(string(data), -1) {
		rel := m[1]
		if _, seen := replacements[rel]; seen {
			continue
		}
		old := filepath.Join(r.vendorDir, filepath.FromSlash(rel))
		if r.fs.FileExists(old) {
			continue
		}
		if err := r.fs.Write(old, []byte(stubContent)); err != nil {
			return fmt.Errorf("writing stub %s: %w", old, err)
		}
		stats.Stubs++

		moved, err := filepath.Rel(r.vendorDir, filepath.Join(r.targetDir, filepath.FromSlash(rel)))
		if err != nil {
			return fmt.Errorf("locating %s: %w", rel, err)
		}
		replacements[rel] = "/" + filepath.ToSlash(moved)
		order = append(order, rel)
		r.logger.Debug("stubbed missing autoload file", "path", old, "now", replacements[rel])
	}
	if len(order) == 0 {
		return nil
	}

	for _, name := range []string{"autoload_files.php", "autoload_static.php"} {
		path := filepath.Join(r.composerDir(), name)
		if !r.fs.FileExists(path) {
			continue
		}
		src, err := r.fs.Read(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		out, n := rewriteLines(string(src), order, replacements)
		if n == 0 {
			continue
		}
		stats.LinesRewritten += n
		if err := r.write(path, string(src), out); err != nil {
			return err
		}
	}
	return nil
}

// rewriteLines replaces quoted references to each old path on the lines
// that contain one. Other lines are returned untouched.
func rewriteLines(src string, order []string, replacements map[string]string) (string, int) {
	lines := strings.SplitAfter(src, "\n")
	count := 0
	for i, line := range lines {
		updated := line
		for _, old := range order {
			updated = strings.ReplaceAll(updated, "'"+old+"'", "'"+replacements[old]+"'")
		}
		if updated != line {
			lines[i] = updated
			count++
		}
	}
	return strings.Join(lines, ""), count
}

func (r *Repairer) write(path, before, after string) error {
	if before == after {
		return nil
	}
	if r.fs.IsDryRun() {
		r.logger.Info("would repair", "path", path)
		r.logger.Debug("repair diff", "path", path, "diff", fsys.Diff(before, after))
	}
	if err := r.fs.Write(path, []byte(after)); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
