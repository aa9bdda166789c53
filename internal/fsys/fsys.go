// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package fsys is the only way go-scoper touches the disk. It wraps an
// afero filesystem so a dry run can substitute an overlay that keeps every
// write in memory.
package fsys

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

const defaultPerm = os.FileMode(0o644)

// FileSystem provides read, write and existence queries over an afero.Fs.
type FileSystem struct {
	fs      afero.Fs
	dryRun  bool
	removed  map[string]bool // paths deleted during a dry run
	restored map[string]bool // paths written again below a deleted directory
}

// New wraps an arbitrary afero filesystem. Tests pass afero.NewMemMapFs().
func New(fs afero.Fs) *FileSystem {
	return &FileSystem{fs: fs, removed: make(map[string]bool), restored: make(map[string]bool)}
}

// NewOS returns a FileSystem backed by the real disk.
func NewOS() *FileSystem {
	return New(afero.NewOsFs())
}

// NewDryRun returns a FileSystem that reads from disk and keeps every write
// in memory. Deletions are recorded and hidden from later queries.
func NewDryRun() *FileSystem {
	return DryRunOver(afero.NewOsFs())
}

// DryRunOver layers an in-memory overlay on top of a read-only view of base.
func DryRunOver(base afero.Fs) *FileSystem {
	f := New(afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(base), afero.NewMemMapFs()))
	f.dryRun = true
	return f
}

// IsDryRun reports whether writes are kept in memory.
func (f *FileSystem) IsDryRun() bool { return f.dryRun }

// Afero exposes the underlying filesystem.
func (f *FileSystem) Afero() afero.Fs { return f.fs }

// Read returns the contents of path.
func (f *FileSystem) Read(path string) ([]byte, error) {
	if f.isRemoved(path) {
		return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
	}
	return afero.ReadFile(f.fs, path)
}

// Write replaces the contents of path, creating parent directories. The
// permissions of an existing file are preserved.
func (f *FileSystem) Write(path string, data []byte) error {
	perm := defaultPerm
	if info, err := f.fs.Stat(path); err == nil && !f.isRemoved(path) {
		perm = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	if err := f.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	if err := afero.WriteFile(f.fs, path, data, perm); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if f.dryRun && f.isRemoved(path) {
		for p := filepath.Clean(path); ; p = filepath.Dir(p) {
			f.restored[p] = true
			if filepath.Dir(p) == p {
				break
			}
		}
	}
	return nil
}

// FileExists reports whether path exists and is not a directory.
func (f *FileSystem) FileExists(path string) bool {
	if f.isRemoved(path) {
		return false
	}
	info, err := f.fs.Stat(path)
	return err == nil && !info.IsDir()
}

// DirectoryExists reports whether path exists and is a directory.
func (f *FileSystem) DirectoryExists(path string) bool {
	if f.isRemoved(path) {
		return false
	}
	ok, err := afero.DirExists(f.fs, path)
	return err == nil && ok
}

// List returns the sorted names of the entries in directory path.
func (f *FileSystem) List(path string) ([]string, error) {
	if f.isRemoved(path) {
		return nil, &fs.PathError{Op: "list", Path: path, Err: fs.ErrNotExist}
	}
	entries, err := afero.ReadDir(f.fs, path)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if f.isRemoved(filepath.Join(path, e.Name())) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Walk walks the tree rooted at root in lexical order.
func (f *FileSystem) Walk(root string, fn filepath.WalkFunc) error {
	return afero.Walk(f.fs, root, func(path string, info os.FileInfo, err error) error {
		if err == nil && f.isRemoved(path) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		return fn(path, info, err)
	})
}

// Copy copies src to dst, creating parent directories.
func (f *FileSystem) Copy(src, dst string) error {
	data, err := f.Read(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}
	return f.Write(dst, data)
}

// Remove deletes a file or an empty directory. During a dry run the path
// is only hidden.
func (f *FileSystem) Remove(path string) error {
	if f.dryRun {
		f.hide(path)
		return nil
	}
	return f.fs.Remove(path)
}

// RemoveAll deletes path and everything below it.
func (f *FileSystem) RemoveAll(path string) error {
	if f.dryRun {
		f.hide(path)
		return nil
	}
	return f.fs.RemoveAll(path)
}

func (f *FileSystem) hide(path string) {
	p := filepath.Clean(path)
	f.removed[p] = true
	for r := range f.restored {
		if r == p || strings.HasPrefix(r, p+string(filepath.Separator)) {
			delete(f.restored, r)
		}
	}
}

// isRemoved reports whether path or one of its parents was deleted during
// a dry run.
func (f *FileSystem) isRemoved(path string) bool {
	if len(f.removed) == 0 {
		return false
	}
	p := filepath.Clean(path)
	if f.restored[p] {
		return false
	}
	for {
		if f.removed[p] {
			return true
		}
		parent := filepath.Dir(p)
		if parent == p {
			return false
		}
		p = parent
	}
}
