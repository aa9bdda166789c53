// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package prefixer rewrites the copied dependency files so every reference
// to a renamed namespace, class, function or constant uses its new name.
package prefixer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/petar-djukic/go-scoper/internal/fsys"
	"github.com/petar-djukic/go-scoper/internal/logging"
	"github.com/petar-djukic/go-scoper/internal/symbols"
	"github.com/petar-djukic/go-scoper/pkg/types"
)

// Stats counts rewritten files.
type Stats struct {
	Changed   int
	Unchanged int
	Skipped   int
}

// Prefixer rewrites files in the target directory.
type Prefixer struct {
	fs     *fsys.FileSystem
	table  *Table
	logger *log.Logger
}

// New builds a Prefixer from a sealed registry.
func New(fs *fsys.FileSystem, reg *symbols.Registry, logger *log.Logger) *Prefixer {
	return &Prefixer{fs: fs, table: NewTable(reg), logger: logging.OrDiscard(logger)}
}

// Apply rewrites every copied file marked for prefixing. Paths are
// resolved under targetDir.
func (p *Prefixer) Apply(ctx context.Context, files []*types.File, targetDir string) (Stats, error) {
	var stats Stats
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if !f.DoCopy || !f.DoPrefix {
			stats.Skipped++
			continue
		}
		path := filepath.Join(targetDir, filepath.FromSlash(f.RelativePath))
		data, err := p.fs.Read(path)
		if err != nil {
			return stats, fmt.Errorf("reading %s: %w", path, err)
		}
		rewritten, err := p.table.Rewrite(ctx, data)
		if err != nil {
			return stats, fmt.Errorf("rewriting %s: %w", f.RelativePath, err)
		}
		before, after := string(data), string(rewritten)
		if after == before {
			stats.Unchanged++
			continue
		}
		if p.fs.IsDryRun() {
			p.logger.Debug("would rewrite", "file", f.RelativePath, "diff", fsys.Diff(before, after))
		}
		if err := p.fs.Write(path, rewritten); err != nil {
			return stats, fmt.Errorf("writing %s: %w", path, err)
		}
		stats.Changed++
	}
	p.logger.Info("rewrote files", "changed", stats.Changed, "unchanged", stats.Unchanged)
	return stats, nil
}
