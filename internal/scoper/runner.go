// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package scoper implements the Runner orchestrator, wiring every pipeline
// stage from package enumeration to metadata repair.
package scoper

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/petar-djukic/go-scoper/internal/aliases"
	"github.com/petar-djukic/go-scoper/internal/composer"
	"github.com/petar-djukic/go-scoper/internal/config"
	"github.com/petar-djukic/go-scoper/internal/copier"
	"github.com/petar-djukic/go-scoper/internal/discover"
	"github.com/petar-djukic/go-scoper/internal/disposition"
	"github.com/petar-djukic/go-scoper/internal/fsys"
	gitpkg "github.com/petar-djukic/go-scoper/internal/git"
	"github.com/petar-djukic/go-scoper/internal/lint"
	"github.com/petar-djukic/go-scoper/internal/logging"
	"github.com/petar-djukic/go-scoper/internal/prefixer"
	"github.com/petar-djukic/go-scoper/internal/rename"
	"github.com/petar-djukic/go-scoper/internal/repair"
	"github.com/petar-djukic/go-scoper/internal/scanner"
	"github.com/petar-djukic/go-scoper/internal/symbols"
	"github.com/petar-djukic/go-scoper/pkg/types"
)

var (
	// ErrScanFailure wraps failures before any file is written: reading
	// the manifest, enumerating packages, parsing sources.
	ErrScanFailure = errors.New("scan failed")
	// ErrWriteFailure wraps failures while copying, rewriting or
	// generating files.
	ErrWriteFailure = errors.New("write failed")
)

// Deps holds injected dependencies for the runner.
type Deps struct {
	Config       *config.Config
	FS           *fsys.FileSystem // nil selects the OS, or a dry-run overlay when Config.DryRun is set
	Logger       *log.Logger
	NoGit        bool
	RequireClean bool
	Commit       bool
	Lint         bool
	PHPBinary    string
}

// Plan is the outcome of the read-only stages: which files are processed
// and what every symbol is renamed to.
type Plan struct {
	Packages    []*composer.Package
	Files       []*types.File
	Registry    *symbols.Registry
	Disposition disposition.Result
	Scan        scanner.Stats
	Rename      rename.Stats
}

// RunResult holds the outcome of Runner.Run. pkg/scoper converts it to
// the public Result.
type RunResult struct {
	Plan      *Plan
	Copy      copier.Stats
	Rewrite   prefixer.Stats
	Cleanup   copier.Stats
	Aliases   aliases.Stats
	Repair    repair.Stats
	Lint      *lint.Result
	Committed bool
}

// Runner orchestrates one run.
type Runner struct {
	deps   Deps
	fs     *fsys.FileSystem
	logger *log.Logger
}

// NewRunner creates a Runner with the given dependencies.
func NewRunner(deps Deps) *Runner {
	fs := deps.FS
	if fs == nil {
		if deps.Config != nil && deps.Config.DryRun {
			fs = fsys.NewDryRun()
		} else {
			fs = fsys.NewOS()
		}
	}
	return &Runner{deps: deps, fs: fs, logger: logging.OrDiscard(deps.Logger)}
}

// DryRun reports whether the runner writes to an overlay instead of disk.
func (r *Runner) DryRun() bool { return r.fs.IsDryRun() }

// Plan runs enumeration, discovery, disposition and renaming decisions.
// Nothing is written. The returned registry is sealed.
func (r *Runner) Plan(ctx context.Context) (*Plan, error) {
	cfg := r.deps.Config
	if cfg == nil {
		return nil, fmt.Errorf("%w: no configuration", config.ErrInvalidConfig)
	}
	vendorDir := cfg.VendorDir()

	manifestPath := filepath.Join(vendorDir, "composer", "installed.json")
	data, err := r.fs.Read(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrScanFailure, manifestPath, err)
	}
	installed, err := composer.ParseInstalled(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScanFailure, err)
	}
	pkgs, err := composer.Resolve(installed, cfg.Packages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScanFailure, err)
	}
	r.logger.Info("resolved packages", "requested", len(cfg.Packages), "total", len(pkgs))

	enum := discover.New(r.fs, vendorDir, r.logger)
	files, err := enum.Files(pkgs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScanFailure, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reg := symbols.NewRegistry()
	scanStats, err := scanner.New(r.fs, reg, r.logger).ScanFiles(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScanFailure, err)
	}

	disp := disposition.Apply(files, disposition.Options{
		ExcludeFromCopy:      &cfg.ExcludeFromCopy,
		ExcludeFromPrefix:    &cfg.ExcludeFromPrefix,
		DeleteVendorFiles:    cfg.DeleteVendorFiles,
		DeleteVendorPackages: cfg.DeleteVendorPackages,
		TargetIsVendor:       cfg.TargetIsVendor(),
	}, r.logger)

	renameStats, err := rename.New(rename.OptionsFromConfig(cfg), r.logger).Decide(reg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScanFailure, err)
	}

	return &Plan{
		Packages:    pkgs,
		Files:       files,
		Registry:    reg,
		Disposition: disp,
		Scan:        scanStats,
		Rename:      renameStats,
	}, nil
}

// Run executes the whole pipeline: plan, copy, rewrite, clean up vendor,
// generate aliases, repair Composer metadata, then optionally lint and
// commit. Stages run strictly in order; the first failure stops the run.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}
	cfg := r.deps.Config

	repo, err := r.openRepo()
	if err != nil {
		return result, err
	}

	plan, err := r.Plan(ctx)
	if err != nil {
		return result, err
	}
	result.Plan = plan

	vendorDir, targetDir := cfg.VendorDir(), cfg.TargetDir()
	cp := copier.New(r.fs, vendorDir, targetDir, r.logger)

	// Step 1: copy.
	if result.Copy, err = cp.Copy(plan.Files); err != nil {
		return result, fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	// Step 2: rewrite the copies.
	if result.Rewrite, err = prefixer.New(r.fs, plan.Registry, r.logger).Apply(ctx, plan.Files, targetDir); err != nil {
		return result, fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}

	// Step 3: delete vendor originals.
	enum := discover.New(r.fs, vendorDir, r.logger)
	whole := make(map[string]string)
	for _, pkg := range plan.Packages {
		for _, name := range plan.Disposition.DeletedPackages {
			if pkg.Name() == name {
				whole[name] = enum.PackageDir(pkg)
			}
		}
	}
	if result.Cleanup, err = cp.Cleanup(plan.Files, whole); err != nil {
		return result, fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	// Step 4: aliases.
	gen := aliases.New(r.fs, vendorDir, r.logger)
	switch {
	case !cfg.IncludeAliases:
	case plan.Rename.Total() == 0 && plan.Rename.AlreadyPrefixed > 0:
		// A rerun over prefixed code cannot recover the original names.
		r.logger.Info("sources already prefixed, keeping existing aliases", "path", gen.Path())
	default:
		if result.Aliases, err = gen.Write(plan.Registry); err != nil {
			return result, fmt.Errorf("%w: %v", ErrWriteFailure, err)
		}
	}

	// Step 5: Composer metadata.
	if result.Repair, err = repair.New(r.fs, vendorDir, targetDir, r.logger).Repair(plan.Registry, plan.Disposition.Processed); err != nil {
		return result, fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}

	// Step 6: lint the generated file.
	if r.deps.Lint && cfg.IncludeAliases {
		if err := r.lint(ctx, gen.Path(), result); err != nil {
			return result, err
		}
	}

	// Step 7: commit.
	if repo != nil && !r.fs.IsDryRun() {
		summary := gitpkg.Summary{
			Packages: plan.Disposition.Processed,
			Files:    result.Copy.Copied,
			Renamed:  plan.Rename.Total(),
		}
		if result.Committed, err = repo.Commit([]string{vendorDir, targetDir}, summary); err != nil {
			return result, fmt.Errorf("committing: %w", err)
		}
	}

	r.logger.Info("run complete",
		"packages", len(plan.Disposition.Processed),
		"copied", result.Copy.Copied,
		"rewritten", result.Rewrite.Changed,
		"renamed", plan.Rename.Total(),
		"dry_run", r.fs.IsDryRun())
	return result, nil
}

// openRepo applies the clean-worktree guard. It returns nil when git is
// disabled, not requested, or the project is not in a repository.
func (r *Runner) openRepo() (*gitpkg.Repo, error) {
	if r.deps.NoGit || (!r.deps.RequireClean && !r.deps.Commit) {
		return nil, nil
	}
	repo, err := gitpkg.Open(gitpkg.Config{
		WorkDir:      r.deps.Config.ProjectDir,
		RequireClean: r.deps.RequireClean,
		Commit:       r.deps.Commit,
	})
	if errors.Is(err, gitpkg.ErrNoGit) {
		if r.deps.RequireClean {
			return nil, err
		}
		r.logger.Warn("project is not a git repository, not committing", "dir", r.deps.Config.ProjectDir)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := repo.CheckClean(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *Runner) lint(ctx context.Context, path string, result *RunResult) error {
	if r.fs.IsDryRun() {
		r.logger.Info("dry run, skipping lint")
		return nil
	}
	if !r.fs.FileExists(path) {
		return nil
	}
	res, err := lint.Lint(ctx, lint.Config{Binary: r.deps.PHPBinary}, path)
	if err != nil {
		return err
	}
	result.Lint = res
	if res.Skipped {
		r.logger.Warn("php not found, skipping lint")
		return nil
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}
	r.logger.Info("lint passed", "files", res.Checked)
	return nil
}
