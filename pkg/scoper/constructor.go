// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package scoper

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/petar-djukic/go-scoper/internal/config"
	"github.com/petar-djukic/go-scoper/internal/fsys"
	"github.com/petar-djukic/go-scoper/internal/logging"
	internalscoper "github.com/petar-djukic/go-scoper/internal/scoper"
)

const defaultPHPBinary = "php"

// New validates the config, loads composer.json from ProjectDir and
// returns a ready-to-use Scoper. It does not read vendor; that happens in
// Run.
func New(cfg Config) (Scoper, error) {
	return newScoper(cfg, nil)
}

// newScoper builds a Scoper over base, or the OS when base is nil.
func newScoper(cfg Config, base afero.Fs) (Scoper, error) {
	if err := validateConfig(cfg, base); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	applyDefaults(&cfg)

	var fs *fsys.FileSystem
	switch {
	case base == nil && cfg.DryRun:
		fs = fsys.NewDryRun()
	case base == nil:
		fs = fsys.NewOS()
	case cfg.DryRun:
		fs = fsys.DryRunOver(base)
	default:
		fs = fsys.New(base)
	}

	loaded, err := config.Load(fs, cfg.ProjectDir, overrides(cfg))
	if err != nil {
		return nil, err
	}

	runner := internalscoper.NewRunner(internalscoper.Deps{
		Config:       loaded,
		FS:           fs,
		Logger:       cfg.Logger,
		NoGit:        cfg.NoGit,
		RequireClean: cfg.RequireClean,
		Commit:       cfg.Commit,
		Lint:         cfg.Lint,
		PHPBinary:    cfg.PHPBinary,
	})
	return &scoperAdapter{runner: runner}, nil
}

// overrides turns the set fields of cfg into viper overrides of the
// composer.json settings.
func overrides(cfg Config) *viper.Viper {
	v := viper.New()
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("target_directory", cfg.TargetDirectory)
	set("vendor_directory", cfg.VendorDirectory)
	set("namespace_prefix", cfg.NamespacePrefix)
	set("classmap_prefix", cfg.ClassmapPrefix)
	set("functions_prefix", cfg.FunctionsPrefix)
	set("constants_prefix", cfg.ConstantsPrefix)
	if len(cfg.Packages) > 0 {
		v.Set("packages", cfg.Packages)
	}
	if cfg.DeleteVendorFiles {
		v.Set("delete_vendor_files", true)
	}
	if cfg.DeleteVendorPackages {
		v.Set("delete_vendor_packages", true)
	}
	if cfg.NoAliases {
		v.Set("include_aliases", false)
	}
	if cfg.DryRun {
		v.Set("dry_run", true)
	}
	return v
}

// scoperAdapter adapts internal/scoper.Runner to the public Scoper
// interface.
type scoperAdapter struct {
	runner *internalscoper.Runner
}

func (a *scoperAdapter) Run(ctx context.Context) (*Result, error) {
	ir, err := a.runner.Run(ctx)
	if ir == nil || ir.Plan == nil {
		return &Result{}, err
	}
	res := &Result{
		Packages:        ir.Plan.Disposition.Processed,
		CopiedFiles:     ir.Copy.Copied,
		RewrittenFiles:  ir.Rewrite.Changed,
		DeletedFiles:    ir.Cleanup.DeletedFiles,
		DeletedPackages: ir.Cleanup.DeletedPackages,
		Renamed:         make(map[string]int),
		AliasesWritten:  ir.Aliases.Written,
		Relocated:       ir.Repair.Relocated,
		Stubs:           ir.Repair.Stubs,
		Committed:       ir.Committed,
		DryRun:          a.runner.DryRun(),
	}
	for kind, n := range ir.Plan.Rename.Renamed {
		res.Renamed[kind.String()] = n
	}
	if ir.Lint != nil {
		for _, e := range ir.Lint.Errors {
			res.LintErrors = append(res.LintErrors, e.String())
		}
	}
	return res, err
}

func (a *scoperAdapter) Symbols(ctx context.Context) ([]Symbol, error) {
	plan, err := a.runner.Plan(ctx)
	if err != nil {
		return nil, err
	}
	all := plan.Registry.All()
	out := make([]Symbol, 0, len(all))
	for _, sym := range all {
		s := Symbol{Kind: sym.Kind().String(), Name: sym.OriginalName()}
		if sym.IsRenamed() {
			s.Replacement = sym.ReplacementName()
		}
		for _, f := range sym.SourceFiles() {
			s.Files = append(s.Files, f.RelativePath)
		}
		out = append(out, s)
	}
	return out, nil
}

// validateConfig checks that required fields are present.
func validateConfig(cfg Config, base afero.Fs) error {
	if cfg.ProjectDir == "" {
		return fmt.Errorf("ProjectDir is required")
	}
	if base == nil {
		base = afero.NewOsFs()
	}
	if ok, err := afero.DirExists(base, cfg.ProjectDir); err != nil || !ok {
		return fmt.Errorf("ProjectDir %q does not exist or is not a directory", cfg.ProjectDir)
	}
	if cfg.NoGit && (cfg.RequireClean || cfg.Commit) {
		return fmt.Errorf("NoGit cannot be combined with RequireClean or Commit")
	}
	return nil
}

// applyDefaults fills in zero-value fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.PHPBinary == "" {
		cfg.PHPBinary = defaultPHPBinary
	}
	cfg.Logger = logging.OrDiscard(cfg.Logger)
}
