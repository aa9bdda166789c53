// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package scoper defines the public interface for go-scoper, which copies
// the Composer dependencies of a PHP project into a separate directory and
// prefixes every symbol they declare.
package scoper

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/petar-djukic/go-scoper/internal/config"
	internalscoper "github.com/petar-djukic/go-scoper/internal/scoper"
)

// Error types for the Scoper API. They match with errors.Is against the
// errors returned by Run and Symbols.
var (
	ErrInvalidConfig = config.ErrInvalidConfig
	ErrScanFailure   = internalscoper.ErrScanFailure
	ErrWriteFailure  = internalscoper.ErrWriteFailure
)

// Config configures a Scoper instance. Zero-value fields fall back to the
// extra.strauss settings in composer.json, then GO_SCOPER_* environment
// variables, then defaults.
type Config struct {
	ProjectDir      string // Directory holding composer.json (required)
	TargetDirectory string // Where prefixed copies go (default "vendor-prefixed")
	VendorDirectory string // Composer vendor directory (default "vendor")

	NamespacePrefix string // e.g. `Acme\Plugin\Vendor`
	ClassmapPrefix  string // e.g. "Acme_Plugin_"
	FunctionsPrefix string // default: lower-cased ClassmapPrefix
	ConstantsPrefix string // default: upper-cased ClassmapPrefix

	Packages []string // Root packages to process (default: composer.json require)

	DeleteVendorFiles    bool
	DeleteVendorPackages bool
	NoAliases            bool // Skip generating autoload_aliases.php
	DryRun               bool // Report changes without writing

	RequireClean bool   // Refuse to run on a dirty git worktree
	Commit       bool   // Commit the result to git
	NoGit        bool   // Disable git operations
	Lint         bool   // Run php -l over generated files
	PHPBinary    string // PHP binary for Lint (default "php")

	Logger *log.Logger // nil discards log output
}

// Result holds the outcome of a Scoper.Run invocation.
type Result struct {
	Packages        []string       `json:"packages" yaml:"packages"`
	CopiedFiles     int            `json:"copied_files" yaml:"copied_files"`
	RewrittenFiles  int            `json:"rewritten_files" yaml:"rewritten_files"`
	DeletedFiles    int            `json:"deleted_files" yaml:"deleted_files"`
	DeletedPackages int            `json:"deleted_packages" yaml:"deleted_packages"`
	Renamed         map[string]int `json:"renamed" yaml:"renamed"` // per symbol kind
	AliasesWritten  bool           `json:"aliases_written" yaml:"aliases_written"`
	Relocated       int            `json:"relocated_packages" yaml:"relocated_packages"`
	Stubs           int            `json:"stubs" yaml:"stubs"`
	LintErrors      []string       `json:"lint_errors,omitempty" yaml:"lint_errors,omitempty"`
	Committed       bool           `json:"committed" yaml:"committed"`
	DryRun          bool           `json:"dry_run" yaml:"dry_run"`
}

// Symbol describes one discovered symbol and the name it is given.
type Symbol struct {
	Kind        string   `json:"kind" yaml:"kind"`
	Name        string   `json:"name" yaml:"name"`
	Replacement string   `json:"replacement,omitempty" yaml:"replacement,omitempty"` // empty when not renamed
	Files       []string `json:"files" yaml:"files"`
}

// Scoper prefixes the dependencies of one project.
type Scoper interface {
	// Run executes the full pipeline: enumerate packages, discover
	// symbols, decide replacement names, copy and rewrite files, clean up
	// vendor, generate aliases and repair Composer metadata.
	Run(ctx context.Context) (*Result, error)

	// Symbols runs discovery and renaming decisions only and returns every
	// symbol found. Nothing is written.
	Symbols(ctx context.Context) ([]Symbol, error)
}
