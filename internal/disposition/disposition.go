// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package disposition decides, per discovered file, whether it is copied
// to the target directory, whether its contents are prefixed, and whether
// the vendor original is deleted afterwards.
package disposition

import (
	"sort"

	"github.com/charmbracelet/log"

	"github.com/petar-djukic/go-scoper/internal/config"
	"github.com/petar-djukic/go-scoper/internal/logging"
	"github.com/petar-djukic/go-scoper/pkg/types"
)

// Options selects the exclusions and deletion policy.
type Options struct {
	ExcludeFromCopy      *config.Exclusion
	ExcludeFromPrefix    *config.Exclusion
	DeleteVendorFiles    bool
	DeleteVendorPackages bool
	// TargetIsVendor is set when packages are rewritten in place; nothing
	// is ever deleted then.
	TargetIsVendor bool
}

// Result summarizes the decisions.
type Result struct {
	Copied    int
	Prefixed  int
	Deleted   int
	Processed []string // packages with at least one copied file, sorted
	// Packages whose vendor directory is removed whole, sorted.
	DeletedPackages []string
}

// Apply sets DoCopy, DoPrefix and DoDelete on every file.
func Apply(files []*types.File, opts Options, logger *log.Logger) Result {
	logger = logging.OrDiscard(logger)
	copyEx := opts.ExcludeFromCopy
	if copyEx == nil {
		copyEx = &config.Exclusion{}
	}
	prefixEx := opts.ExcludeFromPrefix
	if prefixEx == nil {
		prefixEx = &config.Exclusion{}
	}

	var res Result
	allCopied := make(map[string]bool)
	anyCopied := make(map[string]bool)
	for _, f := range files {
		f.DoCopy = !excludedFromCopy(f, copyEx)
		f.DoPrefix = !prefixEx.HasPackage(f.PackageName) && !prefixEx.MatchesPath(f.RelativePath)

		if _, seen := allCopied[f.PackageName]; !seen {
			allCopied[f.PackageName] = true
		}
		if f.DoCopy {
			anyCopied[f.PackageName] = true
			res.Copied++
			if f.DoPrefix {
				res.Prefixed++
			}
		} else {
			allCopied[f.PackageName] = false
			logger.Debug("file excluded from copy", "file", f.RelativePath)
		}
	}

	for _, f := range files {
		f.DoDelete = false
		if opts.TargetIsVendor || !f.DoCopy {
			continue
		}
		if opts.DeleteVendorFiles || (opts.DeleteVendorPackages && allCopied[f.PackageName]) {
			f.DoDelete = true
			res.Deleted++
		}
	}

	for name := range anyCopied {
		res.Processed = append(res.Processed, name)
		if opts.DeleteVendorPackages && !opts.TargetIsVendor && allCopied[name] {
			res.DeletedPackages = append(res.DeletedPackages, name)
		}
	}
	sort.Strings(res.Processed)
	sort.Strings(res.DeletedPackages)
	return res
}

func excludedFromCopy(f *types.File, ex *config.Exclusion) bool {
	if ex.HasPackage(f.PackageName) || ex.MatchesPath(f.RelativePath) {
		return true
	}
	for _, ns := range f.Namespaces {
		if ns != types.RootNamespace && ex.HasNamespace(ns) {
			return true
		}
	}
	return false
}
