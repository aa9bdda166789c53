// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package fsys

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff returns a unified-style patch describing how before becomes after,
// or "" when they are equal. Dry runs log it in place of writing.
func Diff(before, after string) string {
	if before == after {
		return ""
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	patches := dmp.PatchMake(before, diffs)
	return dmp.PatchToText(patches)
}
