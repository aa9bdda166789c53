// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package composer

import (
	"errors"
	"fmt"
	"sort"
)

// ErrPackageNotInstalled is returned when a requested package has no
// installed.json entry.
var ErrPackageNotInstalled = errors.New("package not installed")

// Resolve returns the named packages and everything they require,
// breadth first from roots. Platform requirements are ignored; a
// requirement that is not installed is skipped, but a missing root is an
// error.
func Resolve(in *Installed, roots []string) ([]*Package, error) {
	seen := make(map[string]bool)
	var queue []*Package
	for _, name := range roots {
		pkg := in.Package(name)
		if pkg == nil {
			return nil, fmt.Errorf("%w: %s", ErrPackageNotInstalled, name)
		}
		if seen[pkg.Name()] {
			continue
		}
		seen[pkg.Name()] = true
		queue = append(queue, pkg)
	}

	var result []*Package
	for len(queue) > 0 {
		pkg := queue[0]
		queue = queue[1:]
		result = append(result, pkg)

		requires, err := pkg.Requires()
		if err != nil {
			return nil, fmt.Errorf("reading requirements of %s: %w", pkg.Name(), err)
		}
		sort.Strings(requires)
		for _, name := range requires {
			if IsPlatformPackage(name) {
				continue
			}
			dep := in.Package(name)
			if dep == nil || seen[dep.Name()] {
				continue
			}
			seen[dep.Name()] = true
			queue = append(queue, dep)
		}
	}
	return result, nil
}
