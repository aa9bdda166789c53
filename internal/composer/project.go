// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package composer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Project is the subset of the project's composer.json go-scoper reads.
type Project struct {
	Name    string
	Require []string // required package names, sorted, platform packages removed

	extra *OrderedObject
}

// ReplacementPattern is one entry of namespace_replacement_patterns in the
// order it appears in composer.json.
type ReplacementPattern struct {
	Pattern  string
	Template string
}

// ParseProject decodes composer.json.
func ParseProject(data []byte) (*Project, error) {
	root := NewOrderedObject()
	if err := json.Unmarshal(data, root); err != nil {
		return nil, fmt.Errorf("parsing composer.json: %w", err)
	}

	p := &Project{}
	if _, err := root.Get("name", &p.Name); err != nil {
		return nil, err
	}

	req, err := root.Object("require")
	if err != nil {
		return nil, err
	}
	if req != nil {
		for _, name := range req.Keys() {
			if IsPlatformPackage(name) {
				continue
			}
			p.Require = append(p.Require, name)
		}
		sort.Strings(p.Require)
	}

	if p.extra, err = root.Object("extra"); err != nil {
		return nil, err
	}
	return p, nil
}

// ReplacementPatterns returns extra.strauss.namespace_replacement_patterns
// in document order, highest priority first.
func (p *Project) ReplacementPatterns() ([]ReplacementPattern, error) {
	if p.extra == nil {
		return nil, nil
	}
	strauss, err := p.extra.Object("strauss")
	if err != nil || strauss == nil {
		return nil, err
	}
	patterns, err := strauss.Object("namespace_replacement_patterns")
	if err != nil || patterns == nil {
		return nil, err
	}

	var result []ReplacementPattern
	for _, key := range patterns.Keys() {
		var tpl string
		if _, err := patterns.Get(key, &tpl); err != nil {
			return nil, fmt.Errorf("namespace_replacement_patterns: %w", err)
		}
		result = append(result, ReplacementPattern{Pattern: key, Template: tpl})
	}
	return result, nil
}

// IsPlatformPackage reports whether name refers to PHP itself, an
// extension, a system library or the Composer runtime rather than an
// installable package.
func IsPlatformPackage(name string) bool {
	n := strings.ToLower(name)
	if n == "php" || n == "hhvm" || n == "composer" || strings.HasPrefix(n, "php-") {
		return true
	}
	for _, prefix := range []string{"ext-", "lib-", "composer-"} {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return !strings.Contains(n, "/")
}
