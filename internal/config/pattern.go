// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"regexp"
	"strings"
)

// Exclusion lists what a stage leaves alone.
type Exclusion struct {
	Packages     []string `mapstructure:"packages"`
	Namespaces   []string `mapstructure:"namespaces"`
	FilePatterns []string `mapstructure:"file_patterns"`

	patterns []*regexp.Regexp
}

// NewExclusion builds a compiled exclusion list.
func NewExclusion(packages, namespaces, filePatterns []string) (*Exclusion, error) {
	e := &Exclusion{
		Packages:     packages,
		Namespaces:   append([]string(nil), namespaces...),
		FilePatterns: filePatterns,
	}
	if err := e.compile(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Exclusion) compile() error {
	e.patterns = e.patterns[:0]
	for _, p := range e.FilePatterns {
		re, err := CompilePattern(p)
		if err != nil {
			return err
		}
		e.patterns = append(e.patterns, re)
	}
	for i, ns := range e.Namespaces {
		e.Namespaces[i] = strings.Trim(ns, `\`)
	}
	return nil
}

// HasPackage reports whether the package is excluded.
func (e *Exclusion) HasPackage(name string) bool {
	for _, p := range e.Packages {
		if strings.EqualFold(p, name) {
			return true
		}
	}
	return false
}

// HasNamespace reports whether ns or one of its parents is excluded.
func (e *Exclusion) HasNamespace(ns string) bool {
	ns = strings.Trim(ns, `\`)
	for _, ex := range e.Namespaces {
		ex = strings.Trim(ex, `\`)
		if ex == "" {
			continue
		}
		if strings.EqualFold(ns, ex) || strings.HasPrefix(strings.ToLower(ns), strings.ToLower(ex)+`\`) {
			return true
		}
	}
	return false
}

// MatchesPath reports whether a target-relative path matches any file
// pattern. The first match wins.
func (e *Exclusion) MatchesPath(rel string) bool {
	for _, re := range e.patterns {
		if re.MatchString(rel) {
			return true
		}
	}
	return false
}

// delimiters are the PCRE delimiters recognised around a pattern. Bracket
// pairs are not accepted because they are ambiguous with grouping.
const delimiters = "/~#%@!|"

// CompilePattern compiles a pattern written for PHP's preg functions.
// Surrounding delimiters are removed and the i, m, s and U modifiers are
// translated; a pattern without delimiters is compiled as is.
func CompilePattern(expr string) (*regexp.Regexp, error) {
	body, flags := stripDelimiters(expr)
	var goFlags string
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's', 'U':
			goFlags += string(f)
		case 'u', 'D':
			// UTF-8 is implied and $ already means end of text.
		default:
			return nil, fmt.Errorf("pattern %q: unsupported modifier %q", expr, f)
		}
	}
	if goFlags != "" {
		body = "(?" + goFlags + ")" + body
	}
	re, err := regexp.Compile(body)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", expr, err)
	}
	return re, nil
}

func stripDelimiters(expr string) (body, flags string) {
	if len(expr) < 2 {
		return expr, ""
	}
	delim := expr[0]
	if strings.IndexByte(delimiters, delim) < 0 {
		return expr, ""
	}
	end := strings.LastIndexByte(expr, delim)
	if end <= 0 {
		return expr, ""
	}
	tail := expr[end+1:]
	for _, r := range tail {
		if !strings.ContainsRune("imsxuUD", r) {
			return expr, ""
		}
	}
	return expr[1:end], tail
}

var (
	backrefDollar    = regexp.MustCompile(`\$(\d+)`)
	backrefBackslash = regexp.MustCompile(`\\(\d+)`)
)

// ConvertTemplate rewrites preg_replace back-references ($1, ${1}, \1) into
// the ${1} form regexp.Expand understands, so a following letter or
// separator is never read as part of the group name.
func ConvertTemplate(tpl string) string {
	tpl = backrefDollar.ReplaceAllString(tpl, `$${$1}`)
	return backrefBackslash.ReplaceAllString(tpl, `$${$1}`)
}
