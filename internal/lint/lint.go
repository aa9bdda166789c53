// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package lint syntax-checks generated PHP with `php -l` when a PHP binary
// is available.
package lint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBinary  = "php"
	defaultTimeout = 30 * time.Second
)

// ErrLintFailed is returned when at least one file has a syntax error.
var ErrLintFailed = errors.New("php lint failed")

// SyntaxError is one error reported by php -l.
type SyntaxError struct {
	FilePath string
	Line     int
	Message  string
}

func (e SyntaxError) String() string {
	return fmt.Sprintf("%s:%d: %s", e.FilePath, e.Line, e.Message)
}

// Result holds the outcome of linting a set of files.
type Result struct {
	Skipped bool // no PHP binary found
	Checked int
	Errors  []SyntaxError
	Output  string // combined output of failing runs
}

// OK reports whether every checked file passed.
func (r *Result) OK() bool { return len(r.Errors) == 0 && r.Output == "" }

// Err returns ErrLintFailed wrapped with the first error, or nil.
func (r *Result) Err() error {
	if r.OK() {
		return nil
	}
	if len(r.Errors) > 0 {
		return fmt.Errorf("%w: %s", ErrLintFailed, r.Errors[0])
	}
	return fmt.Errorf("%w: %s", ErrLintFailed, strings.TrimSpace(r.Output))
}

// Config configures the linter.
type Config struct {
	Binary  string        // PHP executable (default "php")
	Timeout time.Duration // Per-file timeout (default 30s)
}

// Lint runs php -l on every file in turn. A missing PHP binary is not an
// error: the result is marked Skipped.
func Lint(ctx context.Context, cfg Config, files ...string) (*Result, error) {
	binary := cfg.Binary
	if binary == "" {
		binary = defaultBinary
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	result := &Result{}
	path, err := exec.LookPath(binary)
	if err != nil {
		result.Skipped = true
		return result, nil
	}

	for _, f := range files {
		out, runErr := runCommand(ctx, timeout, path, "-l", f)
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.Checked++
		if runErr == nil {
			continue
		}
		parsed := parseSyntaxErrors(out)
		if len(parsed) == 0 {
			result.Output += out
			continue
		}
		result.Errors = append(result.Errors, parsed...)
	}
	return result, nil
}

// runCommand executes a command with a timeout and captures combined output.
func runCommand(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, name, args...)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	return buf.String(), err
}

// phpErrorRegex matches php -l error lines:
// PHP Parse error:  syntax error, unexpected '}' in /tmp/a.php on line 3
// Parse error: syntax error, unexpected end of file in a.php on line 9
var phpErrorRegex = regexp.MustCompile(`^(?:PHP )?(?:Parse|Fatal) error:\s+(.+) in (.+?) on line (\d+)$`)

// parseSyntaxErrors extracts SyntaxError values from php -l output. PHP
// prints each error twice (log and display); duplicates are dropped.
func parseSyntaxErrors(output string) []SyntaxError {
	var errs []SyntaxError
	seen := make(map[SyntaxError]bool)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		matches := phpErrorRegex.FindStringSubmatch(line)
		if matches == nil {
			continue
		}

		lineNum, _ := strconv.Atoi(matches[3])
		e := SyntaxError{
			FilePath: matches[2],
			Line:     lineNum,
			Message:  matches[1],
		}
		if seen[e] {
			continue
		}
		seen[e] = true
		errs = append(errs, e)
	}
	return errs
}
