// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package git

import (
	"fmt"
	"strings"
)

const maxSubjectLength = 72

// Summary is what a run did, for the commit message.
type Summary struct {
	Packages []string // processed packages
	Files    int      // files copied
	Renamed  int      // symbols renamed
}

// GenerateMessage creates a conventional commit message for a run.
func GenerateMessage(s Summary) string {
	msg := buildSubject(s)
	if body := buildBody(s); body != "" {
		msg += "\n\n" + body
	}
	return msg + "\n\n" + generatedTrailer
}

// buildSubject creates the first line of the commit message.
// Format: "build: summary" (max 72 chars).
func buildSubject(s Summary) string {
	var summary string
	switch len(s.Packages) {
	case 0:
		summary = "prefix dependencies"
	case 1:
		summary = "prefix " + s.Packages[0]
	default:
		summary = fmt.Sprintf("prefix %d dependencies", len(s.Packages))
	}
	subject := "build: " + summary
	if len(subject) > maxSubjectLength {
		subject = subject[:maxSubjectLength-3] + "..."
	}
	return subject
}

// buildBody lists the packages and counts.
func buildBody(s Summary) string {
	if len(s.Packages) == 0 && s.Files == 0 && s.Renamed == 0 {
		return ""
	}
	var buf strings.Builder
	fmt.Fprintf(&buf, "Copied %d files, renamed %d symbols.\n", s.Files, s.Renamed)
	if len(s.Packages) > 0 {
		buf.WriteString("\nPackages:\n")
		for _, p := range s.Packages {
			fmt.Fprintf(&buf, "- %s\n", p)
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}
