// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package logging builds the structured logger every pipeline stage writes
// to.
package logging

import (
	"io"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w. Verbose enables debug output; silent
// drops everything below errors and wins over verbose.
func New(w io.Writer, verbose, silent bool) *log.Logger {
	level := log.InfoLevel
	switch {
	case silent:
		level = log.ErrorLevel
	case verbose:
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: "go-scoper",
		Level:  level,
	})
}

// Discard returns a logger that writes nowhere.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
