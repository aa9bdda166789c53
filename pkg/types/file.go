// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

// AutoloadKind names the Composer autoload section a file was found through.
type AutoloadKind string

const (
	AutoloadPSR4     AutoloadKind = "psr-4"
	AutoloadPSR0     AutoloadKind = "psr-0"
	AutoloadClassmap AutoloadKind = "classmap"
	AutoloadFiles    AutoloadKind = "files"
)

// File is a dependency source file discovered in the vendor directory.
// Symbols keep pointers to the files they were found in; the file does not
// know about its symbols.
type File struct {
	PackageName  string       // Composer package name, e.g. "psr/log"
	SourcePath   string       // Absolute path inside the vendor directory
	RelativePath string       // Path relative to the target directory, e.g. "psr/log/src/LoggerInterface.php"
	Autoloader   AutoloadKind // Autoload section the file was listed under
	Namespaces   []string     // Namespaces declared in the file, filled in by the scanner

	DoCopy   bool // Copy the file to the target directory
	DoPrefix bool // Rewrite renamed symbols in the copy
	DoDelete bool // Delete the vendor original after copying
}

// AddNamespace records a namespace declared in the file once.
func (f *File) AddNamespace(ns string) {
	for _, existing := range f.Namespaces {
		if existing == ns {
			return
		}
	}
	f.Namespaces = append(f.Namespaces, ns)
}
