// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package composer reads and rewrites the Composer files go-scoper works
// with: the project's composer.json and vendor/composer/installed.json.
package composer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrUnsupportedManifest is returned for installed.json content that is
// neither the Composer 1 array nor the Composer 2 object layout.
var ErrUnsupportedManifest = errors.New("unsupported installed.json layout")

// Installed is a parsed vendor/composer/installed.json. Composer 2 writes
// an object with a "packages" list; Composer 1 writes the list directly.
type Installed struct {
	root     *OrderedObject // nil for the Composer 1 layout
	packages []*Package
}

// Package is one entry of installed.json. Reads and writes go through the
// underlying ordered object so unknown fields are preserved.
type Package struct {
	obj  *OrderedObject
	name string
}

// Mapping is one namespace-to-directories entry of a PSR-4 or PSR-0
// autoload section.
type Mapping struct {
	Namespace string
	Paths     []string
}

// Autoload is the decoded autoload section of a package.
type Autoload struct {
	PSR4     []Mapping
	PSR0     []Mapping
	Classmap []string
	Files    []string
}

// ParseInstalled decodes installed.json.
func ParseInstalled(data []byte) (*Installed, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrUnsupportedManifest)
	}

	inst := &Installed{}
	var rawPackages []json.RawMessage

	switch trimmed[0] {
	case '{':
		root := NewOrderedObject()
		if err := json.Unmarshal(trimmed, root); err != nil {
			return nil, fmt.Errorf("parsing installed.json: %w", err)
		}
		if _, err := root.Get("packages", &rawPackages); err != nil {
			return nil, fmt.Errorf("parsing installed.json: %w", err)
		}
		inst.root = root
	case '[':
		if err := json.Unmarshal(trimmed, &rawPackages); err != nil {
			return nil, fmt.Errorf("parsing installed.json: %w", err)
		}
	default:
		return nil, ErrUnsupportedManifest
	}

	for i, raw := range rawPackages {
		obj := NewOrderedObject()
		if err := json.Unmarshal(raw, obj); err != nil {
			return nil, fmt.Errorf("parsing package %d: %w", i, err)
		}
		var name string
		if _, err := obj.Get("name", &name); err != nil {
			return nil, fmt.Errorf("parsing package %d: %w", i, err)
		}
		inst.packages = append(inst.packages, &Package{obj: obj, name: name})
	}
	return inst, nil
}

// Packages returns the entries in document order.
func (in *Installed) Packages() []*Package {
	result := make([]*Package, len(in.packages))
	copy(result, in.packages)
	return result
}

// Package returns the entry with the given name, or nil.
func (in *Installed) Package(name string) *Package {
	for _, p := range in.packages {
		if strings.EqualFold(p.name, name) {
			return p
		}
	}
	return nil
}

// Marshal renders the manifest in Composer's layout.
func (in *Installed) Marshal() ([]byte, error) {
	objs := make([]*OrderedObject, len(in.packages))
	for i, p := range in.packages {
		objs[i] = p.obj
	}
	if in.root == nil {
		return Pretty(objs)
	}
	if err := in.root.Set("packages", objs); err != nil {
		return nil, err
	}
	return Pretty(in.root)
}

// Name returns the package name.
func (p *Package) Name() string { return p.name }

// InstallPath returns the install path relative to vendor/composer.
// Composer 1 entries have none; the conventional "../<name>" is returned.
func (p *Package) InstallPath() string {
	var ip string
	if ok, err := p.obj.Get("install-path", &ip); !ok || err != nil || ip == "" {
		return "../" + p.name
	}
	return ip
}

// SetInstallPath records a new install path.
func (p *Package) SetInstallPath(ip string) error {
	return p.obj.Set("install-path", path.Clean(ip))
}

// Requires returns the names of the packages listed under "require", in
// document order.
func (p *Package) Requires() ([]string, error) {
	req, err := p.obj.Object("require")
	if err != nil || req == nil {
		return nil, err
	}
	return req.Keys(), nil
}

// Autoload decodes the autoload section.
func (p *Package) Autoload() (Autoload, error) {
	var al Autoload
	section, err := p.obj.Object("autoload")
	if err != nil || section == nil {
		return al, err
	}
	if al.PSR4, err = decodeMappings(section, "psr-4"); err != nil {
		return al, err
	}
	if al.PSR0, err = decodeMappings(section, "psr-0"); err != nil {
		return al, err
	}
	if _, err := section.Get("classmap", &al.Classmap); err != nil {
		return al, err
	}
	if _, err := section.Get("files", &al.Files); err != nil {
		return al, err
	}
	return al, nil
}

// RenamePSR4 rewrites the keys of the PSR-4 section. rename receives each
// namespace key and returns the new key and whether to change it. Mapped
// directories and key order are preserved. It returns the number of keys
// changed.
func (p *Package) RenamePSR4(rename func(key string) (string, bool)) (int, error) {
	section, err := p.obj.Object("autoload")
	if err != nil || section == nil {
		return 0, err
	}
	psr4, err := section.Object("psr-4")
	if err != nil || psr4 == nil {
		return 0, err
	}

	changed := 0
	for _, key := range psr4.Keys() {
		newKey, ok := rename(key)
		if !ok || newKey == key {
			continue
		}
		if psr4.RenameKey(key, newKey) {
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	if err := section.Set("psr-4", psr4); err != nil {
		return 0, err
	}
	if err := p.obj.Set("autoload", section); err != nil {
		return 0, err
	}
	return changed, nil
}

// decodeMappings reads a PSR section where each value is a directory or a
// list of directories.
func decodeMappings(section *OrderedObject, key string) ([]Mapping, error) {
	obj, err := section.Object(key)
	if err != nil || obj == nil {
		return nil, err
	}
	var result []Mapping
	for _, ns := range obj.Keys() {
		raw, _ := obj.Raw(ns)
		var paths []string
		var single string
		if err := json.Unmarshal(raw, &single); err == nil {
			paths = []string{single}
		} else if err := json.Unmarshal(raw, &paths); err != nil {
			return nil, fmt.Errorf("decoding %s mapping %q: %w", key, ns, err)
		}
		result = append(result, Mapping{Namespace: ns, Paths: paths})
	}
	return result, nil
}
