// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package scoper

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

const projectDir = "/app"

var projectArchive = []byte(`-- composer.json --
{
    "name": "acme/plugin",
    "require": {"psr/log": "^3.0"}
}
-- vendor/composer/installed.json --
{
    "packages": [
        {
            "name": "psr/log",
            "autoload": {"psr-4": {"Psr\\Log\\": "src/"}},
            "install-path": "../psr/log"
        }
    ]
}
-- vendor/psr/log/src/LoggerInterface.php --
<?php
namespace Psr\Log;
interface LoggerInterface {}
-- vendor/psr/log/src/functions.php --
<?php
class Legacy_Logger {}
`)

func memProject(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range txtar.Parse(projectArchive).Files {
		path := filepath.Join(projectDir, f.Name)
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, afero.WriteFile(fs, path, f.Data, 0o644))
	}
	return fs
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing project dir", Config{}},
		{"project dir absent", Config{ProjectDir: "/nope"}},
		{"no git with commit", Config{ProjectDir: projectDir, NoGit: true, Commit: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newScoper(tt.cfg, memProject(t))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNew_MissingComposerJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(projectDir, 0o755))

	_, err := newScoper(Config{ProjectDir: projectDir}, fs)
	require.Error(t, err)
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	applyDefaults(&cfg)
	assert.Equal(t, "php", cfg.PHPBinary)
	assert.NotNil(t, cfg.Logger)
}

func TestOverrides(t *testing.T) {
	v := overrides(Config{NamespacePrefix: `My\Ns`, NoAliases: true, Packages: []string{"a/b"}})
	assert.Equal(t, `My\Ns`, v.GetString("namespace_prefix"))
	assert.False(t, v.GetBool("include_aliases"))
	assert.Equal(t, []string{"a/b"}, v.GetStringSlice("packages"))
	assert.False(t, v.IsSet("classmap_prefix"))
	assert.False(t, v.IsSet("dry_run"))
}

func TestScoper_Symbols(t *testing.T) {
	s, err := newScoper(Config{ProjectDir: projectDir, NamespacePrefix: `Acme\Deps`}, memProject(t))
	require.NoError(t, err)

	syms, err := s.Symbols(context.Background())
	require.NoError(t, err)

	byName := map[string]Symbol{}
	for _, sym := range syms {
		byName[sym.Name] = sym
	}
	require.Contains(t, byName, `Psr\Log`)
	assert.Equal(t, "namespace", byName[`Psr\Log`].Kind)
	assert.Equal(t, `Acme\Deps\Psr\Log`, byName[`Psr\Log`].Replacement)
	assert.Equal(t, []string{"psr/log/src/LoggerInterface.php"}, byName[`Psr\Log\LoggerInterface`].Files)
	assert.Equal(t, "Acme_Plugin_Legacy_Logger", byName["Legacy_Logger"].Replacement)
}

func TestScoper_Run(t *testing.T) {
	fs := memProject(t)
	s, err := newScoper(Config{ProjectDir: projectDir, NoGit: true}, fs)
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"psr/log"}, res.Packages)
	assert.Equal(t, 2, res.CopiedFiles)
	assert.Equal(t, 1, res.Renamed["namespace"])
	assert.True(t, res.AliasesWritten)
	assert.False(t, res.DryRun)

	data, err := afero.ReadFile(fs, projectDir+"/vendor-prefixed/psr/log/src/LoggerInterface.php")
	require.NoError(t, err)
	assert.Contains(t, string(data), `namespace Acme\Plugin\Psr\Log;`)
}

func TestScoper_RunDryRun(t *testing.T) {
	fs := memProject(t)
	s, err := newScoper(Config{ProjectDir: projectDir, DryRun: true}, fs)
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Equal(t, 2, res.CopiedFiles)

	exists, err := afero.DirExists(fs, projectDir+"/vendor-prefixed")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestScoper_RunScanFailure(t *testing.T) {
	fs := memProject(t)
	require.NoError(t, fs.Remove(projectDir+"/vendor/composer/installed.json"))
	s, err := newScoper(Config{ProjectDir: projectDir, NoGit: true}, fs)
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.ErrorIs(t, err, ErrScanFailure)
	assert.NotNil(t, res)
}
