// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package scoper

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/petar-djukic/go-scoper/internal/composer"
	"github.com/petar-djukic/go-scoper/internal/config"
	"github.com/petar-djukic/go-scoper/internal/fsys"
)

const (
	root   = "/project"
	vendor = root + "/vendor"
	target = root + "/vendor-prefixed"
)

func project(t *testing.T) afero.Fs {
	t.Helper()
	ar, err := txtar.ParseFile(filepath.Join("testdata", "project.txtar"))
	require.NoError(t, err)
	base := afero.NewMemMapFs()
	fs := fsys.New(base)
	for _, f := range ar.Files {
		require.NoError(t, fs.Write(filepath.Join(root, f.Name), f.Data))
	}
	return base
}

func loadConfig(t *testing.T, fs *fsys.FileSystem, flags *viper.Viper) *config.Config {
	t.Helper()
	cfg, err := config.Load(fs, root, flags)
	require.NoError(t, err)
	return cfg
}

func run(t *testing.T, fs *fsys.FileSystem) *RunResult {
	t.Helper()
	res, err := NewRunner(Deps{Config: loadConfig(t, fs, nil), FS: fs, NoGit: true}).Run(context.Background())
	require.NoError(t, err)
	return res
}

func read(t *testing.T, fs *fsys.FileSystem, path string) string {
	t.Helper()
	data, err := fs.Read(path)
	require.NoError(t, err)
	return string(data)
}

func TestPlan_ResolvesClosureAndDecides(t *testing.T) {
	fs := fsys.New(project(t))

	plan, err := NewRunner(Deps{Config: loadConfig(t, fs, nil), FS: fs}).Plan(context.Background())
	require.NoError(t, err)

	var names []string
	for _, p := range plan.Packages {
		names = append(names, p.Name())
	}
	assert.ElementsMatch(t, []string{"league/container", "psr/container", "acme/functions"}, names)
	assert.Len(t, plan.Files, 3)
	assert.True(t, plan.Registry.Sealed())

	ns := plan.Registry.Namespace(`League\Container`)
	require.NotNil(t, ns)
	assert.Equal(t, `Acme\Plugin\Vendor\League\Container`, ns.ReplacementName())
	assert.Greater(t, plan.Rename.Total(), 0)
	assert.Zero(t, plan.Rename.AlreadyPrefixed)

	assert.False(t, fs.DirectoryExists(target), "planning writes nothing")
}

func TestRun_EndToEnd(t *testing.T) {
	fs := fsys.New(project(t))

	res := run(t, fs)
	assert.Equal(t, 3, res.Copy.Copied)
	assert.Equal(t, 3, res.Cleanup.DeletedPackages)

	container := read(t, fs, target+"/league/container/src/Container.php")
	assert.Contains(t, container, `namespace Acme\Plugin\Vendor\League\Container;`)
	assert.Contains(t, container, `use Acme\Plugin\Vendor\Psr\Container\ContainerInterface;`)
	assert.Contains(t, container, `\acme_plugin_acme_helper($id)`)
	assert.Contains(t, container, `ACME_PLUGIN_ACME_VERSION !== ''`)

	functions := read(t, fs, target+"/acme/functions/functions.php")
	assert.Contains(t, functions, `function_exists('acme_plugin_acme_helper')`)
	assert.Contains(t, functions, `define('ACME_PLUGIN_ACME_VERSION', '1.0');`)
	assert.Contains(t, functions, `class Acme_Plugin_Acme_Registry {}`)

	iface := read(t, fs, target+"/psr/container/src/ContainerInterface.php")
	assert.Contains(t, iface, `namespace Acme\Plugin\Vendor\Psr\Container;`)

	assert.False(t, fs.DirectoryExists(vendor+"/league"), "fully copied packages are removed from vendor")
	assert.False(t, fs.DirectoryExists(vendor+"/psr"))

	aliasFile := read(t, fs, vendor+"/composer/autoload_aliases.php")
	assert.Contains(t, aliasFile, `'League\\Container\\Container' => array(`)
	assert.Contains(t, aliasFile, `'Acme_Registry' => array(`)
	assert.Contains(t, aliasFile, "function acme_helper(...$args)")
	assert.Contains(t, aliasFile, `define('ACME_VERSION', \constant('ACME_PLUGIN_ACME_VERSION'));`)
	assert.Contains(t, read(t, fs, vendor+"/autoload.php"), "/composer/autoload_aliases.php")

	in, err := composer.ParseInstalled([]byte(read(t, fs, vendor+"/composer/installed.json")))
	require.NoError(t, err)
	pkg := in.Package("league/container")
	require.NotNil(t, pkg)
	assert.Equal(t, "../../vendor-prefixed/league/container", pkg.InstallPath())
	al, err := pkg.Autoload()
	require.NoError(t, err)
	require.Len(t, al.PSR4, 1)
	assert.Equal(t, `Acme\Plugin\Vendor\League\Container\`, al.PSR4[0].Namespace)

	files := read(t, fs, vendor+"/composer/autoload_files.php")
	assert.Contains(t, files, `$vendorDir . '/../vendor-prefixed/acme/functions/functions.php'`)
	assert.NotContains(t, read(t, fs, vendor+"/composer/autoload_static.php"), `'/acme/functions/functions.php'`)
	assert.Equal(t, "<?php\n", read(t, fs, vendor+"/acme/functions/functions.php"), "stub keeps the old path loadable")
}

func TestRun_RerunIsStable(t *testing.T) {
	fs := fsys.New(project(t))
	run(t, fs)

	snapshot := map[string]string{}
	paths := []string{
		vendor + "/composer/autoload_aliases.php",
		vendor + "/composer/installed.json",
		vendor + "/composer/autoload_files.php",
		vendor + "/composer/autoload_static.php",
		vendor + "/autoload.php",
		target + "/league/container/src/Container.php",
		target + "/acme/functions/functions.php",
	}
	for _, p := range paths {
		snapshot[p] = read(t, fs, p)
	}

	res := run(t, fs)
	assert.Zero(t, res.Plan.Rename.Total())
	assert.Greater(t, res.Plan.Rename.AlreadyPrefixed, 0)
	assert.Zero(t, res.Rewrite.Changed)
	for _, p := range paths {
		assert.Equal(t, snapshot[p], read(t, fs, p), p)
	}
}

func TestRun_DryRunLeavesDiskUntouched(t *testing.T) {
	base := project(t)
	fs := fsys.DryRunOver(base)
	cfg := loadConfig(t, fs, nil)
	cfg.DryRun = true

	res, err := NewRunner(Deps{Config: cfg, FS: fs, NoGit: true, Lint: true}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Copy.Copied)
	assert.Nil(t, res.Lint, "lint is skipped in a dry run")

	assert.True(t, fs.FileExists(target+"/league/container/src/Container.php"), "the overlay sees the copy")

	disk := fsys.New(base)
	assert.False(t, disk.DirectoryExists(target))
	assert.True(t, disk.FileExists(vendor+"/league/container/src/Container.php"))
	assert.False(t, disk.FileExists(vendor+"/composer/autoload_aliases.php"))
	assert.NotContains(t, read(t, disk, vendor+"/composer/installed.json"), "vendor-prefixed")
}

func TestRun_NoAliases(t *testing.T) {
	fs := fsys.New(project(t))
	flags := viper.New()
	flags.Set("include_aliases", false)

	res, err := NewRunner(Deps{Config: loadConfig(t, fs, flags), FS: fs, NoGit: true}).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Aliases.Written)
	assert.False(t, fs.FileExists(vendor+"/composer/autoload_aliases.php"))
	assert.NotContains(t, read(t, fs, vendor+"/autoload.php"), "autoload_aliases")
}

func TestRun_InPlace(t *testing.T) {
	fs := fsys.New(project(t))
	flags := viper.New()
	flags.Set("target_directory", "vendor")

	res, err := NewRunner(Deps{Config: loadConfig(t, fs, flags), FS: fs, NoGit: true}).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Copy.Copied)
	assert.Zero(t, res.Cleanup.DeletedPackages, "vendor is never deleted when it is the target")

	container := read(t, fs, vendor+"/league/container/src/Container.php")
	assert.Contains(t, container, `namespace Acme\Plugin\Vendor\League\Container;`)

	in, err := composer.ParseInstalled([]byte(read(t, fs, vendor+"/composer/installed.json")))
	require.NoError(t, err)
	assert.Equal(t, "../league/container", in.Package("league/container").InstallPath())
}

func TestRun_MissingManifest(t *testing.T) {
	base := project(t)
	fs := fsys.New(base)
	cfg := loadConfig(t, fs, nil)
	require.NoError(t, fs.Remove(vendor+"/composer/installed.json"))

	_, err := NewRunner(Deps{Config: cfg, FS: fs, NoGit: true}).Run(context.Background())
	require.ErrorIs(t, err, ErrScanFailure)
	assert.False(t, fs.DirectoryExists(target))
}

func TestRun_UnknownPackage(t *testing.T) {
	fs := fsys.New(project(t))
	flags := viper.New()
	flags.Set("packages", []string{"nope/missing"})

	_, err := NewRunner(Deps{Config: loadConfig(t, fs, flags), FS: fs, NoGit: true}).Run(context.Background())
	require.ErrorIs(t, err, ErrScanFailure)
}

func TestRun_NoConfig(t *testing.T) {
	_, err := NewRunner(Deps{FS: fsys.New(afero.NewMemMapFs())}).Run(context.Background())
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRun_Cancelled(t *testing.T) {
	fs := fsys.New(project(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(Deps{Config: loadConfig(t, fs, nil), FS: fs, NoGit: true}).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
