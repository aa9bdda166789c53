// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repair

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/petar-djukic/go-scoper/internal/composer"
	"github.com/petar-djukic/go-scoper/internal/fsys"
	"github.com/petar-djukic/go-scoper/internal/symbols"
	"github.com/petar-djukic/go-scoper/pkg/types"
)

const (
	root   = "/project"
	vendor = root + "/vendor"
	target = root + "/vendor-prefixed"
)

var processed = []string{"acme/helpers", "psr/log"}

func load(t *testing.T, base afero.Fs) {
	t.Helper()
	ar, err := txtar.ParseFile(filepath.Join("testdata", "composer.txtar"))
	require.NoError(t, err)
	fs := fsys.New(base)
	for _, f := range ar.Files {
		require.NoError(t, fs.Write(filepath.Join(root, f.Name), f.Data))
	}
}

func fixture(t *testing.T) *fsys.FileSystem {
	t.Helper()
	base := afero.NewMemMapFs()
	load(t, base)
	return fsys.New(base)
}

func renamedRegistry(t *testing.T) *symbols.Registry {
	t.Helper()
	reg := symbols.NewRegistry()
	for name, to := range map[string]string{
		`Psr\Log`:       `Prefix\Psr\Log`,
		`Psr\Container`: `Prefix\Psr\Container`,
	} {
		sym, err := reg.Add(symbols.New(types.Namespace, name, nil))
		require.NoError(t, err)
		require.NoError(t, reg.Rename(sym, to))
	}
	reg.Seal()
	return reg
}

func readInstalled(t *testing.T, fs *fsys.FileSystem) *composer.Installed {
	t.Helper()
	data, err := fs.Read(vendor + "/composer/installed.json")
	require.NoError(t, err)
	in, err := composer.ParseInstalled(data)
	require.NoError(t, err)
	return in
}

func TestRepair_ManifestRelocatesAndRenamesKeys(t *testing.T) {
	fs := fixture(t)

	stats, err := New(fs, vendor, target, nil).Repair(renamedRegistry(t), processed)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Relocated)
	assert.Equal(t, 1, stats.KeysRenamed)

	in := readInstalled(t, fs)
	log := in.Package("psr/log")
	assert.Equal(t, "../../vendor-prefixed/psr/log", log.InstallPath())
	al, err := log.Autoload()
	require.NoError(t, err)
	require.Len(t, al.PSR4, 1, "mapping count preserved")
	assert.Equal(t, `Prefix\Psr\Log\`, al.PSR4[0].Namespace)
	assert.Equal(t, []string{"src"}, al.PSR4[0].Paths)

	assert.Equal(t, "../../vendor-prefixed/acme/helpers", in.Package("acme/helpers").InstallPath())

	container := in.Package("psr/container")
	assert.Equal(t, "../psr/container", container.InstallPath(), "unprocessed package untouched")
	al, err = container.Autoload()
	require.NoError(t, err)
	assert.Equal(t, `Psr\Container\`, al.PSR4[0].Namespace)
}

func TestRepair_ExistingInstallDirKeepsKeys(t *testing.T) {
	fs := fixture(t)
	require.NoError(t, fs.Write(vendor+"/psr/log/src/LoggerInterface.php", []byte("<?php")))

	stats, err := New(fs, vendor, target, nil).Repair(renamedRegistry(t), []string{"psr/log"})
	require.NoError(t, err)
	assert.Zero(t, stats.Relocated)
	assert.Zero(t, stats.KeysRenamed)

	pkg := readInstalled(t, fs).Package("psr/log")
	assert.Equal(t, "../psr/log", pkg.InstallPath())
	al, err := pkg.Autoload()
	require.NoError(t, err)
	require.Len(t, al.PSR4, 1)
	assert.Equal(t, `Psr\Log\`, al.PSR4[0].Namespace, "keys of a package still loading from vendor stay unprefixed")
}

func TestRepair_InPlaceRenamesKeys(t *testing.T) {
	fs := fixture(t)
	require.NoError(t, fs.Write(vendor+"/psr/log/src/LoggerInterface.php", []byte("<?php")))

	stats, err := New(fs, vendor, vendor, nil).Repair(renamedRegistry(t), []string{"psr/log", "psr/container"})
	require.NoError(t, err)
	assert.Zero(t, stats.Relocated)
	assert.Equal(t, 2, stats.KeysRenamed)
	assert.Equal(t, "../psr/log", readInstalled(t, fs).Package("psr/log").InstallPath())
}

func TestRepair_MissingManifestIsSkipped(t *testing.T) {
	fs := fixture(t)
	require.NoError(t, fs.Remove(vendor+"/composer/installed.json"))

	stats, err := New(fs, vendor, target, nil).Repair(renamedRegistry(t), processed)
	require.NoError(t, err)
	assert.True(t, stats.ManifestMissing)
	assert.Equal(t, 1, stats.Stubs, "loader repair still runs")
}

func TestRepair_UnknownPackageIgnored(t *testing.T) {
	fs := fixture(t)
	before, err := fs.Read(vendor + "/composer/installed.json")
	require.NoError(t, err)

	_, err = New(fs, vendor, target, nil).Repair(renamedRegistry(t), []string{"not/installed"})
	require.NoError(t, err)
	after, err := fs.Read(vendor + "/composer/installed.json")
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestRepair_StubsMissingFiles(t *testing.T) {
	fs := fixture(t)

	stats, err := New(fs, vendor, target, nil).Repair(renamedRegistry(t), processed)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Stubs)
	assert.Equal(t, 2, stats.LinesRewritten)

	stub, err := fs.Read(vendor + "/acme/helpers/functions.php")
	require.NoError(t, err)
	assert.Equal(t, "<?php\n", string(stub))

	static, err := fs.Read(vendor + "/composer/autoload_static.php")
	require.NoError(t, err)
	assert.NotContains(t, string(static), "'/acme/helpers/functions.php'")
	assert.Contains(t, string(static), `__DIR__ . '/..' . '/../vendor-prefixed/acme/helpers/functions.php',`)
	assert.Contains(t, string(static), `'/symfony/polyfill-php80/bootstrap.php'`, "present files untouched")

	files, err := fs.Read(vendor + "/composer/autoload_files.php")
	require.NoError(t, err)
	assert.Contains(t, string(files), `$vendorDir . '/../vendor-prefixed/acme/helpers/functions.php',`)
	assert.Equal(t, 1, strings.Count(string(files), "vendor-prefixed"))
}

func TestRepair_RoundTrip(t *testing.T) {
	fs := fixture(t)
	r := New(fs, vendor, target, nil)
	paths := []string{
		vendor + "/composer/installed.json",
		vendor + "/composer/autoload_files.php",
		vendor + "/composer/autoload_static.php",
	}
	snapshot := func() []string {
		var out []string
		for _, p := range paths {
			data, err := fs.Read(p)
			require.NoError(t, err)
			out = append(out, string(data))
		}
		return out
	}

	_, err := r.Repair(renamedRegistry(t), processed)
	require.NoError(t, err)
	first := snapshot()

	stats, err := r.Repair(renamedRegistry(t), processed)
	require.NoError(t, err)
	assert.Zero(t, stats.Stubs)
	assert.Zero(t, stats.LinesRewritten)
	assert.Equal(t, first, snapshot())
}

func TestRepair_DryRunLeavesDiskUntouched(t *testing.T) {
	base := afero.NewMemMapFs()
	load(t, base)
	disk := fsys.New(base)
	before, err := disk.Read(vendor + "/composer/installed.json")
	require.NoError(t, err)

	dry := fsys.DryRunOver(base)
	stats, err := New(dry, vendor, target, nil).Repair(renamedRegistry(t), processed)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Relocated)

	after, err := disk.Read(vendor + "/composer/installed.json")
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.False(t, disk.FileExists(vendor+"/acme/helpers/functions.php"))
	assert.True(t, dry.FileExists(vendor+"/acme/helpers/functions.php"))
}
