// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommit_StagesTargetAndVendorChanges(t *testing.T) {
	dir := initTestRepo(t)
	addFileAndCommit(t, dir, "vendor/psr/log/src/Logger.php", "<?php\n", "add vendor")

	repo, err := Open(Config{WorkDir: dir, Commit: true})
	require.NoError(t, err)

	// A run copies into vendor-prefixed and deletes the vendor original.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor-prefixed/psr/log/src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor-prefixed/psr/log/src/Logger.php"), []byte("<?php\nnamespace Prefix;\n"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(dir, "vendor/psr/log/src/Logger.php")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("unrelated"), 0o644))

	committed, err := repo.Commit([]string{filepath.Join(dir, "vendor"), filepath.Join(dir, "vendor-prefixed")},
		Summary{Packages: []string{"psr/log"}, Files: 1})
	require.NoError(t, err)
	assert.True(t, committed)

	files, err := repo.DirtyFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt"}, files, "only the run's directories are committed")

	msg, err := repo.lastCommitMessage()
	require.NoError(t, err)
	assert.Contains(t, msg, "build: prefix psr/log")
	assert.Contains(t, msg, generatedTrailer)

	count, err := repo.commitCount()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCommit_NothingChanged(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir, Commit: true})
	require.NoError(t, err)

	committed, err := repo.Commit([]string{filepath.Join(dir, "vendor")}, Summary{})
	require.NoError(t, err)
	assert.False(t, committed)
}

func TestCommit_DisabledIsNoop(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir})
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor/autoload.php"), []byte("<?php\n"), 0o644))

	committed, err := repo.Commit([]string{filepath.Join(dir, "vendor")}, Summary{})
	require.NoError(t, err)
	assert.False(t, committed)

	count, err := repo.commitCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCommit_IgnoresDirectoriesOutsideRepo(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir, Commit: true})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dirty.php"), []byte("<?php\n"), 0o644))

	committed, err := repo.Commit([]string{t.TempDir()}, Summary{})
	require.NoError(t, err)
	assert.False(t, committed)
}

func TestUndo_RevertsScoperCommit(t *testing.T) {
	dir := initTestRepo(t)
	addFileAndCommit(t, dir, "vendor-prefixed/psr/log/Logger.php", "<?php\n", "build: prefix psr/log\n\n"+generatedTrailer)

	repo, err := Open(Config{WorkDir: dir})
	require.NoError(t, err)

	count, err := repo.commitCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, repo.Undo())

	count, err = repo.commitCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Soft reset keeps the file in the working tree.
	_, err = os.Stat(filepath.Join(dir, "vendor-prefixed/psr/log/Logger.php"))
	assert.NoError(t, err)
}

func TestUndo_RefusesOtherCommit(t *testing.T) {
	dir := initTestRepo(t)

	repo, err := Open(Config{WorkDir: dir})
	require.NoError(t, err)

	err = repo.Undo()
	assert.ErrorIs(t, err, ErrNotScoperCommit)

	count, err := repo.commitCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCommit_ThenUndo(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir, Commit: true})
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor-prefixed"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor-prefixed/autoload.php"), []byte("<?php\n"), 0o644))

	committed, err := repo.Commit([]string{filepath.Join(dir, "vendor-prefixed")}, Summary{Files: 1})
	require.NoError(t, err)
	require.True(t, committed)

	require.NoError(t, repo.Undo())
	count, err := repo.commitCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
