// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package git guards a run against uncommitted work, commits the
// prefixed dependencies and undoes that commit on request.
package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const generatedTrailer = "Generated-By: go-scoper"

// maxListed bounds the dirty paths quoted in an error.
const maxListed = 5

// ErrNotScoperCommit is returned when undo targets a commit not made by go-scoper.
var ErrNotScoperCommit = errors.New("not a go-scoper commit")

// ErrDirtyWorkTree is returned when uncommitted changes exist and a clean
// worktree is required.
var ErrDirtyWorkTree = errors.New("uncommitted changes exist")

// ErrNoGit is returned when the project directory is not inside a git repository.
var ErrNoGit = errors.New("not a git repository")

// Config configures git integration behavior.
type Config struct {
	WorkDir      string // Project directory; the repository may be a parent
	RequireClean bool   // Refuse to run with uncommitted changes
	Commit       bool   // Commit the vendor and target directories after a run
}

// Repo wraps a go-git repository for the operations we need.
type Repo struct {
	repo *gogit.Repository
	root string
	cfg  Config
}

// Open opens the git repository containing the configured work directory.
// Returns ErrNoGit if there is none.
func Open(cfg Config) (*Repo, error) {
	r, err := gogit.PlainOpenWithOptions(cfg.WorkDir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGit, err)
	}
	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGit, err)
	}
	return &Repo{repo: r, root: wt.Filesystem.Root(), cfg: cfg}, nil
}

// IsDirty returns true if the working tree has uncommitted changes
// (either staged or unstaged).
func (r *Repo) IsDirty() (bool, error) {
	files, err := r.DirtyFiles()
	return len(files) > 0, err
}

// DirtyFiles returns the sorted paths with uncommitted changes, relative
// to the repository root.
func (r *Repo) DirtyFiles() ([]string, error) {
	status, err := r.status()
	if err != nil {
		return nil, err
	}
	var files []string
	for path, s := range status {
		if s.Staging != gogit.Unmodified || s.Worktree != gogit.Unmodified {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files, nil
}

// CheckClean returns ErrDirtyWorkTree when a clean worktree is required
// and there are uncommitted changes.
func (r *Repo) CheckClean() error {
	if !r.cfg.RequireClean {
		return nil
	}
	files, err := r.DirtyFiles()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}
	listed := files
	if len(listed) > maxListed {
		listed = listed[:maxListed]
	}
	return fmt.Errorf("%w: %s (%d files)", ErrDirtyWorkTree, strings.Join(listed, ", "), len(files))
}

// IsScoperCommit checks whether the HEAD commit was made by go-scoper
// by looking for its trailer.
func (r *Repo) IsScoperCommit() (bool, error) {
	msg, err := r.lastCommitMessage()
	if err != nil {
		return false, fmt.Errorf("getting HEAD commit: %w", err)
	}
	return strings.Contains(msg, generatedTrailer), nil
}

func (r *Repo) status() (gogit.Status, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("getting status: %w", err)
	}
	return status, nil
}

// relative converts absolute directories to slash-separated prefixes
// relative to the repository root. Directories outside it are dropped.
func (r *Repo) relative(dirs []string) []string {
	var out []string
	for _, d := range dirs {
		rel, err := filepath.Rel(r.root, d)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

// lastCommitMessage returns the message of the HEAD commit.
func (r *Repo) lastCommitMessage() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", err
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return "", err
	}
	return commit.Message, nil
}

// commitCount returns the total number of commits reachable from HEAD.
func (r *Repo) commitCount() (int, error) {
	iter, err := r.repo.Log(&gogit.LogOptions{})
	if err != nil {
		return 0, err
	}
	count := 0
	err = iter.ForEach(func(c *object.Commit) error {
		count++
		return nil
	})
	return count, err
}
