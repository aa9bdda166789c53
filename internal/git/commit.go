// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package git

import (
	"fmt"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	authorName  = "go-scoper"
	authorEmail = "noreply@go-scoper"
)

// Commit stages every change below dirs, including deletions, and commits
// it with a message generated from summary. It reports whether a commit
// was made; nothing is committed when Config.Commit is off or nothing
// changed.
func (r *Repo) Commit(dirs []string, summary Summary) (bool, error) {
	if !r.cfg.Commit {
		return false, nil
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("getting worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("getting status: %w", err)
	}

	prefixes := r.relative(dirs)
	staged := 0
	for path, s := range status {
		if !under(path, prefixes) {
			continue
		}
		switch s.Worktree {
		case gogit.Unmodified:
			continue
		case gogit.Deleted:
			if _, err := wt.Remove(path); err != nil {
				return false, fmt.Errorf("staging removal of %s: %w", path, err)
			}
		default:
			if _, err := wt.Add(path); err != nil {
				return false, fmt.Errorf("staging %s: %w", path, err)
			}
		}
		staged++
	}
	if staged == 0 {
		return false, nil
	}

	_, err = wt.Commit(GenerateMessage(summary), &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return false, fmt.Errorf("committing: %w", err)
	}
	return true, nil
}

// Undo reverts the last commit if it was made by go-scoper. Uses git
// reset --soft HEAD~1 to preserve changes in the working tree.
func (r *Repo) Undo() error {
	isScoper, err := r.IsScoperCommit()
	if err != nil {
		return err
	}
	if !isScoper {
		return ErrNotScoperCommit
	}

	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("getting HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return fmt.Errorf("getting commit: %w", err)
	}
	if commit.NumParents() == 0 {
		return fmt.Errorf("cannot undo: HEAD is the initial commit")
	}
	parent, err := commit.Parent(0)
	if err != nil {
		return fmt.Errorf("getting parent commit: %w", err)
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}
	err = wt.Reset(&gogit.ResetOptions{
		Commit: parent.Hash,
		Mode:   gogit.SoftReset,
	})
	if err != nil {
		return fmt.Errorf("resetting to parent: %w", err)
	}
	return nil
}

func under(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p == "." || path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
