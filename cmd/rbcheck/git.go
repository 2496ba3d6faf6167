package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/mgomes/rbcheck/rbcheck"
)

// changedFiles lists the files under targets that the enclosing git worktree
// reports as modified, added or untracked.
func changedFiles(targets []string, checker *rbcheck.Checker) ([]string, error) {
	if len(targets) == 0 {
		targets = []string{"."}
	}
	scopes := make([]string, 0, len(targets))
	for _, target := range targets {
		abs, err := filepath.Abs(target)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", target, err)
		}
		scopes = append(scopes, abs)
	}

	repo, err := git.PlainOpenWithOptions(scopes[0], &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("rbcheck check -changed: %s is not inside a git repository", targets[0])
		}
		return nil, fmt.Errorf("open git repository: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open git worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}

	root := worktree.Filesystem.Root()
	files := make([]string, 0)
	for name, fileStatus := range status {
		if fileStatus.Staging == git.Unmodified && fileStatus.Worktree == git.Unmodified {
			continue
		}
		if fileStatus.Worktree == git.Deleted {
			continue
		}
		path := filepath.Join(root, filepath.FromSlash(name))
		if !checker.Accepts(path) || !withinAny(path, scopes) {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

func withinAny(path string, scopes []string) bool {
	for _, scope := range scopes {
		if path == scope || strings.HasPrefix(path, scope+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
