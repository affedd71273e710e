// Package gitutil shells out to git for the repository mode of the CLI.
package gitutil

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("mergelens.git")

func git(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	log.Debugf("git %s (in %s)", strings.Join(args, " "), dir)
	return cmd.Output()
}

// RepoRoot returns the repository root directory for the given working directory.
func RepoRoot(ctx context.Context, cwd string) (string, error) {
	output, err := git(ctx, cwd, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("git rev-parse --show-toplevel failed: %w", err)
	}
	root := strings.TrimSpace(string(output))
	if root == "" {
		return "", fmt.Errorf("git rev-parse returned empty repo root")
	}
	return root, nil
}

// Scope returns cwd relative to repoRoot as a slash-separated pathspec, or
// "." when cwd is the root or not below it.
func Scope(repoRoot, cwd string) string {
	rel, err := filepath.Rel(repoRoot, cwd)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "."
	}
	return filepath.ToSlash(rel)
}

// ListUnmergedFiles returns repo-relative paths of conflicted files under scopePathspec.
func ListUnmergedFiles(ctx context.Context, repoRoot string, scopePathspec string) ([]string, error) {
	pathspec := scopePathspec
	if pathspec == "" {
		pathspec = "."
	}

	output, err := git(ctx, repoRoot, "diff", "--name-only", "--diff-filter=U", "--", pathspec)
	if err != nil {
		return nil, fmt.Errorf("git diff --name-only --diff-filter=U failed: %w", err)
	}

	lines := bytes.Split(bytes.TrimSpace(output), []byte{'\n'})
	if len(lines) == 1 && len(lines[0]) == 0 {
		return nil, nil
	}

	paths := make([]string, 0, len(lines))
	for _, line := range lines {
		p := strings.TrimSpace(string(line))
		if p == "" {
			continue
		}
		paths = append(paths, p)
	}
	return paths, nil
}
