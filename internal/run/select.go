package run

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chojs23/mergelens/internal/cli"
	"github.com/chojs23/mergelens/internal/engine"
	"github.com/chojs23/mergelens/internal/gitutil"
	"github.com/chojs23/mergelens/internal/markers"
	"github.com/chojs23/mergelens/internal/tui"
)

var errNoConflicts = errors.New("no conflicted files found")

// prepareInteractiveFromRepo lists the unmerged files below the working
// directory, lets the user pick one and points opts.MergedPath at it.
func prepareInteractiveFromRepo(ctx context.Context, opts *cli.Options) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	repoRoot, err := gitutil.RepoRoot(ctx, cwd)
	if err != nil {
		return err
	}

	paths, err := gitutil.ListUnmergedFiles(ctx, repoRoot, gitutil.Scope(repoRoot, cwd))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errNoConflicts
	}

	selected, err := selectPathInteractive(ctx, repoRoot, paths, engine.ScannerFor(*opts))
	if err != nil {
		return err
	}

	mergedPath := selected
	if !filepath.IsAbs(mergedPath) {
		mergedPath = filepath.Join(repoRoot, selected)
	}
	if _, err := os.Stat(mergedPath); err != nil {
		return fmt.Errorf("cannot access merged file %s: %w", selected, err)
	}

	opts.MergedPath = mergedPath
	return nil
}

func selectPath(paths []string) (string, error) {
	if len(paths) == 1 {
		return paths[0], nil
	}

	fmt.Fprintln(os.Stdout, "Conflicted files:")
	for i, p := range paths {
		fmt.Fprintf(os.Stdout, "  %d) %s\n", i+1, p)
	}

	reader := bufio.NewReader(os.Stdin)
	for attempt := 0; attempt < 3; attempt++ {
		fmt.Fprintf(os.Stdout, "Select a file to resolve [1-%d]: ", len(paths))
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("read selection: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		idx, err := strconv.Atoi(line)
		if err != nil || idx < 1 || idx > len(paths) {
			fmt.Fprintln(os.Stdout, "Invalid selection.")
			continue
		}
		return paths[idx-1], nil
	}

	return "", fmt.Errorf("invalid selection")
}

func selectPathInteractive(ctx context.Context, repoRoot string, paths []string, scanner *markers.Scanner) (string, error) {
	if isInteractiveTTY() {
		candidates, err := buildFileCandidates(ctx, repoRoot, paths, scanner)
		if err != nil {
			return "", err
		}
		return tui.SelectFile(ctx, candidates)
	}
	return selectPath(paths)
}

func isInteractiveTTY() bool {
	return isTTY(os.Stdin) && isTTY(os.Stdout)
}

func isTTY(file *os.File) bool {
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// buildFileCandidates counts the conflict blocks left in each path.
func buildFileCandidates(ctx context.Context, repoRoot string, paths []string, scanner *markers.Scanner) ([]tui.FileCandidate, error) {
	candidates := make([]tui.FileCandidate, 0, len(paths))
	for _, path := range paths {
		mergedPath := path
		if !filepath.IsAbs(mergedPath) {
			mergedPath = filepath.Join(repoRoot, path)
		}
		data, err := os.ReadFile(mergedPath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		conflicts, err := engine.ScanFile(ctx, markers.NewTextDocument(mergedPath, string(data)), scanner)
		if err != nil {
			return nil, fmt.Errorf("count conflicts in %s: %w", path, err)
		}
		candidates = append(candidates, tui.FileCandidate{Path: path, Conflicts: len(conflicts)})
	}
	return candidates, nil
}
