package run

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/chojs23/mergelens/internal/markers"
)

func withStdin(t *testing.T, input string, fn func()) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe stdin: %v", err)
	}
	if _, err := w.WriteString(input); err != nil {
		w.Close()
		r.Close()
		t.Fatalf("write stdin: %v", err)
	}
	if err := w.Close(); err != nil {
		r.Close()
		t.Fatalf("close stdin writer: %v", err)
	}

	old := os.Stdin
	os.Stdin = r
	defer func() {
		os.Stdin = old
		r.Close()
	}()

	fn()
}

func withStdout(t *testing.T, fn func()) {
	t.Helper()
	f, err := os.CreateTemp("", "mergelens-stdout-*")
	if err != nil {
		t.Fatalf("temp stdout: %v", err)
	}
	old := os.Stdout
	os.Stdout = f
	defer func() {
		os.Stdout = old
		f.Close()
		os.Remove(f.Name())
	}()

	fn()
}

func TestSelectPathSingle(t *testing.T) {
	selected, err := selectPath([]string{"only.txt"})
	if err != nil {
		t.Fatalf("selectPath error: %v", err)
	}
	if selected != "only.txt" {
		t.Fatalf("selectPath = %q, want %q", selected, "only.txt")
	}
}

func TestSelectPathWithInput(t *testing.T) {
	withStdout(t, func() {
		withStdin(t, "0\n2\n", func() {
			selected, err := selectPath([]string{"a.txt", "b.txt"})
			if err != nil {
				t.Fatalf("selectPath error: %v", err)
			}
			if selected != "b.txt" {
				t.Fatalf("selectPath = %q, want %q", selected, "b.txt")
			}
		})
	})
}

func TestSelectPathInvalidAfterRetries(t *testing.T) {
	withStdout(t, func() {
		withStdin(t, "0\n0\n0\n", func() {
			_, err := selectPath([]string{"a.txt", "b.txt"})
			if err == nil {
				t.Fatalf("selectPath expected error")
			}
		})
	})
}

func TestIsTTYFalseForRegularFile(t *testing.T) {
	f, err := os.CreateTemp("", "mergelens-tty-*")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	defer func() {
		f.Close()
		os.Remove(f.Name())
	}()

	if isTTY(f) {
		t.Fatalf("isTTY returned true for regular file")
	}
}

func TestBuildFileCandidates(t *testing.T) {
	tmpDir := t.TempDir()
	resolvedPath := filepath.Join(tmpDir, "resolved.txt")
	unresolvedPath := filepath.Join(tmpDir, "unresolved.txt")

	if err := os.WriteFile(resolvedPath, []byte("ok\n"), 0o644); err != nil {
		t.Fatalf("write resolved: %v", err)
	}
	if err := os.WriteFile(unresolvedPath, []byte(conflicted+conflicted), 0o644); err != nil {
		t.Fatalf("write unresolved: %v", err)
	}

	candidates, err := buildFileCandidates(context.Background(), tmpDir, []string{"resolved.txt", "unresolved.txt"}, markers.NewScanner())
	if err != nil {
		t.Fatalf("buildFileCandidates error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidates len = %d, want 2", len(candidates))
	}
	if candidates[0].Conflicts != 0 {
		t.Fatalf("resolved file has %d conflicts", candidates[0].Conflicts)
	}
	if candidates[1].Conflicts != 2 {
		t.Fatalf("unresolved file has %d conflicts, want 2", candidates[1].Conflicts)
	}

	if _, err := buildFileCandidates(context.Background(), tmpDir, []string{"missing.txt"}, markers.NewScanner()); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
