package run

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chojs23/mergelens/internal/cli"
)

const conflicted = "line1\n<<<<<<< HEAD\nlocal change\n=======\nremote change\n>>>>>>> branch\nline3\n"

func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func TestRunCheckResolvedExitCodes(t *testing.T) {
	isolateConfig(t)
	tmpDir := t.TempDir()

	resolvedPath := filepath.Join(tmpDir, "resolved.txt")
	if err := os.WriteFile(resolvedPath, []byte("ok\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	code := Run(context.Background(), cli.Options{Check: true, MergedPath: resolvedPath})
	if code != ExitOK {
		t.Fatalf("resolved check exit code = %d, want 0", code)
	}

	unresolvedPath := filepath.Join(tmpDir, "unresolved.txt")
	if err := os.WriteFile(unresolvedPath, []byte(conflicted), 0o644); err != nil {
		t.Fatal(err)
	}

	code = Run(context.Background(), cli.Options{Check: true, MergedPath: unresolvedPath})
	if code != ExitUnresolved {
		t.Fatalf("unresolved check exit code = %d, want 1", code)
	}

	code = Run(context.Background(), cli.Options{Check: true, MergedPath: filepath.Join(tmpDir, "missing.txt")})
	if code != ExitError {
		t.Fatalf("missing check exit code = %d, want 2", code)
	}
}

func TestRunCheckMalformedBlockIsResolved(t *testing.T) {
	isolateConfig(t)
	path := filepath.Join(t.TempDir(), "half.txt")
	if err := os.WriteFile(path, []byte("<<<<<<< HEAD\nours\n>>>>>>> branch\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if code := Run(context.Background(), cli.Options{Check: true, MergedPath: path}); code != ExitOK {
		t.Fatalf("exit code = %d, want 0 for a block without splitter", code)
	}
}

func TestRunApplyAllExitCodes(t *testing.T) {
	isolateConfig(t)
	ctx := context.Background()
	tmpDir := t.TempDir()

	mergedPath := filepath.Join(tmpDir, "merged.txt")
	if err := os.WriteFile(mergedPath, []byte(conflicted), 0o644); err != nil {
		t.Fatal(err)
	}

	code := Run(ctx, cli.Options{MergedPath: mergedPath, ApplyAll: "ours"})
	if code != ExitOK {
		t.Fatalf("apply-all exit code = %d, want 0", code)
	}

	data, err := os.ReadFile(mergedPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "line1\nlocal change\nline3\n" {
		t.Fatalf("resolved content mismatch: %q", string(data))
	}

	code = Run(ctx, cli.Options{MergedPath: filepath.Join(tmpDir, "missing.txt"), ApplyAll: "ours"})
	if code != ExitError {
		t.Fatalf("apply-all error exit code = %d, want 2", code)
	}
}

func TestRunInvalidConfigFails(t *testing.T) {
	dir := isolateConfig(t)
	path := filepath.Join(dir, "mergelens", "config.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{bad"), 0o644); err != nil {
		t.Fatal(err)
	}

	merged := filepath.Join(t.TempDir(), "ok.txt")
	if err := os.WriteFile(merged, []byte("ok\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if code := Run(context.Background(), cli.Options{Check: true, MergedPath: merged}); code != ExitError {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestLoadConfigFlagsWin(t *testing.T) {
	dir := isolateConfig(t)
	path := filepath.Join(dir, "mergelens", "config.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"cacheTTL": 250, "scanTimeout": 2000}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(cli.Options{})
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.CacheTTL != 250*time.Millisecond || cfg.ScanTimeout != 2*time.Second {
		t.Fatalf("cfg = %+v, want file values", cfg)
	}

	cfg, err = loadConfig(cli.Options{CacheTTL: time.Second, ScanTimeout: 3 * time.Second})
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.CacheTTL != time.Second || cfg.ScanTimeout != 3*time.Second {
		t.Fatalf("cfg = %+v, want flag values", cfg)
	}
}

func TestApplyAllSkipsPromptWithoutTTY(t *testing.T) {
	isolateConfig(t)
	old := confirm
	t.Cleanup(func() { confirm = old })
	confirm = func(string) (bool, error) {
		t.Fatalf("confirm called without a terminal")
		return false, nil
	}

	path := filepath.Join(t.TempDir(), "merged.txt")
	if err := os.WriteFile(path, []byte(conflicted), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := applyAll(context.Background(), cli.Options{MergedPath: path, ApplyAll: "theirs"}); err != nil {
		t.Fatalf("applyAll error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "line1\nremote change\nline3\n" {
		t.Fatalf("content = %q", string(data))
	}
}
