package cli

import (
	"errors"
	"testing"
	"time"
)

func TestParseBackupDefault(t *testing.T) {
	opts, err := Parse([]string{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if opts.Backup {
		t.Fatalf("Parse() Backup = true, want false")
	}
}

func TestParseBackupFlag(t *testing.T) {
	args := []string{"--backup", "--merged", "m"}
	opts, err := Parse(args)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !opts.Backup {
		t.Fatalf("Parse() Backup = false, want true")
	}
}

func TestParsePositionalMerged(t *testing.T) {
	opts, err := Parse([]string{"file.go"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if opts.MergedPath != "file.go" {
		t.Fatalf("MergedPath = %q, want file.go", opts.MergedPath)
	}
}

func TestParseApplyAllAliases(t *testing.T) {
	tests := map[string]string{
		"ours":     "current",
		"THEIRS":   "incoming",
		"both":     "both",
		"incoming": "incoming",
	}
	for in, want := range tests {
		opts, err := Parse([]string{"--apply-all", in, "m"})
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", in, err)
		}
		if opts.ApplyAll != want {
			t.Errorf("ApplyAll = %q, want %q", opts.ApplyAll, want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "bad apply-all", args: []string{"--apply-all", "none", "m"}},
		{name: "apply-all without path", args: []string{"--apply-all", "both"}},
		{name: "check without path", args: []string{"--check"}},
		{name: "check and apply-all", args: []string{"--check", "--apply-all", "both", "m"}},
		{name: "too many args", args: []string{"a", "b"}},
		{name: "merged twice", args: []string{"--merged", "a", "b"}},
		{name: "negative ttl", args: []string{"--cache-ttl", "-1s"}},
		{name: "huge timeout", args: []string{"--scan-timeout", "2h"}},
		{name: "unknown flag", args: []string{"--nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.args); err == nil {
				t.Fatalf("Parse(%v) expected error", tt.args)
			}
		})
	}
}

func TestParseHelpAndVersion(t *testing.T) {
	if _, err := Parse([]string{"-h"}); !errors.Is(err, ErrHelp) {
		t.Errorf("Parse(-h) error = %v, want ErrHelp", err)
	}
	if _, err := Parse([]string{"--version"}); !errors.Is(err, ErrVersion) {
		t.Errorf("Parse(--version) error = %v, want ErrVersion", err)
	}
}

func TestParseVerbosityAndDurations(t *testing.T) {
	opts, err := Parse([]string{"-vv", "--cache-ttl", "250ms", "--scan-timeout", "2s", "--log-file", "x.log"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if opts.Verbose != 2 {
		t.Errorf("Verbose = %d, want 2", opts.Verbose)
	}
	if opts.CacheTTL != 250*time.Millisecond || opts.ScanTimeout != 2*time.Second {
		t.Errorf("durations = %s/%s", opts.CacheTTL, opts.ScanTimeout)
	}
	if opts.LogFile != "x.log" {
		t.Errorf("LogFile = %q", opts.LogFile)
	}
}
