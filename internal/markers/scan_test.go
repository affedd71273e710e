package markers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestScan2Way(t *testing.T) {
	text := readFixture(t, "2way.input")

	matches := NewScanner().Scan(context.Background(), text)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	m := matches[0]
	want := RawMatch{
		CurrentHeader:   Span{Offset: 6, Length: 12},
		CurrentContent:  Span{Offset: 19, Length: 13},
		Splitter:        Span{Offset: 32, Length: 7},
		IncomingContent: Span{Offset: 40, Length: 14},
		IncomingHeader:  Span{Offset: 54, Length: 15},
		CurrentName:     "HEAD",
		IncomingName:    "feature",
	}
	if m != want {
		t.Fatalf("match mismatch:\ngot  %+v\nwant %+v", m, want)
	}
	if got := text[m.Offset():m.End()]; !strings.HasPrefix(got, "<<<<<<< HEAD") || !strings.HasSuffix(got, ">>>>>>> feature") {
		t.Errorf("block text = %q", got)
	}
}

func TestScanMultiple(t *testing.T) {
	text := readFixture(t, "multiple.input")

	matches := NewScanner().Scan(context.Background(), text)
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}

	for i := 1; i < len(matches); i++ {
		if matches[i].Offset() <= matches[i-1].End() {
			t.Errorf("match %d overlaps match %d", i, i-1)
		}
	}

	last := matches[2]
	if last.CurrentContent.Length != 0 {
		t.Errorf("expected empty current body, got length %d", last.CurrentContent.Length)
	}
	if last.CurrentContent.Offset != last.Splitter.Offset {
		t.Errorf("empty body offset = %d, want splitter offset %d", last.CurrentContent.Offset, last.Splitter.Offset)
	}
	if last.End() != len(text) {
		t.Errorf("footer at EOF: end = %d, want %d", last.End(), len(text))
	}
	if last.CurrentName != "ours" || last.IncomingName != "theirs" {
		t.Errorf("names = %q/%q", last.CurrentName, last.IncomingName)
	}
}

func TestScanCRLFExcludesCarriageReturnFromLabels(t *testing.T) {
	text := readFixture(t, "crlf.input")

	matches := NewScanner().Scan(context.Background(), text)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	if m.CurrentName != "HEAD" || m.IncomingName != "topic" {
		t.Errorf("names = %q/%q", m.CurrentName, m.IncomingName)
	}
	if got := text[m.Splitter.Offset:m.Splitter.End()]; got != "=======" {
		t.Errorf("splitter text = %q", got)
	}
}

func TestScanEmptyLabels(t *testing.T) {
	text := "<<<<<<<\nours\n=======\ntheirs\n>>>>>>>\n"

	matches := NewScanner().Scan(context.Background(), text)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].CurrentName != "" || matches[0].IncomingName != "" {
		t.Errorf("expected empty labels, got %q/%q", matches[0].CurrentName, matches[0].IncomingName)
	}
}

func TestScanBothBodiesEmpty(t *testing.T) {
	text := "<<<<<<< a\n=======\n>>>>>>> b\n"

	matches := NewScanner().Scan(context.Background(), text)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].CurrentContent.Length != 0 || matches[0].IncomingContent.Length != 0 {
		t.Errorf("expected empty bodies, got %+v", matches[0])
	}
}

func TestScanLazyBodies(t *testing.T) {
	// The first header owns everything up to the first splitter, including a
	// second header line.
	text := "<<<<<<< a\nfoo\n<<<<<<< HEAD\nx\n=======\ny\n=======\n>>>>>>> b\nz\n>>>>>>> c\n"

	matches := NewScanner().Scan(context.Background(), text)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	if got := text[m.CurrentContent.Offset:m.CurrentContent.End()]; got != "foo\n<<<<<<< HEAD\nx\n" {
		t.Errorf("current body = %q", got)
	}
	if got := text[m.IncomingContent.Offset:m.IncomingContent.End()]; got != "y\n=======\n" {
		t.Errorf("incoming body = %q", got)
	}
	if m.IncomingName != "b" {
		t.Errorf("footer label = %q, want b", m.IncomingName)
	}
}

func TestScanMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "missing footer", text: readFixture(t, "malformed.input")},
		{name: "missing splitter", text: "<<<<<<< HEAD\nx\n>>>>>>> b\n"},
		{name: "marker not at line start", text: "  <<<<<<< HEAD\nx\n=======\ny\n>>>>>>> b\n"},
		{name: "long marker", text: "<<<<<<<<< HEAD\nx\n=======\ny\n>>>>>>> b\n"},
		{name: "splitter with trailing text", text: "<<<<<<< HEAD\nx\n======= no\ny\n>>>>>>> b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, err := NewScanner().ScanContext(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("ScanContext error: %v", err)
			}
			if len(matches) != 0 {
				t.Fatalf("expected no matches, got %d", len(matches))
			}
		})
	}
}

func TestScanSkipsMalformedBeforeValid(t *testing.T) {
	text := ">>>>>>> stray\n=======\n<<<<<<< HEAD\nours\n=======\ntheirs\n>>>>>>> b\n"

	matches := NewScanner().Scan(context.Background(), text)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].CurrentName != "HEAD" {
		t.Errorf("current name = %q", matches[0].CurrentName)
	}
}

func TestContainsConflict(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{text: "", want: false},
		{text: "plain\n", want: false},
		{text: "<<<<<<< HEAD\n", want: false},
		{text: ">>>>>>> b\n", want: false},
		{text: "<<<<<<< HEAD\n>>>>>>> b\n", want: true},
	}
	for _, tt := range tests {
		if got := ContainsConflict(tt.text); got != tt.want {
			t.Errorf("ContainsConflict(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestContainsConflictFalseImpliesNoMatches(t *testing.T) {
	for _, name := range []string{"2way.input", "crlf.input", "multiple.input", "malformed.input"} {
		text := readFixture(t, name)
		if ContainsConflict(text) {
			continue
		}
		if matches := NewScanner().Scan(context.Background(), text); len(matches) != 0 {
			t.Errorf("%s: precheck false but scan found %d", name, len(matches))
		}
	}
}

func TestScanLineBudget(t *testing.T) {
	text := readFixture(t, "2way.input")
	s := &Scanner{MaxLines: 2}

	_, err := s.ScanContext(context.Background(), text)
	if !errors.Is(err, ErrScanBudgetExceeded) {
		t.Fatalf("expected ErrScanBudgetExceeded, got %v", err)
	}
	if matches := s.Scan(context.Background(), text); matches != nil {
		t.Fatalf("expected nil matches on budget exhaustion, got %d", len(matches))
	}
}

func TestScanDeadline(t *testing.T) {
	text := strings.Repeat("<<<<<<< a\nbody\n=======\nbody\n>>>>>>> b\n", 200)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Scanner{Timeout: time.Minute}
	_, err := s.ScanContext(ctx, text)
	if !errors.Is(err, ErrScanBudgetExceeded) {
		t.Fatalf("expected ErrScanBudgetExceeded, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected wrapped context.Canceled, got %v", err)
	}
}

func TestScanNearMissesStayLinear(t *testing.T) {
	text := strings.Repeat("<<<<<<< a\n=======\n", 50000)

	start := time.Now()
	matches := NewScanner().Scan(context.Background(), text)
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
	if elapsed := time.Since(start); elapsed > DefaultScanTimeout {
		t.Fatalf("scan took %v", elapsed)
	}
}
