package tui

import (
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/chojs23/mergelens/internal/config"
	"github.com/chojs23/mergelens/internal/markers"
)

func scanDoc(text string) (*markers.TextDocument, []markers.Conflict) {
	doc := markers.NewTextDocument("", text)
	return doc, markers.Conflicts(doc, markers.NewScanner().Scan(context.Background(), text))
}

func TestBuildLinesTagsRegions(t *testing.T) {
	doc, conflicts := scanDoc(oneConflict)
	cfg := config.Config{Decorations: true}

	lines, activeStart := buildLines(doc, conflicts, cfg, markers.Position{Line: 2})
	if len(lines) != 7 {
		t.Fatalf("lines = %d, want 7 without the trailing empty line", len(lines))
	}
	if activeStart != 1 {
		t.Fatalf("activeStart = %d, want 1", activeStart)
	}

	want := []struct {
		marked bool
		region markers.RegionKind
		gutter string
	}{
		{false, 0, ""},
		{true, markers.RegionCurrentHeader, "┌"},
		{true, markers.RegionCurrentContent, "│"},
		{true, markers.RegionSplitter, "│"},
		{true, markers.RegionIncomingContent, "│"},
		{true, markers.RegionIncomingHeader, "└"},
		{false, 0, ""},
	}
	for i, w := range want {
		got := lines[i]
		if got.marked != w.marked || (w.marked && got.region != w.region) || got.gutter != w.gutter {
			t.Fatalf("line %d = %+v, want %+v", i, got, w)
		}
		if active := i >= 1 && i <= 5; got.active != active {
			t.Fatalf("line %d active = %v, want %v", i, got.active, active)
		}
	}
	if !lines[2].cursor || lines[1].cursor {
		t.Fatalf("cursor flag on wrong line")
	}
}

func TestBuildLinesOverviewOnlyMarksBodies(t *testing.T) {
	doc, conflicts := scanDoc(oneConflict)

	lines, _ := buildLines(doc, conflicts, config.Config{EditorOverview: true}, markers.Position{})
	for i, line := range lines {
		body := i == 2 || i == 4
		if line.marked != body {
			t.Fatalf("line %d marked = %v, want %v", i, line.marked, body)
		}
	}

	lines, activeStart := buildLines(doc, conflicts, config.Config{}, markers.Position{})
	for i, line := range lines {
		if line.marked {
			t.Fatalf("line %d marked with highlighting off", i)
		}
	}
	if activeStart != -1 {
		t.Fatalf("activeStart = %d, want -1 with cursor outside", activeStart)
	}
	if lines[1].gutter != "┌" {
		t.Fatalf("gutter = %q, want conflict outline even without highlighting", lines[1].gutter)
	}
}

func TestBuildLinesEmptyBodies(t *testing.T) {
	doc, conflicts := scanDoc("<<<<<<< a\n=======\n>>>>>>> b\n")

	lines, _ := buildLines(doc, conflicts, config.Config{Decorations: true}, markers.Position{})
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if lines[1].region != markers.RegionSplitter {
		t.Fatalf("line 1 region = %s, want splitter", lines[1].region)
	}
}

func TestRenderLines(t *testing.T) {
	doc, conflicts := scanDoc(oneConflict)
	lines, _ := buildLines(doc, conflicts, config.Config{Decorations: true}, markers.Position{})
	annotate(lines)

	out := renderLines(lines, regionStyles, lipgloss.NewStyle())
	rows := strings.Split(out, "\n")
	if len(rows) != 7 {
		t.Fatalf("rows = %d, want 7", len(rows))
	}
	if !strings.HasPrefix(rows[0], "1 ") {
		t.Fatalf("row 0 = %q, want line number", rows[0])
	}
	if !strings.Contains(rows[1], "<<<<<<< HEAD  (Current change)") {
		t.Fatalf("row 1 = %q, want annotated header", rows[1])
	}
	if !strings.Contains(rows[5], ">>>>>>> branch  (Incoming change)") {
		t.Fatalf("row 5 = %q, want annotated footer", rows[5])
	}
	if strings.Contains(rows[2], "change)") {
		t.Fatalf("row 2 = %q, bodies are not annotated", rows[2])
	}

	if got := renderLines(nil, regionStyles, lipgloss.NewStyle()); got != "" {
		t.Fatalf("renderLines(nil) = %q", got)
	}
}

func TestShortLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"HEAD", "HEAD"},
		{"feature/login", "feature/login"},
		{"3f2a9c1d5e6b7a8c9d0e (fix parser)", "3f2a9c1 (fix parser)"},
		{"1234567", "1234567"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := shortLabel(tt.in); got != tt.want {
			t.Fatalf("shortLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFirstHexRun(t *testing.T) {
	start, end := firstHexRun("x1234567y")
	if start != 1 || end != 8 {
		t.Fatalf("firstHexRun = %d,%d, want 1,8", start, end)
	}
	if start, _ := firstHexRun("abc def"); start != -1 {
		t.Fatalf("firstHexRun short runs = %d, want -1", start)
	}
	if !isHexByte('F') || isHexByte('g') {
		t.Fatalf("isHexByte mismatch")
	}
}
