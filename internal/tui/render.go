package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chojs23/mergelens/internal/config"
	"github.com/chojs23/mergelens/internal/markers"
)

type lineInfo struct {
	text   string
	region markers.RegionKind
	marked bool // inside a highlighted region
	active bool // part of the conflict under the cursor
	cursor bool
	gutter string
}

// buildLines splits doc into display lines and tags every line covered by a
// visible conflict region. It returns the index of the first line of the
// active conflict, or -1.
func buildLines(doc *markers.TextDocument, conflicts []markers.Conflict, cfg config.Config, cursor markers.Position) ([]lineInfo, int) {
	lines := make([]lineInfo, doc.LineCount())
	for i := range lines {
		lines[i].text = doc.Line(i)
	}
	// A trailing newline leaves an empty last line that is not worth showing.
	if n := len(lines); n > 1 && lines[n-1].text == "" {
		lines = lines[:n-1]
	}

	activeStart := -1
	for _, c := range conflicts {
		active := c.Range.Contains(cursor)
		if active && activeStart < 0 {
			activeStart = c.Range.Start.Line
		}
		for line := c.Range.Start.Line; line <= c.Range.End.Line && line < len(lines); line++ {
			lines[line].active = active
			lines[line].gutter = "│"
		}
		for _, r := range cfg.VisibleRegions([]markers.Conflict{c}) {
			if r.Range.IsEmpty() {
				continue
			}
			for line := r.Range.Start.Line; line <= r.Range.End.Line && line < len(lines); line++ {
				lines[line].region = r.Kind
				lines[line].marked = true
			}
		}
		if start := c.Range.Start.Line; start < len(lines) {
			lines[start].gutter = "┌"
		}
		if end := c.Range.End.Line; end < len(lines) && end != c.Range.Start.Line {
			lines[end].gutter = "└"
		}
	}

	if cursor.Line >= 0 && cursor.Line < len(lines) {
		lines[cursor.Line].cursor = true
	}
	return lines, activeStart
}

// renderLines draws lines with a line-number column and a conflict gutter.
// Region styles are looked up by kind; unmarked lines use plain.
func renderLines(lines []lineInfo, styles map[markers.RegionKind]lipgloss.Style, plain lipgloss.Style) string {
	if len(lines) == 0 {
		return ""
	}

	width := len(fmt.Sprintf("%d", len(lines)))
	var b strings.Builder
	for i, line := range lines {
		style := plain
		if line.marked {
			if s, ok := styles[line.region]; ok {
				style = s
			}
		}
		if line.active {
			style = style.Bold(true)
		}
		if line.cursor {
			style = style.Background(cursorBackground)
		}

		gutter := line.gutter
		if gutter == "" {
			gutter = " "
		}
		gutterStyle := lineNumberStyle
		if line.active {
			gutterStyle = activeGutterStyle
		}

		text := line.text
		if text == "" && line.cursor {
			text = " "
		}
		b.WriteString(lineNumberStyle.Render(fmt.Sprintf("%*d", width, i+1)))
		b.WriteString(" " + gutterStyle.Render(gutter) + " ")
		b.WriteString(style.Render(text))
		if i < len(lines)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// regionSuffix is shown after marker lines, as the region is otherwise only
// told apart by colour.
var regionSuffix = map[markers.RegionKind]string{
	markers.RegionCurrentHeader:  "  (Current change)",
	markers.RegionIncomingHeader: "  (Incoming change)",
}

func annotate(lines []lineInfo) {
	for i := range lines {
		if !lines[i].marked {
			continue
		}
		if suffix, ok := regionSuffix[lines[i].region]; ok {
			lines[i].text += suffix
		}
	}
}

// shortLabel abbreviates the first commit hash in a marker label.
func shortLabel(label string) string {
	start, end := firstHexRun(label)
	if start < 0 || end-start <= 7 {
		return label
	}
	return label[:start+7] + label[end:]
}

func firstHexRun(label string) (int, int) {
	for i := 0; i < len(label); i++ {
		if !isHexByte(label[i]) {
			continue
		}
		end := i
		for end < len(label) && isHexByte(label[end]) {
			end++
		}
		if end-i >= 7 {
			return i, end
		}
		i = end
	}
	return -1, -1
}

func isHexByte(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
