package tui

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/chojs23/mergelens/internal/markers"
)

const themeConfigFileName = "themes.json"

type ThemeConfig struct {
	Default string           `json:"default"`
	Themes  map[string]Theme `json:"themes"`
}

type Theme struct {
	Name string `json:"-"`

	TitleFg            string `json:"title_fg"`
	PaneBorder         string `json:"pane_border"`
	HeaderBg           string `json:"header_bg"`
	HeaderFg           string `json:"header_fg"`
	FooterBg           string `json:"footer_bg"`
	FooterFg           string `json:"footer_fg"`
	LineNumberFg       string `json:"line_number"`
	TextFg             string `json:"text_fg"`
	CursorBg           string `json:"cursor_bg"`
	ActiveGutterFg     string `json:"active_gutter_fg"`
	CurrentHeaderBg    string `json:"current_header_bg"`
	CurrentHeaderFg    string `json:"current_header_fg"`
	CurrentContentBg   string `json:"current_content_bg"`
	CurrentContentFg   string `json:"current_content_fg"`
	SplitterBg         string `json:"splitter_bg"`
	SplitterFg         string `json:"splitter_fg"`
	IncomingContentBg  string `json:"incoming_content_bg"`
	IncomingContentFg  string `json:"incoming_content_fg"`
	IncomingHeaderBg   string `json:"incoming_header_bg"`
	IncomingHeaderFg   string `json:"incoming_header_fg"`
	StatusResolvedFg   string `json:"status_resolved_fg"`
	StatusUnresolvedFg string `json:"status_unresolved_fg"`
	ToastBg            string `json:"toast_bg"`
	ToastFg            string `json:"toast_fg"`
	WarningBg          string `json:"warning_bg"`
	WarningFg          string `json:"warning_fg"`
	SelectorResolvedFg string `json:"selector_resolved_fg"`
	SelectorPendingFg  string `json:"selector_pending_fg"`
}

var (
	titleStyle           lipgloss.Style
	paneStyle            lipgloss.Style
	headerStyle          lipgloss.Style
	footerStyle          lipgloss.Style
	lineNumberStyle      lipgloss.Style
	plainLineStyle       lipgloss.Style
	activeGutterStyle    lipgloss.Style
	statusResolvedStyle  lipgloss.Style
	statusPendingStyle   lipgloss.Style
	toastStyle           lipgloss.Style
	warningToastStyle    lipgloss.Style
	toastLineStyle       lipgloss.Style
	resolvedLabelStyle   lipgloss.Style
	unresolvedLabelStyle lipgloss.Style

	cursorBackground lipgloss.Color

	// regionStyles is keyed by region so a new kind fails loudly in tests
	// instead of rendering unstyled.
	regionStyles map[markers.RegionKind]lipgloss.Style
)

var (
	themeOnce sync.Once
	themeErr  error
)

func init() {
	applyTheme(defaultTheme())
}

func ensureThemeLoaded() error {
	themeOnce.Do(func() {
		theme, err := loadThemeFromConfig()
		if err != nil {
			themeErr = err
			return
		}
		applyTheme(theme)
	})
	return themeErr
}

func loadThemeFromConfig() (Theme, error) {
	fallback := defaultTheme()
	configPath, err := themeConfigPath()
	if err != nil {
		return fallback, nil
	}
	return loadThemeFile(configPath, fallback)
}

func loadThemeFile(configPath string, fallback Theme) (Theme, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fallback, nil
		}
		return Theme{}, fmt.Errorf("read theme config: %w", err)
	}

	var cfg ThemeConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Theme{}, fmt.Errorf("parse theme config: %w", err)
	}

	themeName := strings.TrimSpace(cfg.Default)
	if themeName == "" {
		themeName = "default"
	}

	theme, ok := cfg.Themes[themeName]
	if !ok {
		return Theme{}, fmt.Errorf("theme %q not found in %s", themeName, configPath)
	}
	theme.Name = themeName
	return mergeTheme(fallback, theme), nil
}

func themeConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "mergelens", themeConfigFileName), nil
}

// defaultTheme uses green for the current side and blue for the incoming
// side, with the bodies a darker shade of their header.
func defaultTheme() Theme {
	return Theme{
		Name:               "default",
		TitleFg:            "170",
		PaneBorder:         "63",
		HeaderBg:           "62",
		HeaderFg:           "230",
		FooterBg:           "236",
		FooterFg:           "243",
		LineNumberFg:       "241",
		TextFg:             "252",
		CursorBg:           "238",
		ActiveGutterFg:     "226",
		CurrentHeaderBg:    "#20C85E",
		CurrentHeaderFg:    "231",
		CurrentContentBg:   "22",
		CurrentContentFg:   "231",
		SplitterBg:         "240",
		SplitterFg:         "231",
		IncomingContentBg:  "18",
		IncomingContentFg:  "231",
		IncomingHeaderBg:   "#1886FF",
		IncomingHeaderFg:   "231",
		StatusResolvedFg:   "42",
		StatusUnresolvedFg: "196",
		ToastBg:            "22",
		ToastFg:            "230",
		WarningBg:          "130",
		WarningFg:          "230",
		SelectorResolvedFg: "42",
		SelectorPendingFg:  "196",
	}
}

func mergeTheme(base Theme, override Theme) Theme {
	return Theme{
		Name:               override.Name,
		TitleFg:            pickColor(base.TitleFg, override.TitleFg),
		PaneBorder:         pickColor(base.PaneBorder, override.PaneBorder),
		HeaderBg:           pickColor(base.HeaderBg, override.HeaderBg),
		HeaderFg:           pickColor(base.HeaderFg, override.HeaderFg),
		FooterBg:           pickColor(base.FooterBg, override.FooterBg),
		FooterFg:           pickColor(base.FooterFg, override.FooterFg),
		LineNumberFg:       pickColor(base.LineNumberFg, override.LineNumberFg),
		TextFg:             pickColor(base.TextFg, override.TextFg),
		CursorBg:           pickColor(base.CursorBg, override.CursorBg),
		ActiveGutterFg:     pickColor(base.ActiveGutterFg, override.ActiveGutterFg),
		CurrentHeaderBg:    pickColor(base.CurrentHeaderBg, override.CurrentHeaderBg),
		CurrentHeaderFg:    pickColor(base.CurrentHeaderFg, override.CurrentHeaderFg),
		CurrentContentBg:   pickColor(base.CurrentContentBg, override.CurrentContentBg),
		CurrentContentFg:   pickColor(base.CurrentContentFg, override.CurrentContentFg),
		SplitterBg:         pickColor(base.SplitterBg, override.SplitterBg),
		SplitterFg:         pickColor(base.SplitterFg, override.SplitterFg),
		IncomingContentBg:  pickColor(base.IncomingContentBg, override.IncomingContentBg),
		IncomingContentFg:  pickColor(base.IncomingContentFg, override.IncomingContentFg),
		IncomingHeaderBg:   pickColor(base.IncomingHeaderBg, override.IncomingHeaderBg),
		IncomingHeaderFg:   pickColor(base.IncomingHeaderFg, override.IncomingHeaderFg),
		StatusResolvedFg:   pickColor(base.StatusResolvedFg, override.StatusResolvedFg),
		StatusUnresolvedFg: pickColor(base.StatusUnresolvedFg, override.StatusUnresolvedFg),
		ToastBg:            pickColor(base.ToastBg, override.ToastBg),
		ToastFg:            pickColor(base.ToastFg, override.ToastFg),
		WarningBg:          pickColor(base.WarningBg, override.WarningBg),
		WarningFg:          pickColor(base.WarningFg, override.WarningFg),
		SelectorResolvedFg: pickColor(base.SelectorResolvedFg, override.SelectorResolvedFg),
		SelectorPendingFg:  pickColor(base.SelectorPendingFg, override.SelectorPendingFg),
	}
}

func pickColor(base string, override string) string {
	if override != "" {
		return override
	}
	return base
}

func regionStyle(bg, fg string) lipgloss.Style {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(bg)).
		Foreground(lipgloss.Color(fg))
}

func applyTheme(theme Theme) {
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.TitleFg)).
		Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.PaneBorder)).
		Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Background(lipgloss.Color(theme.HeaderBg)).
		Foreground(lipgloss.Color(theme.HeaderFg)).
		Padding(0, 2)

	footerStyle = lipgloss.NewStyle().
		Background(lipgloss.Color(theme.FooterBg)).
		Foreground(lipgloss.Color(theme.FooterFg)).
		Padding(0, 2)

	lineNumberStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.LineNumberFg))

	plainLineStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.TextFg))

	activeGutterStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.ActiveGutterFg)).
		Bold(true)

	cursorBackground = lipgloss.Color(theme.CursorBg)

	regionStyles = map[markers.RegionKind]lipgloss.Style{
		markers.RegionCurrentHeader:   regionStyle(theme.CurrentHeaderBg, theme.CurrentHeaderFg),
		markers.RegionCurrentContent:  regionStyle(theme.CurrentContentBg, theme.CurrentContentFg),
		markers.RegionSplitter:        regionStyle(theme.SplitterBg, theme.SplitterFg),
		markers.RegionIncomingContent: regionStyle(theme.IncomingContentBg, theme.IncomingContentFg),
		markers.RegionIncomingHeader:  regionStyle(theme.IncomingHeaderBg, theme.IncomingHeaderFg),
	}

	statusResolvedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.StatusResolvedFg)).
		Bold(true)

	statusPendingStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.StatusUnresolvedFg)).
		Bold(true)

	toastStyle = lipgloss.NewStyle().
		Background(lipgloss.Color(theme.ToastBg)).
		Foreground(lipgloss.Color(theme.ToastFg)).
		Padding(0, 1)

	warningToastStyle = lipgloss.NewStyle().
		Background(lipgloss.Color(theme.WarningBg)).
		Foreground(lipgloss.Color(theme.WarningFg)).
		Padding(0, 1)

	toastLineStyle = lipgloss.NewStyle().
		Align(lipgloss.Right).
		Padding(0, 2)

	resolvedLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.SelectorResolvedFg))
	unresolvedLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.SelectorPendingFg))
}
