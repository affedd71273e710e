// Package config reads mergelens settings from JSON: the user config file
// and LSP initializationOptions share one format.
//
//	{
//	  "codeLens": true,
//	  "decorations": true,
//	  "editorOverview": true,
//	  "cacheTTL": 100,
//	  "scanTimeout": 1000
//	}
//
// Durations are milliseconds. The same keys may be nested under "mergelens".
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chojs23/mergelens/internal/markers"
	"github.com/chojs23/mergelens/internal/tracker"
	"github.com/tidwall/gjson"
)

const (
	dirName  = "mergelens"
	fileName = "config.json"
)

var ErrInvalidJSON = errors.New("invalid config JSON")

type Config struct {
	CodeLens       bool
	Decorations    bool
	EditorOverview bool
	CacheTTL       time.Duration
	ScanTimeout    time.Duration
}

func Default() Config {
	return Config{
		CodeLens:       true,
		Decorations:    true,
		EditorOverview: true,
		CacheTTL:       tracker.DefaultTTL,
		ScanTimeout:    markers.DefaultScanTimeout,
	}
}

// Overlay returns base with every key present in data applied. Empty data
// returns base unchanged.
func Overlay(base Config, data []byte) (Config, error) {
	if len(data) == 0 {
		return base, nil
	}
	if !gjson.ValidBytes(data) {
		return base, ErrInvalidJSON
	}

	root := gjson.ParseBytes(data)
	if ns := root.Get(dirName); ns.IsObject() {
		root = ns
	}
	if !root.IsObject() {
		return base, fmt.Errorf("%w: expected an object", ErrInvalidJSON)
	}

	cfg := base
	setBool(root, "codeLens", &cfg.CodeLens)
	setBool(root, "decorations", &cfg.Decorations)
	setBool(root, "editorOverview", &cfg.EditorOverview)
	if err := setMillis(root, "cacheTTL", &cfg.CacheTTL); err != nil {
		return base, err
	}
	if err := setMillis(root, "scanTimeout", &cfg.ScanTimeout); err != nil {
		return base, err
	}
	return cfg, nil
}

// Parse is Overlay on Default.
func Parse(data []byte) (Config, error) {
	return Overlay(Default(), data)
}

// Path returns the user config file location.
func Path() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, dirName, fileName), nil
}

// Load reads the user config file. A missing file, or no config directory,
// yields Default.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Default(), fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ShowsRegions reports whether any region highlighting is on.
func (c Config) ShowsRegions() bool {
	return c.Decorations || c.EditorOverview
}

// VisibleRegions lists the regions of conflicts that get highlighted. Bodies
// show with either flag; marker lines only with Decorations.
func (c Config) VisibleRegions(conflicts []markers.Conflict) []markers.LabeledRange {
	if !c.ShowsRegions() {
		return nil
	}
	var out []markers.LabeledRange
	for _, conflict := range conflicts {
		for _, r := range conflict.Regions() {
			switch r.Kind {
			case markers.RegionCurrentContent, markers.RegionIncomingContent:
				out = append(out, r)
			default:
				if c.Decorations {
					out = append(out, r)
				}
			}
		}
	}
	return out
}

func setBool(root gjson.Result, key string, dst *bool) {
	if v := root.Get(key); v.Exists() && (v.Type == gjson.True || v.Type == gjson.False) {
		*dst = v.Bool()
	}
}

func setMillis(root gjson.Result, key string, dst *time.Duration) error {
	v := root.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	if v.Type != gjson.Number {
		return fmt.Errorf("%s: expected milliseconds, got %s", key, v.Raw)
	}
	ms := v.Int()
	if ms < 0 || ms > time.Minute.Milliseconds() {
		return fmt.Errorf("%s: %dms out of range", key, ms)
	}
	if ms > 0 {
		*dst = time.Duration(ms) * time.Millisecond
	}
	return nil
}
