package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chojs23/mergelens/internal/cli"
	"github.com/chojs23/mergelens/internal/markers"
	"github.com/tliron/commonlog"
)

// BackupSuffix is appended to the merged path when a backup is requested.
const BackupSuffix = ".mergelens.bak"

var log = commonlog.GetLogger("mergelens.engine")

// ScannerFor returns a scanner bounded by opts.ScanTimeout when it is set.
func ScannerFor(opts cli.Options) *markers.Scanner {
	s := markers.NewScanner()
	if opts.ScanTimeout > 0 {
		s.Timeout = opts.ScanTimeout
	}
	return s
}

// CheckResolvedFile reports whether mergedPath is free of conflict blocks.
func CheckResolvedFile(ctx context.Context, mergedPath string, scanner *markers.Scanner) (bool, error) {
	data, err := os.ReadFile(mergedPath)
	if err != nil {
		return false, fmt.Errorf("read merged: %w", err)
	}

	text := string(data)
	if !markers.ContainsConflict(text) {
		return true, nil
	}

	matches, err := scanner.ScanContext(ctx, text)
	if err != nil {
		// A scan that gave up must not report the file as resolved.
		return false, fmt.Errorf("scan %s: %w", filepath.Base(mergedPath), err)
	}

	return len(matches) == 0, nil
}

// ApplyAllAndWrite resolves every conflict in opts.MergedPath with
// opts.ApplyAll and writes the result back.
func ApplyAllAndWrite(ctx context.Context, opts cli.Options) error {
	if opts.ApplyAll == "" {
		return errors.New("internal: ApplyAllAndWrite called without apply mode")
	}
	res, err := markers.ParseResolution(opts.ApplyAll)
	if err != nil {
		return err
	}

	mergedBytes, err := os.ReadFile(opts.MergedPath)
	if err != nil {
		return fmt.Errorf("read merged: %w", err)
	}

	doc := markers.NewTextDocument(opts.MergedPath, string(mergedBytes))
	conflicts, err := ScanFile(ctx, doc, ScannerFor(opts))
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		// No conflicts detected: exit 0 without writing.
		log.Infof("no conflicts in %s", opts.MergedPath)
		return nil
	}

	edits, err := ResolveAll(doc, conflicts, res)
	if err != nil {
		return err
	}
	resolved, err := ApplyEdits(doc.Text(), edits)
	if err != nil {
		return err
	}

	if opts.Backup {
		bak := opts.MergedPath + BackupSuffix
		if err := os.WriteFile(bak, mergedBytes, 0o644); err != nil {
			return fmt.Errorf("write backup %s: %w", filepath.Base(bak), err)
		}
	}

	if err := os.WriteFile(opts.MergedPath, []byte(resolved), 0o644); err != nil {
		return fmt.Errorf("write merged: %w", err)
	}
	log.Infof("resolved %d conflicts in %s with %s", len(conflicts), opts.MergedPath, res)

	// A body may itself carry marker lines; report them rather than fail.
	if markers.ContainsConflict(resolved) {
		if left := ScannerFor(opts).Scan(ctx, resolved); len(left) != 0 {
			log.Warningf("%s still contains %d conflict blocks", opts.MergedPath, len(left))
		}
	}

	return nil
}

// ScanFile scans doc and maps the matches, failing if the scan ran out of
// budget.
func ScanFile(ctx context.Context, doc markers.Document, scanner *markers.Scanner) ([]markers.Conflict, error) {
	if !markers.ContainsConflict(doc.Text()) {
		return nil, nil
	}
	matches, err := scanner.ScanContext(ctx, doc.Text())
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", doc.Identity(), err)
	}
	return markers.Conflicts(doc, matches), nil
}
