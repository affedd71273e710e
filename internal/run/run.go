// Package run dispatches a parsed command line to the check, apply-all,
// viewer and repository modes.
package run

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/chojs23/mergelens/internal/cli"
	"github.com/chojs23/mergelens/internal/config"
	"github.com/chojs23/mergelens/internal/engine"
	"github.com/chojs23/mergelens/internal/tui"
	"github.com/tliron/commonlog"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitUnresolved = 1
	ExitError      = 2
)

var errAborted = errors.New("aborted")

var log = commonlog.GetLogger("mergelens.run")

// confirm asks before --apply-all rewrites a file. Tests replace it.
var confirm = func(title string) (bool, error) {
	ok := false
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Rewrite").
		Negative("Cancel").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

func Run(ctx context.Context, opts cli.Options) int {
	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitError
	}
	opts.ScanTimeout = cfg.ScanTimeout
	opts.CacheTTL = cfg.CacheTTL

	if opts.Check {
		return check(ctx, opts)
	}

	if opts.ApplyAll != "" {
		if err := applyAll(ctx, opts); err != nil {
			if errors.Is(err, errAborted) {
				fmt.Fprintln(os.Stderr, "Aborted; nothing written.")
				return ExitUnresolved
			}
			fmt.Fprintln(os.Stderr, err)
			return ExitError
		}
		return ExitOK
	}

	// Repository mode: pick a conflicted file, view it, come back.
	if opts.MergedPath == "" {
		for {
			selected := opts
			if err := prepareInteractiveFromRepo(ctx, &selected); err != nil {
				if errors.Is(err, errNoConflicts) {
					fmt.Fprintln(os.Stdout, "No conflicted files found in the current directory.")
					return ExitOK
				}
				if errors.Is(err, tui.ErrSelectorQuit) {
					return ExitOK
				}
				fmt.Fprintln(os.Stderr, err)
				return ExitError
			}

			err := tui.Run(ctx, selected, cfg)
			if err != nil {
				if errors.Is(err, tui.ErrBackToSelector) {
					continue
				}
				fmt.Fprintln(os.Stderr, err)
				return ExitError
			}
			return ExitOK
		}
	}

	if err := tui.Run(ctx, opts, cfg); err != nil {
		if errors.Is(err, tui.ErrBackToSelector) {
			return ExitOK
		}
		fmt.Fprintln(os.Stderr, err)
		return ExitError
	}
	return ExitOK
}

// loadConfig reads the config file and lets explicit flags win over it.
func loadConfig(opts cli.Options) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if opts.ScanTimeout > 0 {
		cfg.ScanTimeout = opts.ScanTimeout
	}
	if opts.CacheTTL > 0 {
		cfg.CacheTTL = opts.CacheTTL
	}
	return cfg, nil
}

func check(ctx context.Context, opts cli.Options) int {
	resolved, err := engine.CheckResolvedFile(ctx, opts.MergedPath, engine.ScannerFor(opts))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitError
	}
	if resolved {
		return ExitOK
	}
	return ExitUnresolved
}

func applyAll(ctx context.Context, opts cli.Options) error {
	if !opts.Yes && isInteractiveTTY() {
		ok, err := confirm(fmt.Sprintf("Resolve every conflict in %s with %s?", opts.MergedPath, opts.ApplyAll))
		if err != nil {
			return fmt.Errorf("confirm: %w", err)
		}
		if !ok {
			log.Info("apply-all declined")
			return errAborted
		}
	}
	return engine.ApplyAllAndWrite(ctx, opts)
}
