package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chojs23/mergelens/internal/markers"
	"github.com/spf13/pflag"
)

var ErrHelp = errors.New("help requested")
var ErrVersion = errors.New("version requested")

// Flags holds the switches that do not end up in Options.
type Flags struct {
	Help    bool
	Version bool
}

// BindFlags registers every mergelens flag on fs.
func BindFlags(fs *pflag.FlagSet, opts *Options, flags *Flags) {
	fs.StringVar(&opts.MergedPath, "merged", "", "Path to MERGED file (output target)")
	fs.StringVar(&opts.ApplyAll, "apply-all", "", "Non-interactive resolution: current|incoming|both")
	fs.BoolVar(&opts.Check, "check", false, "Exit 0 if resolved (no conflict markers), else 1")
	fs.BoolVar(&opts.Backup, "backup", false, "Create $MERGED.mergelens.bak on write")
	fs.BoolVarP(&opts.Yes, "yes", "y", false, "Do not ask before --apply-all rewrites a file")
	fs.CountVarP(&opts.Verbose, "verbose", "v", "Verbose logging to stderr (repeat for more)")
	fs.StringVar(&opts.LogFile, "log-file", "", "Write logs to this file instead of stderr")
	fs.DurationVar(&opts.CacheTTL, "cache-ttl", 0, "How long a conflict scan is reused (default 100ms)")
	fs.DurationVar(&opts.ScanTimeout, "scan-timeout", 0, "Budget for one conflict scan (default 1s)")
	fs.BoolVarP(&flags.Help, "help", "h", false, "Show help")
	fs.BoolVar(&flags.Version, "version", false, "Show version")
}

// Parse parses the root command line into Options.
func Parse(args []string) (Options, error) {
	var opts Options
	var flags Flags

	fs := pflag.NewFlagSet("mergelens", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	BindFlags(fs, &opts, &flags)

	if err := fs.Parse(args); err != nil {
		return Options{}, fmt.Errorf("%w\n\n%s", err, Usage())
	}
	if flags.Help {
		return Options{}, ErrHelp
	}
	if flags.Version {
		return Options{}, ErrVersion
	}

	return Validate(opts, fs.Args())
}

// Validate applies positional arguments and checks mode requirements.
func Validate(opts Options, args []string) (Options, error) {
	// Positional form: <MERGED>
	if opts.MergedPath == "" && len(args) == 1 {
		opts.MergedPath = args[0]
	} else if len(args) > 1 || (len(args) == 1 && opts.MergedPath != "") {
		return Options{}, fmt.Errorf("unexpected arguments: %s\n\n%s", strings.Join(args, " "), Usage())
	}

	if opts.CacheTTL < 0 || opts.ScanTimeout < 0 {
		return Options{}, fmt.Errorf("durations must not be negative")
	}
	if opts.ScanTimeout > time.Minute {
		return Options{}, fmt.Errorf("--scan-timeout %s is too large (max 1m)", opts.ScanTimeout)
	}

	opts.ApplyAll = strings.ToLower(strings.TrimSpace(opts.ApplyAll))
	if opts.ApplyAll != "" {
		res, err := markers.ParseResolution(opts.ApplyAll)
		if err != nil {
			return Options{}, fmt.Errorf("invalid --apply-all: %q (expected current|incoming|both)", opts.ApplyAll)
		}
		opts.ApplyAll = string(res)
	}

	if opts.Check && opts.ApplyAll != "" {
		return Options{}, fmt.Errorf("--check and --apply-all are mutually exclusive\n\n%s", Usage())
	}

	if opts.Check {
		// Only needs merged.
		if opts.MergedPath == "" {
			return Options{}, fmt.Errorf("--check requires --merged (or a positional path)\n\n%s", Usage())
		}
		return opts, nil
	}

	if opts.ApplyAll != "" && opts.MergedPath == "" {
		return Options{}, fmt.Errorf("--apply-all requires --merged (or a positional path)\n\n%s", Usage())
	}

	return opts, nil
}

func Usage() string {
	return strings.TrimSpace(`Usage:
	  mergelens
	  mergelens <MERGED>
	  mergelens --merged <path>
	  mergelens lsp

Modes:
	  --check                     Exit 0 if $MERGED has no valid conflict blocks, else 1
	  --apply-all current|incoming|both
	                              Resolve all conflicts non-interactively and write $MERGED
	  lsp                         Serve code lenses and resolve commands over stdio

No-args mode:
	  If invoked with no paths and no mode flags, mergelens lists
	  conflicted files under the current directory and prompts to select one.

Options:
	  --backup                    Create $MERGED.mergelens.bak
	  -y, --yes                   Skip the --apply-all confirmation
	  --cache-ttl <duration>      Reuse a scan for this long (default 100ms)
	  --scan-timeout <duration>   Give up on a scan after this long (default 1s)
	  --log-file <path>           Write logs to a file
	  --version                   Show version
	  -v                          Verbose logging (repeatable)
`)
}
