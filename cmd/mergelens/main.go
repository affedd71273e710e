package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/chojs23/mergelens/internal/cli"
	"github.com/chojs23/mergelens/internal/config"
	"github.com/chojs23/mergelens/internal/lsp"
	"github.com/chojs23/mergelens/internal/run"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

var version = "dev"

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	code := run.ExitOK
	root := newRootCommand(&code)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, err)
		return run.ExitError
	}
	return code
}

func newRootCommand(code *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mergelens [MERGED]",
		Short: "Find and resolve merge conflict markers",
		Args:  cobra.ArbitraryArgs,
		// cli.Parse owns the root flags so usage and errors match Usage().
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := cli.Parse(args)
			switch {
			case errors.Is(err, cli.ErrHelp):
				fmt.Fprintln(cmd.OutOrStdout(), cli.Usage())
				return nil
			case errors.Is(err, cli.ErrVersion):
				fmt.Fprintf(cmd.OutOrStdout(), "mergelens %s\n", versionString())
				return nil
			case err != nil:
				return err
			}
			configureLogging(opts.Verbose, opts.LogFile)
			*code = run.Run(cmd.Context(), opts)
			return nil
		},
	}

	cmd.AddCommand(newLSPCommand())
	return cmd
}

func newLSPCommand() *cobra.Command {
	var verbose int
	var logFile string

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Serve code lenses and resolve commands over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(verbose, logFile)
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return lsp.New(cfg, versionString()).RunStdio()
		},
	}
	cmd.Flags().CountVarP(&verbose, "verbose", "v", "Verbose logging (repeat for more)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")
	return cmd
}

// configureLogging sets up commonlog, which glsp logs through as well.
func configureLogging(verbose int, logFile string) {
	var path *string
	if logFile != "" {
		path = &logFile
	}
	commonlog.Configure(verbose, path)
}

func versionString() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	if info.Main.Version == "" || info.Main.Version == "(devel)" {
		return version
	}
	return info.Main.Version
}
