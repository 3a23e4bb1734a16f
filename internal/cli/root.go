// Package cli is the tvminder command line: session, channel directory,
// programme guide, reminders, channel administration and the local server.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/Danikxd/maturita-web/internal/app"
	"github.com/Danikxd/maturita-web/internal/config"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// open builds the App for a command; tests replace it.
	open func(ctx context.Context, opts *RootOptions) (*app.App, error)
	// now is the clock used for the default guide date.
	now func() time.Time
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command wired to the real services.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{open: openApp, now: time.Now})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tvminder",
		Short: "tvminder - TV guide reminders",
		Long: `Browse the TV programme guide and keep reminders for channels you
do not want to miss. Administrators can also manage the channel directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file (default: environment)")

	cmd.AddCommand(newLoginCommand(opts))
	cmd.AddCommand(newSignupCommand(opts))
	cmd.AddCommand(newLogoutCommand(opts))
	cmd.AddCommand(newWhoamiCommand(opts))
	cmd.AddCommand(newChannelsCommand(opts))
	cmd.AddCommand(newGuideCommand(opts))
	cmd.AddCommand(newRemindersCommand(opts))
	cmd.AddCommand(newAdminCommand(opts))
	cmd.AddCommand(newServeCommand(opts))

	return cmd
}

// Execute runs the CLI with args and returns the process exit code.
// Errors are reported through the output formatter.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return execute(ctx, &RootOptions{open: openApp, now: time.Now}, args, stdout, stderr)
}

func execute(ctx context.Context, opts *RootOptions, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	f := &OutputFormatter{Format: opts.Format, Writer: stdout, ErrWriter: stderr, Verbose: opts.Verbose}
	if f.Format != "json" {
		f.Format = "text"
	}
	f.Error(err)
	return GetExitCode(err)
}

func openApp(ctx context.Context, opts *RootOptions) (*app.App, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.LoadFromFile(opts.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("config: %v", err))
	}
	return app.New(ctx, cfg, app.NewClients(cfg))
}

// withApp opens the App, runs fn and closes the App.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(a *app.App, out *OutputFormatter) error) error {
	a, err := opts.open(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer a.Close()
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	return fn(a, out)
}

func passwordFrom(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv("TVMINDER_PASSWORD")
}
