package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Danikxd/maturita-web/internal/app"
	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	*RootOptions
	Addr string
}

func newServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &serveOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON view API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)
			return withApp(cmd, opts.RootOptions, func(a *app.App, out *OutputFormatter) error {
				if opts.Addr != "" {
					a.Config.ListenAddr = opts.Addr
				}
				if _, err := a.Channels.Load(ctx); err != nil {
					out.Warn(apperr.UserMessage(err))
				}
				return a.Server().ListenAndServe(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default: config listen_addr)")
	return cmd
}
