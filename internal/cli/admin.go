package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Danikxd/maturita-web/internal/admin"
	"github.com/Danikxd/maturita-web/internal/app"
	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/models"
	"github.com/Danikxd/maturita-web/internal/reconcile"
	"github.com/spf13/cobra"
)

func newAdminCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Channel directory administration",
	}
	channels := &cobra.Command{
		Use:   "channels",
		Short: "Create, edit, delete and import channels",
	}
	channels.AddCommand(newAdminListCommand(opts))
	channels.AddCommand(newAdminAddCommand(opts))
	channels.AddCommand(newAdminEditCommand(opts))
	channels.AddCommand(newAdminRmCommand(opts))
	channels.AddCommand(newAdminImportCommand(opts))
	cmd.AddCommand(channels)
	return cmd
}

// requireAdmin fails with not_admin before anything is loaded.
func requireAdmin(cmd *cobra.Command, a *app.App) error {
	ok, err := a.Admin.IsAdmin(cmd.Context())
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Rejected(apperr.CodeNotAdmin, "admin rights required", nil)
	}
	return nil
}

func newAdminListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List channels by id, with their logo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app.App, out *OutputFormatter) error {
				if err := requireAdmin(cmd, a); err != nil {
					return err
				}
				if _, err := a.Channels.Load(cmd.Context()); err != nil {
					return err
				}
				chans := a.Channels.SortedByID()
				return out.Success(chans, func(w io.Writer) {
					th := newTheme(w)
					fmt.Fprintln(w, th.header.Render(fmt.Sprintf("%-6s %-24s %-24s %s", "ID", "NAME", "DISPLAY NAME", "LOGO")))
					for _, c := range chans {
						fmt.Fprintf(w, "%-6d %-24s %-24s %s\n", c.ID, c.ChannelName, deref(c.DisplayName), deref(c.LogoURL))
					}
				})
			})
		},
	}
}

type channelFlags struct {
	*RootOptions
	Name     string
	Display  string
	Logo     string
	LogoFile string
}

func (o *channelFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Name, "name", "", "channel name")
	cmd.Flags().StringVar(&o.Display, "display", "", "display name")
	cmd.Flags().StringVar(&o.Logo, "logo", "", "logo URL")
	cmd.Flags().StringVar(&o.LogoFile, "logo-file", "", "image file to upload as the logo")
	cmd.MarkFlagsMutuallyExclusive("logo", "logo-file")
}

func (o *channelFlags) logo() (*admin.Logo, error) {
	if o.LogoFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(o.LogoFile)
	if err != nil {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("read logo: %v", err))
	}
	return &admin.Logo{Filename: filepath.Base(o.LogoFile), Data: data}, nil
}

func (o *channelFlags) save(cmd *cobra.Command, a *app.App, out *OutputFormatter, w admin.ChannelWrite, verb string) error {
	logo, err := o.logo()
	if err != nil {
		return err
	}
	if _, err := a.Channels.Load(cmd.Context()); err != nil {
		out.VerboseLog("channels not refreshed: %v", err)
	}
	ch, res, err := a.Admin.SaveChannel(cmd.Context(), w, logo)
	if err != nil {
		return err
	}
	return reportChannel(out, verb, ch, res)
}

func newAdminAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &channelFlags{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts.RootOptions, func(a *app.App, out *OutputFormatter) error {
				w := admin.ChannelWrite{ChannelName: opts.Name, DisplayName: opts.Display, LogoURL: opts.Logo}
				return opts.save(cmd, a, out, w, "Created")
			})
		},
	}
	opts.bind(cmd)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newAdminEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &channelFlags{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Update a channel; omitted flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts.RootOptions, func(a *app.App, out *OutputFormatter) error {
				if _, err := a.Channels.Load(cmd.Context()); err != nil {
					return err
				}
				cur, err := a.Channels.Lookup(id)
				if err != nil {
					return err
				}
				w := admin.ChannelWrite{
					ID:          id,
					ChannelName: cur.ChannelName,
					DisplayName: deref(cur.DisplayName),
					LogoURL:     deref(cur.LogoURL),
				}
				if cmd.Flags().Changed("name") {
					w.ChannelName = opts.Name
				}
				if cmd.Flags().Changed("display") {
					w.DisplayName = opts.Display
				}
				if cmd.Flags().Changed("logo") {
					w.LogoURL = opts.Logo
				}
				return opts.save(cmd, a, out, w, "Updated")
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

func newAdminRmCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a channel",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app.App, out *OutputFormatter) error {
				if err := requireAdmin(cmd, a); err != nil {
					return err
				}
				if _, err := a.Channels.Load(cmd.Context()); err != nil {
					out.VerboseLog("channels not refreshed: %v", err)
				}
				res, err := a.Admin.DeleteChannel(cmd.Context(), id)
				if err != nil {
					return err
				}
				return reportOutcome(out, fmt.Sprintf("Deleted channel %d", id), res)
			})
		},
	}
}

func newAdminImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <playlist.m3u>",
		Short: "Create the channels of an M3U playlist that the directory lacks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("open playlist: %v", err))
			}
			defer f.Close()
			return withApp(cmd, opts, func(a *app.App, out *OutputFormatter) error {
				if _, err := a.Channels.Load(cmd.Context()); err != nil {
					return err
				}
				ir, res, err := a.Admin.ImportPlaylist(cmd.Context(), f)
				if res.SyncErr != nil {
					out.Warn(apperr.UserMessage(res.SyncErr))
				}
				if err != nil {
					if ir.Created > 0 {
						out.Warn(fmt.Sprintf("import stopped after %d channel(s)", ir.Created))
					}
					return err
				}
				return out.Success(ir, func(w io.Writer) {
					fmt.Fprintf(w, "%s %d channel(s), skipped %d\n", newTheme(w).ok.Render("Imported"), ir.Created, ir.Skipped)
				})
			})
		},
	}
}

type channelResult struct {
	Channel   models.Channel `json:"channel"`
	Outcome   string         `json:"outcome"`
	SyncError string         `json:"sync_error,omitempty"`
}

func reportChannel(out *OutputFormatter, verb string, c models.Channel, res reconcile.Result) error {
	if res.SyncErr != nil {
		out.Warn(apperr.UserMessage(res.SyncErr))
	}
	return out.Success(channelResult{Channel: c, Outcome: res.Outcome.String(), SyncError: syncErrText(res)}, func(w io.Writer) {
		fmt.Fprintf(w, "%s channel %d: %s\n", newTheme(w).ok.Render(verb), c.ID, c.Label())
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
