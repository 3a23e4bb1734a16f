package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/Danikxd/maturita-web/internal/app"
	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/directory"
	"github.com/Danikxd/maturita-web/internal/models"
	"github.com/Danikxd/maturita-web/internal/reconcile"
	"github.com/Danikxd/maturita-web/internal/reminder"
	"github.com/spf13/cobra"
)

func newRemindersCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reminders",
		Aliases: []string{"r"},
		Short:   "Manage your reminders",
	}
	cmd.AddCommand(newRemindersListCommand(opts))
	cmd.AddCommand(newRemindersAddCommand(opts))
	cmd.AddCommand(newRemindersEditCommand(opts))
	cmd.AddCommand(newRemindersRmCommand(opts))
	return cmd
}

func newRemindersListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app.App, out *OutputFormatter) error {
				loadChannels(cmd, a, out)
				items, err := a.Reminders.Load(cmd.Context())
				if err != nil {
					if apperr.KindOf(err) != apperr.KindNetworkUnavailable {
						return err
					}
					out.Warn(apperr.UserMessage(err))
				}
				return out.Success(items, func(w io.Writer) { renderReminders(w, items, a.Channels) })
			})
		},
	}
}

type reminderFlags struct {
	*RootOptions
	Channel      int64
	Title        string
	NotifyBefore int
}

func (o *reminderFlags) bind(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&o.Channel, "channel", 0, "channel id")
	cmd.Flags().StringVarP(&o.Title, "title", "t", "", "programme title to be reminded of")
	cmd.Flags().IntVarP(&o.NotifyBefore, "notify-before", "n", models.MinNotifyBefore, "days of advance notice (1-14)")
}

func (o *reminderFlags) input() reminder.Input {
	return reminder.Input{ChannelID: o.Channel, Title: o.Title, NotifyBefore: o.NotifyBefore}
}

func newRemindersAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &reminderFlags{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a reminder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts.RootOptions, func(a *app.App, out *OutputFormatter) error {
				loadChannels(cmd, a, out)
				if opts.Channel == 0 {
					opts.Channel = a.Channels.PinnedID()
				}
				r, res, err := a.Reminders.Create(cmd.Context(), opts.input())
				if err != nil {
					return err
				}
				return reportReminder(out, "Added", r, res, a.Channels)
			})
		},
	}
	opts.bind(cmd)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newRemindersEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &reminderFlags{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a reminder; omitted flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts.RootOptions, func(a *app.App, out *OutputFormatter) error {
				loadChannels(cmd, a, out)
				if _, err := a.Reminders.Load(cmd.Context()); err != nil {
					return err
				}
				current, err := a.Reminders.Get(id)
				if err != nil {
					return err
				}
				in := reminder.InputFrom(current)
				if cmd.Flags().Changed("channel") {
					in.ChannelID = opts.Channel
				}
				if cmd.Flags().Changed("title") {
					in.Title = opts.Title
				}
				if cmd.Flags().Changed("notify-before") {
					in.NotifyBefore = opts.NotifyBefore
				}
				r, res, err := a.Reminders.Update(cmd.Context(), id, in)
				if err != nil {
					return err
				}
				return reportReminder(out, "Updated", r, res, a.Channels)
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

func newRemindersRmCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a reminder",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app.App, out *OutputFormatter) error {
				if _, err := a.Reminders.Load(cmd.Context()); err != nil {
					out.VerboseLog("reminders not refreshed: %v", err)
				}
				res, err := a.Reminders.Delete(cmd.Context(), id)
				if err != nil {
					return err
				}
				return reportOutcome(out, fmt.Sprintf("Deleted reminder %d", id), res)
			})
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid id %q", s))
	}
	return id, nil
}

func loadChannels(cmd *cobra.Command, a *app.App, out *OutputFormatter) {
	if _, err := a.Channels.Load(cmd.Context()); err != nil {
		out.VerboseLog("channels not refreshed: %v", err)
	}
}

func channelLabel(dir *directory.Directory, id int64) string {
	if c, err := dir.Lookup(id); err == nil {
		return c.Label()
	}
	return fmt.Sprintf("channel %d", id)
}

func renderReminders(w io.Writer, items []models.Reminder, dir *directory.Directory) {
	th := newTheme(w)
	if len(items) == 0 {
		fmt.Fprintln(w, th.muted.Render("No reminders."))
		return
	}
	fmt.Fprintln(w, th.header.Render(fmt.Sprintf("%-6s %-20s %-6s %s", "ID", "CHANNEL", "DAYS", "TITLE")))
	for _, r := range items {
		fmt.Fprintf(w, "%-6d %-20s %-6d %s\n", r.ID, channelLabel(dir, r.ChannelID), r.NotifyBefore, r.Title)
	}
}

type reminderResult struct {
	Reminder  models.Reminder `json:"reminder"`
	Outcome   string          `json:"outcome"`
	SyncError string          `json:"sync_error,omitempty"`
}

func reportReminder(out *OutputFormatter, verb string, r models.Reminder, res reconcile.Result, dir *directory.Directory) error {
	if res.SyncErr != nil {
		out.Warn(apperr.UserMessage(res.SyncErr))
	}
	return out.Success(reminderResult{Reminder: r, Outcome: res.Outcome.String(), SyncError: syncErrText(res)}, func(w io.Writer) {
		fmt.Fprintf(w, "%s reminder %d: %q on %s, %d day(s) ahead\n",
			newTheme(w).ok.Render(verb), r.ID, r.Title, channelLabel(dir, r.ChannelID), r.NotifyBefore)
	})
}

func reportOutcome(out *OutputFormatter, msg string, res reconcile.Result) error {
	if res.SyncErr != nil {
		out.Warn(apperr.UserMessage(res.SyncErr))
	}
	return out.Success(map[string]string{"outcome": res.Outcome.String(), "sync_error": syncErrText(res)}, func(w io.Writer) {
		fmt.Fprintln(w, newTheme(w).ok.Render(msg))
	})
}

func syncErrText(res reconcile.Result) string {
	if res.SyncErr == nil {
		return ""
	}
	return res.SyncErr.Error()
}
