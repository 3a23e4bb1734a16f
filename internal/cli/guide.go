package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Danikxd/maturita-web/internal/app"
	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/models"
	"github.com/Danikxd/maturita-web/internal/programme"
	"github.com/spf13/cobra"
)

type channelsOptions struct {
	*RootOptions
	Order string
}

func newChannelsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &channelsOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "List the channel directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts.RootOptions, func(a *app.App, out *OutputFormatter) error {
				if _, err := a.Channels.Load(cmd.Context()); err != nil {
					if a.Channels.Len() == 0 {
						return err
					}
					out.Warn(apperr.UserMessage(err))
				}
				var chans []models.Channel
				switch opts.Order {
				case "selection":
					chans = a.Channels.OrderedForSelection()
				case "id":
					chans = a.Channels.SortedByID()
				case "arrival":
					chans = a.Channels.All()
				default:
					return NewExitError(ExitCommandError, fmt.Sprintf("invalid order %q: must be selection, id or arrival", opts.Order))
				}
				return out.Success(chans, func(w io.Writer) { renderChannels(w, chans) })
			})
		},
	}
	cmd.Flags().StringVar(&opts.Order, "order", "selection", "ordering (selection|id|arrival)")
	return cmd
}

func renderChannels(w io.Writer, chans []models.Channel) {
	th := newTheme(w)
	fmt.Fprintln(w, th.header.Render(fmt.Sprintf("%-6s %-24s %s", "ID", "NAME", "DISPLAY NAME")))
	for _, c := range chans {
		display := ""
		if c.DisplayName != nil {
			display = *c.DisplayName
		}
		fmt.Fprintf(w, "%-6d %-24s %s\n", c.ID, c.ChannelName, display)
	}
}

type guideOptions struct {
	*RootOptions
	Date    string
	Channel int64
}

func newGuideCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &guideOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "guide",
		Short: "Show the programme guide of a date",
		Long: `Show the programme guide of a date, grouped per channel with the
pinned channel first. When the guide cannot be fetched the last saved
guide of that date is shown instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date := opts.now()
			if opts.Date != "" {
				d, err := time.ParseInLocation(models.DateLayout, opts.Date, time.Local)
				if err != nil {
					return apperr.Validation(apperr.CodeInvalidDate, "date must be YYYY-MM-DD")
				}
				date = d
			}
			return withApp(cmd, opts.RootOptions, func(a *app.App, out *OutputFormatter) error {
				if _, err := a.Channels.Load(cmd.Context()); err != nil {
					out.VerboseLog("channels not refreshed: %v", err)
				}
				guide, err := a.Guide.Load(cmd.Context(), date)
				if err != nil {
					restored, ok := a.Guide.Restore(cmd.Context(), date)
					if !ok {
						return err
					}
					out.Warn(apperr.UserMessage(err))
					guide = restored
				}
				if opts.Channel != 0 {
					guide = onlyChannel(guide, opts.Channel)
				}
				return out.Success(guide, func(w io.Writer) { renderGuide(w, guide) })
			})
		},
	}
	cmd.Flags().StringVarP(&opts.Date, "date", "d", "", "date as YYYY-MM-DD (default: today)")
	cmd.Flags().Int64Var(&opts.Channel, "channel", 0, "only this channel id")
	return cmd
}

func onlyChannel(g programme.Guide, id int64) programme.Guide {
	out := g
	out.Groups = nil
	for _, gr := range g.Groups {
		if gr.ChannelID == id {
			out.Groups = append(out.Groups, gr)
		}
	}
	return out
}

// renderGuide prints one block per channel: a header line, then one line
// per programme with its start and end time.
func renderGuide(w io.Writer, g programme.Guide) {
	th := newTheme(w)
	title := "Programme guide " + g.Date
	if g.Stale {
		title += " (saved copy)"
	}
	fmt.Fprintln(w, th.header.Render(title))
	if len(g.Groups) == 0 {
		fmt.Fprintln(w, th.muted.Render("No programmes."))
		return
	}
	for _, gr := range g.Groups {
		fmt.Fprintln(w)
		fmt.Fprintln(w, th.header.Render(fmt.Sprintf("%s [%d]", gr.Label(), gr.ChannelID)))
		for _, p := range gr.Programmes {
			line := fmt.Sprintf("  %s-%s  %s", p.Start.Format("15:04"), p.End.Format("15:04"), p.Title)
			fmt.Fprintln(w, line)
			if p.Description != nil && strings.TrimSpace(*p.Description) != "" {
				fmt.Fprintln(w, th.muted.Render("               "+strings.TrimSpace(*p.Description)))
			}
		}
	}
}
