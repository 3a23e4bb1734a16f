package cli

import (
	"fmt"
	"io"

	"github.com/Danikxd/maturita-web/internal/app"
	"github.com/spf13/cobra"
)

type credentialOptions struct {
	*RootOptions
	Email    string
	Password string
}

func (o *credentialOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&o.Password, "password", "p", "", "account password (default: $TVMINDER_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
}

func newLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &credentialOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts.RootOptions, func(a *app.App, out *OutputFormatter) error {
				s, err := a.Sessions.SignIn(cmd.Context(), opts.Email, passwordFrom(opts.Password))
				if err != nil {
					return err
				}
				if _, err := a.Reminders.Load(cmd.Context()); err != nil {
					out.VerboseLog("reminders not refreshed: %v", err)
				}
				return out.Success(map[string]string{"user_id": s.UserID, "email": s.Email}, func(w io.Writer) {
					fmt.Fprintf(w, "%s %s\n", newTheme(w).ok.Render("Signed in as"), s.Email)
				})
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

func newSignupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &credentialOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts.RootOptions, func(a *app.App, out *OutputFormatter) error {
				res, err := a.Sessions.SignUp(cmd.Context(), opts.Email, passwordFrom(opts.Password))
				if err != nil {
					return err
				}
				signedIn := res.Session != nil
				return out.Success(map[string]any{"user_id": res.User.ID, "email": res.User.Email, "signed_in": signedIn}, func(w io.Writer) {
					if signedIn {
						fmt.Fprintf(w, "%s %s\n", newTheme(w).ok.Render("Account created, signed in as"), res.User.Email)
						return
					}
					fmt.Fprintf(w, "Account created. Confirm %s, then run tvminder login.\n", res.User.Email)
				})
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

func newLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app.App, out *OutputFormatter) error {
				if err := a.Sessions.SignOut(cmd.Context()); err != nil {
					return err
				}
				return out.Success(map[string]bool{"signed_out": true}, func(w io.Writer) {
					fmt.Fprintln(w, "Signed out.")
				})
			})
		},
	}
}

func newWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app.App, out *OutputFormatter) error {
				u, err := a.Sessions.GetUser(cmd.Context())
				if err != nil {
					return err
				}
				admin, err := a.Admin.IsAdmin(cmd.Context())
				if err != nil {
					out.VerboseLog("admin check failed: %v", err)
				}
				return out.Success(map[string]any{"user_id": u.ID, "email": u.Email, "is_admin": admin}, func(w io.Writer) {
					fmt.Fprintf(w, "%s (%s)", u.Email, u.ID)
					if admin {
						fmt.Fprint(w, " ", newTheme(w).header.Render("admin"))
					}
					fmt.Fprintln(w)
				})
			})
		},
	}
}
