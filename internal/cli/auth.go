package cli

import (
	"fmt"

	"github.com/sangwon4052/sangwon-sign-off/internal/output"
	"github.com/spf13/cobra"
)

func newSignupCmd(app *App) *cobra.Command {
	var name, email, password, role string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Request an account; an administrator must approve it before you can log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if password == "" {
				if password, err = app.prompt("Password: "); err != nil {
					return err
				}
			}

			pending, err := app.Client.Signup(cmd.Context(), name, email, password, role)
			if err != nil {
				return explain("signing up", err)
			}

			if app.JSON {
				output.JSON(app.Out, pending)
				return nil
			}
			fmt.Fprintf(app.Out, "Signup received for %s (%s). An administrator will review it.\n", pending.Email, pending.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Your name")
	cmd.Flags().StringVar(&email, "email", "", "Your email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().StringVar(&role, "role", "requester", "Requested role: requester or approver")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginCmd(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email == "" {
				if email, err = app.prompt("Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = app.prompt("Password: "); err != nil {
					return err
				}
			}

			result, err := app.Client.Login(cmd.Context(), email, password)
			if err != nil {
				return explain("logging in", err)
			}
			if err := app.signIn(result); err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "Logged in as %s (%s, %s)\n", result.User.Name, result.User.Email, result.User.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted when omitted)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Session.Token != "" {
				// The token is dropped either way; the server call only records the event.
				if err := app.Client.Logout(cmd.Context()); err != nil && !isUnauthorized(err) {
					fmt.Fprintf(app.Err, "warning: server logout failed: %v\n", err)
				}
			}
			if err := app.signOut(); err != nil {
				return err
			}
			fmt.Fprintln(app.Out, "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireAuth(); err != nil {
				return err
			}

			user, err := app.Client.Me(cmd.Context())
			if err != nil {
				return explain("fetching user", err)
			}

			app.Session.User = user
			if err := app.Session.Save(); err != nil {
				return fmt.Errorf("saving session: %w", err)
			}

			if app.JSON {
				output.JSON(app.Out, user)
				return nil
			}
			output.UserInfo(app.Out, *user)
			return nil
		},
	}
}
