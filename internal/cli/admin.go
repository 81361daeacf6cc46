package cli

import (
	"errors"
	"fmt"

	"github.com/sangwon4052/sangwon-sign-off/internal/output"
	"github.com/spf13/cobra"
)

var errAdminOnly = errors.New("this command requires an administrator account")

// requireAdmin fails fast on the cached role; the server still decides.
func (a *App) requireAdmin() error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	if role := a.currentRole(); role != "" && role != "admin" {
		return errAdminOnly
	}
	return nil
}

func newUsersCmd(app *App) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage active accounts (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireAdmin(); err != nil {
				return err
			}

			rows, err := app.Client.Users(cmd.Context(), role)
			if err != nil {
				return explain("listing users", err)
			}
			if app.JSON {
				output.JSON(app.Out, rows)
				return nil
			}
			output.UserTable(app.Out, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Filter by role")

	cmd.AddCommand(newUsersAddCmd(app), newUsersRoleCmd(app), newUsersRemoveCmd(app))
	return cmd
}

func newUsersAddCmd(app *App) *cobra.Command {
	var name, email, password, role string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an active account directly",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireAdmin(); err != nil {
				return err
			}
			var err error
			if password == "" {
				if password, err = app.prompt("Password: "); err != nil {
					return err
				}
			}

			u, err := app.Client.RegisterUser(cmd.Context(), name, email, password, role)
			if err != nil {
				return explain("creating user", err)
			}
			if app.JSON {
				output.JSON(app.Out, u)
				return nil
			}
			fmt.Fprintf(app.Out, "Created %s (%s, %s)\n", u.Email, u.Role, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().StringVar(&role, "role", "requester", "requester, approver or admin")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUsersRoleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "role <id> <role>",
		Short: "Switch a user between requester and approver",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireAdmin(); err != nil {
				return err
			}
			u, err := app.Client.ChangeRole(cmd.Context(), args[0], args[1])
			if err != nil {
				return explain("changing role", err)
			}
			fmt.Fprintf(app.Out, "%s is now %s\n", u.Email, u.Role)
			return nil
		},
	}
}

func newUsersRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete an account",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireAdmin(); err != nil {
				return err
			}
			if err := app.Client.DeleteUser(cmd.Context(), args[0]); err != nil {
				return explain("deleting user", err)
			}
			fmt.Fprintln(app.Out, "User deleted")
			return nil
		},
	}
}

func newPendingCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Review signup requests (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireAdmin(); err != nil {
				return err
			}
			rows, err := app.Client.PendingUsers(cmd.Context())
			if err != nil {
				return explain("listing signups", err)
			}
			if app.JSON {
				output.JSON(app.Out, rows)
				return nil
			}
			output.PendingUserTable(app.Out, rows)
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "approve <id>",
			Short: "Activate a signup request",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := app.requireAdmin(); err != nil {
					return err
				}
				u, err := app.Client.ApprovePendingUser(cmd.Context(), args[0])
				if err != nil {
					return explain("approving signup", err)
				}
				fmt.Fprintf(app.Out, "Approved %s as %s\n", u.Email, u.Role)
				return nil
			},
		},
		&cobra.Command{
			Use:   "reject <id>",
			Short: "Discard a signup request",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := app.requireAdmin(); err != nil {
					return err
				}
				if err := app.Client.RejectPendingUser(cmd.Context(), args[0]); err != nil {
					return explain("rejecting signup", err)
				}
				fmt.Fprintln(app.Out, "Signup rejected")
				return nil
			},
		},
	)
	return cmd
}
