package cli

import (
	"errors"
	"fmt"

	"github.com/sangwon4052/sangwon-sign-off/internal/output"
	"github.com/spf13/cobra"
)

func newNotificationsCmd(app *App) *cobra.Command {
	var unread bool

	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"inbox"},
		Short:   "List and manage your notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireAuth(); err != nil {
				return err
			}

			rows, err := app.Client.Notifications(cmd.Context(), unread)
			if err != nil {
				return explain("listing notifications", err)
			}

			if app.JSON {
				output.JSON(app.Out, rows)
				return nil
			}
			output.NotificationTable(app.Out, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "Only unread notifications")

	cmd.AddCommand(newNotificationsReadCmd(app), newNotificationsClearCmd(app))
	return cmd
}

func newNotificationsReadCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "read [id]",
		Short: "Mark one notification, or all with --all, as read",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireAuth(); err != nil {
				return err
			}

			if all {
				n, err := app.Client.MarkAllNotificationsRead(cmd.Context())
				if err != nil {
					return explain("marking notifications", err)
				}
				fmt.Fprintf(app.Out, "Marked %d notifications as read\n", n)
				return nil
			}
			if len(args) == 0 {
				return errors.New("give a notification id or --all")
			}

			if err := app.Client.MarkNotificationRead(cmd.Context(), args[0]); err != nil {
				return explain("marking notification", err)
			}
			fmt.Fprintln(app.Out, "Marked as read")
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Mark every notification as read")
	return cmd
}

func newNotificationsClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all of your notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireAuth(); err != nil {
				return err
			}
			n, err := app.Client.ClearNotifications(cmd.Context())
			if err != nil {
				return explain("clearing notifications", err)
			}
			fmt.Fprintf(app.Out, "Deleted %d notifications\n", n)
			return nil
		},
	}
}
