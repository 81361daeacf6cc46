package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the CLI version, injected at build time:
//
//	go build -ldflags "-X github.com/sangwon4052/sangwon-sign-off/internal/cli.Version=1.2.3"
var Version = "dev"

// NewRootCmd builds the signoff command tree around app.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "signoff",
		Short: "Sign-off CLI: submit and decide approval requests from the terminal",
		Long: `Sign-off CLI lets requesters file approval requests with attachments,
approvers decide them, and administrators manage accounts.

Get started:
  signoff signup --name "Kim" --email kim@company.com --role requester
  signoff login --email kim@company.com
  signoff dashboard --watch
  signoff submit --title "Leave" --description "3 days" --approver lee@company.com form.pdf`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Open()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
		},
	}

	root.PersistentFlags().BoolVar(&app.JSON, "json", false, "Output as JSON")
	root.PersistentFlags().StringVar(&app.ServerURL, "server", "", "Override server URL (default: from session or http://localhost:8080)")
	root.PersistentFlags().StringVar(&app.SessionPath, "session", "", "Session file (default: user config dir)")

	root.AddCommand(
		newSignupCmd(app),
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newDashboardCmd(app),
		newRequestsCmd(app),
		newShowCmd(app),
		newSubmitCmd(app),
		newProcessCmd(app),
		newDownloadCmd(app),
		newApproversCmd(app),
		newNotificationsCmd(app),
		newUsersCmd(app),
		newPendingCmd(app),
		&cobra.Command{
			Use:   "version",
			Short: "Show the CLI version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(app.Out, "signoff %s\n", Version)
			},
		},
	)
	return root
}
