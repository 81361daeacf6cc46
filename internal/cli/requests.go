package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sangwon4052/sangwon-sign-off/internal/output"
	"github.com/spf13/cobra"
)

func newRequestsCmd(app *App) *cobra.Command {
	var (
		scope, status string
		page, limit   int
	)

	cmd := &cobra.Command{
		Use:     "requests",
		Aliases: []string{"ls"},
		Short:   "List approval requests visible to you",
		Long: `List approval requests. The default scope depends on your role:
requesters see their own submissions, approvers see what is assigned to them.

Scopes: mine, assigned, history, all (admins only).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireAuth(); err != nil {
				return err
			}

			rows, pg, err := app.Client.ListApprovals(cmd.Context(), scope, status, page, limit)
			if err != nil {
				return explain("listing requests", err)
			}

			if app.JSON {
				output.JSON(app.Out, rows)
				return nil
			}
			output.ApprovalTable(app.Out, rows)
			if pg != nil && pg.TotalPages > 1 {
				fmt.Fprintf(app.Out, "\nPage %d of %d (%d total)\n", pg.Page, pg.TotalPages, pg.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "mine, assigned, history or all")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status: pending, approved or rejected")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 20, "Results per page")
	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one approval request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireAuth(); err != nil {
				return err
			}

			a, err := app.Client.GetApproval(cmd.Context(), args[0])
			if err != nil {
				return explain("fetching request", err)
			}

			if app.JSON {
				output.JSON(app.Out, a)
				return nil
			}
			output.ApprovalDetail(app.Out, *a)
			return nil
		},
	}
}

func newSubmitCmd(app *App) *cobra.Command {
	var title, description, approver string

	cmd := &cobra.Command{
		Use:   "submit [files...]",
		Short: "Submit an approval request with optional attachments",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireAuth(); err != nil {
				return err
			}
			if err := checkFiles(args); err != nil {
				return err
			}

			approverID, err := app.resolveApprover(cmd, approver)
			if err != nil {
				return err
			}

			a, err := app.Client.SubmitApproval(cmd.Context(), title, description, approverID, args)
			if err != nil {
				return explain("submitting request", err)
			}

			if app.JSON {
				output.JSON(app.Out, a)
				return nil
			}
			fmt.Fprintf(app.Out, "Submitted %q to %s (%s)\n", a.Title, a.AssignedApproverName, a.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Request title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Request description")
	cmd.Flags().StringVarP(&approver, "approver", "a", "", "Approver id or email")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("approver")
	return cmd
}

// resolveApprover accepts an approver id or email and returns the id.
func (a *App) resolveApprover(cmd *cobra.Command, ref string) (string, error) {
	if !strings.Contains(ref, "@") {
		return ref, nil
	}
	approvers, err := a.Client.Approvers(cmd.Context())
	if err != nil {
		return "", explain("listing approvers", err)
	}
	for _, u := range approvers {
		if strings.EqualFold(u.Email, ref) {
			return u.ID, nil
		}
	}
	return "", fmt.Errorf("no approver with email %s", ref)
}

func newProcessCmd(app *App) *cobra.Command {
	var (
		feedback string
		signed   []string
	)

	cmd := &cobra.Command{
		Use:       "process <id> <approve|reject>",
		Short:     "Approve or reject a pending request",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"approve", "reject"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireAuth(); err != nil {
				return err
			}

			decision := args[1]
			switch decision {
			case "approve":
				decision = "approved"
			case "reject":
				decision = "rejected"
			case "approved", "rejected":
			default:
				return fmt.Errorf("decision must be approve or reject, got %q", args[1])
			}
			if decision == "rejected" && len(signed) > 0 {
				return errors.New("signed files can only be attached when approving")
			}
			if err := checkFiles(signed); err != nil {
				return err
			}

			var fb *string
			if cmd.Flags().Changed("feedback") {
				fb = &feedback
			}

			a, err := app.Client.ProcessApproval(cmd.Context(), args[0], decision, fb, signed)
			if err != nil {
				return explain("processing request", err)
			}

			if app.JSON {
				output.JSON(app.Out, a)
				return nil
			}
			fmt.Fprintf(app.Out, "Request %q %s\n", a.Title, a.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&feedback, "feedback", "f", "", "Feedback for the requester")
	cmd.Flags().StringArrayVar(&signed, "signed", nil, "Signed file to return (repeatable, approve only)")
	return cmd
}

func newDownloadCmd(app *App) *cobra.Command {
	var (
		signed  bool
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "download <id> <index>",
		Short: "Download an attachment of a request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireAuth(); err != nil {
				return err
			}
			index, err := strconv.Atoi(args[1])
			if err != nil || index < 0 {
				return fmt.Errorf("invalid file index %q", args[1])
			}

			if outPath == "-" {
				_, err := app.Client.DownloadAttachment(cmd.Context(), args[0], index, signed, app.Out)
				if err != nil {
					return explain("downloading file", err)
				}
				return nil
			}

			// Write to a temp file first; the final name comes from the server.
			tmp, err := os.CreateTemp(downloadDir(outPath), ".signoff-download-*")
			if err != nil {
				return fmt.Errorf("creating temp file: %w", err)
			}
			defer os.Remove(tmp.Name())

			name, err := app.Client.DownloadAttachment(cmd.Context(), args[0], index, signed, tmp)
			if cerr := tmp.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return explain("downloading file", err)
			}

			dest := outPath
			if dest == "" {
				if name == "" {
					name = fmt.Sprintf("attachment-%d", index)
				}
				dest = filepath.Base(name)
			}
			if err := os.Rename(tmp.Name(), dest); err != nil {
				return fmt.Errorf("saving %s: %w", dest, err)
			}

			fmt.Fprintf(app.Out, "Saved %s\n", dest)
			return nil
		},
	}

	cmd.Flags().BoolVar(&signed, "signed", false, "Download from the signed files")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Destination path, or - for stdout (default: server file name)")
	return cmd
}

func downloadDir(outPath string) string {
	if outPath == "" {
		return "."
	}
	return filepath.Dir(outPath)
}

func newApproversCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "approvers",
		Short: "List users who can be assigned as approver",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireAuth(); err != nil {
				return err
			}
			rows, err := app.Client.Approvers(cmd.Context())
			if err != nil {
				return explain("listing approvers", err)
			}
			if app.JSON {
				output.JSON(app.Out, rows)
				return nil
			}
			output.UserTable(app.Out, rows)
			return nil
		},
	}
}

// checkFiles fails early on paths that cannot be uploaded.
func checkFiles(paths []string) error {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("cannot access %s: %w", p, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", p)
		}
	}
	return nil
}
