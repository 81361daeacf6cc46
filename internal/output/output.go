package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sangwon4052/sangwon-sign-off/internal/client"
)

// JSON prints v as indented JSON.
func JSON(w io.Writer, v interface{}) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// ApprovalTable prints approvals as a human-readable table.
func ApprovalTable(out io.Writer, rows []client.Approval) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No approval requests found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tREQUESTER\tAPPROVER\tSTATUS\tFILES\tCREATED")
	for _, a := range rows {
		files := fmt.Sprintf("%d", len(a.Files))
		if len(a.SignedFiles) > 0 {
			files += fmt.Sprintf("+%d signed", len(a.SignedFiles))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			ShortID(a.ID), Truncate(a.Title, 40), a.RequesterName, a.AssignedApproverName,
			a.Status, files, RelativeTime(a.CreatedAt))
	}
	w.Flush()
}

// ApprovalDetail prints a single approval.
func ApprovalDetail(out io.Writer, a client.Approval) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Title:\t%s\n", a.Title)
	fmt.Fprintf(w, "ID:\t%s\n", a.ID)
	fmt.Fprintf(w, "Status:\t%s\n", a.Status)
	fmt.Fprintf(w, "Requester:\t%s\n", a.RequesterName)
	fmt.Fprintf(w, "Approver:\t%s\n", a.AssignedApproverName)
	fmt.Fprintf(w, "Submitted:\t%s\n", a.CreatedAt.Format(time.RFC3339))
	if a.ProcessedAt != nil {
		fmt.Fprintf(w, "Processed:\t%s\n", a.ProcessedAt.Format(time.RFC3339))
	}
	if a.Feedback != nil && *a.Feedback != "" {
		fmt.Fprintf(w, "Feedback:\t%s\n", *a.Feedback)
	}
	fmt.Fprintf(w, "Description:\t%s\n", a.Description)
	for i, f := range a.Files {
		fmt.Fprintf(w, "File %d:\t%s\n", i, f.Name)
	}
	for i, f := range a.SignedFiles {
		fmt.Fprintf(w, "Signed %d:\t%s\n", i, f.Name)
	}
	w.Flush()
}

func NotificationTable(out io.Writer, rows []client.Notification) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No notifications.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\t\tTITLE\tMESSAGE\tWHEN")
	for _, n := range rows {
		marker := "*"
		if n.Read {
			marker = ""
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", ShortID(n.ID), marker, n.Title, n.Message, RelativeTime(n.Timestamp))
	}
	w.Flush()
}

func UserTable(out io.Writer, rows []client.User) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No users found.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE")
	for _, u := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
	w.Flush()
}

func PendingUserTable(out io.Writer, rows []client.PendingUser) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No pending signups.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tREQUESTED")
	for _, p := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Email, p.Role, RelativeTime(p.CreatedAt))
	}
	w.Flush()
}

// UserInfo prints user details.
func UserInfo(out io.Writer, u client.User) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Name:\t%s\n", u.Name)
	fmt.Fprintf(w, "Email:\t%s\n", u.Email)
	fmt.Fprintf(w, "Role:\t%s\n", u.Role)
	fmt.Fprintf(w, "ID:\t%s\n", u.ID)
	w.Flush()
}

// Dashboard prints the counters for the viewer's role followed by the
// most recent requests.
func Dashboard(out io.Writer, d client.Dashboard) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Role:\t%s\n", d.Role)
	if s := d.Requester; s != nil {
		fmt.Fprintf(w, "My requests:\t%d\n", s.Total)
		fmt.Fprintf(w, "Pending:\t%d\n", s.Pending)
		fmt.Fprintf(w, "Approved:\t%d\n", s.Approved)
		fmt.Fprintf(w, "Rejected:\t%d\n", s.Rejected)
	}
	if s := d.Approver; s != nil {
		fmt.Fprintf(w, "To process:\t%d\n", s.ToProcess)
		fmt.Fprintf(w, "Approved by me:\t%d\n", s.ApprovedByMe)
		fmt.Fprintf(w, "Rejected by me:\t%d\n", s.RejectedByMe)
		fmt.Fprintf(w, "Pending overall:\t%d\n", s.GlobalPending)
	}
	if s := d.Admin; s != nil {
		fmt.Fprintf(w, "All requests:\t%d\n", s.TotalApprovals)
		fmt.Fprintf(w, "Pending requests:\t%d\n", s.PendingApprovals)
		fmt.Fprintf(w, "Pending signups:\t%d\n", s.PendingUsers)
	}
	fmt.Fprintf(w, "Unread notifications:\t%d\n", d.UnreadNotifications)
	w.Flush()

	if len(d.Recent) > 0 {
		fmt.Fprintln(out)
		ApprovalTable(out, d.Recent)
	}
}

// ShortID keeps the first block of a uuid.
func ShortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// RelativeTime formats a timestamp relative to now (e.g. "2h ago", "3d ago").
func RelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
