package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sangwon4052/sangwon-sign-off/internal/client"
)

func TestRelativeTime(t *testing.T) {
	tests := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{"just now", 0, "just now"},
		{"minutes", 5 * time.Minute, "5m ago"},
		{"hours", 3 * time.Hour, "3h ago"},
		{"days", 48 * time.Hour, "2d ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RelativeTime(time.Now().Add(-tt.ago)); got != tt.want {
				t.Errorf("RelativeTime() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("old dates use calendar format", func(t *testing.T) {
		old := time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)
		if got := RelativeTime(old); got != "2020-01-15" {
			t.Errorf("expected '2020-01-15', got %q", got)
		}
	})
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a much longer title", 10, "a much ..."},
		{"휴가 신청서 제출합니다", 6, "휴가 ..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID("550e8400-e29b-41d4-a716-446655440000"); got != "550e8400" {
		t.Errorf("unexpected short id %q", got)
	}
	if got := ShortID("plain"); got != "plain" {
		t.Errorf("unexpected short id %q", got)
	}
}

func TestApprovalTable(t *testing.T) {
	var buf bytes.Buffer
	ApprovalTable(&buf, nil)
	if !strings.Contains(buf.String(), "No approval requests found.") {
		t.Errorf("unexpected empty output %q", buf.String())
	}

	buf.Reset()
	ApprovalTable(&buf, []client.Approval{{
		ID:                   "550e8400-e29b-41d4-a716-446655440000",
		Title:                "Leave Request",
		RequesterName:        "Kim",
		AssignedApproverName: "Lee",
		Status:               "approved",
		Files:                []client.Attachment{{Name: "form.pdf"}},
		SignedFiles:          []client.Attachment{{Name: "signed.pdf"}},
		CreatedAt:            time.Now(),
	}})
	out := buf.String()
	for _, want := range []string{"TITLE", "550e8400", "Leave Request", "Kim", "Lee", "approved", "1+1 signed"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestDashboardShowsRoleSections(t *testing.T) {
	var buf bytes.Buffer
	Dashboard(&buf, client.Dashboard{
		Role:                "approver",
		Approver:            &client.ApproverStats{ToProcess: 4, ApprovedByMe: 2, RejectedByMe: 1, GlobalPending: 9},
		UnreadNotifications: 3,
	})
	out := buf.String()
	for _, want := range []string{"To process:", "4", "Pending overall:", "9", "Unread notifications:", "3"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "My requests:") || strings.Contains(out, "Pending signups:") {
		t.Errorf("unexpected sections for approver:\n%s", out)
	}
}

func TestNotificationTableMarksUnread(t *testing.T) {
	var buf bytes.Buffer
	NotificationTable(&buf, []client.Notification{
		{ID: "n1", Title: "Request approved", Message: `"Leave" was approved.`, Timestamp: time.Now()},
		{ID: "n2", Title: "Request rejected", Message: `"Laptop" was rejected.`, Timestamp: time.Now(), Read: true},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "*") || strings.Contains(lines[2], "*") {
		t.Errorf("unread marker misplaced:\n%s", buf.String())
	}
}
