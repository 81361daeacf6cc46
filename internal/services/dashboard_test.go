package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sangwon4052/sangwon-sign-off/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard_PerRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.createUser(t, "Admin", "admin@x.com", models.RoleAdmin)
	requester := env.createUser(t, "R", "r@x.com", models.RoleRequester)
	other := env.createUser(t, "R2", "r2@x.com", models.RoleRequester)
	approver := env.createUser(t, "B", "b@x.com", models.RoleApprover)
	second := env.createUser(t, "B2", "b2@x.com", models.RoleApprover)

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	var mine []*models.Approval
	for i := 0; i < 7; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		env.approvals.now = func() time.Time { return at }
		mine = append(mine, env.submit(t, requester, approver, fmt.Sprintf("req-%d", i)))
	}
	env.submit(t, other, second, "other")

	_, err := env.approvals.ProcessRequest(ctx, approver, mine[0].ID, ProcessInput{Decision: models.DecisionApproved})
	require.NoError(t, err)
	_, err = env.approvals.ProcessRequest(ctx, approver, mine[1].ID, ProcessInput{Decision: models.DecisionRejected})
	require.NoError(t, err)
	_, err = env.users.Signup(ctx, SignupInput{Name: "New", Email: "new@x.com", Password: "pass123", Role: models.RoleRequester})
	require.NoError(t, err)

	t.Run("requester", func(t *testing.T) {
		d, err := env.dashboard.Build(ctx, requester)
		require.NoError(t, err)
		require.NotNil(t, d.Requester)
		assert.Nil(t, d.Approver)
		assert.Nil(t, d.Admin)
		assert.Equal(t, RequesterStats{Total: 7, Pending: 5, Approved: 1, Rejected: 1}, *d.Requester)
		assert.Equal(t, int64(2), d.UnreadNotifications)
		assert.Equal(t, int64(5), d.PendingBadge)
		require.Len(t, d.Recent, recentApprovalsLimit)
		assert.Equal(t, "req-6", d.Recent[0].Title)
	})

	t.Run("approver", func(t *testing.T) {
		d, err := env.dashboard.Build(ctx, approver)
		require.NoError(t, err)
		require.NotNil(t, d.Approver)
		assert.Equal(t, ApproverStats{ToProcess: 5, ApprovedByMe: 1, RejectedByMe: 1, GlobalPending: 6}, *d.Approver)
		assert.Equal(t, int64(5), d.PendingBadge)
		for _, a := range d.Recent {
			assert.Equal(t, approver.ID, a.AssignedApproverID)
		}
	})

	t.Run("admin", func(t *testing.T) {
		d, err := env.dashboard.Build(ctx, admin)
		require.NoError(t, err)
		require.NotNil(t, d.Admin)
		assert.Equal(t, AdminStats{TotalApprovals: 8, PendingApprovals: 6, PendingUsers: 1}, *d.Admin)
		assert.Equal(t, int64(6), d.PendingBadge)
		assert.Zero(t, d.UnreadNotifications)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := env.dashboard.Build(ctx, nil)
		assert.True(t, models.IsKind(err, models.KindAuthorization))
	})
}

func TestWithCopiesFilter(t *testing.T) {
	base := map[string]any{"requester_id": "x"}
	got := with(base, "status", models.ApprovalStatusPending)

	assert.Len(t, base, 1)
	assert.Len(t, got, 2)
}
