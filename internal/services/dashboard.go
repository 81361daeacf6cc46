package services

import (
	"context"
	"time"

	"github.com/sangwon4052/sangwon-sign-off/internal/models"
	"github.com/sangwon4052/sangwon-sign-off/internal/store"
)

const recentApprovalsLimit = 5

type RequesterStats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

type ApproverStats struct {
	ToProcess     int64 `json:"toProcess"`
	ApprovedByMe  int64 `json:"approvedByMe"`
	RejectedByMe  int64 `json:"rejectedByMe"`
	GlobalPending int64 `json:"globalPending"`
}

type AdminStats struct {
	TotalApprovals   int64 `json:"totalApprovals"`
	PendingApprovals int64 `json:"pendingApprovals"`
	PendingUsers     int64 `json:"pendingUsers"`
}

// Dashboard is the per-role summary shown after login. Exactly one of the
// stats blocks is set, matching Role.
type Dashboard struct {
	Role                models.Role       `json:"role"`
	Requester           *RequesterStats   `json:"requester,omitempty"`
	Approver            *ApproverStats    `json:"approver,omitempty"`
	Admin               *AdminStats       `json:"admin,omitempty"`
	UnreadNotifications int64             `json:"unreadNotifications"`
	PendingBadge        int64             `json:"pendingBadge"`
	Recent              []models.Approval `json:"recent"`
	GeneratedAt         time.Time         `json:"generatedAt"`
}

type DashboardService struct {
	store  store.Store
	policy Policy
	now    func() time.Time
}

func NewDashboardService(s store.Store) *DashboardService {
	return &DashboardService{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// Build recomputes viewer's dashboard from current records.
func (s *DashboardService) Build(ctx context.Context, viewer *models.User) (*Dashboard, error) {
	visible, ok := s.policy.VisibilityFilter(viewer)
	if !ok {
		return nil, models.NewAuthorizationError("authentication required")
	}

	d := &Dashboard{Role: viewer.Role, GeneratedAt: s.now()}
	approvals := s.store.Approvals()

	var err error
	switch viewer.Role {
	case models.RoleRequester:
		d.Requester, err = s.requesterStats(ctx, viewer)
	case models.RoleApprover:
		d.Approver, err = s.approverStats(ctx, viewer)
	case models.RoleAdmin:
		d.Admin, err = s.adminStats(ctx)
	}
	if err != nil {
		return nil, err
	}

	if d.UnreadNotifications, err = s.store.Notifications().Count(ctx, store.Filter{"user_id": viewer.ID, "read": false}); err != nil {
		return nil, err
	}
	if d.PendingBadge, err = approvals.Count(ctx, with(visible, "status", models.ApprovalStatusPending)); err != nil {
		return nil, err
	}

	rows, err := approvals.GetAll(ctx, visible)
	if err != nil {
		return nil, err
	}
	d.Recent = newestN(rows, recentApprovalsLimit)
	return d, nil
}

func (s *DashboardService) requesterStats(ctx context.Context, viewer *models.User) (*RequesterStats, error) {
	mine := store.Filter{"requester_id": viewer.ID}
	stats := &RequesterStats{}
	var err error
	if stats.Total, err = s.store.Approvals().Count(ctx, mine); err != nil {
		return nil, err
	}
	if stats.Pending, err = s.store.Approvals().Count(ctx, with(mine, "status", models.ApprovalStatusPending)); err != nil {
		return nil, err
	}
	if stats.Approved, err = s.store.Approvals().Count(ctx, with(mine, "status", models.ApprovalStatusApproved)); err != nil {
		return nil, err
	}
	if stats.Rejected, err = s.store.Approvals().Count(ctx, with(mine, "status", models.ApprovalStatusRejected)); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *DashboardService) approverStats(ctx context.Context, viewer *models.User) (*ApproverStats, error) {
	decided := store.Filter{"processed_by_id": viewer.ID}
	stats := &ApproverStats{}
	var err error
	if stats.ToProcess, err = s.store.Approvals().Count(ctx, store.Filter{
		"assigned_approver_id": viewer.ID,
		"status":               models.ApprovalStatusPending,
	}); err != nil {
		return nil, err
	}
	if stats.ApprovedByMe, err = s.store.Approvals().Count(ctx, with(decided, "status", models.ApprovalStatusApproved)); err != nil {
		return nil, err
	}
	if stats.RejectedByMe, err = s.store.Approvals().Count(ctx, with(decided, "status", models.ApprovalStatusRejected)); err != nil {
		return nil, err
	}
	if stats.GlobalPending, err = s.store.Approvals().Count(ctx, store.Filter{"status": models.ApprovalStatusPending}); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *DashboardService) adminStats(ctx context.Context) (*AdminStats, error) {
	stats := &AdminStats{}
	var err error
	if stats.TotalApprovals, err = s.store.Approvals().Count(ctx, nil); err != nil {
		return nil, err
	}
	if stats.PendingApprovals, err = s.store.Approvals().Count(ctx, store.Filter{"status": models.ApprovalStatusPending}); err != nil {
		return nil, err
	}
	if stats.PendingUsers, err = s.store.PendingUsers().Count(ctx, nil); err != nil {
		return nil, err
	}
	return stats, nil
}

// with copies f and adds one condition.
func with(f store.Filter, key string, value any) store.Filter {
	out := make(store.Filter, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	out[key] = value
	return out
}

// newestN expects rows ordered oldest first and returns the last n reversed.
func newestN(rows []models.Approval, n int) []models.Approval {
	out := make([]models.Approval, 0, n)
	for i := len(rows) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, rows[i])
	}
	return out
}
