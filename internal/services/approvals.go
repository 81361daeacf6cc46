package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangwon4052/sangwon-sign-off/internal/metrics"
	"github.com/sangwon4052/sangwon-sign-off/internal/models"
	"github.com/sangwon4052/sangwon-sign-off/internal/store"
	"github.com/sangwon4052/sangwon-sign-off/pkg/logger"
	"gorm.io/datatypes"
)

// Listing scopes accepted by ApprovalService.List.
const (
	ScopeVisible  = "visible"
	ScopeMine     = "mine"
	ScopeAssigned = "assigned"
	ScopeHistory  = "history"
	ScopeAll      = "all"
)

type SubmitInput struct {
	Title              string
	Description        string
	AssignedApproverID uuid.UUID
	Files              []models.Attachment
}

type ProcessInput struct {
	Decision    models.Decision
	Feedback    *string
	SignedFiles []models.Attachment
}

type ApprovalService struct {
	store         store.Store
	policy        Policy
	notifications *NotificationService
	audit         *AuditService
	now           func() time.Time
}

func NewApprovalService(s store.Store, notifications *NotificationService, audit *AuditService) *ApprovalService {
	return &ApprovalService{
		store:         s,
		notifications: notifications,
		audit:         audit,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SubmitRequest files a new pending approval assigned to an active approver.
func (s *ApprovalService) SubmitRequest(ctx context.Context, requester *models.User, in SubmitInput) (*models.Approval, error) {
	approver, err := s.submitApprover(ctx, requester, in)
	if err != nil {
		return nil, err
	}
	files, err := normalizeAttachments(in.Files)
	if err != nil {
		return nil, err
	}

	approval := &models.Approval{
		Title:                strings.TrimSpace(in.Title),
		Description:          strings.TrimSpace(in.Description),
		RequesterID:          requester.ID,
		RequesterName:        requester.Name,
		AssignedApproverID:   approver.ID,
		AssignedApproverName: approver.Name,
		Status:               models.ApprovalStatusPending,
		Files:                datatypes.NewJSONSlice(files),
		SignedFiles:          datatypes.NewJSONSlice([]models.Attachment{}),
	}
	approval.CreatedAt = s.now()
	if err := s.store.Approvals().Create(ctx, approval); err != nil {
		return nil, err
	}

	metrics.ApprovalsSubmitted.Inc()
	logger.InfoWithUser(requester.ID.String(), "approval_submitted", map[string]interface{}{
		"approval_id": approval.ID.String(),
		"approver_id": approver.ID.String(),
		"files":       len(files),
	})
	s.audit.LogAsync(AuditEntry{
		UserID:       uuidPtr(requester.ID),
		Action:       AuditApprovalSubmit,
		ResourceType: "approval",
		ResourceID:   uuidPtr(approval.ID),
		Details:      map[string]interface{}{"title": approval.Title, "approver_id": approver.ID.String()},
	})
	return approval, nil
}

// CheckSubmit runs every SubmitRequest check that does not look at files,
// so uploads can be refused before any content is stored.
func (s *ApprovalService) CheckSubmit(ctx context.Context, requester *models.User, in SubmitInput) error {
	_, err := s.submitApprover(ctx, requester, in)
	return err
}

func (s *ApprovalService) submitApprover(ctx context.Context, requester *models.User, in SubmitInput) (*models.User, error) {
	if !s.policy.CanSubmit(requester) {
		return nil, models.NewAuthorizationError("only requesters can submit approval requests")
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" || in.AssignedApproverID == uuid.Nil {
		return nil, models.NewValidationError("title, description and approver are required")
	}

	approver, err := s.store.Users().GetByID(ctx, in.AssignedApproverID)
	if err != nil {
		if models.IsKind(err, models.KindNotFound) {
			return nil, models.NewValidationError("assigned approver does not exist")
		}
		return nil, err
	}
	if !approver.CanApprove() {
		return nil, models.NewValidationError("assigned user cannot approve requests")
	}
	return approver, nil
}

// CheckProcess reports whether actor may decide the approval right now.
// ProcessRequest repeats the check; a concurrent decision can still win.
func (s *ApprovalService) CheckProcess(ctx context.Context, actor *models.User, approvalID uuid.UUID) error {
	_, err := s.processable(ctx, actor, approvalID)
	return err
}

func (s *ApprovalService) processable(ctx context.Context, actor *models.User, approvalID uuid.UUID) (*models.Approval, error) {
	approval, err := s.store.Approvals().GetByID(ctx, approvalID)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanProcess(actor, approval) {
		if actor != nil && s.policy.isAssigned(actor, approval) && !approval.IsPending() {
			return nil, models.NewStateError("approval has already been " + string(approval.Status))
		}
		return nil, models.NewAuthorizationError("you are not allowed to process this approval")
	}
	if !approval.IsPending() {
		return nil, models.NewStateError("approval has already been " + string(approval.Status))
	}
	return approval, nil
}

// ProcessRequest applies a decision to a pending approval and notifies its
// requester. The transition and the notification commit together; a request
// decided concurrently by someone else reports a state error.
func (s *ApprovalService) ProcessRequest(ctx context.Context, actor *models.User, approvalID uuid.UUID, in ProcessInput) (*models.Approval, error) {
	target := in.Decision.Status()
	if target == "" {
		return nil, models.NewValidationError("decision must be approved or rejected")
	}

	approval, err := s.processable(ctx, actor, approvalID)
	if err != nil {
		return nil, err
	}

	signed := []models.Attachment{}
	if in.Decision == models.DecisionApproved {
		signed, err = normalizeAttachments(in.SignedFiles)
		if err != nil {
			return nil, err
		}
	}
	feedback := ""
	if in.Feedback != nil {
		feedback = *in.Feedback
	}
	processedAt := s.now()

	fields := map[string]any{
		"status":          target,
		"feedback":        feedback,
		"processed_at":    processedAt,
		"processed_by_id": actor.ID,
		"signed_files":    datatypes.NewJSONSlice(signed),
	}

	var (
		updated *models.Approval
		notice  *models.Notification
	)
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		applied, err := tx.Approvals().UpdateIf(ctx, approvalID, store.Filter{"status": models.ApprovalStatusPending}, fields)
		if err != nil {
			return err
		}
		if !applied {
			return models.NewStateError("approval has already been processed")
		}

		notice, err = s.notifications.Record(ctx, tx, decisionNotice(approval, in.Decision, len(signed)))
		if err != nil {
			return err
		}

		updated, err = tx.Approvals().GetByID(ctx, approvalID)
		return err
	})
	if err != nil {
		if models.IsKind(err, models.KindState) {
			metrics.ProcessConflicts.Inc()
		}
		return nil, err
	}

	s.notifications.Publish(ctx, notice)
	metrics.ApprovalsProcessed.WithLabelValues(string(in.Decision)).Inc()
	logger.InfoWithUser(actor.ID.String(), "approval_processed", map[string]interface{}{
		"approval_id":  approvalID.String(),
		"decision":     string(in.Decision),
		"signed_files": len(signed),
	})
	s.audit.LogAsync(AuditEntry{
		UserID:       uuidPtr(actor.ID),
		Action:       decisionAuditAction(in.Decision),
		ResourceType: "approval",
		ResourceID:   uuidPtr(approvalID),
		Details:      map[string]interface{}{"decision": string(in.Decision)},
	})
	return updated, nil
}

// Get returns one approval if viewer may see it.
func (s *ApprovalService) Get(ctx context.Context, viewer *models.User, id uuid.UUID) (*models.Approval, error) {
	approval, err := s.store.Approvals().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanView(viewer, approval) {
		return nil, models.NewAuthorizationError("you are not allowed to view this approval")
	}
	return approval, nil
}

// Attachment resolves one original or signed file of an approval by position.
func (s *ApprovalService) Attachment(ctx context.Context, viewer *models.User, id uuid.UUID, signed bool, index int) (*models.Attachment, error) {
	approval, err := s.Get(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	files := approval.Files
	if signed {
		files = approval.SignedFiles
	}
	if index < 0 || index >= len(files) {
		return nil, models.NewNotFoundError("file")
	}
	file := files[index]
	return &file, nil
}

// List returns the approvals of one scope, newest first.
func (s *ApprovalService) List(ctx context.Context, viewer *models.User, scope string) ([]models.Approval, error) {
	if viewer == nil {
		return nil, models.NewAuthorizationError("authentication required")
	}
	switch scope {
	case "", ScopeVisible:
		return s.ListVisible(ctx, viewer)
	case ScopeMine:
		return s.ListMine(ctx, viewer)
	case ScopeAssigned:
		return s.ListAssignedPending(ctx, viewer)
	case ScopeHistory:
		return s.ListHistory(ctx, viewer)
	case ScopeAll:
		return s.ListAll(ctx, viewer)
	default:
		return nil, models.NewValidationError("unknown scope " + scope)
	}
}

func (s *ApprovalService) ListVisible(ctx context.Context, viewer *models.User) ([]models.Approval, error) {
	filter, ok := s.policy.VisibilityFilter(viewer)
	if !ok {
		return []models.Approval{}, nil
	}
	return s.newestFirst(ctx, filter)
}

func (s *ApprovalService) ListMine(ctx context.Context, viewer *models.User) ([]models.Approval, error) {
	return s.newestFirst(ctx, store.Filter{"requester_id": viewer.ID})
}

// ListAssignedPending is the approver inbox.
func (s *ApprovalService) ListAssignedPending(ctx context.Context, viewer *models.User) ([]models.Approval, error) {
	return s.newestFirst(ctx, store.Filter{
		"assigned_approver_id": viewer.ID,
		"status":               models.ApprovalStatusPending,
	})
}

// ListHistory returns the approvals viewer has decided, most recently decided first.
func (s *ApprovalService) ListHistory(ctx context.Context, viewer *models.User) ([]models.Approval, error) {
	rows, err := s.store.Approvals().GetAll(ctx, store.Filter{"processed_by_id": viewer.ID})
	if err != nil {
		return nil, err
	}
	decided := rows[:0]
	for _, a := range rows {
		if a.Status.IsTerminal() {
			decided = append(decided, a)
		}
	}
	sort.SliceStable(decided, func(i, j int) bool {
		return processedTime(decided[i]).After(processedTime(decided[j]))
	})
	return decided, nil
}

func (s *ApprovalService) ListAll(ctx context.Context, viewer *models.User) ([]models.Approval, error) {
	if !viewer.IsAdmin() {
		return nil, models.NewAuthorizationError("admin access required")
	}
	return s.newestFirst(ctx, nil)
}

// ListApprovers returns the active users a request may be assigned to.
func (s *ApprovalService) ListApprovers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.Users().GetAll(ctx, store.Filter{"status": models.UserStatusApproved})
	if err != nil {
		return nil, err
	}
	approvers := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.CanApprove() {
			approvers = append(approvers, u)
		}
	}
	sort.SliceStable(approvers, func(i, j int) bool {
		return approvers[i].Name < approvers[j].Name
	})
	return approvers, nil
}

func (s *ApprovalService) newestFirst(ctx context.Context, filter store.Filter) ([]models.Approval, error) {
	rows, err := s.store.Approvals().GetAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	return rows, nil
}

func processedTime(a models.Approval) time.Time {
	if a.ProcessedAt == nil {
		return time.Time{}
	}
	return *a.ProcessedAt
}

func normalizeAttachments(files []models.Attachment) ([]models.Attachment, error) {
	out := make([]models.Attachment, 0, len(files))
	for _, f := range files {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return nil, models.NewValidationError("every file needs a name")
		}
		if f.ContentHandle == "" {
			return nil, models.NewValidationError("file " + name + " has no content")
		}
		out = append(out, models.Attachment{Name: name, ContentHandle: f.ContentHandle})
	}
	return out, nil
}

func decisionAuditAction(d models.Decision) string {
	if d == models.DecisionApproved {
		return AuditApprovalApprove
	}
	return AuditApprovalReject
}
