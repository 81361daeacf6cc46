package services

import (
	"github.com/sangwon4052/sangwon-sign-off/internal/models"
	"github.com/sangwon4052/sangwon-sign-off/internal/store"
)

// Policy answers authorization questions. It performs no I/O.
type Policy struct{}

// CanView reports whether user may read approval.
func (Policy) CanView(user *models.User, approval *models.Approval) bool {
	if user == nil || approval == nil {
		return false
	}
	switch user.Role {
	case models.RoleAdmin:
		return true
	case models.RoleApprover:
		return approval.AssignedApproverID == user.ID
	case models.RoleRequester:
		return approval.RequesterID == user.ID
	default:
		return false
	}
}

// CanProcess reports whether user may decide approval right now.
func (p Policy) CanProcess(user *models.User, approval *models.Approval) bool {
	if user == nil || approval == nil {
		return false
	}
	switch user.Role {
	case models.RoleAdmin:
		return true
	case models.RoleApprover, models.RoleRequester:
		return p.isAssigned(user, approval) && approval.Status == models.ApprovalStatusPending
	default:
		return false
	}
}

// isAssigned ignores lifecycle state; it separates "not yours" from "already decided".
func (Policy) isAssigned(user *models.User, approval *models.Approval) bool {
	return approval.AssignedApproverID == user.ID
}

// CanSubmit reports whether user may file new approval requests.
func (Policy) CanSubmit(user *models.User) bool {
	if user == nil {
		return false
	}
	switch user.Role {
	case models.RoleAdmin, models.RoleRequester:
		return true
	case models.RoleApprover:
		return false
	default:
		return false
	}
}

func (Policy) CanManageUsers(user *models.User) bool {
	if user == nil {
		return false
	}
	switch user.Role {
	case models.RoleAdmin:
		return true
	case models.RoleApprover, models.RoleRequester:
		return false
	default:
		return false
	}
}

// VisibilityFilter returns the approvals filter for user's listings. ok is
// false when the user may see nothing.
func (Policy) VisibilityFilter(user *models.User) (filter store.Filter, ok bool) {
	if user == nil {
		return nil, false
	}
	switch user.Role {
	case models.RoleAdmin:
		return store.Filter{}, true
	case models.RoleApprover:
		return store.Filter{"assigned_approver_id": user.ID}, true
	case models.RoleRequester:
		return store.Filter{"requester_id": user.ID}, true
	default:
		return nil, false
	}
}
