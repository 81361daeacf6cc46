package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed.
func (s ApprovalStatus) IsTerminal() bool {
	switch s {
	case ApprovalStatusApproved, ApprovalStatusRejected:
		return true
	default:
		return false
	}
}

// Decision is the outcome an approver applies to a pending request.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

func ParseDecision(value string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(value))) {
	case DecisionApproved:
		return DecisionApproved, nil
	case DecisionRejected:
		return DecisionRejected, nil
	default:
		return "", fmt.Errorf("unknown decision %q", value)
	}
}

func (d Decision) Status() ApprovalStatus {
	switch d {
	case DecisionApproved:
		return ApprovalStatusApproved
	case DecisionRejected:
		return ApprovalStatusRejected
	default:
		return ""
	}
}

// Attachment references file content by an opaque handle.
type Attachment struct {
	Name          string `json:"name"`
	ContentHandle string `json:"contentHandle"`
}

type Approval struct {
	BaseModel
	Title                string                          `json:"title" gorm:"type:varchar(255);not null"`
	Description          string                          `json:"description" gorm:"type:text;not null"`
	RequesterID          uuid.UUID                       `json:"requesterId" gorm:"type:uuid;not null;index"`
	RequesterName        string                          `json:"requesterName" gorm:"type:varchar(100)"`
	AssignedApproverID   uuid.UUID                       `json:"assignedApproverId" gorm:"type:uuid;not null;index"`
	AssignedApproverName string                          `json:"assignedApproverName" gorm:"type:varchar(100)"`
	Status               ApprovalStatus                  `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	Files                datatypes.JSONSlice[Attachment] `json:"files"`
	SignedFiles          datatypes.JSONSlice[Attachment] `json:"signedFiles"`
	Feedback             *string                         `json:"feedback"`
	ProcessedAt          *time.Time                      `json:"processedAt"`
	ProcessedByID        *uuid.UUID                      `json:"processedBy" gorm:"type:uuid;index"`
}

func (Approval) TableName() string {
	return "approvals"
}

func (a *Approval) IsPending() bool {
	return a.Status == ApprovalStatusPending
}
