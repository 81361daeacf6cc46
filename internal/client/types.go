package client

import "time"

// User mirrors the server's active account record.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type PendingUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

type Attachment struct {
	Name          string `json:"name"`
	ContentHandle string `json:"contentHandle"`
}

type Approval struct {
	ID                   string       `json:"id"`
	Title                string       `json:"title"`
	Description          string       `json:"description"`
	RequesterID          string       `json:"requesterId"`
	RequesterName        string       `json:"requesterName"`
	AssignedApproverID   string       `json:"assignedApproverId"`
	AssignedApproverName string       `json:"assignedApproverName"`
	Status               string       `json:"status"`
	Files                []Attachment `json:"files"`
	SignedFiles          []Attachment `json:"signedFiles"`
	Feedback             *string      `json:"feedback"`
	ProcessedAt          *time.Time   `json:"processedAt"`
	ProcessedBy          *string      `json:"processedBy"`
	CreatedAt            time.Time    `json:"createdAt"`
}

type Notification struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	ApprovalID string    `json:"approvalId"`
	Timestamp  time.Time `json:"timestamp"`
	Read       bool      `json:"read"`
}

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

// Dashboard is the per-role projection served by GET /api/dashboard.
type Dashboard struct {
	Role                string          `json:"role"`
	Requester           *RequesterStats `json:"requester,omitempty"`
	Approver            *ApproverStats  `json:"approver,omitempty"`
	Admin               *AdminStats     `json:"admin,omitempty"`
	UnreadNotifications int64           `json:"unreadNotifications"`
	PendingBadge        int64           `json:"pendingBadge"`
	Recent              []Approval      `json:"recent"`
	GeneratedAt         time.Time       `json:"generatedAt"`
}
