package models

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleApprover  Role = "approver"
	RoleRequester Role = "requester"
)

// ParseRole accepts exactly the three known roles.
func ParseRole(value string) (Role, error) {
	switch Role(strings.TrimSpace(value)) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleApprover:
		return RoleApprover, nil
	case RoleRequester:
		return RoleRequester, nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleApprover, RoleRequester:
		return true
	default:
		return false
	}
}

// Assignable reports whether the role can be granted by signup or a role change.
func (r Role) Assignable() bool {
	switch r {
	case RoleApprover, RoleRequester:
		return true
	default:
		return false
	}
}

type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusApproved UserStatus = "approved"
)

type User struct {
	BaseModel
	Name         string     `json:"name" gorm:"type:varchar(100);not null"`
	Email        string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"type:text;not null"`
	Role         Role       `json:"role" gorm:"type:varchar(20);not null;default:'requester';index"`
	Status       UserStatus `json:"status" gorm:"type:varchar(20);not null;default:'approved'"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// CanApprove reports whether the user may be assigned approval requests.
func (u *User) CanApprove() bool {
	if u == nil || u.Status != UserStatusApproved {
		return false
	}
	return u.Role == RoleApprover || u.Role == RoleAdmin
}

// PendingUser is a signup awaiting an admin decision.
type PendingUser struct {
	BaseModel
	Name         string `json:"name" gorm:"type:varchar(100);not null"`
	Email        string `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"type:text;not null"`
	Role         Role   `json:"role" gorm:"type:varchar(20);not null"`
}

func (PendingUser) TableName() string {
	return "pending_users"
}

// Status is always pending for a record in this collection.
func (p *PendingUser) Status() UserStatus {
	return UserStatusPending
}
