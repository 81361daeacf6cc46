package models

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	BaseModel
	UserID     uuid.UUID      `json:"userId" gorm:"type:uuid;not null;index"`
	Type       ApprovalStatus `json:"type" gorm:"type:varchar(20);not null"`
	Title      string         `json:"title" gorm:"type:varchar(255);not null"`
	Message    string         `json:"message" gorm:"type:text;not null"`
	ApprovalID uuid.UUID      `json:"approvalId" gorm:"type:uuid;index"`
	Timestamp  time.Time      `json:"timestamp" gorm:"not null"`
	Read       bool           `json:"read" gorm:"not null;default:false;index"`
}

func (Notification) TableName() string {
	return "notifications"
}
