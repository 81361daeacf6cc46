package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangwon4052/sangwon-sign-off/internal/models"
	"github.com/sangwon4052/sangwon-sign-off/internal/store"
	"github.com/sangwon4052/sangwon-sign-off/pkg/logger"
)

const (
	AuditUserSignup      = "user.signup"
	AuditUserApprove     = "user.approve"
	AuditUserReject      = "user.reject"
	AuditUserRegister    = "user.register"
	AuditUserRoleChange  = "user.role_change"
	AuditUserDelete      = "user.delete"
	AuditUserLogin       = "user.login"
	AuditUserLogout      = "user.logout"
	AuditApprovalSubmit  = "approval.submit"
	AuditApprovalApprove = "approval.approve"
	AuditApprovalReject  = "approval.reject"
)

type AuditEntry struct {
	UserID       *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   *uuid.UUID
	Details      map[string]interface{}
	IPAddress    string
}

// AuditService persists audit rows from a background goroutine. A nil
// *AuditService discards entries.
type AuditService struct {
	store  store.Store
	queue  chan models.AuditLog
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

func NewAuditService(s store.Store, queueSize int) *AuditService {
	if queueSize <= 0 {
		queueSize = 1000
	}
	svc := &AuditService{
		store: s,
		queue: make(chan models.AuditLog, queueSize),
		done:  make(chan struct{}),
	}
	go svc.processQueue()
	return svc
}

func (s *AuditService) LogAsync(entry AuditEntry) {
	if s == nil {
		return
	}

	row := models.AuditLog{
		UserID:       entry.UserID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Details:      entry.Details,
		IPAddress:    entry.IPAddress,
		CreatedAt:    time.Now().UTC(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}

	select {
	case s.queue <- row:
	default:
		logger.Warn("audit_queue_full", map[string]interface{}{
			"action":  entry.Action,
			"dropped": true,
		})
	}
}

// Close stops accepting entries and waits until queued rows are written.
func (s *AuditService) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	<-s.done
}

func (s *AuditService) processQueue() {
	defer close(s.done)
	for row := range s.queue {
		if err := s.store.AuditLogs().Create(context.Background(), &row); err != nil {
			logger.Error("audit_log_insert_failed", err, map[string]interface{}{
				"action": row.Action,
			})
		}
	}
}

// Recent returns the newest audit rows first, optionally limited to one actor.
func (s *AuditService) Recent(ctx context.Context, userID *uuid.UUID, limit int) ([]models.AuditLog, error) {
	filter := store.Filter{}
	if userID != nil {
		filter["user_id"] = *userID
	}
	rows, err := s.store.AuditLogs().GetAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func uuidPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
