package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sangwon4052/sangwon-sign-off/internal/metrics"
	"github.com/sangwon4052/sangwon-sign-off/internal/models"
	"github.com/sangwon4052/sangwon-sign-off/internal/store"
	"github.com/sangwon4052/sangwon-sign-off/pkg/logger"
)

// NotificationPublisher pushes stored notifications to live subscribers.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, notification *models.Notification) error
}

type NotifyInput struct {
	RecipientID uuid.UUID
	Type        models.ApprovalStatus
	Title       string
	Message     string
	ApprovalID  uuid.UUID
}

type NotificationService struct {
	store     store.Store
	publisher NotificationPublisher
	now       func() time.Time
}

// NewNotificationService returns a service that persists through s and, when
// publisher is non-nil, fans new notifications out after they are stored.
func NewNotificationService(s store.Store, publisher NotificationPublisher) *NotificationService {
	return &NotificationService{
		store:     s,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Notify stores a notification outside any transaction. It never fails: a
// persistence error is logged and nil is returned.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) *models.Notification {
	n, err := s.Record(ctx, s.store, in)
	if err != nil {
		metrics.Notifications.WithLabelValues("failed").Inc()
		logger.Error("notification_store_failed", err, map[string]interface{}{
			"recipient_id": in.RecipientID.String(),
			"approval_id":  in.ApprovalID.String(),
		})
		return nil
	}
	s.Publish(ctx, n)
	return n
}

// Record writes a notification through tx so it commits together with the
// transition that caused it.
func (s *NotificationService) Record(ctx context.Context, tx store.Store, in NotifyInput) (*models.Notification, error) {
	n := &models.Notification{
		UserID:     in.RecipientID,
		Type:       in.Type,
		Title:      in.Title,
		Message:    in.Message,
		ApprovalID: in.ApprovalID,
		Timestamp:  s.now(),
		Read:       false,
	}
	if err := tx.Notifications().Create(ctx, n); err != nil {
		return nil, err
	}
	metrics.Notifications.WithLabelValues("stored").Inc()
	return n, nil
}

// Publish pushes an already stored notification. Failures are logged only.
func (s *NotificationService) Publish(ctx context.Context, n *models.Notification) {
	if s.publisher == nil || n == nil {
		return
	}
	if err := s.publisher.PublishNotification(ctx, n); err != nil {
		metrics.Notifications.WithLabelValues("publish_failed").Inc()
		logger.Warn("notification_publish_failed", map[string]interface{}{
			"notification_id": n.ID.String(),
			"error":           err.Error(),
		})
		return
	}
	metrics.Notifications.WithLabelValues("published").Inc()
}

// List returns viewer's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, viewer *models.User) ([]models.Notification, error) {
	rows, err := s.store.Notifications().GetAll(ctx, store.Filter{"user_id": viewer.ID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp.After(rows[j].Timestamp)
	})
	return rows, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, viewer *models.User) (int64, error) {
	return s.store.Notifications().Count(ctx, store.Filter{"user_id": viewer.ID, "read": false})
}

// owned loads a notification and hides it from anyone but its recipient.
func (s *NotificationService) owned(ctx context.Context, viewer *models.User, id uuid.UUID) (*models.Notification, error) {
	n, err := s.store.Notifications().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != viewer.ID {
		return nil, models.NewNotFoundError("notification")
	}
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, viewer *models.User, id uuid.UUID) (*models.Notification, error) {
	if _, err := s.owned(ctx, viewer, id); err != nil {
		return nil, err
	}
	return s.store.Notifications().Update(ctx, id, map[string]any{"read": true})
}

// MarkAllRead flags every unread notification of viewer and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, viewer *models.User) (int64, error) {
	var changed int64
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		unread, err := tx.Notifications().GetAll(ctx, store.Filter{"user_id": viewer.ID, "read": false})
		if err != nil {
			return err
		}
		for _, n := range unread {
			if _, err := tx.Notifications().Update(ctx, n.ID, map[string]any{"read": true}); err != nil {
				return err
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func (s *NotificationService) Delete(ctx context.Context, viewer *models.User, id uuid.UUID) error {
	if _, err := s.owned(ctx, viewer, id); err != nil {
		return err
	}
	return s.store.Notifications().Delete(ctx, id)
}

// ClearAll removes every notification addressed to viewer.
func (s *NotificationService) ClearAll(ctx context.Context, viewer *models.User) (int64, error) {
	return s.store.Notifications().DeleteWhere(ctx, store.Filter{"user_id": viewer.ID})
}

// decisionNotice builds the notification sent to a requester once their
// request has been decided.
func decisionNotice(approval *models.Approval, decision models.Decision, signedFiles int) NotifyInput {
	var title, verb string
	switch decision {
	case models.DecisionApproved:
		title, verb = "Request approved", "approved"
	case models.DecisionRejected:
		title, verb = "Request rejected", "rejected"
	}

	message := fmt.Sprintf("\"%s\" was %s.", approval.Title, verb)
	if decision == models.DecisionApproved && signedFiles > 0 {
		message += fmt.Sprintf(" %d signed file(s) available for download.", signedFiles)
	}

	return NotifyInput{
		RecipientID: approval.RequesterID,
		Type:        decision.Status(),
		Title:       title,
		Message:     message,
		ApprovalID:  approval.ID,
	}
}
