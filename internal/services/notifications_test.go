package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangwon4052/sangwon-sign-off/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func (p *recordingPublisher) PublishNotification(_ context.Context, n *models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, *n)
	return nil
}

func seedNotices(t *testing.T, env *testEnv, recipient *models.User, count int) []*models.Notification {
	t.Helper()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	out := make([]*models.Notification, 0, count)
	for i := 0; i < count; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		env.notifications.now = func() time.Time { return at }
		n := env.notifications.Notify(context.Background(), NotifyInput{
			RecipientID: recipient.ID,
			Type:        models.ApprovalStatusApproved,
			Title:       "Request approved",
			Message:     "ok",
			ApprovalID:  uuid.New(),
		})
		require.NotNil(t, n)
		out = append(out, n)
	}
	return out
}

func TestNotifications_ListAndUnreadCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	kim := env.createUser(t, "Kim", "kim@x.com", models.RoleRequester)
	lee := env.createUser(t, "Lee", "lee@x.com", models.RoleRequester)

	notes := seedNotices(t, env, kim, 3)
	seedNotices(t, env, lee, 1)

	list, err := env.notifications.List(ctx, kim)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, notes[2].ID, list[0].ID)

	unread, err := env.notifications.UnreadCount(ctx, kim)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	_, err = env.notifications.MarkRead(ctx, kim, notes[0].ID)
	require.NoError(t, err)
	unread, err = env.notifications.UnreadCount(ctx, kim)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	changed, err := env.notifications.MarkAllRead(ctx, kim)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	unread, err = env.notifications.UnreadCount(ctx, kim)
	require.NoError(t, err)
	assert.Zero(t, unread)

	leeUnread, err := env.notifications.UnreadCount(ctx, lee)
	require.NoError(t, err)
	assert.Equal(t, int64(1), leeUnread)
}

func TestNotifications_OwnershipAndDeletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	kim := env.createUser(t, "Kim", "kim@x.com", models.RoleRequester)
	lee := env.createUser(t, "Lee", "lee@x.com", models.RoleRequester)
	notes := seedNotices(t, env, kim, 3)
	seedNotices(t, env, lee, 2)

	_, err := env.notifications.MarkRead(ctx, lee, notes[0].ID)
	assert.True(t, models.IsKind(err, models.KindNotFound))
	assert.True(t, models.IsKind(env.notifications.Delete(ctx, lee, notes[0].ID), models.KindNotFound))

	require.NoError(t, env.notifications.Delete(ctx, kim, notes[0].ID))

	cleared, err := env.notifications.ClearAll(ctx, kim)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cleared)

	remaining, err := env.store.Notifications().Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), remaining)
}

func TestNotifications_PublishAfterDecision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pub := &recordingPublisher{}
	env.notifications.publisher = pub

	requester := env.createUser(t, "R", "r@x.com", models.RoleRequester)
	approver := env.createUser(t, "B", "b@x.com", models.RoleApprover)
	a := env.submit(t, requester, approver, "Laptop")

	_, err := env.approvals.ProcessRequest(ctx, approver, a.ID, ProcessInput{Decision: models.DecisionRejected})
	require.NoError(t, err)

	require.Len(t, pub.sent, 1)
	assert.Equal(t, requester.ID, pub.sent[0].UserID)
	assert.Equal(t, "Request rejected", pub.sent[0].Title)
	assert.Equal(t, `"Laptop" was rejected.`, pub.sent[0].Message)
}

func TestNotifications_PublishFailureIsBestEffort(t *testing.T) {
	env := newTestEnv(t)
	env.notifications.publisher = &recordingPublisher{err: errors.New("redis down")}
	kim := env.createUser(t, "Kim", "kim@x.com", models.RoleRequester)

	n := env.notifications.Notify(context.Background(), NotifyInput{
		RecipientID: kim.ID, Type: models.ApprovalStatusApproved, Title: "t", Message: "m", ApprovalID: uuid.New(),
	})
	require.NotNil(t, n)

	stored, err := env.store.Notifications().GetByID(context.Background(), n.ID)
	require.NoError(t, err)
	assert.False(t, stored.Read)
}

func TestDecisionNotice(t *testing.T) {
	approval := &models.Approval{Title: "Leave", RequesterID: uuid.New()}
	approval.ID = uuid.New()

	approved := decisionNotice(approval, models.DecisionApproved, 2)
	assert.Equal(t, approval.RequesterID, approved.RecipientID)
	assert.Equal(t, models.ApprovalStatusApproved, approved.Type)
	assert.Equal(t, `"Leave" was approved. 2 signed file(s) available for download.`, approved.Message)

	plain := decisionNotice(approval, models.DecisionApproved, 0)
	assert.Equal(t, `"Leave" was approved.`, plain.Message)

	rejected := decisionNotice(approval, models.DecisionRejected, 0)
	assert.Equal(t, "Request rejected", rejected.Title)
	assert.Equal(t, approval.ID, rejected.ApprovalID)
}
