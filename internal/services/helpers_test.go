package services

import (
	"context"
	"os"
	"testing"

	"github.com/sangwon4052/sangwon-sign-off/internal/config"
	"github.com/sangwon4052/sangwon-sign-off/internal/database"
	"github.com/sangwon4052/sangwon-sign-off/internal/models"
	"github.com/sangwon4052/sangwon-sign-off/internal/store"
	"github.com/sangwon4052/sangwon-sign-off/pkg/utils"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	utils.ConfigurePasswordCost(bcrypt.MinCost)
	os.Exit(m.Run())
}

type testEnv struct {
	store         store.Store
	audit         *AuditService
	users         *UserService
	approvals     *ApprovalService
	notifications *NotificationService
	dashboard     *DashboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Connect(config.DBConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	s := store.NewGormStore(db)
	audit := NewAuditService(s, 100)
	t.Cleanup(func() {
		audit.Close()
		_ = sqlDB.Close()
	})

	notifications := NewNotificationService(s, nil)
	return &testEnv{
		store:         s,
		audit:         audit,
		users:         NewUserService(s, audit),
		approvals:     NewApprovalService(s, notifications, audit),
		notifications: notifications,
		dashboard:     NewDashboardService(s),
	}
}

// createUser inserts an active account directly, bypassing onboarding.
func (e *testEnv) createUser(t *testing.T, name, email string, role models.Role) *models.User {
	t.Helper()
	hash, err := utils.HashPassword("secret1")
	require.NoError(t, err)

	u := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       models.UserStatusApproved,
	}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	return u
}

func (e *testEnv) submit(t *testing.T, requester, approver *models.User, title string) *models.Approval {
	t.Helper()
	a, err := e.approvals.SubmitRequest(context.Background(), requester, SubmitInput{
		Title:              title,
		Description:        "details for " + title,
		AssignedApproverID: approver.ID,
		Files:              []models.Attachment{{Name: "form.pdf", ContentHandle: "data:application/pdf;base64,JVBERg=="}},
	})
	require.NoError(t, err)
	return a
}

func strPtr(s string) *string {
	return &s
}
