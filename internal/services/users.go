package services

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sangwon4052/sangwon-sign-off/internal/metrics"
	"github.com/sangwon4052/sangwon-sign-off/internal/models"
	"github.com/sangwon4052/sangwon-sign-off/internal/store"
	"github.com/sangwon4052/sangwon-sign-off/pkg/logger"
	"github.com/sangwon4052/sangwon-sign-off/pkg/utils"
)

const minPasswordLength = 6

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
	Role            models.Role
}

type UserService struct {
	store  store.Store
	policy Policy
	audit  *AuditService
}

func NewUserService(s store.Store, audit *AuditService) *UserService {
	return &UserService{store: s, audit: audit}
}

// Signup files an account request that stays pending until an admin approves it.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.PendingUser, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" || in.Role == "" {
		return nil, models.NewValidationError("name, email, password and role are required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, models.NewValidationError("password must be at least 6 characters")
	}
	if !in.Role.Assignable() {
		return nil, models.NewValidationError("role must be approver or requester")
	}

	taken, err := emailTaken(ctx, s.store, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError("email already registered")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewStoreError("hash password", err)
	}

	pending := &models.PendingUser{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.store.PendingUsers().Create(ctx, pending); err != nil {
		return nil, err
	}

	metrics.Signups.Inc()
	logger.Info("user_signup", map[string]interface{}{
		"pending_user_id": pending.ID.String(),
		"role":            string(pending.Role),
	})
	s.audit.LogAsync(AuditEntry{
		Action:       AuditUserSignup,
		ResourceType: "pending_user",
		ResourceID:   uuidPtr(pending.ID),
		Details:      map[string]interface{}{"email": pending.Email, "role": string(pending.Role)},
	})
	return pending, nil
}

// ApproveUser moves a pending signup into the active users in one transaction.
func (s *UserService) ApproveUser(ctx context.Context, actor *models.User, pendingID uuid.UUID) (*models.User, error) {
	if !s.policy.CanManageUsers(actor) {
		return nil, models.NewAuthorizationError("admin access required")
	}

	var created *models.User
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		pending, err := tx.PendingUsers().GetByID(ctx, pendingID)
		if err != nil {
			return err
		}

		user := &models.User{
			Name:         pending.Name,
			Email:        pending.Email,
			PasswordHash: pending.PasswordHash,
			Role:         pending.Role,
			Status:       models.UserStatusApproved,
		}
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		if err := tx.PendingUsers().Delete(ctx, pending.ID); err != nil {
			return err
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.UserApprovals.WithLabelValues("approved").Inc()
	logger.InfoWithUser(actor.ID.String(), "user_approved", map[string]interface{}{
		"user_id": created.ID.String(),
		"role":    string(created.Role),
	})
	s.audit.LogAsync(AuditEntry{
		UserID:       uuidPtr(actor.ID),
		Action:       AuditUserApprove,
		ResourceType: "user",
		ResourceID:   uuidPtr(created.ID),
		Details:      map[string]interface{}{"email": created.Email},
	})
	return created, nil
}

// RejectUser discards a pending signup. The applicant is not notified.
func (s *UserService) RejectUser(ctx context.Context, actor *models.User, pendingID uuid.UUID) error {
	if !s.policy.CanManageUsers(actor) {
		return models.NewAuthorizationError("admin access required")
	}
	if err := s.store.PendingUsers().Delete(ctx, pendingID); err != nil {
		return err
	}

	metrics.UserApprovals.WithLabelValues("rejected").Inc()
	s.audit.LogAsync(AuditEntry{
		UserID:       uuidPtr(actor.ID),
		Action:       AuditUserReject,
		ResourceType: "pending_user",
		ResourceID:   uuidPtr(pendingID),
	})
	return nil
}

// RegisterEmployee creates an active account directly, skipping the pending state.
func (s *UserService) RegisterEmployee(ctx context.Context, actor *models.User, in RegisterInput) (*models.User, error) {
	if !s.policy.CanManageUsers(actor) {
		return nil, models.NewAuthorizationError("admin access required")
	}

	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" || in.Role == "" {
		return nil, models.NewValidationError("name, email, password and role are required")
	}
	if in.Password != in.PasswordConfirm {
		return nil, models.NewValidationError("passwords do not match")
	}
	if len(in.Password) < minPasswordLength {
		return nil, models.NewValidationError("password must be at least 6 characters")
	}
	if !in.Role.Valid() {
		return nil, models.NewValidationError("invalid role")
	}

	taken, err := emailTaken(ctx, s.store, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError("email already registered")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewStoreError("hash password", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		Status:       models.UserStatusApproved,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit.LogAsync(AuditEntry{
		UserID:       uuidPtr(actor.ID),
		Action:       AuditUserRegister,
		ResourceType: "user",
		ResourceID:   uuidPtr(user.ID),
		Details:      map[string]interface{}{"email": user.Email, "role": string(user.Role)},
	})
	return user, nil
}

func (s *UserService) ChangeRole(ctx context.Context, actor *models.User, userID uuid.UUID, role models.Role) (*models.User, error) {
	if !s.policy.CanManageUsers(actor) {
		return nil, models.NewAuthorizationError("admin access required")
	}

	target, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if target.Role == models.RoleAdmin {
		return nil, models.NewInvariantError("the role of an administrator cannot be changed")
	}
	if !role.Assignable() {
		return nil, models.NewValidationError("role must be approver or requester")
	}

	updated, err := s.store.Users().Update(ctx, userID, map[string]any{"role": role})
	if err != nil {
		return nil, err
	}

	s.audit.LogAsync(AuditEntry{
		UserID:       uuidPtr(actor.ID),
		Action:       AuditUserRoleChange,
		ResourceType: "user",
		ResourceID:   uuidPtr(userID),
		Details:      map[string]interface{}{"from": string(target.Role), "to": string(role)},
	})
	return updated, nil
}

// DeleteUser removes an active account. The last approved administrator can
// never be removed, and an administrator cannot remove themselves.
func (s *UserService) DeleteUser(ctx context.Context, actor *models.User, userID uuid.UUID) error {
	if !s.policy.CanManageUsers(actor) {
		return models.NewAuthorizationError("admin access required")
	}

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		target, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if target.Role == models.RoleAdmin {
			admins, err := tx.Users().Count(ctx, store.Filter{"role": models.RoleAdmin, "status": models.UserStatusApproved})
			if err != nil {
				return err
			}
			if admins <= 1 {
				return models.NewInvariantError("cannot delete the last administrator")
			}
			if target.ID == actor.ID {
				return models.NewValidationError("administrators cannot delete their own account")
			}
		}

		return tx.Users().Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	logger.InfoWithUser(actor.ID.String(), "user_deleted", map[string]interface{}{
		"user_id": userID.String(),
	})
	s.audit.LogAsync(AuditEntry{
		UserID:       uuidPtr(actor.ID),
		Action:       AuditUserDelete,
		ResourceType: "user",
		ResourceID:   uuidPtr(userID),
	})
	return nil
}

// Login authenticates an active account.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, models.NewValidationError("email and password are required")
	}

	users, err := s.store.Users().GetAll(ctx, store.Filter{"email": email})
	if err != nil {
		return nil, err
	}

	if len(users) == 0 {
		pending, err := s.store.PendingUsers().GetAll(ctx, store.Filter{"email": email})
		if err != nil {
			return nil, err
		}
		if len(pending) > 0 && utils.CheckPassword(password, pending[0].PasswordHash) {
			return nil, models.NewAuthenticationError("account is awaiting administrator approval")
		}
		return nil, models.NewAuthenticationError("invalid email or password")
	}

	user := users[0]
	if !utils.CheckPassword(password, user.PasswordHash) {
		return nil, models.NewAuthenticationError("invalid email or password")
	}
	if user.Status != models.UserStatusApproved {
		return nil, models.NewAuthenticationError("account is awaiting administrator approval")
	}

	s.audit.LogAsync(AuditEntry{
		UserID:       uuidPtr(user.ID),
		Action:       AuditUserLogin,
		ResourceType: "user",
		ResourceID:   uuidPtr(user.ID),
	})
	return &user, nil
}

func (s *UserService) Logout(_ context.Context, user *models.User) {
	if user == nil {
		return
	}
	s.audit.LogAsync(AuditEntry{
		UserID:       uuidPtr(user.ID),
		Action:       AuditUserLogout,
		ResourceType: "user",
		ResourceID:   uuidPtr(user.ID),
	})
}

// Get loads an active account by id.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.store.Users().GetByID(ctx, id)
}

// ListUsers returns active accounts sorted by name. A non-empty role narrows the result.
func (s *UserService) ListUsers(ctx context.Context, actor *models.User, role models.Role) ([]models.User, error) {
	if !s.policy.CanManageUsers(actor) {
		return nil, models.NewAuthorizationError("admin access required")
	}

	filter := store.Filter{}
	if role != "" {
		if !role.Valid() {
			return nil, models.NewValidationError("invalid role")
		}
		filter["role"] = role
	}

	users, err := s.store.Users().GetAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].Name < users[j].Name
	})
	return users, nil
}

func (s *UserService) ListPendingUsers(ctx context.Context, actor *models.User) ([]models.PendingUser, error) {
	if !s.policy.CanManageUsers(actor) {
		return nil, models.NewAuthorizationError("admin access required")
	}
	return s.store.PendingUsers().GetAll(ctx, nil)
}

// EnsureDefaultAdmin creates the bootstrap administrator when no users exist.
func (s *UserService) EnsureDefaultAdmin(ctx context.Context, name, email, password string) (bool, error) {
	total, err := s.store.Users().Count(ctx, nil)
	if err != nil {
		return false, err
	}
	if total > 0 {
		return false, nil
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return false, models.NewStoreError("hash password", err)
	}

	admin := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Status:       models.UserStatusApproved,
	}
	if err := s.store.Users().Create(ctx, admin); err != nil {
		return false, err
	}

	logger.Info("default_admin_created", map[string]interface{}{"email": email})
	return true, nil
}

func emailTaken(ctx context.Context, s store.Store, email string) (bool, error) {
	active, err := s.Users().Count(ctx, store.Filter{"email": email})
	if err != nil {
		return false, err
	}
	if active > 0 {
		return true, nil
	}
	pending, err := s.PendingUsers().Count(ctx, store.Filter{"email": email})
	if err != nil {
		return false, err
	}
	return pending > 0, nil
}
