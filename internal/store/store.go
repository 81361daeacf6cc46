// Package store is the record store the workflow services persist through.
package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangwon4052/sangwon-sign-off/internal/models"
)

// Filter matches records whose columns equal the given values.
type Filter map[string]any

// Collection is uniform CRUD over one named collection. Every error it
// returns is a *models.AppError of kind not_found or store.
type Collection[T any] interface {
	GetAll(ctx context.Context, filter Filter) ([]T, error)
	GetByID(ctx context.Context, id uuid.UUID) (*T, error)
	Create(ctx context.Context, record *T) error
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*T, error)
	// UpdateIf applies fields only while the record still matches expect.
	// It reports false, without error, when the record exists but no longer matches.
	UpdateIf(ctx context.Context, id uuid.UUID, expect Filter, fields map[string]any) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteWhere(ctx context.Context, filter Filter) (int64, error)
	Count(ctx context.Context, filter Filter) (int64, error)
}

type Store interface {
	Users() Collection[models.User]
	PendingUsers() Collection[models.PendingUser]
	Approvals() Collection[models.Approval]
	Notifications() Collection[models.Notification]
	AuditLogs() Collection[models.AuditLog]
	// Transaction runs fn against a store bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
