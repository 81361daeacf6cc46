package store

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sangwon4052/sangwon-sign-off/internal/models"
	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

// NewGormStore returns a Store backed by db. All five collections must be migrated.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() Collection[models.User] {
	return &gormCollection[models.User]{db: s.db, resource: "user"}
}

func (s *gormStore) PendingUsers() Collection[models.PendingUser] {
	return &gormCollection[models.PendingUser]{db: s.db, resource: "pending user"}
}

func (s *gormStore) Approvals() Collection[models.Approval] {
	return &gormCollection[models.Approval]{db: s.db, resource: "approval"}
}

func (s *gormStore) Notifications() Collection[models.Notification] {
	return &gormCollection[models.Notification]{db: s.db, resource: "notification"}
}

func (s *gormStore) AuditLogs() Collection[models.AuditLog] {
	return &gormCollection[models.AuditLog]{db: s.db, resource: "audit log"}
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	var fnErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&gormStore{db: tx})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return models.NewStoreError("transaction", err)
	}
	return nil
}

type gormCollection[T any] struct {
	db       *gorm.DB
	resource string
}

func (c *gormCollection[T]) query(ctx context.Context, filter Filter) *gorm.DB {
	q := c.db.WithContext(ctx).Model(new(T))
	if len(filter) > 0 {
		q = q.Where(map[string]interface{}(filter))
	}
	return q
}

func (c *gormCollection[T]) GetAll(ctx context.Context, filter Filter) ([]T, error) {
	rows := []T{}
	if err := c.query(ctx, filter).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, models.NewStoreError("list "+c.resource, err)
	}
	return rows, nil
}

func (c *gormCollection[T]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var row T
	if err := c.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError(c.resource)
		}
		return nil, models.NewStoreError("get "+c.resource, err)
	}
	return &row, nil
}

func (c *gormCollection[T]) Create(ctx context.Context, record *T) error {
	if err := c.db.WithContext(ctx).Create(record).Error; err != nil {
		if isDuplicateKey(err) {
			return models.NewConflictError(c.resource + " already exists")
		}
		return models.NewStoreError("create "+c.resource, err)
	}
	return nil
}

func (c *gormCollection[T]) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*T, error) {
	res := c.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(map[string]interface{}(fields))
	if res.Error != nil {
		return nil, models.NewStoreError("update "+c.resource, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError(c.resource)
	}
	return c.GetByID(ctx, id)
}

func (c *gormCollection[T]) UpdateIf(ctx context.Context, id uuid.UUID, expect Filter, fields map[string]any) (bool, error) {
	q := c.db.WithContext(ctx).Model(new(T)).Where("id = ?", id)
	if len(expect) > 0 {
		q = q.Where(map[string]interface{}(expect))
	}
	res := q.Updates(map[string]interface{}(fields))
	if res.Error != nil {
		return false, models.NewStoreError("update "+c.resource, res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	exists, err := c.Count(ctx, Filter{"id": id})
	if err != nil {
		return false, err
	}
	if exists == 0 {
		return false, models.NewNotFoundError(c.resource)
	}
	return false, nil
}

func (c *gormCollection[T]) Delete(ctx context.Context, id uuid.UUID) error {
	res := c.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return models.NewStoreError("delete "+c.resource, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError(c.resource)
	}
	return nil
}

func (c *gormCollection[T]) DeleteWhere(ctx context.Context, filter Filter) (int64, error) {
	if len(filter) == 0 {
		return 0, models.NewValidationError("bulk delete requires a filter")
	}
	res := c.db.WithContext(ctx).Where(map[string]interface{}(filter)).Delete(new(T))
	if res.Error != nil {
		return 0, models.NewStoreError("delete "+c.resource, res.Error)
	}
	return res.RowsAffected, nil
}

func (c *gormCollection[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	var total int64
	if err := c.query(ctx, filter).Count(&total).Error; err != nil {
		return 0, models.NewStoreError("count "+c.resource, err)
	}
	return total, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
