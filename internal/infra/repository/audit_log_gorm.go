package repository

import (
	"context"
	"fmt"

	"ordinary-note/internal/domain/model"
	repo "ordinary-note/internal/repository"

	"gorm.io/gorm"
)

type auditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) repo.AuditLogRepository {
	return &auditLogGormRepository{db: db}
}

// 認証イベントを1件追記する。更新・削除はしない。
func (r *auditLogGormRepository) Create(ctx context.Context, entry model.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("create audit log (%s): %w", entry.Action, err)
	}
	return nil
}
