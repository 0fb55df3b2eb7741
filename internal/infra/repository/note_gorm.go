package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ordinary-note/internal/domain/model"
	repo "ordinary-note/internal/repository"

	"gorm.io/gorm"
)

type noteGormRepository struct {
	db *gorm.DB
}

func NewNoteGormRepository(db *gorm.DB) repo.NoteRepository {
	return &noteGormRepository{db: db}
}

func (r *noteGormRepository) Create(ctx context.Context, note *model.Note) error {
	if err := r.db.WithContext(ctx).Create(note).Error; err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

// 論理削除済みは除外
func (r *noteGormRepository) FindActiveByID(ctx context.Context, noteID string) (*model.Note, error) {
	var n model.Note

	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", noteID).
		First(&n).Error
	if err != nil {
		//UUIDとして読めないidは存在しないのと同じ
		if errors.Is(err, gorm.ErrRecordNotFound) || isPgError(err, pgInvalidTextRepresentation) {
			return nil, nil
		}
		return nil, fmt.Errorf("find note: %w", err)
	}
	return &n, nil
}

func (r *noteGormRepository) ListByFolder(ctx context.Context, folderID string) ([]model.Note, error) {
	var notes []model.Note

	err := r.db.WithContext(ctx).
		Where("folder_id = ? AND deleted_at IS NULL", folderID).
		Order("is_pinned DESC").
		Order("sort_order ASC").
		Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

func (r *noteGormRepository) Update(ctx context.Context, noteID string, patch repo.NotePatch) (*model.Note, error) {
	updates := map[string]interface{}{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.ContentPlainSet {
		updates["content_plain"] = patch.ContentPlain
	}
	if patch.ContentHTMLSet {
		updates["content_html"] = patch.ContentHTML
	}
	if patch.FolderID != nil {
		updates["folder_id"] = *patch.FolderID
	}
	if patch.SortOrder != nil {
		updates["sort_order"] = *patch.SortOrder
	}
	if patch.IsPinned != nil {
		updates["is_pinned"] = *patch.IsPinned
	}
	if patch.IsMarkdown != nil {
		updates["is_markdown"] = *patch.IsMarkdown
	}

	if len(updates) > 0 {
		err := r.db.WithContext(ctx).
			Model(&model.Note{}).
			Where("id = ? AND deleted_at IS NULL", noteID).
			Updates(updates).Error
		if err != nil {
			return nil, fmt.Errorf("update note: %w", err)
		}
	}

	return r.FindActiveByID(ctx, noteID)
}

func (r *noteGormRepository) SoftDelete(ctx context.Context, noteID string, deletedAt time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&model.Note{}).
		Where("id = ? AND deleted_at IS NULL", noteID).
		Update("deleted_at", deletedAt).Error
	if err != nil {
		return fmt.Errorf("soft delete note: %w", err)
	}
	return nil
}

func (r *noteGormRepository) MaxSortOrder(ctx context.Context, folderID string) (int, error) {
	var maxOrder int

	err := r.db.WithContext(ctx).
		Model(&model.Note{}).
		Select("COALESCE(MAX(sort_order), -1)").
		Where("folder_id = ? AND deleted_at IS NULL", folderID).
		Scan(&maxOrder).Error
	if err != nil {
		return 0, fmt.Errorf("max note sort order: %w", err)
	}
	return maxOrder, nil
}
