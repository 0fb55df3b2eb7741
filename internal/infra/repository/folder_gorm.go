package repository

import (
	"context"
	"errors"
	"fmt"

	"ordinary-note/internal/domain/model"
	repo "ordinary-note/internal/repository"

	"gorm.io/gorm"
)

// 子フォルダ数・ノート数を一緒に取る
const folderWithCountsSelect = `folders.*,
	(SELECT COUNT(*) FROM folders AS c WHERE c.parent_id = folders.id) AS child_count,
	(SELECT COUNT(*) FROM notes AS n WHERE n.folder_id = folders.id AND n.deleted_at IS NULL) AS note_count`

type folderGormRepository struct {
	db *gorm.DB
}

func NewFolderGormRepository(db *gorm.DB) repo.FolderRepository {
	return &folderGormRepository{db: db}
}

func (r *folderGormRepository) Create(ctx context.Context, folder *model.Folder) error {
	if err := r.db.WithContext(ctx).Create(folder).Error; err != nil {
		//親が同時に削除された
		if isPgError(err, pgForeignKeyViolation) {
			return repo.ErrParentFolderMissing
		}
		return fmt.Errorf("create folder: %w", err)
	}
	return nil
}

func (r *folderGormRepository) FindByID(ctx context.Context, folderID string) (*model.Folder, error) {
	var f model.Folder

	err := r.db.WithContext(ctx).
		Where("id = ?", folderID).
		First(&f).Error
	if err != nil {
		//UUIDとして読めないidは存在しないのと同じ
		if errors.Is(err, gorm.ErrRecordNotFound) || isPgError(err, pgInvalidTextRepresentation) {
			return nil, nil
		}
		return nil, fmt.Errorf("find folder: %w", err)
	}
	return &f, nil
}

func (r *folderGormRepository) Update(ctx context.Context, folderID string, patch repo.FolderPatch) (*model.Folder, error) {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.ParentIDSet {
		updates["parent_id"] = patch.ParentID
	}
	if patch.SortOrder != nil {
		updates["sort_order"] = *patch.SortOrder
	}

	if len(updates) > 0 {
		err := r.db.WithContext(ctx).
			Model(&model.Folder{}).
			Where("id = ?", folderID).
			Updates(updates).Error
		if err != nil {
			if isPgError(err, pgForeignKeyViolation) {
				return nil, repo.ErrParentFolderMissing
			}
			return nil, fmt.Errorf("update folder: %w", err)
		}
	}

	return r.FindByID(ctx, folderID)
}

// 子フォルダ・ノートはFKのON DELETE CASCADEで消える
func (r *folderGormRepository) Delete(ctx context.Context, folderID string) error {
	err := r.db.WithContext(ctx).
		Where("id = ?", folderID).
		Delete(&model.Folder{}).Error
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	return nil
}

func (r *folderGormRepository) ListWithCountsByUser(ctx context.Context, userID string) ([]model.FolderWithCounts, error) {
	var rows []model.FolderWithCounts

	err := r.db.WithContext(ctx).
		Model(&model.Folder{}).
		Select(folderWithCountsSelect).
		Where("folders.user_id = ?", userID).
		Order("folders.sort_order ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return rows, nil
}

func (r *folderGormRepository) ListChildrenWithCounts(ctx context.Context, userID string, parentID string) ([]model.FolderWithCounts, error) {
	var rows []model.FolderWithCounts

	err := r.db.WithContext(ctx).
		Model(&model.Folder{}).
		Select(folderWithCountsSelect).
		Where("folders.user_id = ? AND folders.parent_id = ?", userID, parentID).
		Order("folders.sort_order ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list child folders: %w", err)
	}
	return rows, nil
}

func (r *folderGormRepository) MaxSortOrder(ctx context.Context, userID string, parentID *string) (int, error) {
	var maxOrder int

	q := r.db.WithContext(ctx).
		Model(&model.Folder{}).
		Select("COALESCE(MAX(sort_order), -1)").
		Where("user_id = ?", userID)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}

	if err := q.Scan(&maxOrder).Error; err != nil {
		return 0, fmt.Errorf("max folder sort order: %w", err)
	}
	return maxOrder, nil
}
