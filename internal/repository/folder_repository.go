package repository

import (
	"context"
	"errors"

	"ordinary-note/internal/domain/model"
)

// 親フォルダが消えていた（FK違反）
var ErrParentFolderMissing = errors.New("parent folder missing")

// 部分更新。ParentIDSetがtrueのときだけparent_idを更新する（nilならルートへ移動）。
type FolderPatch struct {
	Name        *string
	ParentIDSet bool
	ParentID    *string
	SortOrder   *int
}

func (p FolderPatch) IsEmpty() bool {
	return p.Name == nil && !p.ParentIDSet && p.SortOrder == nil
}

type FolderRepository interface {
	Create(ctx context.Context, folder *model.Folder) error
	// 見つからなければ(nil, nil)。
	FindByID(ctx context.Context, folderID string) (*model.Folder, error)
	Update(ctx context.Context, folderID string, patch FolderPatch) (*model.Folder, error)
	Delete(ctx context.Context, folderID string) error

	// ユーザーの全フォルダをsort_order順で。
	ListWithCountsByUser(ctx context.Context, userID string) ([]model.FolderWithCounts, error)
	// 直下の子フォルダをsort_order順で。
	ListChildrenWithCounts(ctx context.Context, userID string, parentID string) ([]model.FolderWithCounts, error)
	// 兄弟内の最大sort_order。兄弟がいなければ-1。
	MaxSortOrder(ctx context.Context, userID string, parentID *string) (int, error)
}
