package usecase

import (
	"context"
	"errors"

	"ordinary-note/internal/domain/model"
	"ordinary-note/internal/repository"

	"github.com/sirupsen/logrus"
)

// フォルダが1つも無いユーザーに作るルート
const defaultRootFolderName = "My Notes"

type FolderSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SortOrder  int    `json:"sortOrder"`
	ChildCount int    `json:"childCount"`
	NoteCount  int    `json:"noteCount"`
}

type CreateFolderInput struct {
	Name     string
	ParentID *string
}

type FolderUsecase struct {
	folders repository.FolderRepository
	ids     IDGenerator
	log     logrus.FieldLogger
}

func NewFolderUsecase(folders repository.FolderRepository, ids IDGenerator, log logrus.FieldLogger) *FolderUsecase {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &FolderUsecase{folders: folders, ids: ids, log: log.WithField("component", "folder")}
}

// フォルダツリー全体。空ならルートを作ってから返す。
func (u *FolderUsecase) GetTree(ctx context.Context, userID string) ([]*FolderTreeNode, error) {
	folders, err := u.folders.ListWithCountsByUser(ctx, userID)
	if err != nil {
		return nil, internalError(err)
	}

	if len(folders) == 0 {
		root := &model.Folder{ID: u.ids.NewID(), UserID: userID, Name: defaultRootFolderName, SortOrder: 0}
		if err := u.folders.Create(ctx, root); err != nil {
			return nil, internalError(err)
		}

		folders, err = u.folders.ListWithCountsByUser(ctx, userID)
		if err != nil {
			return nil, internalError(err)
		}
	}

	return BuildFolderTree(folders, u.log.WithField("user_id", userID)), nil
}

// 直下の子フォルダ
func (u *FolderUsecase) GetChildren(ctx context.Context, userID string, folderID string) ([]FolderSummary, error) {
	if _, err := u.findOwned(ctx, userID, folderID, "Folder"); err != nil {
		return nil, err
	}

	rows, err := u.folders.ListChildrenWithCounts(ctx, userID, folderID)
	if err != nil {
		return nil, internalError(err)
	}

	out := make([]FolderSummary, 0, len(rows))
	for _, f := range rows {
		out = append(out, FolderSummary{
			ID:         f.ID,
			Name:       f.Name,
			SortOrder:  f.SortOrder,
			ChildCount: f.ChildCount,
			NoteCount:  f.NoteCount,
		})
	}
	return out, nil
}

func (u *FolderUsecase) Create(ctx context.Context, userID string, in CreateFolderInput) (*model.Folder, error) {
	if in.ParentID != nil {
		if _, err := u.findOwned(ctx, userID, *in.ParentID, "Parent folder"); err != nil {
			return nil, err
		}
	}

	maxSort, err := u.folders.MaxSortOrder(ctx, userID, in.ParentID)
	if err != nil {
		return nil, internalError(err)
	}

	folder := &model.Folder{
		ID:        u.ids.NewID(),
		UserID:    userID,
		ParentID:  in.ParentID,
		Name:      in.Name,
		SortOrder: maxSort + 1,
	}
	if err := u.folders.Create(ctx, folder); err != nil {
		if errors.Is(err, repository.ErrParentFolderMissing) {
			return nil, NewNotFoundError("Parent folder")
		}
		return nil, internalError(err)
	}
	return folder, nil
}

func (u *FolderUsecase) Update(ctx context.Context, userID string, folderID string, patch repository.FolderPatch) (*model.Folder, error) {
	if _, err := u.findOwned(ctx, userID, folderID, "Folder"); err != nil {
		return nil, err
	}

	if patch.ParentIDSet && patch.ParentID != nil {
		if err := u.checkNewParent(ctx, userID, folderID, *patch.ParentID); err != nil {
			return nil, err
		}
	}

	updated, err := u.folders.Update(ctx, folderID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrParentFolderMissing) {
			return nil, NewNotFoundError("Parent folder")
		}
		return nil, internalError(err)
	}
	if updated == nil {
		return nil, NewNotFoundError("Folder")
	}
	return updated, nil
}

func (u *FolderUsecase) Delete(ctx context.Context, userID string, folderID string) error {
	if _, err := u.findOwned(ctx, userID, folderID, "Folder"); err != nil {
		return err
	}
	if err := u.folders.Delete(ctx, folderID); err != nil {
		return internalError(err)
	}
	return nil
}

// 新しい親の所有者チェックと循環チェック。
// 親から上にたどって自分自身に着いたら、自分の子孫の下に移動しようとしている。
func (u *FolderUsecase) checkNewParent(ctx context.Context, userID string, folderID string, parentID string) error {
	if parentID == folderID {
		return NewValidationError(FieldError{Field: "parentId", Message: "A folder cannot be its own parent"})
	}

	parent, err := u.findOwned(ctx, userID, parentID, "Parent folder")
	if err != nil {
		return err
	}

	visited := map[string]bool{}
	cur := parent
	for cur != nil {
		if cur.ID == folderID {
			return NewValidationError(FieldError{Field: "parentId", Message: "A folder cannot be moved into its own descendant"})
		}
		if visited[cur.ID] {
			//既に壊れている
			u.log.WithField("folder_id", cur.ID).Error("folder cycle detected in stored data")
			return NewValidationError(FieldError{Field: "parentId", Message: "Invalid parent folder"})
		}
		visited[cur.ID] = true

		if cur.ParentID == nil {
			break
		}
		cur, err = u.folders.FindByID(ctx, *cur.ParentID)
		if err != nil {
			return internalError(err)
		}
	}
	return nil
}

// 存在と所有者のチェック
func (u *FolderUsecase) findOwned(ctx context.Context, userID string, folderID string, resource string) (*model.Folder, error) {
	folder, err := u.folders.FindByID(ctx, folderID)
	if err != nil {
		return nil, internalError(err)
	}
	if folder == nil {
		return nil, NewNotFoundError(resource)
	}
	if folder.UserID != userID {
		return nil, ErrForbidden
	}
	return folder, nil
}
