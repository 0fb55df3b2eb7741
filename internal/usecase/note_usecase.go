package usecase

import (
	"context"
	"time"

	"ordinary-note/internal/domain/model"
	"ordinary-note/internal/repository"
)

// 一覧で返す本文プレビューの長さ（文字数）
const contentPreviewLength = 200

type NoteSummary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	ContentPreview *string   `json:"contentPreview"`
	SortOrder      int       `json:"sortOrder"`
	IsPinned       bool      `json:"isPinned"`
	IsMarkdown     bool      `json:"isMarkdown"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type CreateNoteInput struct {
	FolderID string
	Title    string
}

type NoteUsecase struct {
	notes   repository.NoteRepository
	folders repository.FolderRepository
	ids     IDGenerator
	clock   Clock
}

func NewNoteUsecase(notes repository.NoteRepository, folders repository.FolderRepository, ids IDGenerator, clock Clock) *NoteUsecase {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &NoteUsecase{notes: notes, folders: folders, ids: ids, clock: clock}
}

func (u *NoteUsecase) GetByID(ctx context.Context, userID string, noteID string) (*model.Note, error) {
	return u.findOwnedNote(ctx, userID, noteID)
}

// フォルダ内のノート一覧（ピン留め→sort_order）
func (u *NoteUsecase) ListByFolder(ctx context.Context, userID string, folderID string) ([]NoteSummary, error) {
	if err := u.checkFolder(ctx, userID, folderID); err != nil {
		return nil, err
	}

	notes, err := u.notes.ListByFolder(ctx, folderID)
	if err != nil {
		return nil, internalError(err)
	}

	out := make([]NoteSummary, 0, len(notes))
	for _, n := range notes {
		out = append(out, NoteSummary{
			ID:             n.ID,
			Title:          n.Title,
			ContentPreview: preview(n.ContentPlain),
			SortOrder:      n.SortOrder,
			IsPinned:       n.IsPinned,
			IsMarkdown:     n.IsMarkdown,
			UpdatedAt:      n.UpdatedAt,
		})
	}
	return out, nil
}

func (u *NoteUsecase) Create(ctx context.Context, userID string, in CreateNoteInput) (*model.Note, error) {
	if err := u.checkFolder(ctx, userID, in.FolderID); err != nil {
		return nil, err
	}

	maxSort, err := u.notes.MaxSortOrder(ctx, in.FolderID)
	if err != nil {
		return nil, internalError(err)
	}

	note := &model.Note{
		ID:        u.ids.NewID(),
		UserID:    userID,
		FolderID:  in.FolderID,
		Title:     in.Title,
		SortOrder: maxSort + 1,
	}
	if err := u.notes.Create(ctx, note); err != nil {
		return nil, internalError(err)
	}
	return note, nil
}

// 自動保存の保存先
func (u *NoteUsecase) Update(ctx context.Context, userID string, noteID string, patch repository.NotePatch) (*model.Note, error) {
	note, err := u.findOwnedNote(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	//別フォルダへの移動は移動先の所有者チェック
	if patch.FolderID != nil && *patch.FolderID != note.FolderID {
		if err := u.checkFolder(ctx, userID, *patch.FolderID); err != nil {
			return nil, err
		}
	}

	updated, err := u.notes.Update(ctx, noteID, patch)
	if err != nil {
		return nil, internalError(err)
	}
	if updated == nil {
		return nil, NewNotFoundError("Note")
	}
	return updated, nil
}

// 論理削除
func (u *NoteUsecase) Delete(ctx context.Context, userID string, noteID string) error {
	if _, err := u.findOwnedNote(ctx, userID, noteID); err != nil {
		return err
	}
	if err := u.notes.SoftDelete(ctx, noteID, u.clock.Now()); err != nil {
		return internalError(err)
	}
	return nil
}

func (u *NoteUsecase) findOwnedNote(ctx context.Context, userID string, noteID string) (*model.Note, error) {
	note, err := u.notes.FindActiveByID(ctx, noteID)
	if err != nil {
		return nil, internalError(err)
	}
	if note == nil {
		return nil, NewNotFoundError("Note")
	}
	if note.UserID != userID {
		return nil, ErrForbidden
	}
	return note, nil
}

func (u *NoteUsecase) checkFolder(ctx context.Context, userID string, folderID string) error {
	folder, err := u.folders.FindByID(ctx, folderID)
	if err != nil {
		return internalError(err)
	}
	if folder == nil {
		return NewNotFoundError("Folder")
	}
	if folder.UserID != userID {
		return ErrForbidden
	}
	return nil
}

func preview(content *string) *string {
	if content == nil {
		return nil
	}
	r := []rune(*content)
	if len(r) > contentPreviewLength {
		r = r[:contentPreviewLength]
	}
	s := string(r)
	return &s
}
