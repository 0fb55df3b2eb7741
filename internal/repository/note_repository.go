package repository

import (
	"context"
	"time"

	"ordinary-note/internal/domain/model"
)

// 部分更新。*Setがtrueのフィールドはnilでも更新する（NULLにする）。
type NotePatch struct {
	Title           *string
	ContentPlainSet bool
	ContentPlain    *string
	ContentHTMLSet  bool
	ContentHTML     *string
	FolderID        *string
	SortOrder       *int
	IsPinned        *bool
	IsMarkdown      *bool
}

func (p NotePatch) IsEmpty() bool {
	return p.Title == nil && !p.ContentPlainSet && !p.ContentHTMLSet &&
		p.FolderID == nil && p.SortOrder == nil && p.IsPinned == nil && p.IsMarkdown == nil
}

type NoteRepository interface {
	Create(ctx context.Context, note *model.Note) error
	// 論理削除されていないノートを1件。見つからなければ(nil, nil)。
	FindActiveByID(ctx context.Context, noteID string) (*model.Note, error)
	// ピン留め→sort_orderの順。
	ListByFolder(ctx context.Context, folderID string) ([]model.Note, error)
	Update(ctx context.Context, noteID string, patch NotePatch) (*model.Note, error)
	SoftDelete(ctx context.Context, noteID string, deletedAt time.Time) error
	// フォルダ内の最大sort_order。ノートがなければ-1。
	MaxSortOrder(ctx context.Context, folderID string) (int, error)
}
