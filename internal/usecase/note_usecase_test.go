package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"ordinary-note/internal/domain/model"
	"ordinary-note/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newNoteUC(t *testing.T) (*NoteUsecase, *MockNoteRepo, *MockFolderRepo, *fixedClock) {
	t.Helper()
	notes := new(MockNoteRepo)
	folders := new(MockFolderRepo)
	clock := &fixedClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewNoteUsecase(notes, folders, &seqIDs{}, clock), notes, folders, clock
}

func TestNoteUsecase_Create(t *testing.T) {
	uc, notes, folders, _ := newNoteUC(t)

	folders.On("FindByID", mock.Anything, "F").Return(&model.Folder{ID: "F", UserID: "u1"}, nil)
	notes.On("MaxSortOrder", mock.Anything, "F").Return(4, nil)
	notes.On("Create", mock.Anything, mock.AnythingOfType("*model.Note")).Return(nil)

	n, err := uc.Create(context.Background(), "u1", CreateNoteInput{FolderID: "F", Title: "Memo"})
	require.NoError(t, err)
	assert.Equal(t, 5, n.SortOrder)
	assert.Equal(t, "Memo", n.Title)
	assert.Equal(t, "u1", n.UserID)
}

func TestNoteUsecase_Create_FolderNotOwned(t *testing.T) {
	uc, notes, folders, _ := newNoteUC(t)

	folders.On("FindByID", mock.Anything, "F").Return(&model.Folder{ID: "F", UserID: "u2"}, nil)

	_, err := uc.Create(context.Background(), "u1", CreateNoteInput{FolderID: "F", Title: "Memo"})
	assert.ErrorIs(t, err, ErrForbidden)
	notes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestNoteUsecase_ListByFolder_Preview(t *testing.T) {
	uc, notes, folders, _ := newNoteUC(t)

	long := strings.Repeat("あ", 250)
	short := "short"
	folders.On("FindByID", mock.Anything, "F").Return(&model.Folder{ID: "F", UserID: "u1"}, nil)
	notes.On("ListByFolder", mock.Anything, "F").Return([]model.Note{
		{ID: "n1", Title: "pinned", IsPinned: true, ContentPlain: &long},
		{ID: "n2", Title: "plain", ContentPlain: &short},
		{ID: "n3", Title: "empty"},
	}, nil)

	out, err := uc.ListByFolder(context.Background(), "u1", "F")
	require.NoError(t, err)
	require.Len(t, out, 3)

	require.NotNil(t, out[0].ContentPreview)
	assert.Equal(t, 200, len([]rune(*out[0].ContentPreview)))
	assert.True(t, out[0].IsPinned)
	assert.Equal(t, "short", *out[1].ContentPreview)
	assert.Nil(t, out[2].ContentPreview)
}

func TestNoteUsecase_GetByID(t *testing.T) {
	uc, notes, _, _ := newNoteUC(t)

	notes.On("FindActiveByID", mock.Anything, "n1").Return(&model.Note{ID: "n1", UserID: "u1"}, nil)
	notes.On("FindActiveByID", mock.Anything, "n2").Return(&model.Note{ID: "n2", UserID: "u2"}, nil)
	notes.On("FindActiveByID", mock.Anything, "gone").Return(nil, nil)

	n, err := uc.GetByID(context.Background(), "u1", "n1")
	require.NoError(t, err)
	assert.Equal(t, "n1", n.ID)

	_, err = uc.GetByID(context.Background(), "u1", "n2")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = uc.GetByID(context.Background(), "u1", "gone")
	assert.ErrorIs(t, err, NewNotFoundError("Note"))
}

func TestNoteUsecase_Update_MoveChecksTargetFolder(t *testing.T) {
	uc, notes, folders, _ := newNoteUC(t)
	target := "G"
	patch := repository.NotePatch{FolderID: &target}

	notes.On("FindActiveByID", mock.Anything, "n1").Return(&model.Note{ID: "n1", UserID: "u1", FolderID: "F"}, nil)
	folders.On("FindByID", mock.Anything, "G").Return(&model.Folder{ID: "G", UserID: "u2"}, nil)

	_, err := uc.Update(context.Background(), "u1", "n1", patch)
	assert.ErrorIs(t, err, ErrForbidden)
	notes.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestNoteUsecase_Update_ClearsContent(t *testing.T) {
	uc, notes, _, _ := newNoteUC(t)
	patch := repository.NotePatch{ContentPlainSet: true, ContentHTMLSet: true}

	notes.On("FindActiveByID", mock.Anything, "n1").Return(&model.Note{ID: "n1", UserID: "u1", FolderID: "F"}, nil)
	notes.On("Update", mock.Anything, "n1", patch).Return(&model.Note{ID: "n1", UserID: "u1", FolderID: "F"}, nil)

	n, err := uc.Update(context.Background(), "u1", "n1", patch)
	require.NoError(t, err)
	assert.Nil(t, n.ContentPlain)
	assert.Nil(t, n.ContentHTML)
}

func TestNoteUsecase_Delete_IsSoft(t *testing.T) {
	uc, notes, _, clock := newNoteUC(t)

	notes.On("FindActiveByID", mock.Anything, "n1").Return(&model.Note{ID: "n1", UserID: "u1"}, nil)
	notes.On("SoftDelete", mock.Anything, "n1", clock.Now()).Return(nil)

	require.NoError(t, uc.Delete(context.Background(), "u1", "n1"))
	notes.AssertExpectations(t)
}
