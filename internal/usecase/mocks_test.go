package usecase

import (
	"context"
	"time"

	"ordinary-note/internal/domain/model"
	"ordinary-note/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// Mock: FolderRepository
// =====================

type MockFolderRepo struct {
	mock.Mock
}

func (m *MockFolderRepo) Create(ctx context.Context, folder *model.Folder) error {
	args := m.Called(ctx, folder)
	return args.Error(0)
}

func (m *MockFolderRepo) FindByID(ctx context.Context, folderID string) (*model.Folder, error) {
	args := m.Called(ctx, folderID)
	f, _ := args.Get(0).(*model.Folder)
	return f, args.Error(1)
}

func (m *MockFolderRepo) Update(ctx context.Context, folderID string, patch repository.FolderPatch) (*model.Folder, error) {
	args := m.Called(ctx, folderID, patch)
	f, _ := args.Get(0).(*model.Folder)
	return f, args.Error(1)
}

func (m *MockFolderRepo) Delete(ctx context.Context, folderID string) error {
	args := m.Called(ctx, folderID)
	return args.Error(0)
}

func (m *MockFolderRepo) ListWithCountsByUser(ctx context.Context, userID string) ([]model.FolderWithCounts, error) {
	args := m.Called(ctx, userID)
	rows, _ := args.Get(0).([]model.FolderWithCounts)
	return rows, args.Error(1)
}

func (m *MockFolderRepo) ListChildrenWithCounts(ctx context.Context, userID string, parentID string) ([]model.FolderWithCounts, error) {
	args := m.Called(ctx, userID, parentID)
	rows, _ := args.Get(0).([]model.FolderWithCounts)
	return rows, args.Error(1)
}

func (m *MockFolderRepo) MaxSortOrder(ctx context.Context, userID string, parentID *string) (int, error) {
	args := m.Called(ctx, userID, parentID)
	return args.Int(0), args.Error(1)
}

var _ repository.FolderRepository = (*MockFolderRepo)(nil)

// =====================
// Mock: NoteRepository
// =====================

type MockNoteRepo struct {
	mock.Mock
}

func (m *MockNoteRepo) Create(ctx context.Context, note *model.Note) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *MockNoteRepo) FindActiveByID(ctx context.Context, noteID string) (*model.Note, error) {
	args := m.Called(ctx, noteID)
	n, _ := args.Get(0).(*model.Note)
	return n, args.Error(1)
}

func (m *MockNoteRepo) ListByFolder(ctx context.Context, folderID string) ([]model.Note, error) {
	args := m.Called(ctx, folderID)
	rows, _ := args.Get(0).([]model.Note)
	return rows, args.Error(1)
}

func (m *MockNoteRepo) Update(ctx context.Context, noteID string, patch repository.NotePatch) (*model.Note, error) {
	args := m.Called(ctx, noteID, patch)
	n, _ := args.Get(0).(*model.Note)
	return n, args.Error(1)
}

func (m *MockNoteRepo) SoftDelete(ctx context.Context, noteID string, deletedAt time.Time) error {
	args := m.Called(ctx, noteID, deletedAt)
	return args.Error(0)
}

func (m *MockNoteRepo) MaxSortOrder(ctx context.Context, folderID string) (int, error) {
	args := m.Called(ctx, folderID)
	return args.Int(0), args.Error(1)
}

var _ repository.NoteRepository = (*MockNoteRepo)(nil)

// コンパイル時チェック
var (
	_ repository.UserRepository         = (*memStore)(nil)
	_ repository.RefreshTokenRepository = (*memStore)(nil)
	_ repository.TransactionManager     = (*memStore)(nil)
	_ repository.AuditLogRepository     = (*memAudit)(nil)
)
