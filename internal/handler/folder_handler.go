package handler

import (
	"context"
	"net/http"

	"ordinary-note/internal/domain/model"
	"ordinary-note/internal/middleware"
	"ordinary-note/internal/repository"
	"ordinary-note/internal/usecase"
	"ordinary-note/internal/validator"

	"github.com/labstack/echo/v4"
)

type FolderService interface {
	GetTree(ctx context.Context, userID string) ([]*usecase.FolderTreeNode, error)
	GetChildren(ctx context.Context, userID string, folderID string) ([]usecase.FolderSummary, error)
	Create(ctx context.Context, userID string, in usecase.CreateFolderInput) (*model.Folder, error)
	Update(ctx context.Context, userID string, folderID string, patch repository.FolderPatch) (*model.Folder, error)
	Delete(ctx context.Context, userID string, folderID string) error
}

// /children でノート一覧も返すため
type FolderNoteLister interface {
	ListByFolder(ctx context.Context, userID string, folderID string) ([]usecase.NoteSummary, error)
}

type FolderHandler struct {
	folders FolderService
	notes   FolderNoteLister
}

func NewFolderHandler(folders FolderService, notes FolderNoteLister) *FolderHandler {
	return &FolderHandler{folders: folders, notes: notes}
}

type folderTreeResponse struct {
	Folders []*usecase.FolderTreeNode `json:"folders"`
}

type folderResponse struct {
	Folder *model.Folder `json:"folder"`
}

type folderChildrenResponse struct {
	Folders []usecase.FolderSummary `json:"folders"`
	Notes   []usecase.NoteSummary   `json:"notes"`
}

// グループ側でAuthJWTを掛けておく
func (h *FolderHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.tree)
	g.POST("", h.create)
	g.GET("/:id/children", h.children)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *FolderHandler) tree(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	folders, err := h.folders.GetTree(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, folderTreeResponse{Folders: folders})
}

func (h *FolderHandler) create(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req validator.CreateFolderRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	in, err := validator.ValidateCreateFolder(req)
	if err != nil {
		return err
	}

	folder, err := h.folders.Create(c.Request().Context(), userID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, folderResponse{Folder: folder})
}

func (h *FolderHandler) children(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	folderID := c.Param("id")

	folders, err := h.folders.GetChildren(ctx, userID, folderID)
	if err != nil {
		return err
	}
	notes, err := h.notes.ListByFolder(ctx, userID, folderID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, folderChildrenResponse{Folders: folders, Notes: notes})
}

func (h *FolderHandler) update(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req validator.UpdateFolderRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	patch, err := validator.ValidateUpdateFolder(req)
	if err != nil {
		return err
	}

	folder, err := h.folders.Update(c.Request().Context(), userID, c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, folderResponse{Folder: folder})
}

func (h *FolderHandler) delete(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	if err := h.folders.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func requireUserID(c echo.Context) (string, error) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		return "", usecase.ErrInvalidToken
	}
	return userID, nil
}
