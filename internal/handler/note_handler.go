package handler

import (
	"context"
	"net/http"

	"ordinary-note/internal/domain/model"
	"ordinary-note/internal/repository"
	"ordinary-note/internal/usecase"
	"ordinary-note/internal/validator"

	"github.com/labstack/echo/v4"
)

type NoteService interface {
	GetByID(ctx context.Context, userID string, noteID string) (*model.Note, error)
	Create(ctx context.Context, userID string, in usecase.CreateNoteInput) (*model.Note, error)
	Update(ctx context.Context, userID string, noteID string, patch repository.NotePatch) (*model.Note, error)
	Delete(ctx context.Context, userID string, noteID string) error
}

type NoteHandler struct {
	notes NoteService
}

func NewNoteHandler(notes NoteService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

type noteResponse struct {
	Note *model.Note `json:"note"`
}

func (h *NoteHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.create)
	g.GET("/:id", h.detail)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *NoteHandler) detail(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	note, err := h.notes.GetByID(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, noteResponse{Note: note})
}

func (h *NoteHandler) create(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req validator.CreateNoteRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	in, err := validator.ValidateCreateNote(req)
	if err != nil {
		return err
	}

	note, err := h.notes.Create(c.Request().Context(), userID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, noteResponse{Note: note})
}

// 自動保存
func (h *NoteHandler) update(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req validator.UpdateNoteRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	patch, err := validator.ValidateUpdateNote(req)
	if err != nil {
		return err
	}

	note, err := h.notes.Update(c.Request().Context(), userID, c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, noteResponse{Note: note})
}

// 論理削除
func (h *NoteHandler) delete(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	if err := h.notes.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
