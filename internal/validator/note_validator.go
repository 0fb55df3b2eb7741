package validator

import (
	"strings"
	"unicode/utf8"

	"ordinary-note/internal/repository"
	"ordinary-note/internal/usecase"
)

const maxNoteTitleLength = 500

type CreateNoteRequest struct {
	FolderID string `json:"folderId"`
	Title    string `json:"title"`
}

// 自動保存はこの形で来る
type UpdateNoteRequest struct {
	Title        *string          `json:"title"`
	ContentPlain Nullable[string] `json:"contentPlain"`
	ContentHTML  Nullable[string] `json:"contentHtml"`
	FolderID     *string          `json:"folderId"`
	SortOrder    *int             `json:"sortOrder"`
	IsPinned     *bool            `json:"isPinned"`
	IsMarkdown   *bool            `json:"isMarkdown"`
}

func ValidateCreateNote(req CreateNoteRequest) (usecase.CreateNoteInput, error) {
	var details []usecase.FieldError
	if strings.TrimSpace(req.FolderID) == "" {
		details = append(details, usecase.FieldError{Field: "folderId", Message: "Folder ID is required"})
	}
	details = appendTitleErrors(details, &req.Title)
	if len(details) > 0 {
		return usecase.CreateNoteInput{}, usecase.NewValidationError(details...)
	}

	return usecase.CreateNoteInput{FolderID: req.FolderID, Title: req.Title}, nil
}

func ValidateUpdateNote(req UpdateNoteRequest) (repository.NotePatch, error) {
	patch := repository.NotePatch{
		Title:           req.Title,
		ContentPlainSet: req.ContentPlain.Set,
		ContentPlain:    req.ContentPlain.Ptr(),
		ContentHTMLSet:  req.ContentHTML.Set,
		ContentHTML:     req.ContentHTML.Ptr(),
		FolderID:        req.FolderID,
		SortOrder:       req.SortOrder,
		IsPinned:        req.IsPinned,
		IsMarkdown:      req.IsMarkdown,
	}
	if patch.IsEmpty() {
		return patch, usecase.NewValidationError(usecase.FieldError{Field: "", Message: "At least one field must be provided"})
	}

	var details []usecase.FieldError
	details = appendTitleErrors(details, req.Title)
	if req.FolderID != nil && strings.TrimSpace(*req.FolderID) == "" {
		details = append(details, usecase.FieldError{Field: "folderId", Message: "Folder ID must not be empty"})
	}
	details = appendSortOrderErrors(details, req.SortOrder)
	if len(details) > 0 {
		return patch, usecase.NewValidationError(details...)
	}
	return patch, nil
}

func appendTitleErrors(details []usecase.FieldError, title *string) []usecase.FieldError {
	if title != nil && utf8.RuneCountInString(*title) > maxNoteTitleLength {
		return append(details, usecase.FieldError{Field: "title", Message: "Title is too long"})
	}
	return details
}
