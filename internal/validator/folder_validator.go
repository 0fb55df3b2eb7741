package validator

import (
	"strings"
	"unicode/utf8"

	"ordinary-note/internal/repository"
	"ordinary-note/internal/usecase"
)

const maxFolderNameLength = 255

type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
}

type UpdateFolderRequest struct {
	Name      *string          `json:"name"`
	ParentID  Nullable[string] `json:"parentId"`
	SortOrder *int             `json:"sortOrder"`
}

func ValidateCreateFolder(req CreateFolderRequest) (usecase.CreateFolderInput, error) {
	var details []usecase.FieldError
	details = appendNameErrors(details, req.Name)
	if req.ParentID != nil && strings.TrimSpace(*req.ParentID) == "" {
		details = append(details, usecase.FieldError{Field: "parentId", Message: "Parent folder ID must not be empty"})
	}
	if len(details) > 0 {
		return usecase.CreateFolderInput{}, usecase.NewValidationError(details...)
	}

	return usecase.CreateFolderInput{Name: req.Name, ParentID: req.ParentID}, nil
}

// parentIdはnullでルートへ移動
func ValidateUpdateFolder(req UpdateFolderRequest) (repository.FolderPatch, error) {
	patch := repository.FolderPatch{
		Name:        req.Name,
		ParentIDSet: req.ParentID.Set,
		ParentID:    req.ParentID.Ptr(),
		SortOrder:   req.SortOrder,
	}
	if patch.IsEmpty() {
		return patch, usecase.NewValidationError(usecase.FieldError{Field: "", Message: "At least one field must be provided"})
	}

	var details []usecase.FieldError
	if req.Name != nil {
		details = appendNameErrors(details, *req.Name)
	}
	if patch.ParentID != nil && strings.TrimSpace(*patch.ParentID) == "" {
		details = append(details, usecase.FieldError{Field: "parentId", Message: "Parent folder ID must not be empty"})
	}
	details = appendSortOrderErrors(details, req.SortOrder)
	if len(details) > 0 {
		return patch, usecase.NewValidationError(details...)
	}
	return patch, nil
}

func appendNameErrors(details []usecase.FieldError, name string) []usecase.FieldError {
	switch {
	case strings.TrimSpace(name) == "":
		return append(details, usecase.FieldError{Field: "name", Message: "Folder name is required"})
	case utf8.RuneCountInString(name) > maxFolderNameLength:
		return append(details, usecase.FieldError{Field: "name", Message: "Folder name is too long"})
	}
	return details
}

func appendSortOrderErrors(details []usecase.FieldError, sortOrder *int) []usecase.FieldError {
	if sortOrder != nil && *sortOrder < 0 {
		return append(details, usecase.FieldError{Field: "sortOrder", Message: "sortOrder must be 0 or greater"})
	}
	return details
}
