package validator

import (
	"strings"

	"ordinary-note/internal/usecase"
)

// POST /api/auth/google のリクエストボディ
type GoogleLoginRequest struct {
	Credential string `json:"credential"`
}

// credentialの必須チェック（中身の検証はGoogle側）
func ValidateGoogleLogin(req GoogleLoginRequest) error {
	if strings.TrimSpace(req.Credential) == "" {
		return usecase.NewValidationError(usecase.FieldError{Field: "credential", Message: "credential is required"})
	}
	return nil
}
