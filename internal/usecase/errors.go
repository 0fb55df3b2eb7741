package usecase

import (
	"context"
	"errors"
	"net/http"
)

// クライアントに返すエラーコード
type ErrorCode string

const (
	CodeAuthGoogleFailed     ErrorCode = "AUTH_GOOGLE_FAILED"
	CodeAuthInvalidToken     ErrorCode = "AUTH_INVALID_TOKEN"
	CodeAuthTokenExpired     ErrorCode = "AUTH_TOKEN_EXPIRED"
	CodeAuthRefreshInvalid   ErrorCode = "AUTH_REFRESH_INVALID"
	CodeResourceNotFound     ErrorCode = "RESOURCE_NOT_FOUND"
	CodeResourceForbidden    ErrorCode = "RESOURCE_FORBIDDEN"
	CodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	CodeServerRateLimited    ErrorCode = "SERVER_RATE_LIMITED"
	CodeServerUpstreamFailed ErrorCode = "SERVER_UPSTREAM_FAILED"
	CodeServerInternal       ErrorCode = "SERVER_INTERNAL"
)

// 入力項目ごとのエラー
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError はHTTPステータスとコードを持つエラー。
// errors.IsはCodeで比較する。
type AppError struct {
	Status  int
	Code    ErrorCode
	Message string
	Details []FieldError
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.cause.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *AppError) Unwrap() error { return e.cause }

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// 内部原因を付ける（ログ用。クライアントには出さない）
func (e *AppError) WithCause(err error) *AppError {
	c := *e
	c.cause = err
	return &c
}

var (
	//401 Googleのトークン検証失敗
	ErrGoogleFailed = &AppError{Status: http.StatusUnauthorized, Code: CodeAuthGoogleFailed, Message: "Google token verification failed"}
	//401 アクセストークンなし・不正
	ErrInvalidToken = &AppError{Status: http.StatusUnauthorized, Code: CodeAuthInvalidToken, Message: "Missing or invalid authorization header"}
	//401 アクセストークン期限切れ
	ErrTokenExpired = &AppError{Status: http.StatusUnauthorized, Code: CodeAuthTokenExpired, Message: "Access token has expired"}
	//401 リフレッシュトークンの問題はすべてこれ（理由は区別しない）
	ErrRefreshInvalid = &AppError{Status: http.StatusUnauthorized, Code: CodeAuthRefreshInvalid, Message: "Invalid refresh token"}
	//403
	ErrForbidden = &AppError{Status: http.StatusForbidden, Code: CodeResourceForbidden, Message: "Access denied"}
	//429
	ErrRateLimited = &AppError{Status: http.StatusTooManyRequests, Code: CodeServerRateLimited, Message: "Too many requests"}
	//504 DB・Googleのタイムアウト
	ErrUpstreamFailed = &AppError{Status: http.StatusGatewayTimeout, Code: CodeServerUpstreamFailed, Message: "Upstream service timed out"}
	//500
	ErrInternal = &AppError{Status: http.StatusInternalServerError, Code: CodeServerInternal, Message: "Internal server error"}
)

//404
func NewNotFoundError(resource string) *AppError {
	return &AppError{Status: http.StatusNotFound, Code: CodeResourceNotFound, Message: resource + " not found"}
}

//400
func NewValidationError(details ...FieldError) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: CodeValidationFailed, Message: "Invalid request", Details: details}
}

// ストア由来のエラーをタクソノミーに寄せる。タイムアウトだけは区別する。
func internalError(err error) *AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrUpstreamFailed.WithCause(err)
	}
	return ErrInternal.WithCause(err)
}
