package repository

import (
	"context"
	"errors"
	"time"

	"ordinary-note/internal/domain/model"
)

var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	// token_hashのunique違反（同じトークンを二重保存しようとした）
	ErrRefreshTokenConflict = errors.New("refresh token hash conflict")
)

// トークンとその所有ユーザー
type RefreshTokenWithOwner struct {
	Token model.RefreshToken
	Owner model.User
}

// リフレッシュトークンの保存・取得・失効。
// 平文は受け取らない。呼び出し側でハッシュ化してから渡す。
type RefreshTokenRepository interface {
	Create(ctx context.Context, userID string, tokenHash string, familyID string, expiresAt time.Time) (*model.RefreshToken, error)
	FindByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	FindByHashWithOwner(ctx context.Context, tokenHash string) (*RefreshTokenWithOwner, error)

	// revoked_atがNULLのときだけrevokedAtをセットする。
	// この呼び出しで失効させた場合のみtrue。失効済み・存在しない場合はfalse（エラーではない）。
	RevokeByID(ctx context.Context, tokenID string, revokedAt time.Time) (bool, error)

	// family内の未失効レコードを全部失効する。失効した件数を返す。
	RevokeByFamily(ctx context.Context, familyID string, revokedAt time.Time) (int64, error)

	// expires_atがbefore以前のレコードを物理削除する。
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
