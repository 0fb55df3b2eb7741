package repository

import (
	"context"

	"ordinary-note/internal/domain/model"
)

// 保存・取得を約束
type UserRepository interface {
	// IDからユーザーを1件取得する。見つからなければ(nil, nil)。
	FindByID(ctx context.Context, userID string) (*model.User, error)
	// google_idで作成 or 更新（email/name/profile_imageを上書き）。
	UpsertByGoogleID(ctx context.Context, profile model.GoogleProfile) (*model.User, error)
}
