package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ordinary-note/internal/domain/model"
	repo "ordinary-note/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type refreshTokenGormRepository struct {
	db *gorm.DB //DB接続（GORM）
}

// GORM実装
func NewRefreshTokenRepository(db *gorm.DB) repo.RefreshTokenRepository {
	return &refreshTokenGormRepository{db: db}
}

// リフレッシュトークンを保存する。
func (r *refreshTokenGormRepository) Create(ctx context.Context, userID string, tokenHash string, familyID string, expiresAt time.Time) (*model.RefreshToken, error) {
	token := &model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: tokenHash,
		FamilyID:  familyID,
		ExpiresAt: expiresAt,
	}

	//タイムアウトやキャンセルをDB処理に伝える
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		if isPgError(err, pgUniqueViolation) {
			return nil, repo.ErrRefreshTokenConflict
		}
		return nil, fmt.Errorf("create refresh token: %w", err)
	}
	return token, nil
}

// token_hashで1件検索します。
func (r *refreshTokenGormRepository) FindByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	var token model.RefreshToken

	err := r.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		First(&token).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	return &token, nil
}

// token_hashで検索し、所有ユーザーも一緒に返す。
func (r *refreshTokenGormRepository) FindByHashWithOwner(ctx context.Context, tokenHash string) (*repo.RefreshTokenWithOwner, error) {
	token, err := r.FindByHash(ctx, tokenHash)
	if err != nil {
		return nil, err
	}

	var owner model.User
	err = r.db.WithContext(ctx).
		Where("id = ?", token.UserID).
		First(&owner).Error
	if err != nil {
		// user削除済みはトークンが無いのと同じ扱い
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("find refresh token owner: %w", err)
	}

	return &repo.RefreshTokenWithOwner{Token: *token, Owner: owner}, nil
}

// revoked_atをセットして無効。NULL→nowの遷移だけを許す（条件付きUPDATE）。
func (r *refreshTokenGormRepository) RevokeByID(ctx context.Context, tokenID string, revokedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("id = ? AND revoked_at IS NULL", tokenID).
		Update("revoked_at", revokedAt)

	if result.Error != nil {
		return false, fmt.Errorf("revoke refresh token: %w", result.Error)
	}

	// 更新件数が0なら「すでに失効済み/存在しない」
	return result.RowsAffected == 1, nil
}

// family全体を失効。
func (r *refreshTokenGormRepository) RevokeByFamily(ctx context.Context, familyID string, revokedAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("family_id = ? AND revoked_at IS NULL", familyID).
		Update("revoked_at", revokedAt)

	if result.Error != nil {
		return 0, fmt.Errorf("revoke refresh token family: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// 期限切れトークンを削除します。
func (r *refreshTokenGormRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&model.RefreshToken{})

	if result.Error != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}
