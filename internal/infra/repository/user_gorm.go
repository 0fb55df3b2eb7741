package repository

import (
	"context"
	"errors"
	"fmt"

	"ordinary-note/internal/domain/model"
	domainrepo "ordinary-note/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

// IDでユーザーを1件取得
func (r *userGormRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&u).Error

	if err != nil {
		//UUIDとして読めないidは存在しないのと同じ
		if errors.Is(err, gorm.ErrRecordNotFound) || isPgError(err, pgInvalidTextRepresentation) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	return &u, nil
}

// google_idで作成 or 更新する。google_id自体は上書きしない。
func (r *userGormRepository) UpsertByGoogleID(ctx context.Context, profile model.GoogleProfile) (*model.User, error) {
	u := model.User{
		ID:           uuid.NewString(),
		Email:        profile.Email,
		Name:         profile.Name,
		ProfileImage: profile.ProfileImage,
		GoogleID:     profile.GoogleID,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "google_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "name", "profile_image", "updated_at"}),
		}).
		Create(&u).Error
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	//既存ユーザーだった場合はIDが違うので取り直す
	var stored model.User
	err = r.db.WithContext(ctx).
		Where("google_id = ?", profile.GoogleID).
		First(&stored).Error
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}

	return &stored, nil
}
