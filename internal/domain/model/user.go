package model

import "time"

// Googleアカウントに紐づくユーザー
type User struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"not null" json:"email"`
	Name         string    `gorm:"not null" json:"name"`
	ProfileImage *string   `gorm:"column:profile_image" json:"profileImage"`
	GoogleID     string    `gorm:"column:google_id;uniqueIndex;not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// 検証済みIDトークンから取り出したプロフィール。
// email/name/pictureはログインのたびにGoogle側の値で上書きする。
type GoogleProfile struct {
	GoogleID     string
	Email        string
	Name         string
	ProfileImage *string
}
