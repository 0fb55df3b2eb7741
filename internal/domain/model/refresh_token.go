package model

import "time"

// リフレッシュトークンの永続化レコード。
// 平文は持たずtoken_hashだけ保存する。FamilyIDは1回のログインから続く系列。
type RefreshToken struct {
	ID        string     `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string     `json:"userId" gorm:"type:uuid;not null;index"`
	TokenHash string     `json:"-" gorm:"not null;uniqueIndex"`
	FamilyID  string     `json:"familyId" gorm:"type:uuid;not null;index"`
	ExpiresAt time.Time  `json:"expiresAt" gorm:"not null;index"`
	RevokedAt *time.Time `json:"revokedAt"`
	CreatedAt time.Time  `json:"createdAt" gorm:"not null;autoCreateTime"`
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// ExpiresAtちょうどは期限切れ扱い
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
