package model

import "time"

// 認証まわりのセキュリティイベント
type AuditAction string

const (
	//Googleログインで新しいfamilyを発行した。
	AuditActionLogin AuditAction = "LOGIN"
	//リフレッシュトークンをローテーションした。
	AuditActionRefreshRotated AuditAction = "REFRESH_ROTATED"
	//失効済みトークンが再提示された（family全体を失効）。
	AuditActionRefreshReuseDetected AuditAction = "REFRESH_REUSE_DETECTED"
	//ログアウトでfamilyを失効した。
	AuditActionLogout AuditAction = "LOGOUT"
)

// 監査ログ。
// 「誰の」「どのfamilyに」「何が起きたか」を残す。
type AuditLog struct {
	ID       int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   string      `gorm:"type:uuid;not null;index" json:"user_id"`
	Action   AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`
	FamilyID string      `gorm:"index" json:"family_id"`

	//補足（IPやUser-Agentなど）。
	Detail string `gorm:"type:text" json:"detail"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
