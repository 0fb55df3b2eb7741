package model

import "time"

// ParentIDがnilならルート
type Folder struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"-"`
	ParentID  *string   `gorm:"type:uuid;index" json:"parentId"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	SortOrder int       `gorm:"not null;default:0" json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// 一覧取得用。子フォルダ数と（削除されていない）ノート数を一緒に返す。
type FolderWithCounts struct {
	Folder
	ChildCount int `gorm:"column:child_count" json:"childCount"`
	NoteCount  int `gorm:"column:note_count" json:"noteCount"`
}
