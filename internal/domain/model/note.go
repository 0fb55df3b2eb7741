package model

import "time"

type Note struct {
	ID           string     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       string     `gorm:"type:uuid;not null;index" json:"-"`
	FolderID     string     `gorm:"type:uuid;not null;index" json:"folderId"`
	Title        string     `gorm:"type:varchar(500);not null;default:''" json:"title"`
	ContentPlain *string    `gorm:"column:content_plain;type:text" json:"contentPlain"`
	ContentHTML  *string    `gorm:"column:content_html;type:text" json:"contentHtml"`
	SortOrder    int        `gorm:"not null;default:0" json:"sortOrder"`
	IsPinned     bool       `gorm:"not null;default:false" json:"isPinned"`
	IsMarkdown   bool       `gorm:"not null;default:false" json:"isMarkdown"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `gorm:"index" json:"-"`
}
