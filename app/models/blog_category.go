package models

import "time"

// BlogCategory groups posts. Categories are maintained outside the post API.
type BlogCategory struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	ParentID    uint64    `gorm:"index;default:0" json:"parent_id"`
	Slug        string    `gorm:"uniqueIndex;type:varchar(255)" json:"slug"`
	Title       string    `gorm:"type:varchar(255)" json:"title"`
	Description *string   `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BlogCategory) TableName() string {
	return "blog_categories"
}
