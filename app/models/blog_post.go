package models

import (
	"time"
)

// BlogPost represents one blog entry
type BlogPost struct {
	ID          uint64        `gorm:"primaryKey" json:"id"`
	CategoryID  uint64        `gorm:"index;not null" json:"category_id"`
	Category    *BlogCategory `gorm:"foreignKey:CategoryID" json:"-"`
	UserID      uint64        `gorm:"index;not null" json:"user_id"`
	User        *User         `gorm:"foreignKey:UserID" json:"-"`
	Slug        string        `gorm:"uniqueIndex;type:varchar(255)" json:"slug"`
	Title       string        `gorm:"type:varchar(255);not null" json:"title"`
	Excerpt     *string       `gorm:"type:text" json:"excerpt"`
	ContentRaw  *string       `gorm:"type:mediumtext" json:"content_raw"`
	IsPublished bool          `gorm:"type:tinyint(1);default:0" json:"is_published"`
	PublishedAt *time.Time    `gorm:"type:timestamp;default:null" json:"published_at"`
	CreatedAt   time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the BlogPost model
func (BlogPost) TableName() string {
	return "blog_posts"
}

// Publish marks the post as published, stamping now unless it already carries a timestamp.
func (p *BlogPost) Publish(now time.Time) {
	p.IsPublished = true
	if p.PublishedAt == nil {
		p.PublishedAt = &now
	}
}

// Unpublish clears the published state and its timestamp
func (p *BlogPost) Unpublish() {
	p.IsPublished = false
	p.PublishedAt = nil
}
