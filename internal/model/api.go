package model

import "time"

// APIEntry is a cataloged API. Likes always equals the number of Like rows
// referencing the entry; Views only ever grows.
type APIEntry struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"size:128;not null" json:"name"`
	Description      string    `gorm:"type:text;not null" json:"description"`
	MainURL          string    `gorm:"size:512;not null" json:"main_url"`
	DocumentationURL string    `gorm:"size:512" json:"documentation_url,omitempty"`
	Country          string    `gorm:"size:64;not null" json:"api_country"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	Views            int64     `gorm:"not null;default:0" json:"views"`
	Likes            int64     `gorm:"not null;default:0" json:"likes"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (APIEntry) TableName() string {
	return "apis"
}
