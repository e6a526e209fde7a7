package model

import "time"

type Like struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	APIID     uint      `gorm:"column:api_id;primaryKey;autoIncrement:false;index" json:"api_id"`
	CreatedAt time.Time `json:"created_at"`
}
