package model

import "time"

type Follow struct {
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FollowedID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
}
