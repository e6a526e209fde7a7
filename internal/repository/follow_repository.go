package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"apicatalog/internal/model"
)

type FollowRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) *FollowRepository {
	return &FollowRepository{db: db}
}

// Follow reports whether a new follow row was written.
func (r *FollowRepository) Follow(ctx context.Context, followerID, followedID uint) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Follow{FollowerID: followerID, FollowedID: followedID})
	if res.Error != nil {
		return false, fmt.Errorf("create follow failed: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *FollowRepository) Unfollow(ctx context.Context, followerID, followedID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&model.Follow{})
	if res.Error != nil {
		return false, fmt.Errorf("delete follow failed: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *FollowRepository) FollowedIDs(ctx context.Context, followerID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_id = ?", followerID).
		Order("followed_id ASC").
		Pluck("followed_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list followed users failed: %w", err)
	}
	return ids, nil
}
