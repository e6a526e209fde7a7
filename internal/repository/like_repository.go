package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"apicatalog/internal/model"
)

// LikeRepository owns the server-side liked-set and keeps apis.likes in step
// with it. Each mutation runs in one transaction so the counter only moves
// when a like row is actually inserted or deleted.
type LikeRepository struct {
	db *gorm.DB
}

type LikeChange struct {
	Changed bool
	Likes   int64
}

func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

func (r *LikeRepository) Add(ctx context.Context, userID, apiID uint) (LikeChange, error) {
	var change LikeChange
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.Like{UserID: userID, APIID: apiID})
		if res.Error != nil {
			return fmt.Errorf("insert like failed: %w", res.Error)
		}
		change.Changed = res.RowsAffected == 1
		if change.Changed {
			if err := tx.Model(&model.APIEntry{}).
				Where("id = ?", apiID).
				UpdateColumn("likes", gorm.Expr("likes + 1")).Error; err != nil {
				return fmt.Errorf("increment api likes failed: %w", err)
			}
		}
		return currentLikes(tx, apiID, &change.Likes)
	})
	return change, err
}

func (r *LikeRepository) Remove(ctx context.Context, userID, apiID uint) (LikeChange, error) {
	var change LikeChange
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND api_id = ?", userID, apiID).Delete(&model.Like{})
		if res.Error != nil {
			return fmt.Errorf("delete like failed: %w", res.Error)
		}
		change.Changed = res.RowsAffected == 1
		if change.Changed {
			if err := tx.Model(&model.APIEntry{}).
				Where("id = ? AND likes > 0", apiID).
				UpdateColumn("likes", gorm.Expr("likes - 1")).Error; err != nil {
				return fmt.Errorf("decrement api likes failed: %w", err)
			}
		}
		return currentLikes(tx, apiID, &change.Likes)
	})
	return change, err
}

// LikedAPIIDs returns the ids of every entry the user has liked, ascending.
func (r *LikeRepository) LikedAPIIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&model.Like{}).
		Where("user_id = ?", userID).
		Order("api_id ASC").
		Pluck("api_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list liked apis failed: %w", err)
	}
	return ids, nil
}

func (r *LikeRepository) CountByAPI(ctx context.Context, apiID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Like{}).Where("api_id = ?", apiID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count api likes failed: %w", err)
	}
	return n, nil
}

func currentLikes(tx *gorm.DB, apiID uint, out *int64) error {
	var entry model.APIEntry
	if err := tx.Select("likes").First(&entry, apiID).Error; err != nil {
		return fmt.Errorf("read api likes failed: %w", err)
	}
	*out = entry.Likes
	return nil
}
