package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"apicatalog/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by email failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users failed: %w", err)
	}
	return users, nil
}

// Delete removes the user together with their follows, their likes (releasing
// the like counters they held) and the entries they own.
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var liked []uint
		if err := tx.Model(&model.Like{}).Where("user_id = ?", id).Pluck("api_id", &liked).Error; err != nil {
			return fmt.Errorf("list user likes failed: %w", err)
		}
		if len(liked) > 0 {
			if err := tx.Model(&model.APIEntry{}).
				Where("id IN ? AND likes > 0", liked).
				UpdateColumn("likes", gorm.Expr("likes - 1")).Error; err != nil {
				return fmt.Errorf("release user likes failed: %w", err)
			}
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Like{}).Error; err != nil {
			return fmt.Errorf("delete user likes failed: %w", err)
		}
		if err := tx.Where("follower_id = ? OR followed_id = ?", id, id).Delete(&model.Follow{}).Error; err != nil {
			return fmt.Errorf("delete user follows failed: %w", err)
		}

		owned := tx.Model(&model.APIEntry{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("api_id IN (?)", owned).Delete(&model.Like{}).Error; err != nil {
			return fmt.Errorf("delete likes on user apis failed: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.APIEntry{}).Error; err != nil {
			return fmt.Errorf("delete user apis failed: %w", err)
		}
		if err := tx.Delete(&model.User{}, id).Error; err != nil {
			return fmt.Errorf("delete user failed: %w", err)
		}
		return nil
	})
	return err
}
