package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"apicatalog/internal/model"
)

type APIRepository struct {
	db *gorm.DB
}

func NewAPIRepository(db *gorm.DB) *APIRepository {
	return &APIRepository{db: db}
}

func (r *APIRepository) Create(ctx context.Context, entry *model.APIEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create api failed: %w", err)
	}
	return nil
}

func (r *APIRepository) GetByID(ctx context.Context, id uint) (*model.APIEntry, error) {
	var entry model.APIEntry
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query api by id failed: %w", err)
	}
	return &entry, nil
}

// List returns entries newest first.
func (r *APIRepository) List(ctx context.Context, offset, limit int) ([]model.APIEntry, error) {
	var entries []model.APIEntry
	if err := r.db.WithContext(ctx).Order("id DESC").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list apis failed: %w", err)
	}
	return entries, nil
}

func (r *APIRepository) ListByIDs(ctx context.Context, ids []uint) ([]model.APIEntry, error) {
	if len(ids) == 0 {
		return []model.APIEntry{}, nil
	}
	var entries []model.APIEntry
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list apis by ids failed: %w", err)
	}
	return entries, nil
}

func (r *APIRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.APIEntry{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count apis failed: %w", err)
	}
	return total, nil
}

// IncrementViews adds one view. It reports false when the entry does not exist.
func (r *APIRepository) IncrementViews(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.APIEntry{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("increment api views failed: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Delete removes the entry and every like pointing at it.
func (r *APIRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("api_id = ?", id).Delete(&model.Like{}).Error; err != nil {
			return fmt.Errorf("delete api likes failed: %w", err)
		}
		if err := tx.Delete(&model.APIEntry{}, id).Error; err != nil {
			return fmt.Errorf("delete api failed: %w", err)
		}
		return nil
	})
}
