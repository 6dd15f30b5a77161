package mysql

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"campusMarket/domain"
)

type ItemRepository struct {
	DB *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{
		DB: db,
	}
}

// RecentIDs returns active item ids newest-first, optionally filtered by
// category.
func (r *ItemRepository) RecentIDs(ctx context.Context, category string, limit int) ([]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	query := r.DB.WithContext(ctx).
		Model(&domain.Item{}).
		Where("status = ?", domain.ItemStatusActive).
		Order("createdAt DESC").
		Limit(limit)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var ids []uint64
	if err := query.Pluck("dbid", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to find recent items: %w", err)
	}

	return ids, nil
}

// FindByIDs hydrates active items, preserving the order of the id batch.
func (r *ItemRepository) FindByIDs(ctx context.Context, ids []uint64) ([]domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Item{}, nil
	}

	var rows []domain.Item
	err := r.DB.WithContext(ctx).
		Where("dbid IN ?", ids).
		Where("status = ?", domain.ItemStatusActive).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find items: %w", err)
	}

	byID := make(map[uint64]domain.Item, len(rows))
	for _, row := range rows {
		byID[row.DBID] = row
	}

	ordered := make([]domain.Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, item)
		}
	}

	return ordered, nil
}
