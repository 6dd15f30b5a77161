package mysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type VisitRepository struct {
	DB *gorm.DB
}

func NewVisitRepository(db *gorm.DB) *VisitRepository {
	return &VisitRepository{
		DB: db,
	}
}

// RecentCategories returns the distinct categories the user visited within the
// window, most recent first.
func (r *VisitRepository) RecentCategories(ctx context.Context, userID uint64, days int, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	since := time.Now().AddDate(0, 0, -days)

	var categories []string
	err := r.DB.WithContext(ctx).
		Table("item_visit_history AS v").
		Select("i.category").
		Joins("JOIN items AS i ON i.dbid = v.itemDbid").
		Where("v.userId = ?", userID).
		Where("v.visitedAt >= ?", since).
		Where("i.category IS NOT NULL AND i.category <> ''").
		Group("i.category").
		Order("MAX(v.visitedAt) DESC").
		Limit(limit).
		Pluck("i.category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find visited categories: %w", err)
	}

	return categories, nil
}
