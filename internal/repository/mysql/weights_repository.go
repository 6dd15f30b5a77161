package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"campusMarket/domain"
)

type WeightsRepository struct {
	DB *gorm.DB
}

func NewWeightsRepository(db *gorm.DB) *WeightsRepository {
	return &WeightsRepository{
		DB: db,
	}
}

// FindByUserID returns nil without error for users the learning job has
// not produced weights for yet.
func (r *WeightsRepository) FindByUserID(ctx context.Context, userID uint64) (*domain.PersonalizationWeights, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var weights domain.PersonalizationWeights

	err := r.DB.WithContext(ctx).Where("userId = ?", userID).First(&weights).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find personalization weights: %w", err)
	}

	return &weights, nil
}
