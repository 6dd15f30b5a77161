// Package rediscache decorates the user-data repositories with TTL
// caching so the per-request profile lookups stop hammering MySQL.
// Redis being down is never fatal: every miss path falls through to the
// wrapped source.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"campusMarket/business/recommend"
	"campusMarket/domain"
	"campusMarket/pkg/logger"
)

// DefaultTTL bounds how stale a cached profile may get.
const DefaultTTL = 5 * time.Minute

type cache struct {
	client *redis.Client
	ttl    time.Duration
}

func (c *cache) get(ctx context.Context, key string, out any) bool {
	if c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logger.Warn("cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (c *cache) put(ctx context.Context, key string, value any) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// UserRepository caches user rows by id.
type UserRepository struct {
	source recommend.UserRepository
	cache  cache
}

func NewUserRepository(source recommend.UserRepository, client *redis.Client) *UserRepository {
	return &UserRepository{source: source, cache: cache{client: client, ttl: DefaultTTL}}
}

func (r *UserRepository) FindByID(ctx context.Context, userID uint64) (domain.User, error) {
	key := fmt.Sprintf("recommend:user:%d", userID)

	var cached domain.User
	if r.cache.get(ctx, key, &cached) {
		return cached, nil
	}

	user, err := r.source.FindByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	r.cache.put(ctx, key, user)
	return user, nil
}

// WeightsRepository caches personalization weights by user id. The
// no-weights-yet case (nil row) is cached too, as an empty payload.
type WeightsRepository struct {
	source recommend.WeightsRepository
	cache  cache
}

func NewWeightsRepository(source recommend.WeightsRepository, client *redis.Client) *WeightsRepository {
	return &WeightsRepository{source: source, cache: cache{client: client, ttl: DefaultTTL}}
}

type cachedWeights struct {
	Found bool                           `json:"found"`
	Row   *domain.PersonalizationWeights `json:"row,omitempty"`
}

func (r *WeightsRepository) FindByUserID(ctx context.Context, userID uint64) (*domain.PersonalizationWeights, error) {
	key := fmt.Sprintf("recommend:weights:%d", userID)

	var cached cachedWeights
	if r.cache.get(ctx, key, &cached) {
		if !cached.Found {
			return nil, nil
		}
		return cached.Row, nil
	}

	row, err := r.source.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	r.cache.put(ctx, key, cachedWeights{Found: row != nil, Row: row})
	return row, nil
}

// VisitRepository caches the recent-category window by user id.
type VisitRepository struct {
	source recommend.VisitRepository
	cache  cache
}

func NewVisitRepository(source recommend.VisitRepository, client *redis.Client) *VisitRepository {
	return &VisitRepository{source: source, cache: cache{client: client, ttl: DefaultTTL}}
}

func (r *VisitRepository) RecentCategories(ctx context.Context, userID uint64, days, limit int) ([]string, error) {
	key := fmt.Sprintf("recommend:visits:%d:%d:%d", userID, days, limit)

	var cached []string
	if r.cache.get(ctx, key, &cached) {
		return cached, nil
	}

	categories, err := r.source.RecentCategories(ctx, userID, days, limit)
	if err != nil {
		return nil, err
	}

	r.cache.put(ctx, key, categories)
	return categories, nil
}
