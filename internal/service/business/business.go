package business

import (
	"context"
	"strings"

	"lineup/queue-engine/internal/constant"
	"lineup/queue-engine/internal/domain"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// WarmCache loads every business name into the redis hash.
func (bs *businessService) WarmCache(ctx context.Context) (int, error) {
	businesses, err := bs.businessRepository.GetAllBusinesses(ctx)
	if err != nil {
		return 0, err
	}
	if len(businesses) == 0 {
		return 0, nil
	}

	data := make(map[string]interface{}, len(businesses))
	for _, b := range businesses {
		data[b.ID] = b.Name
	}

	if err := bs.redisClient.HSet(ctx, constant.RedisBusinessKey, data).Err(); err != nil {
		return 0, errors.Wrap(err, "failed to cache businesses")
	}
	return len(businesses), nil
}

// Name resolves a business name, reading through the cache. A cache outage
// falls back to the database.
func (bs *businessService) Name(ctx context.Context, businessID string) (string, error) {
	name, err := bs.redisClient.HGet(ctx, constant.RedisBusinessKey, businessID).Result()
	if err == nil {
		return name, nil
	}
	if !errors.Is(err, redis.Nil) {
		bs.logger.WithContext(ctx).Warnf("business cache unavailable: %v", err)
	}

	b, err := bs.businessRepository.GetBusiness(ctx, businessID)
	if err != nil {
		return "", err
	}

	if err := bs.redisClient.HSet(ctx, constant.RedisBusinessKey, b.ID, b.Name).Err(); err != nil {
		bs.logger.WithContext(ctx).Warnf("failed to cache business %s: %v", b.ID, err)
	}
	return b.Name, nil
}

func (bs *businessService) Exists(ctx context.Context, businessID string) error {
	_, err := bs.Name(ctx, businessID)
	return err
}

func (bs *businessService) Create(ctx context.Context, id, name string) (domain.Business, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" || name == "" {
		return domain.Business{}, errors.Wrap(constant.ErrInvalidEntry, "business id and name are required")
	}

	b, err := bs.businessRepository.CreateBusiness(ctx, domain.Business{ID: id, Name: name})
	if err != nil {
		return domain.Business{}, err
	}

	if err := bs.redisClient.HSet(ctx, constant.RedisBusinessKey, b.ID, b.Name).Err(); err != nil {
		bs.logger.WithContext(ctx).Warnf("failed to cache business %s: %v", b.ID, err)
	}
	return b, nil
}
