package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/washline/service-booking/internal/domain/catalog"
)

const activeServicesKey = "catalog:services:active"

// CachedServiceRepository is a cache-aside decorator over a ServiceRepository.
// Redis failures fall through to the wrapped repository.
type CachedServiceRepository struct {
	next   catalog.ServiceRepository
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedServiceRepository creates a new CachedServiceRepository.
func NewCachedServiceRepository(next catalog.ServiceRepository, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedServiceRepository {
	return &CachedServiceRepository{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// ListActive returns the active catalog, from redis when cached.
func (r *CachedServiceRepository) ListActive(ctx context.Context) ([]catalog.Service, error) {
	var cached []catalog.Service
	if r.get(ctx, activeServicesKey, &cached) {
		return cached, nil
	}
	services, err := r.next.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	r.set(ctx, activeServicesKey, services)
	return services, nil
}

// FindByID returns one service, from redis when cached.
func (r *CachedServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	key := "catalog:service:" + id.String()
	var cached catalog.Service
	if r.get(ctx, key, &cached) {
		return &cached, nil
	}
	svc, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.set(ctx, key, svc)
	return svc, nil
}

func (r *CachedServiceRepository) get(ctx context.Context, key string, v interface{}) bool {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		r.logger.Warn("catalog cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (r *CachedServiceRepository) set(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}
