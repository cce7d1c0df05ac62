package doctors

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/docpoint/platform/pkg/logging"
)

const listCacheKey = "doctors:list"

// CachedRepository is a read-through cache over a Repository. The public
// doctor roster is read on every browse request; writes invalidate.
type CachedRepository struct {
	Repository
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
	logger *logging.Logger
}

var _ Repository = (*CachedRepository)(nil)

// NewCachedRepository wraps repo with a redis list cache. A nil client
// returns the repo unchanged.
func NewCachedRepository(repo Repository, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) Repository {
	if redisClient == nil {
		return repo
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedRepository{
		Repository: repo,
		redis:      redisClient,
		ttl:        ttl,
		tracer:     otel.Tracer("docpoint.internal.doctors.cache"),
		logger:     logger,
	}
}

// List serves the roster from cache when possible. Cache failures fall back
// to the underlying repository.
func (c *CachedRepository) List(ctx context.Context) ([]*Doctor, error) {
	ctx, span := c.tracer.Start(ctx, "doctors.list_cached")
	defer span.End()

	if raw, err := c.redis.Get(ctx, listCacheKey).Bytes(); err == nil {
		var cached []*Doctor
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		c.logger.Warn("doctors: corrupt list cache entry, refetching")
	}

	doctors, err := c.Repository.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if raw, err := json.Marshal(doctors); err == nil {
		if err := c.redis.Set(ctx, listCacheKey, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("doctors: failed to cache list", "error", err)
		}
	}
	return doctors, nil
}

// Create invalidates the roster cache after the write.
func (c *CachedRepository) Create(ctx context.Context, req *CreateDoctorRequest) (*Doctor, error) {
	doctor, err := c.Repository.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return doctor, nil
}

// SetAvailability invalidates the roster cache after the write.
func (c *CachedRepository) SetAvailability(ctx context.Context, id string, available bool) (*Doctor, error) {
	doctor, err := c.Repository.SetAvailability(ctx, id, available)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return doctor, nil
}

// UpdateProfile invalidates the roster cache after the write.
func (c *CachedRepository) UpdateProfile(ctx context.Context, id string, req *UpdateProfileRequest) (*Doctor, error) {
	doctor, err := c.Repository.UpdateProfile(ctx, id, req)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return doctor, nil
}

func (c *CachedRepository) invalidate(ctx context.Context) {
	if err := c.redis.Del(ctx, listCacheKey).Err(); err != nil {
		c.logger.Warn("doctors: failed to invalidate list cache", "error", err)
	}
}
