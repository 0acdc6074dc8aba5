package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"eventplanner/internal/domain"
)

const (
	profileKeyPrefix  = "profile:"
	allProfilesPrefix = "profiles:all:"
	listVersionKey    = "profiles:version"
)

// ProfileCache wraps a ProfileRepository with Redis-backed caching for reads.
// Profiles are never renamed or deleted, so per-id entries stay valid until they expire.
// The full listing is stored under a key carrying the list version, which Create bumps
// after inserting. A listing read before the bump can only be written under the old
// version's key, so it is never served after the create returns.
type ProfileCache struct {
	base  domain.ProfileRepository
	redis *redis.Client
	ttl   time.Duration
}

// NewProfileCache creates a caching ProfileRepository using the provided Redis client and TTL.
// A nil client disables caching.
func NewProfileCache(base domain.ProfileRepository, client *redis.Client, ttl time.Duration) *ProfileCache {
	if base == nil {
		panic("cache.NewProfileCache: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &ProfileCache{base: base, redis: client, ttl: ttl}
}

func (c *ProfileCache) Create(ctx context.Context, p *domain.Profile) error {
	if err := c.base.Create(ctx, p); err != nil {
		return err
	}
	if c.redis == nil {
		return nil
	}
	_ = c.redis.Incr(ctx, listVersionKey).Err()
	c.storeProfiles(ctx, []*domain.Profile{p})
	return nil
}

func (c *ProfileCache) FindAll(ctx context.Context) ([]*domain.Profile, error) {
	if c.redis == nil {
		return c.base.FindAll(ctx)
	}
	// The version is read before the backing query so that a concurrent Create
	// moves later readers to a fresh key.
	key, cacheable := c.listKey(ctx)
	if cacheable {
		if profiles, ok := c.loadAll(ctx, key); ok {
			return profiles, nil
		}
	}
	profiles, err := c.base.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if data, err := json.Marshal(profiles); err == nil {
			_ = c.redis.Set(ctx, key, data, c.ttl).Err()
		}
	}
	return profiles, nil
}

func (c *ProfileCache) FindByIDs(ctx context.Context, ids []string) ([]*domain.Profile, error) {
	ids = domain.UniqueIDs(ids)
	if c.redis == nil || len(ids) == 0 {
		return c.base.FindByIDs(ctx, ids)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = profileKeyPrefix + id
	}
	values, err := c.redis.MGet(ctx, keys...).Result()
	if err != nil {
		// On redis errors fall back to the backing repository without failing.
		return c.base.FindByIDs(ctx, ids)
	}

	found := make([]*domain.Profile, 0, len(ids))
	var missing []string
	for i, v := range values {
		p, ok := decodeProfile(v)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		found = append(found, p)
	}
	if len(missing) == 0 {
		return found, nil
	}

	fetched, err := c.base.FindByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	c.storeProfiles(ctx, fetched)
	return append(found, fetched...), nil
}

// listKey returns the key of the current list version. It reports false when Redis
// cannot be read, in which case the listing is neither read from nor written to the cache.
func (c *ProfileCache) listKey(ctx context.Context) (string, bool) {
	version, err := c.redis.Get(ctx, listVersionKey).Result()
	if errors.Is(err, redis.Nil) {
		version = "0"
	} else if err != nil {
		return "", false
	}
	return allProfilesPrefix + version, true
}

func (c *ProfileCache) loadAll(ctx context.Context, key string) ([]*domain.Profile, bool) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var profiles []*domain.Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return profiles, true
}

func (c *ProfileCache) storeProfiles(ctx context.Context, profiles []*domain.Profile) {
	if len(profiles) == 0 {
		return
	}
	pipe := c.redis.Pipeline()
	for _, p := range profiles {
		data, err := json.Marshal(p)
		if err != nil {
			continue
		}
		pipe.Set(ctx, profileKeyPrefix+p.ID, data, c.ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func decodeProfile(v any) (*domain.Profile, bool) {
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	var p domain.Profile
	if err := json.Unmarshal([]byte(s), &p); err != nil || p.ID == "" {
		return nil, false
	}
	return &p, true
}
