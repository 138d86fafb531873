package feature

import (
	"context"
	"errors"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/ternarybob/arbor"

	"github.com/haulwire/loadscout/internal/interfaces"
)

const cacheTTL = 30 * time.Second

// Service answers per-tenant feature flag checks against the key/value store,
// with a short in-memory cache so the hot path of the claim loop does not hit
// storage per item. Flags live under "feature:<tenant>:<key>" with the value
// "true" meaning enabled; a missing flag is disabled.
type Service struct {
	kv     interfaces.KeyValueStorage
	cache  *ttlcache.Cache[string, bool]
	logger arbor.ILogger
}

func NewService(kv interfaces.KeyValueStorage, logger arbor.ILogger) *Service {
	cache := ttlcache.New[string, bool](
		ttlcache.WithTTL[string, bool](cacheTTL),
	)
	go cache.Start()

	return &Service{kv: kv, cache: cache, logger: logger}
}

func (s *Service) IsEnabled(ctx context.Context, tenantID, key string) bool {
	cacheKey := "feature:" + tenantID + ":" + key
	if item := s.cache.Get(cacheKey); item != nil {
		return item.Value()
	}

	value, err := s.kv.Get(ctx, cacheKey)
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			s.logger.Warn().Err(err).Str("key", cacheKey).Msg("Feature flag read failed, treating as disabled")
		}
		s.cache.Set(cacheKey, false, ttlcache.DefaultTTL)
		return false
	}

	enabled := value == "true"
	s.cache.Set(cacheKey, enabled, ttlcache.DefaultTTL)
	return enabled
}

// Stop shuts down the cache expiry loop
func (s *Service) Stop() {
	s.cache.Stop()
}
