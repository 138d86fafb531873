package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/ternarybob/arbor"

	"github.com/haulwire/loadscout/internal/common"
	"github.com/haulwire/loadscout/internal/interfaces"
	"github.com/haulwire/loadscout/internal/models"
)

// Service is the two-tier geocode cache: an in-memory TTL tier in front of the
// durable store, write-through on miss. All client failure modes collapse to
// found=false for callers; the distinction only reaches the logs.
type Service struct {
	client  *Client
	storage interfaces.GeocodeStorage
	memory  *ttlcache.Cache[string, models.Coordinates]
	logger  arbor.ILogger
}

func NewService(config *common.GeocodeConfig, storage interfaces.GeocodeStorage, logger arbor.ILogger) *Service {
	memory := ttlcache.New[string, models.Coordinates](
		ttlcache.WithTTL[string, models.Coordinates](config.MemoryTTLDuration()),
	)
	go memory.Start()

	return &Service{
		client:  NewClient(config, logger),
		storage: storage,
		memory:  memory,
		logger:  logger,
	}
}

// CacheKey folds a city/state pair into the normalized cache key.
func CacheKey(city, state string) string {
	city = strings.ToLower(strings.TrimSpace(city))
	state = strings.ToLower(strings.TrimSpace(state))
	return city + "," + state
}

// Resolve returns coordinates for a city/state, consulting the memory tier,
// then the durable cache, then the external service. Durable hits bump the hit
// counter best-effort; a counter failure never blocks the caller.
func (s *Service) Resolve(ctx context.Context, city, state string) (models.Coordinates, bool) {
	if strings.TrimSpace(city) == "" || strings.TrimSpace(state) == "" {
		s.logger.Debug().Str("city", city).Str("state", state).Msg("Geocode skipped, incomplete location")
		return models.Coordinates{}, false
	}
	key := CacheKey(city, state)

	if item := s.memory.Get(key); item != nil {
		common.SafeGo(s.logger, "geocode-hit-count", func() {
			s.bumpHitCount(key)
		})
		return item.Value(), true
	}

	entry, err := s.storage.Get(ctx, key)
	if err == nil && entry != nil {
		coords := models.Coordinates{Lat: entry.Lat, Lng: entry.Lng}
		s.memory.Set(key, coords, ttlcache.DefaultTTL)
		common.SafeGo(s.logger, "geocode-hit-count", func() {
			s.bumpHitCount(key)
		})
		return coords, true
	}
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		s.logger.Warn().Err(err).Str("key", key).Msg("Geocode cache read failed, falling through to lookup")
	}

	coords, err := s.client.Forward(ctx, fmt.Sprintf("%s, %s", strings.TrimSpace(city), strings.TrimSpace(state)))
	if err != nil {
		s.logFailure(key, err)
		return models.Coordinates{}, false
	}

	now := time.Now().UTC()
	if err := s.storage.Upsert(ctx, &models.GeocodeCacheEntry{
		Key:       key,
		Lat:       coords.Lat,
		Lng:       coords.Lng,
		HitCount:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Geocode cache write failed")
	}
	s.memory.Set(key, coords, ttlcache.DefaultTTL)

	s.logger.Debug().Str("key", key).Float64("lat", coords.Lat).Float64("lng", coords.Lng).Msg("Geocoded location")
	return coords, true
}

// ResolveCityFromZip backfills a missing city from a parsed zip code.
func (s *Service) ResolveCityFromZip(ctx context.Context, zip string) (string, string, bool) {
	zip = strings.TrimSpace(zip)
	if zip == "" {
		return "", "", false
	}
	city, state, err := s.client.ReverseZip(ctx, zip)
	if err != nil {
		s.logFailure("zip:"+zip, err)
		return "", "", false
	}
	return city, state, true
}

// Stop shuts down the memory tier's expiry loop.
func (s *Service) Stop() {
	s.memory.Stop()
}

func (s *Service) bumpHitCount(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.storage.IncrementHit(ctx, key); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		s.logger.Debug().Err(err).Str("key", key).Msg("Geocode hit counter update failed")
	}
}

// logFailure keeps the failure modes apart in the logs even though callers
// only ever see found=false.
func (s *Service) logFailure(key string, err error) {
	switch {
	case errors.Is(err, errNoToken):
		s.logger.Warn().Str("key", key).Msg("Geocode skipped, no access token configured")
	case errors.Is(err, errEmptyQuery):
		s.logger.Debug().Str("key", key).Msg("Geocode skipped, empty query")
	case errors.Is(err, errNoResults):
		s.logger.Debug().Str("key", key).Msg("Geocode returned no results")
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn().Str("key", key).Msg("Geocode request timed out")
	default:
		s.logger.Warn().Err(err).Str("key", key).Msg("Geocode request failed")
	}
}
