package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/haulwire/loadscout/internal/interfaces"
	"github.com/haulwire/loadscout/internal/models"
)

// GeocodeStorage is the durable tier of the geocode cache
type GeocodeStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewGeocodeStorage creates a new GeocodeStorage instance
func NewGeocodeStorage(db *BadgerDB, logger arbor.ILogger) interfaces.GeocodeStorage {
	return &GeocodeStorage{
		db:     db,
		logger: logger,
	}
}

// Get retrieves a cache entry by normalized location key
func (s *GeocodeStorage) Get(ctx context.Context, key string) (*models.GeocodeCacheEntry, error) {
	var entry models.GeocodeCacheEntry
	if err := s.db.Store().Get(key, &entry); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get geocode cache entry: %w", err)
	}
	return &entry, nil
}

// Upsert writes a cache entry (idempotent on the location key)
func (s *GeocodeStorage) Upsert(ctx context.Context, entry *models.GeocodeCacheEntry) error {
	if entry.Key == "" {
		return fmt.Errorf("cache key is required")
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	if err := s.db.Store().Upsert(entry.Key, entry); err != nil {
		return fmt.Errorf("failed to upsert geocode cache entry: %w", err)
	}
	return nil
}

// IncrementHit bumps the hit counter. Best-effort: callers ignore errors.
func (s *GeocodeStorage) IncrementHit(ctx context.Context, key string) error {
	s.db.Lock()
	defer s.db.Unlock()

	var entry models.GeocodeCacheEntry
	if err := s.db.Store().Get(key, &entry); err != nil {
		if err == badgerhold.ErrNotFound {
			return interfaces.ErrNotFound
		}
		return fmt.Errorf("failed to get geocode cache entry: %w", err)
	}
	entry.HitCount++
	entry.UpdatedAt = time.Now().UTC()
	if err := s.db.Store().Update(key, &entry); err != nil {
		return fmt.Errorf("failed to increment geocode hit count: %w", err)
	}
	return nil
}

// Count reports cache size for periodic stats logging
func (s *GeocodeStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.GeocodeCacheEntry{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count geocode cache entries: %w", err)
	}
	return int(count), nil
}
