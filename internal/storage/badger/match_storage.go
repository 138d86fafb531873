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

// MatchStorage implements the MatchStorage interface for Badger
type MatchStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewMatchStorage creates a new MatchStorage instance
func NewMatchStorage(db *BadgerDB, logger arbor.ILogger) interfaces.MatchStorage {
	return &MatchStorage{
		db:     db,
		logger: logger,
	}
}

// Exists reports whether an event already exists for the (load, hunt) pair
func (s *MatchStorage) Exists(ctx context.Context, loadID, huntID string) (bool, error) {
	count, err := s.db.Store().Count(&models.MatchEvent{},
		badgerhold.Where("LoadID").Eq(loadID).And("HuntID").Eq(huntID))
	if err != nil {
		return false, fmt.Errorf("failed to count match events: %w", err)
	}
	return count > 0, nil
}

// Insert persists a match event
func (s *MatchStorage) Insert(ctx context.Context, event *models.MatchEvent) error {
	if event.LoadID == "" || event.HuntID == "" {
		return fmt.Errorf("load id and hunt id are required")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if err := s.db.Store().Insert(event.ID, event); err != nil {
		return fmt.Errorf("failed to insert match event: %w", err)
	}
	return nil
}
