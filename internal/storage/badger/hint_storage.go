package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/haulwire/loadscout/internal/interfaces"
	"github.com/haulwire/loadscout/internal/models"
)

// HintStorage implements the HintStorage interface for Badger
type HintStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewHintStorage creates a new HintStorage instance
func NewHintStorage(db *BadgerDB, logger arbor.ILogger) interfaces.HintStorage {
	return &HintStorage{
		db:     db,
		logger: logger,
	}
}

// ListForTenant returns the tenant's hint packs applicable to a source.
// Packs with an empty source apply to every source.
func (s *HintStorage) ListForTenant(ctx context.Context, tenantID string, source string) ([]*models.HintPack, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant id is required")
	}

	var packs []models.HintPack
	if err := s.db.Store().Find(&packs, badgerhold.Where("TenantID").Eq(tenantID)); err != nil {
		return nil, fmt.Errorf("failed to query hint packs: %w", err)
	}

	var result []*models.HintPack
	for i := range packs {
		if packs[i].Source == "" || packs[i].Source == source {
			result = append(result, &packs[i])
		}
	}
	return result, nil
}

// Upsert stores a hint pack (seed loading only)
func (s *HintStorage) Upsert(ctx context.Context, pack *models.HintPack) error {
	if pack.ID == "" || pack.TenantID == "" {
		return fmt.Errorf("hint pack id and tenant id are required")
	}
	if err := s.db.Store().Upsert(pack.ID, pack); err != nil {
		return fmt.Errorf("failed to upsert hint pack: %w", err)
	}
	return nil
}
