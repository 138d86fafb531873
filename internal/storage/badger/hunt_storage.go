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

// HuntStorage implements the HuntStorage interface for Badger
type HuntStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewHuntStorage creates a new HuntStorage instance
func NewHuntStorage(db *BadgerDB, logger arbor.ILogger) interfaces.HuntStorage {
	return &HuntStorage{
		db:     db,
		logger: logger,
	}
}

// ListEnabled returns the enabled hunt plans for a tenant. Tenant isolation is
// enforced here: plans from other tenants are never returned.
func (s *HuntStorage) ListEnabled(ctx context.Context, tenantID string) ([]*models.HuntPlan, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant id is required")
	}

	var plans []models.HuntPlan
	query := badgerhold.Where("TenantID").Eq(tenantID).And("Enabled").Eq(true)
	if err := s.db.Store().Find(&plans, query); err != nil {
		return nil, fmt.Errorf("failed to query hunt plans: %w", err)
	}

	result := make([]*models.HuntPlan, 0, len(plans))
	for i := range plans {
		result = append(result, &plans[i])
	}
	return result, nil
}

// Upsert stores a hunt plan (seed loading only)
func (s *HuntStorage) Upsert(ctx context.Context, plan *models.HuntPlan) error {
	if plan.ID == "" || plan.TenantID == "" {
		return fmt.Errorf("hunt plan id and tenant id are required")
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	if err := s.db.Store().Upsert(plan.ID, plan); err != nil {
		return fmt.Errorf("failed to upsert hunt plan: %w", err)
	}
	return nil
}
