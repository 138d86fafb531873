package badger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/haulwire/loadscout/internal/interfaces"
	"github.com/haulwire/loadscout/internal/models"
)

// TenantStorage implements the TenantStorage interface for Badger
type TenantStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewTenantStorage creates a new TenantStorage instance
func NewTenantStorage(db *BadgerDB, logger arbor.ILogger) interfaces.TenantStorage {
	return &TenantStorage{
		db:     db,
		logger: logger,
	}
}

// Get fetches a tenant by id
func (s *TenantStorage) Get(ctx context.Context, id string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := s.db.Store().Get(id, &tenant); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &tenant, nil
}

// ResolveByMailbox finds the tenant owning an inbound address
func (s *TenantStorage) ResolveByMailbox(ctx context.Context, address string) (*models.Tenant, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		return nil, interfaces.ErrNotFound
	}

	var tenants []models.Tenant
	if err := s.db.Store().Find(&tenants, nil); err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	for i := range tenants {
		if tenants[i].OwnsMailbox(address) {
			return &tenants[i], nil
		}
	}
	return nil, interfaces.ErrNotFound
}

// Upsert stores a tenant (seed loading only)
func (s *TenantStorage) Upsert(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == "" {
		return fmt.Errorf("tenant id is required")
	}
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = time.Now().UTC()
	}
	if err := s.db.Store().Upsert(tenant.ID, tenant); err != nil {
		return fmt.Errorf("failed to upsert tenant: %w", err)
	}
	return nil
}
