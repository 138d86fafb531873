package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/haulwire/loadscout/internal/common"
	"github.com/haulwire/loadscout/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db       *BadgerDB
	queue    interfaces.QueueStorage
	load     interfaces.LoadStorage
	hunt     interfaces.HuntStorage
	match    interfaces.MatchStorage
	geocode  interfaces.GeocodeStorage
	cooldown interfaces.CooldownStorage
	tenant   interfaces.TenantStorage
	hint     interfaces.HintStorage
	kv       interfaces.KeyValueStorage
	logger   arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:       db,
		queue:    NewQueueStorage(db, logger),
		load:     NewLoadStorage(db, logger),
		hunt:     NewHuntStorage(db, logger),
		match:    NewMatchStorage(db, logger),
		geocode:  NewGeocodeStorage(db, logger),
		cooldown: NewCooldownStorage(db, logger),
		tenant:   NewTenantStorage(db, logger),
		hint:     NewHintStorage(db, logger),
		kv:       NewKVStorage(db, logger),
		logger:   logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// QueueStorage returns the queue storage interface
func (m *Manager) QueueStorage() interfaces.QueueStorage {
	return m.queue
}

// LoadStorage returns the load storage interface
func (m *Manager) LoadStorage() interfaces.LoadStorage {
	return m.load
}

// HuntStorage returns the hunt plan storage interface
func (m *Manager) HuntStorage() interfaces.HuntStorage {
	return m.hunt
}

// MatchStorage returns the match event storage interface
func (m *Manager) MatchStorage() interfaces.MatchStorage {
	return m.match
}

// GeocodeStorage returns the geocode cache storage interface
func (m *Manager) GeocodeStorage() interfaces.GeocodeStorage {
	return m.geocode
}

// CooldownStorage returns the cooldown state storage interface
func (m *Manager) CooldownStorage() interfaces.CooldownStorage {
	return m.cooldown
}

// TenantStorage returns the tenant storage interface
func (m *Manager) TenantStorage() interfaces.TenantStorage {
	return m.tenant
}

// HintStorage returns the parser hint storage interface
func (m *Manager) HintStorage() interfaces.HintStorage {
	return m.hint
}

// KeyValueStorage returns the key/value storage interface
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

// Ping verifies datastore connectivity for the readiness probe
func (m *Manager) Ping(ctx context.Context) error {
	if m.db.Store().Badger().IsClosed() {
		return fmt.Errorf("badger store is closed")
	}
	return nil
}

// Close closes the storage manager
func (m *Manager) Close() error {
	return m.db.Close()
}
