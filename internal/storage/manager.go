// Package storage wires the remote SurrealDB stores and the local BadgerHold
// store into a single StorageManager.
package storage

import (
	"fmt"

	"github.com/mwillis/coinfolio/internal/common"
	"github.com/mwillis/coinfolio/internal/interfaces"
	"github.com/mwillis/coinfolio/internal/storage/badger"
	"github.com/mwillis/coinfolio/internal/storage/surrealdb"
)

// Manager implements interfaces.StorageManager.
type Manager struct {
	remote *surrealdb.Remote
	local  *badger.Store
	kv     interfaces.KeyValueStore
	logger *common.Logger
}

// NewManager connects to SurrealDB and opens the local BadgerHold store.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	remote, err := surrealdb.NewRemote(logger, config.Storage.Remote)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize remote store: %w", err)
	}

	local, err := badger.NewStore(logger, config.Storage.Local.Path)
	if err != nil {
		remote.Close()
		return nil, fmt.Errorf("failed to initialize local store: %w", err)
	}

	return &Manager{
		remote: remote,
		local:  local,
		kv:     badger.NewKVStorage(local, logger),
		logger: logger,
	}, nil
}

func (m *Manager) EntryStore() interfaces.EntryStore {
	return m.remote.EntryStore()
}

func (m *Manager) GrantStore() interfaces.GrantStore {
	return m.remote.GrantStore()
}

func (m *Manager) ProfileStore() interfaces.ProfileStore {
	return m.remote.ProfileStore()
}

func (m *Manager) KeyValueStore() interfaces.KeyValueStore {
	return m.kv
}

func (m *Manager) Close() error {
	var firstErr error
	if err := m.remote.Close(); err != nil {
		firstErr = err
	}
	if err := m.local.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
