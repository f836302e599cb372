package entries

import (
	"context"
	"fmt"
	"sync"

	"github.com/mwillis/coinfolio/internal/interfaces"
	"github.com/mwillis/coinfolio/internal/models"
)

// memoryStorage is an in-memory StorageManager for tests.
type memoryStorage struct {
	mu       sync.Mutex
	entries  map[string]*models.Entry
	grants   map[string]*models.AccessGrant
	profiles map[string]*models.UserProfile
	kv       map[string]string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		entries:  make(map[string]*models.Entry),
		grants:   make(map[string]*models.AccessGrant),
		profiles: make(map[string]*models.UserProfile),
		kv:       make(map[string]string),
	}
}

func (m *memoryStorage) EntryStore() interfaces.EntryStore       { return (*memoryEntryStore)(m) }
func (m *memoryStorage) GrantStore() interfaces.GrantStore       { return (*memoryGrantStore)(m) }
func (m *memoryStorage) ProfileStore() interfaces.ProfileStore   { return (*memoryProfileStore)(m) }
func (m *memoryStorage) KeyValueStore() interfaces.KeyValueStore { return (*memoryKVStore)(m) }
func (m *memoryStorage) Close() error                            { return nil }

type memoryEntryStore memoryStorage

func (m *memoryEntryStore) Get(ctx context.Context, id string) (*models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok {
		return nil, fmt.Errorf("entry %s not found", id)
	}
	copied := *entry
	return &copied, nil
}

func (m *memoryEntryStore) Query(ctx context.Context, ownerID string, filter interfaces.EntryFilter) ([]*models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Entry
	for _, entry := range m.entries {
		if entry.OwnerID != ownerID {
			continue
		}
		if !matchesFilter(entry, filter) {
			continue
		}
		copied := *entry
		out = append(out, &copied)
	}
	return out, nil
}

func matchesFilter(e *models.Entry, f interfaces.EntryFilter) bool {
	if f.ExcludePersonal && e.Personal {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if e.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.DateFrom != nil && e.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && e.Date.After(*f.DateTo) {
		return false
	}
	if f.MinPnL != nil && e.PnL < *f.MinPnL {
		return false
	}
	return true
}

func (m *memoryEntryStore) Create(ctx context.Context, entry *models.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *entry
	m.entries[entry.ID] = &copied
	return nil
}

func (m *memoryEntryStore) Update(ctx context.Context, entry *models.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.entries[entry.ID]
	if !ok || existing.OwnerID != entry.OwnerID {
		return fmt.Errorf("entry %s not found", entry.ID)
	}
	copied := *entry
	m.entries[entry.ID] = &copied
	return nil
}

func (m *memoryEntryStore) Delete(ctx context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.entries[id]
	if !ok || existing.OwnerID != ownerID {
		return fmt.Errorf("entry %s not found", id)
	}
	delete(m.entries, id)
	return nil
}

type memoryGrantStore memoryStorage

func (m *memoryGrantStore) Get(ctx context.Context, id string) (*models.AccessGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	grant, ok := m.grants[id]
	if !ok {
		return nil, fmt.Errorf("grant %s not found", id)
	}
	copied := *grant
	return &copied, nil
}

func (m *memoryGrantStore) ListByParty(ctx context.Context, userID string) ([]*models.AccessGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AccessGrant
	for _, grant := range m.grants {
		if grant.ViewerID == userID || grant.SharerID == userID {
			copied := *grant
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memoryGrantStore) ListBetween(ctx context.Context, viewerID, sharerID string) ([]*models.AccessGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AccessGrant
	for _, grant := range m.grants {
		if grant.ViewerID == viewerID && grant.SharerID == sharerID {
			copied := *grant
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memoryGrantStore) Create(ctx context.Context, grant *models.AccessGrant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *grant
	m.grants[grant.ID] = &copied
	return nil
}

func (m *memoryGrantStore) UpdateStatus(ctx context.Context, id string, status models.GrantStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	grant, ok := m.grants[id]
	if !ok {
		return fmt.Errorf("grant %s not found", id)
	}
	grant.Status = status
	return nil
}

type memoryProfileStore memoryStorage

func (m *memoryProfileStore) Get(ctx context.Context, id string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %s not found", id)
	}
	copied := *profile
	return &copied, nil
}

func (m *memoryProfileStore) GetByHandle(ctx context.Context, handle string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, profile := range m.profiles {
		if profile.Handle == handle {
			copied := *profile
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("profile with handle %s not found", handle)
}

func (m *memoryProfileStore) Save(ctx context.Context, profile *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *profile
	m.profiles[profile.ID] = &copied
	return nil
}

type memoryKVStore memoryStorage

func (m *memoryKVStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.kv[key]
	if !ok {
		return "", fmt.Errorf("key %s not found", key)
	}
	return value, nil
}

func (m *memoryKVStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = value
	return nil
}

func (m *memoryKVStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
	return nil
}

func (m *memoryKVStore) GetAll(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.kv))
	for k, v := range m.kv {
		out[k] = v
	}
	return out, nil
}

var _ interfaces.StorageManager = (*memoryStorage)(nil)
