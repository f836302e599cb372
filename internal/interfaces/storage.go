// Package interfaces defines service contracts for Coinfolio
package interfaces

import (
	"context"
	"time"

	"github.com/mwillis/coinfolio/internal/models"
)

// StorageManager coordinates the remote stores and the local KV store.
type StorageManager interface {
	EntryStore() EntryStore
	GrantStore() GrantStore
	ProfileStore() ProfileStore
	KeyValueStore() KeyValueStore

	Close() error
}

// EntryFilter narrows an entry query. Zero values mean "no filter".
// Personal entries are always excluded when ExcludePersonal is set, which is
// mandatory for any query on behalf of a viewer other than the owner.
type EntryFilter struct {
	Types           []models.EntryType
	DateFrom        *time.Time
	DateTo          *time.Time
	MinPnL          *float64
	ExcludePersonal bool
	Limit           int
}

// EntryStore manages entries in the remote store. The store applies row-level
// permissions for direct reads; grant expiry and visibility are layered on top
// by the entry aggregator.
type EntryStore interface {
	Get(ctx context.Context, id string) (*models.Entry, error)
	Query(ctx context.Context, ownerID string, filter EntryFilter) ([]*models.Entry, error)

	// Mutations are scoped to rows owned by the caller.
	Create(ctx context.Context, entry *models.Entry) error
	Update(ctx context.Context, entry *models.Entry) error
	Delete(ctx context.Context, ownerID, id string) error
}

// GrantStore manages access grants in the remote store.
type GrantStore interface {
	Get(ctx context.Context, id string) (*models.AccessGrant, error)
	// ListByParty returns every grant where the user is viewer or sharer.
	ListByParty(ctx context.Context, userID string) ([]*models.AccessGrant, error)
	// ListBetween returns all grants for a (viewer, sharer) pair, any status.
	ListBetween(ctx context.Context, viewerID, sharerID string) ([]*models.AccessGrant, error)
	Create(ctx context.Context, grant *models.AccessGrant) error
	UpdateStatus(ctx context.Context, id string, status models.GrantStatus) error
}

// ProfileStore manages user profiles in the remote store.
type ProfileStore interface {
	Get(ctx context.Context, id string) (*models.UserProfile, error)
	GetByHandle(ctx context.Context, handle string) (*models.UserProfile, error)
	Save(ctx context.Context, profile *models.UserProfile) error
}

// KeyValueStore is the local durable key-value storage used for rate-limiter
// state, price cache persistence, and per-user visibility flags. Keys are
// namespaced strings, values JSON-serialized by callers.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	GetAll(ctx context.Context) (map[string]string, error)
}
