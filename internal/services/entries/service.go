// Package entries manages the user's own entries and the aggregated,
// access-filtered entry stream built from active grants.
package entries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mwillis/coinfolio/internal/common"
	"github.com/mwillis/coinfolio/internal/interfaces"
	"github.com/mwillis/coinfolio/internal/models"
)

// ErrNotOwner rejects any mutation of an entry by someone other than its
// owner. Shared entries are read-only to their viewers; the check runs
// locally, before any remote call.
var ErrNotOwner = errors.New("entry is read-only: only the owner may modify it")

// Service implements EntryService.
type Service struct {
	storage interfaces.StorageManager
	grants  interfaces.GrantService
	logger  *common.Logger
	now     func() time.Time // injectable clock for testing
}

// NewService creates a new entry service.
func NewService(storage interfaces.StorageManager, grants interfaces.GrantService, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		grants:  grants,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateEntry validates and persists a new entry owned by userID.
func (s *Service) CreateEntry(ctx context.Context, userID string, entry *models.Entry) (*models.Entry, error) {
	entry.OwnerID = userID
	entry.Symbol = models.NormalizeSymbol(entry.Symbol)
	if entry.Currency == "" {
		entry.Currency = "USD"
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	entry.ID = uuid.New().String()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	if err := s.storage.EntryStore().Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to persist entry: %w", err)
	}

	s.logger.Debug().
		Str("entry", entry.ID).
		Str("owner", userID).
		Str("type", string(entry.Type)).
		Str("symbol", entry.Symbol).
		Msg("Entry created")

	return entry, nil
}

// UpdateEntry replaces an existing entry's fields. Ownership is checked
// against the stored row, not the caller-supplied payload.
func (s *Service) UpdateEntry(ctx context.Context, userID string, entry *models.Entry) (*models.Entry, error) {
	stored, err := s.storage.EntryStore().Get(ctx, entry.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entry: %w", err)
	}
	if stored.OwnerID != userID {
		return nil, ErrNotOwner
	}

	entry.OwnerID = userID
	entry.Symbol = models.NormalizeSymbol(entry.Symbol)
	if entry.Currency == "" {
		entry.Currency = stored.Currency
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	entry.CreatedAt = stored.CreatedAt
	entry.UpdatedAt = s.now()

	if err := s.storage.EntryStore().Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}
	return entry, nil
}

// DeleteEntry removes an entry owned by userID.
func (s *Service) DeleteEntry(ctx context.Context, userID, entryID string) error {
	stored, err := s.storage.EntryStore().Get(ctx, entryID)
	if err != nil {
		return fmt.Errorf("failed to load entry: %w", err)
	}
	if stored.OwnerID != userID {
		return ErrNotOwner
	}

	if err := s.storage.EntryStore().Delete(ctx, userID, entryID); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	s.logger.Debug().Str("entry", entryID).Str("owner", userID).Msg("Entry deleted")
	return nil
}
