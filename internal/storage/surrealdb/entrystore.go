package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/mwillis/coinfolio/internal/common"
	"github.com/mwillis/coinfolio/internal/interfaces"
	"github.com/mwillis/coinfolio/internal/models"
)

// EntryStore persists entries in the "entry" table.
type EntryStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewEntryStore(db *surrealdb.DB, logger *common.Logger) *EntryStore {
	return &EntryStore{
		db:     db,
		logger: logger,
	}
}

func (s *EntryStore) Get(ctx context.Context, id string) (*models.Entry, error) {
	entry, err := surrealdb.Select[models.Entry](ctx, s.db, surrealmodels.NewRecordID("entry", id))
	if err != nil {
		return nil, fmt.Errorf("failed to select entry: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("entry not found")
	}
	return entry, nil
}

// Query returns entries owned by ownerID matching the filter, ordered by
// entry date descending.
func (s *EntryStore) Query(ctx context.Context, ownerID string, filter interfaces.EntryFilter) ([]*models.Entry, error) {
	sql := "SELECT * FROM entry WHERE owner_id = $owner_id"
	vars := map[string]any{"owner_id": ownerID}

	if len(filter.Types) > 0 {
		sql += " AND type IN $types"
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		vars["types"] = types
	}
	if filter.DateFrom != nil {
		sql += " AND date >= $date_from"
		vars["date_from"] = *filter.DateFrom
	}
	if filter.DateTo != nil {
		sql += " AND date <= $date_to"
		vars["date_to"] = *filter.DateTo
	}
	if filter.MinPnL != nil {
		sql += " AND pnl >= $min_pnl"
		vars["min_pnl"] = *filter.MinPnL
	}
	if filter.ExcludePersonal {
		sql += " AND personal = false"
	}

	sql += " ORDER BY date DESC"
	if filter.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	results, err := surrealdb.Query[[]models.Entry](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}

	if results != nil && len(*results) > 0 {
		var mapped []*models.Entry
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

func (s *EntryStore) Create(ctx context.Context, entry *models.Entry) error {
	sql := "UPSERT type::record('entry', $id) CONTENT $entry"
	vars := map[string]any{"id": entry.ID, "entry": entry}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Entry](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to create entry after retries: %w", lastErr)
}

// Update rewrites an entry record. The entry must already belong to its owner;
// ownership checks happen in the entries service before this call.
func (s *EntryStore) Update(ctx context.Context, entry *models.Entry) error {
	sql := "UPDATE type::record('entry', $id) CONTENT $entry WHERE owner_id = $owner_id"
	vars := map[string]any{"id": entry.ID, "entry": entry, "owner_id": entry.OwnerID}

	if _, err := surrealdb.Query[[]models.Entry](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	return nil
}

func (s *EntryStore) Delete(ctx context.Context, ownerID, id string) error {
	sql := "DELETE entry WHERE id = type::record('entry', $id) AND owner_id = $owner_id"
	vars := map[string]any{"id": id, "owner_id": ownerID}

	if _, err := surrealdb.Query[[]models.Entry](ctx, s.db, sql, vars); err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// Ensure EntryStore implements the contract
var _ interfaces.EntryStore = (*EntryStore)(nil)
