package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/mwillis/coinfolio/internal/common"
	"github.com/mwillis/coinfolio/internal/interfaces"
	"github.com/mwillis/coinfolio/internal/models"
)

// GrantStore persists access grants in the "grant" table.
type GrantStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewGrantStore(db *surrealdb.DB, logger *common.Logger) *GrantStore {
	return &GrantStore{
		db:     db,
		logger: logger,
	}
}

func (s *GrantStore) Get(ctx context.Context, id string) (*models.AccessGrant, error) {
	grant, err := surrealdb.Select[models.AccessGrant](ctx, s.db, surrealmodels.NewRecordID("grant", id))
	if err != nil {
		return nil, fmt.Errorf("failed to select grant: %w", err)
	}
	if grant == nil {
		return nil, fmt.Errorf("grant not found")
	}
	return grant, nil
}

func (s *GrantStore) ListByParty(ctx context.Context, userID string) ([]*models.AccessGrant, error) {
	sql := "SELECT * FROM grant WHERE viewer_id = $user_id OR sharer_id = $user_id ORDER BY created_at DESC"
	vars := map[string]any{"user_id": userID}

	results, err := surrealdb.Query[[]models.AccessGrant](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}

	if results != nil && len(*results) > 0 {
		var mapped []*models.AccessGrant
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

func (s *GrantStore) ListBetween(ctx context.Context, viewerID, sharerID string) ([]*models.AccessGrant, error) {
	sql := "SELECT * FROM grant WHERE viewer_id = $viewer_id AND sharer_id = $sharer_id"
	vars := map[string]any{"viewer_id": viewerID, "sharer_id": sharerID}

	results, err := surrealdb.Query[[]models.AccessGrant](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants between pair: %w", err)
	}

	if results != nil && len(*results) > 0 {
		var mapped []*models.AccessGrant
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

func (s *GrantStore) Create(ctx context.Context, grant *models.AccessGrant) error {
	sql := "UPSERT type::record('grant', $id) CONTENT $grant"
	vars := map[string]any{"id": grant.ID, "grant": grant}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.AccessGrant](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to create grant after retries: %w", lastErr)
}

func (s *GrantStore) UpdateStatus(ctx context.Context, id string, status models.GrantStatus) error {
	sql := "UPDATE type::record('grant', $id) SET status = $status, updated_at = $updated_at"
	vars := map[string]any{"id": id, "status": string(status), "updated_at": time.Now()}

	if _, err := surrealdb.Query[[]models.AccessGrant](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to update grant status: %w", err)
	}
	return nil
}

// Ensure GrantStore implements the contract
var _ interfaces.GrantStore = (*GrantStore)(nil)
