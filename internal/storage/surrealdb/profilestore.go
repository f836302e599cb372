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

// ProfileStore persists user profiles in the "profile" table.
type ProfileStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewProfileStore(db *surrealdb.DB, logger *common.Logger) *ProfileStore {
	return &ProfileStore{
		db:     db,
		logger: logger,
	}
}

func (s *ProfileStore) Get(ctx context.Context, id string) (*models.UserProfile, error) {
	profile, err := surrealdb.Select[models.UserProfile](ctx, s.db, surrealmodels.NewRecordID("profile", id))
	if err != nil {
		return nil, fmt.Errorf("failed to select profile: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("profile not found")
	}
	return profile, nil
}

func (s *ProfileStore) GetByHandle(ctx context.Context, handle string) (*models.UserProfile, error) {
	sql := "SELECT * FROM profile WHERE handle = $handle LIMIT 1"
	vars := map[string]any{"handle": handle}

	results, err := surrealdb.Query[[]models.UserProfile](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query profile by handle: %w", err)
	}

	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return &(*results)[0].Result[0], nil
	}
	return nil, fmt.Errorf("profile not found")
}

func (s *ProfileStore) Save(ctx context.Context, profile *models.UserProfile) error {
	sql := "UPSERT type::record('profile', $id) CONTENT $profile"
	vars := map[string]any{"id": profile.ID, "profile": profile}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.UserProfile](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save profile after retries: %w", lastErr)
}

// Ensure ProfileStore implements the contract
var _ interfaces.ProfileStore = (*ProfileStore)(nil)
