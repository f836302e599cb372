// Package surrealdb implements the remote stores (entries, grants, profiles)
// on SurrealDB. Row-level permission filtering for direct reads is enforced
// here by scoping every query to an owner or party; grant expiry and
// visibility masking are layered on top by the entry aggregator.
package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"

	"github.com/mwillis/coinfolio/internal/common"
)

// Remote bundles the SurrealDB connection and its stores.
type Remote struct {
	db     *surrealdb.DB
	logger *common.Logger

	entryStore   *EntryStore
	grantStore   *GrantStore
	profileStore *ProfileStore
}

// NewRemote connects to SurrealDB and initializes the stores.
func NewRemote(logger *common.Logger, cfg common.RemoteConfig) (*Remote, error) {
	ctx := context.Background()

	db, err := surrealdb.New(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": cfg.Username,
		"pass": cfg.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	// Define tables to ensure they exist (SurrealDB v3 errors on querying non-existent tables)
	tables := []string{"entry", "grant", "profile"}
	for _, table := range tables {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}

	r := &Remote{
		db:     db,
		logger: logger,
	}
	r.entryStore = NewEntryStore(db, logger)
	r.grantStore = NewGrantStore(db, logger)
	r.profileStore = NewProfileStore(db, logger)

	logger.Info().
		Str("url", cfg.URL).
		Str("namespace", cfg.Namespace).
		Str("database", cfg.Database).
		Msg("SurrealDB remote store initialized")

	return r, nil
}

// EntryStore returns the entry store.
func (r *Remote) EntryStore() *EntryStore {
	return r.entryStore
}

// GrantStore returns the grant store.
func (r *Remote) GrantStore() *GrantStore {
	return r.grantStore
}

// ProfileStore returns the profile store.
func (r *Remote) ProfileStore() *ProfileStore {
	return r.profileStore
}

// Close closes the SurrealDB connection.
func (r *Remote) Close() error {
	return r.db.Close(context.Background())
}

// isNotFoundError reports whether a SurrealDB error means "no such record".
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "no record")
}
