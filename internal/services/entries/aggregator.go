package entries

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mwillis/coinfolio/internal/interfaces"
	"github.com/mwillis/coinfolio/internal/models"
)

const visibilityKeyPrefix = "vis:"

// visibilityPrefs holds which data sources the viewer has toggled off.
// Absence of a source id means visible.
type visibilityPrefs map[string]bool

func (s *Service) loadVisibility(ctx context.Context, userID string) visibilityPrefs {
	prefs := visibilityPrefs{}
	raw, err := s.storage.KeyValueStore().Get(ctx, visibilityKeyPrefix+userID)
	if err != nil || raw == "" {
		return prefs
	}
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		s.logger.Warn().Err(err).Str("user", userID).Msg("Discarding corrupt visibility preferences")
		return visibilityPrefs{}
	}
	return prefs
}

func (p visibilityPrefs) visible(sourceID string) bool {
	hidden, ok := p[sourceID]
	return !ok || !hidden
}

// SetSourceVisibility persists a viewer's show/hide toggle for one data
// source. Preferences survive restarts but never affect what other
// viewers see.
func (s *Service) SetSourceVisibility(ctx context.Context, userID, sourceID string, visible bool) error {
	prefs := s.loadVisibility(ctx, userID)
	if visible {
		delete(prefs, sourceID)
	} else {
		prefs[sourceID] = true
	}

	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode visibility preferences: %w", err)
	}
	if err := s.storage.KeyValueStore().Set(ctx, visibilityKeyPrefix+userID, string(raw)); err != nil {
		return fmt.Errorf("failed to persist visibility preferences: %w", err)
	}
	return nil
}

// filterFromGrant translates a grant's scoping terms into a store query.
// Personal entries never cross an ownership boundary.
func filterFromGrant(grant *models.AccessGrant) interfaces.EntryFilter {
	return interfaces.EntryFilter{
		Types:           grant.SharedTypes,
		DateFrom:        grant.DateFrom,
		DateTo:          grant.DateTo,
		MinPnL:          grant.MinPnL,
		ExcludePersonal: true,
	}
}

// GetCombinedEntries returns the viewer's own entries plus the entries of
// every active, visible grant, each shared entry filtered by its grant's
// terms and tagged with its source. Expired grants contribute nothing;
// expiry is evaluated here, at read time.
func (s *Service) GetCombinedEntries(ctx context.Context, userID string) ([]*models.Entry, error) {
	prefs := s.loadVisibility(ctx, userID)
	var combined []*models.Entry

	if prefs.visible(models.OwnSourceID) {
		own, err := s.storage.EntryStore().Query(ctx, userID, interfaces.EntryFilter{})
		if err != nil {
			return nil, fmt.Errorf("failed to load own entries: %w", err)
		}
		for _, e := range own {
			e.SourceID = models.OwnSourceID
		}
		combined = append(combined, own...)
	}

	grants, err := s.grants.ActiveGrantsForViewer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve active grants: %w", err)
	}

	for _, grant := range grants {
		if !prefs.visible(grant.ID) {
			continue
		}
		shared, err := s.storage.EntryStore().Query(ctx, grant.SharerID, filterFromGrant(grant))
		if err != nil {
			// One sharer failing should not black out the whole stream.
			s.logger.Warn().Err(err).
				Str("grant", grant.ID).
				Str("sharer", grant.SharerID).
				Msg("Skipping shared source after query failure")
			continue
		}

		sharer, err := s.storage.ProfileStore().Get(ctx, grant.SharerID)
		var info *models.ProfileSummary
		if err == nil {
			info = sharer.Summary()
		}

		for _, e := range shared {
			e.IsShared = true
			e.SourceID = grant.ID
			e.SharerInfo = info
		}
		combined = append(combined, shared...)
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].Date.After(combined[j].Date)
	})
	return combined, nil
}

// ListSources describes every data source available to the viewer: their
// own entries plus one source per active grant, with current visibility
// and entry counts.
func (s *Service) ListSources(ctx context.Context, userID string) ([]*models.DataSource, error) {
	prefs := s.loadVisibility(ctx, userID)

	own, err := s.storage.EntryStore().Query(ctx, userID, interfaces.EntryFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load own entries: %w", err)
	}

	sources := []*models.DataSource{{
		ID:         models.OwnSourceID,
		Label:      "My entries",
		Visible:    prefs.visible(models.OwnSourceID),
		EntryCount: len(own),
	}}

	grants, err := s.grants.ActiveGrantsForViewer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve active grants: %w", err)
	}

	for _, grant := range grants {
		source := &models.DataSource{
			ID:      grant.ID,
			GrantID: grant.ID,
			Visible: prefs.visible(grant.ID),
		}

		sharer, err := s.storage.ProfileStore().Get(ctx, grant.SharerID)
		if err == nil {
			source.Sharer = sharer.Summary()
			source.Label = sharer.Handle
		} else {
			source.Label = grant.SharerID
		}

		shared, err := s.storage.EntryStore().Query(ctx, grant.SharerID, filterFromGrant(grant))
		if err == nil {
			source.EntryCount = len(shared)
		}

		sources = append(sources, source)
	}
	return sources, nil
}

var _ interfaces.EntryService = (*Service)(nil)
