package grants

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mwillis/coinfolio/internal/common"
	"github.com/mwillis/coinfolio/internal/interfaces"
	"github.com/mwillis/coinfolio/internal/models"
)

// Service implements GrantService over the remote grant and profile stores.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
	now     func() time.Time // injectable clock for testing
}

// NewService creates a new grant service.
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// ListGrants partitions every grant involving the user. Active means the user
// is viewer on a granted, unexpired grant; expiry is re-evaluated here on
// every call, not via a background sweep.
func (s *Service) ListGrants(ctx context.Context, userID string) (*models.GrantList, error) {
	all, err := s.storage.GrantStore().ListByParty(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load grants: %w", err)
	}

	now := s.now()
	list := &models.GrantList{}
	for _, g := range all {
		switch {
		case g.ViewerID == userID && g.IsActiveAt(now):
			list.Active = append(list.Active, g)
		case g.SharerID == userID && g.Status == models.GrantStatusPending:
			list.IncomingPending = append(list.IncomingPending, g)
		case g.ViewerID == userID && g.Status == models.GrantStatusPending:
			list.OutgoingPending = append(list.OutgoingPending, g)
		}
	}
	return list, nil
}

// ActiveGrantsForViewer returns the granted, unexpired grants where the user
// is viewer.
func (s *Service) ActiveGrantsForViewer(ctx context.Context, userID string) ([]*models.AccessGrant, error) {
	list, err := s.ListGrants(ctx, userID)
	if err != nil {
		return nil, err
	}
	return list.Active, nil
}

// RequestAccess validates and creates a pending grant from viewer to sharer.
// sharer may be a profile id or handle.
func (s *Service) RequestAccess(ctx context.Context, viewerID, sharer string, filters models.GrantFilters) (*models.AccessGrant, error) {
	sharer = strings.TrimSpace(sharer)
	if sharer == "" {
		return nil, ErrUnknownUser
	}
	if len(filters.SharedTypes) == 0 {
		return nil, ErrNoSharedTypes
	}
	for _, t := range filters.SharedTypes {
		if !t.IsValid() {
			return nil, fmt.Errorf("invalid shared entry type %q", t)
		}
	}

	profile, err := s.resolveProfile(ctx, sharer)
	if err != nil {
		return nil, ErrUnknownUser
	}
	if profile.ID == viewerID {
		return nil, ErrSelfTarget
	}

	// Any non-denied, non-revoked grant between the pair blocks a new request.
	existing, err := s.storage.GrantStore().ListBetween(ctx, viewerID, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing grants: %w", err)
	}
	for _, g := range existing {
		if g.IsOutstanding() {
			return nil, ErrDuplicateGrant
		}
	}

	now := s.now()
	grant := &models.AccessGrant{
		ID:          uuid.New().String(),
		SharerID:    profile.ID,
		ViewerID:    viewerID,
		Status:      models.GrantStatusPending,
		SharedTypes: filters.SharedTypes,
		ExpiresAt:   filters.ExpiresAt,
		DateFrom:    filters.DateFrom,
		DateTo:      filters.DateTo,
		MinPnL:      filters.MinPnL,
		Message:     filters.Message,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.storage.GrantStore().Create(ctx, grant); err != nil {
		return nil, fmt.Errorf("failed to persist grant: %w", err)
	}

	s.logger.Info().
		Str("grant", grant.ID).
		Str("viewer", viewerID).
		Str("sharer", profile.ID).
		Msg("Access requested")

	return grant, nil
}

// resolveProfile looks the sharer up by id first, then by handle.
func (s *Service) resolveProfile(ctx context.Context, idOrHandle string) (*models.UserProfile, error) {
	if profile, err := s.storage.ProfileStore().Get(ctx, idOrHandle); err == nil {
		return profile, nil
	}
	return s.storage.ProfileStore().GetByHandle(ctx, idOrHandle)
}

// Approve transitions a pending grant to granted. Sharer only.
func (s *Service) Approve(ctx context.Context, actorID, grantID string) error {
	return s.transition(ctx, actorID, grantID, models.GrantStatusPending, models.GrantStatusGranted)
}

// Deny transitions a pending grant to denied. Sharer only.
func (s *Service) Deny(ctx context.Context, actorID, grantID string) error {
	return s.transition(ctx, actorID, grantID, models.GrantStatusPending, models.GrantStatusDenied)
}

// Revoke transitions a granted grant to revoked. Sharer only.
func (s *Service) Revoke(ctx context.Context, actorID, grantID string) error {
	return s.transition(ctx, actorID, grantID, models.GrantStatusGranted, models.GrantStatusRevoked)
}

func (s *Service) transition(ctx context.Context, actorID, grantID string, from, to models.GrantStatus) error {
	grant, err := s.storage.GrantStore().Get(ctx, grantID)
	if err != nil {
		return fmt.Errorf("failed to load grant: %w", err)
	}
	// Permission check happens locally, before any remote mutation.
	if grant.SharerID != actorID {
		return ErrNotSharer
	}
	if grant.Status != from {
		if from == models.GrantStatusPending {
			return ErrNotPending
		}
		return ErrNotGranted
	}

	if err := s.storage.GrantStore().UpdateStatus(ctx, grantID, to); err != nil {
		return fmt.Errorf("failed to update grant status: %w", err)
	}

	s.logger.Info().
		Str("grant", grantID).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("Grant transitioned")
	return nil
}

// Ensure Service implements GrantService
var _ interfaces.GrantService = (*Service)(nil)
