package grants

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mwillis/coinfolio/internal/common"
	"github.com/mwillis/coinfolio/internal/models"
)

func newTestService(t *testing.T) (*Service, *memoryStorage) {
	t.Helper()
	storage := newMemoryStorage()
	svc := NewService(storage, common.NewSilentLogger())

	for _, p := range []*models.UserProfile{
		{ID: "alice", Handle: "alice_trades"},
		{ID: "bob", Handle: "bob_hodl"},
	} {
		require.NoError(t, storage.ProfileStore().Save(context.Background(), p))
	}
	return svc, storage
}

func spotFilters() models.GrantFilters {
	return models.GrantFilters{SharedTypes: []models.EntryType{models.EntryTypeSpot}}
}

func TestRequestAccess(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	grant, err := svc.RequestAccess(ctx, "alice", "bob", spotFilters())
	require.NoError(t, err)
	require.Equal(t, models.GrantStatusPending, grant.Status)
	require.Equal(t, "bob", grant.SharerID)
	require.Equal(t, "alice", grant.ViewerID)
}

func TestRequestAccessByHandle(t *testing.T) {
	svc, _ := newTestService(t)

	grant, err := svc.RequestAccess(context.Background(), "alice", "bob_hodl", spotFilters())
	require.NoError(t, err)
	require.Equal(t, "bob", grant.SharerID)
}

func TestRequestAccessSelfTarget(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.RequestAccess(context.Background(), "alice", "alice_trades", spotFilters())
	require.ErrorIs(t, err, ErrSelfTarget)
}

func TestRequestAccessUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.RequestAccess(context.Background(), "alice", "nobody", spotFilters())
	require.ErrorIs(t, err, ErrUnknownUser)
}

func TestRequestAccessRequiresSharedTypes(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.RequestAccess(context.Background(), "alice", "bob", models.GrantFilters{})
	require.ErrorIs(t, err, ErrNoSharedTypes)
}

func TestRequestAccessDuplicateBlocked(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RequestAccess(ctx, "alice", "bob", spotFilters())
	require.NoError(t, err)

	_, err = svc.RequestAccess(ctx, "alice", "bob", spotFilters())
	require.ErrorIs(t, err, ErrDuplicateGrant)
}

func TestRequestAccessAllowedAfterDenial(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	grant, err := svc.RequestAccess(ctx, "alice", "bob", spotFilters())
	require.NoError(t, err)
	require.NoError(t, svc.Deny(ctx, "bob", grant.ID))

	// Denied grants don't block; re-requesting is allowed
	_, err = svc.RequestAccess(ctx, "alice", "bob", spotFilters())
	require.NoError(t, err)
}

func TestApproveOnlyBySharer(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	grant, err := svc.RequestAccess(ctx, "alice", "bob", spotFilters())
	require.NoError(t, err)

	err = svc.Approve(ctx, "alice", grant.ID)
	require.ErrorIs(t, err, ErrNotSharer)

	require.NoError(t, svc.Approve(ctx, "bob", grant.ID))
}

func TestApproveRequiresPending(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	grant, err := svc.RequestAccess(ctx, "alice", "bob", spotFilters())
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, "bob", grant.ID))

	err = svc.Approve(ctx, "bob", grant.ID)
	require.ErrorIs(t, err, ErrNotPending)
}

func TestRevokeRequiresGranted(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	grant, err := svc.RequestAccess(ctx, "alice", "bob", spotFilters())
	require.NoError(t, err)

	err = svc.Revoke(ctx, "bob", grant.ID)
	require.ErrorIs(t, err, ErrNotGranted)

	require.NoError(t, svc.Approve(ctx, "bob", grant.ID))
	require.NoError(t, svc.Revoke(ctx, "bob", grant.ID))

	active, err := svc.ActiveGrantsForViewer(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, active)
}

func TestListGrantsPartitions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	granted, err := svc.RequestAccess(ctx, "alice", "bob", spotFilters())
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, "bob", granted.ID))

	_, err = svc.RequestAccess(ctx, "bob", "alice_trades", spotFilters())
	require.NoError(t, err)

	aliceList, err := svc.ListGrants(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, aliceList.Active, 1)
	require.Len(t, aliceList.IncomingPending, 1)
	require.Empty(t, aliceList.OutgoingPending)

	bobList, err := svc.ListGrants(ctx, "bob")
	require.NoError(t, err)
	require.Empty(t, bobList.Active)
	require.Empty(t, bobList.IncomingPending)
	require.Len(t, bobList.OutgoingPending, 1)
}

func TestExpiredGrantNotActive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	base := time.Now()
	svc.now = func() time.Time { return base }

	expiry := base.Add(time.Hour)
	filters := spotFilters()
	filters.ExpiresAt = &expiry

	grant, err := svc.RequestAccess(ctx, "alice", "bob", filters)
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, "bob", grant.ID))

	active, err := svc.ActiveGrantsForViewer(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, active, 1)

	// Expiry is soft: the status stays granted, activity flips at read time
	svc.now = func() time.Time { return base.Add(2 * time.Hour) }
	active, err = svc.ActiveGrantsForViewer(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, active)

	stored, err := svc.storage.GrantStore().Get(ctx, grant.ID)
	require.NoError(t, err)
	require.Equal(t, models.GrantStatusGranted, stored.Status)
}

func TestTransitionUnknownGrant(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Approve(context.Background(), "bob", "missing")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNotSharer))
}
