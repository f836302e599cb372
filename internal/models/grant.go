package models

import "time"

// GrantStatus is the lifecycle state of an access grant.
type GrantStatus string

const (
	GrantStatusPending GrantStatus = "pending"
	GrantStatusGranted GrantStatus = "granted"
	GrantStatusDenied  GrantStatus = "denied"
	GrantStatusRevoked GrantStatus = "revoked"
)

// AccessGrant is a directed permission: the viewer reads the sharer's entries
// under the grant's filters. At most one grant per (viewer, sharer) pair may be
// outstanding at a time.
type AccessGrant struct {
	ID          string      `json:"id"`
	SharerID    string      `json:"sharer_id"`
	ViewerID    string      `json:"viewer_id"`
	Status      GrantStatus `json:"status"`
	SharedTypes []EntryType `json:"shared_types"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
	DateFrom    *time.Time  `json:"date_from,omitempty"`
	DateTo      *time.Time  `json:"date_to,omitempty"`
	MinPnL      *float64    `json:"min_pnl,omitempty"`
	Message     string      `json:"message,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// IsActiveAt reports whether the grant authorizes reads at the given instant:
// status granted and not past its expiry. Expiry is soft: the stored status
// stays "granted", readers must re-check on every read.
func (g *AccessGrant) IsActiveAt(now time.Time) bool {
	if g.Status != GrantStatusGranted {
		return false
	}
	if g.ExpiresAt != nil && !g.ExpiresAt.After(now) {
		return false
	}
	return true
}

// IsOutstanding reports whether the grant blocks a new request between the
// same pair. Denied and revoked grants do not; re-requesting is allowed.
func (g *AccessGrant) IsOutstanding() bool {
	return g.Status == GrantStatusPending || g.Status == GrantStatusGranted
}

// GrantFilters carries the optional filters attached to an access request.
type GrantFilters struct {
	SharedTypes []EntryType `json:"shared_types"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
	DateFrom    *time.Time  `json:"date_from,omitempty"`
	DateTo      *time.Time  `json:"date_to,omitempty"`
	MinPnL      *float64    `json:"min_pnl,omitempty"`
	Message     string      `json:"message,omitempty"`
}

// GrantList partitions the grants involving a user.
type GrantList struct {
	Active          []*AccessGrant `json:"active"`           // user is viewer, grant active
	IncomingPending []*AccessGrant `json:"incoming_pending"` // user is sharer, awaiting decision
	OutgoingPending []*AccessGrant `json:"outgoing_pending"` // user is viewer, awaiting sharer
}
