// Package grants resolves and mutates access grants: who may read whose
// entries, under which filters, until when.
package grants

import "errors"

// Validation failures are typed so callers can render a precise message and
// never retry automatically.
var (
	ErrSelfTarget     = errors.New("cannot request access to your own entries")
	ErrUnknownUser    = errors.New("target user not found")
	ErrDuplicateGrant = errors.New("a grant between these users is already outstanding")
	ErrNotSharer      = errors.New("only the sharer may change this grant")
	ErrNotPending     = errors.New("grant is not pending")
	ErrNotGranted     = errors.New("grant is not granted")
	ErrNoSharedTypes  = errors.New("at least one shared entry type is required")
)
