package models

// OwnSourceID identifies the user's own entries in aggregated views.
const OwnSourceID = "own"

// DataSource is a derived, non-persisted stream of entries: either the user's
// own entries or one source per active grant where the user is viewer. The
// visibility flag is a local preference; toggling it never touches the grant.
type DataSource struct {
	ID         string          `json:"id"` // OwnSourceID or the grant id
	Label      string          `json:"label"`
	GrantID    string          `json:"grant_id,omitempty"`
	Sharer     *ProfileSummary `json:"sharer,omitempty"`
	Visible    bool            `json:"visible"`
	EntryCount int             `json:"entry_count,omitempty"`
}
