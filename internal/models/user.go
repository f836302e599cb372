package models

import "time"

// UserProfile is a registered user account in the remote store. The
// password hash must round-trip through storage, so it carries a real
// serialization tag; API responses go out as Account or Summary views.
type UserProfile struct {
	ID           string    `json:"id"`
	Handle       string    `json:"handle"`
	DisplayName  string    `json:"display_name"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Account returns the owner-facing view of a profile, without credentials.
func (u *UserProfile) Account() *AccountProfile {
	return &AccountProfile{
		ID:          u.ID,
		Handle:      u.Handle,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// AccountProfile is the profile as returned to its owner.
type AccountProfile struct {
	ID          string    `json:"id"`
	Handle      string    `json:"handle"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Summary returns the shareable subset of a profile.
func (u *UserProfile) Summary() *ProfileSummary {
	return &ProfileSummary{
		ID:          u.ID,
		Handle:      u.Handle,
		DisplayName: u.DisplayName,
	}
}

// ProfileSummary is the subset of a profile attached to shared entries.
type ProfileSummary struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
}
