package models

import (
	"fmt"
	"strings"
	"time"
)

// Identity is the profile of the authenticated user.
type Identity struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	ProfilePicture *string    `json:"profilePicture,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
}

// Validate checks the fields every API response must carry.
func (i Identity) Validate() error {
	if i.ID <= 0 {
		return fmt.Errorf("identity id must be positive")
	}
	if strings.TrimSpace(i.Email) == "" {
		return fmt.Errorf("identity email is required")
	}
	return nil
}

// Clone returns a copy of i that shares no memory with it.
func (i Identity) Clone() *Identity {
	out := i
	if i.ProfilePicture != nil {
		picture := *i.ProfilePicture
		out.ProfilePicture = &picture
	}
	if i.CreatedAt != nil {
		createdAt := *i.CreatedAt
		out.CreatedAt = &createdAt
	}
	return &out
}

// DisplayName returns Name, falling back to the email's local part.
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	local, _, _ := strings.Cut(i.Email, "@")
	return local
}

// AuthResult is returned by login and registration.
type AuthResult struct {
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	User      Identity   `json:"user"`
}

// ProfilePatch carries the editable profile fields; nil fields are left unchanged.
type ProfilePatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ProfilePatch) Empty() bool {
	return p.Name == nil && p.Email == nil
}

// Validate rejects blank values for fields that are being changed.
func (p ProfilePatch) Validate() error {
	if p.Empty() {
		return fmt.Errorf("nothing to update")
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("name must not be blank")
	}
	if p.Email != nil && !strings.Contains(*p.Email, "@") {
		return fmt.Errorf("email %q is not valid", *p.Email)
	}
	return nil
}

// Profile is another user's public profile.
type Profile struct {
	Identity
	Followers   int  `json:"followers"`
	Following   int  `json:"following"`
	IsFollowing bool `json:"isFollowing"`
}

// Follow is one edge of the follow graph as seen from the current user.
type Follow struct {
	UserID         int64     `json:"userId"`
	Name           string    `json:"name"`
	ProfilePicture *string   `json:"profilePicture,omitempty"`
	Since          time.Time `json:"since"`
}
