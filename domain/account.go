package domain

import (
	"strings"
	"time"
)

// AvatarPosition describes how an avatar image is framed, in percentages.
type AvatarPosition struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// DefaultAvatarPosition centers the avatar at natural size.
func DefaultAvatarPosition() AvatarPosition {
	return AvatarPosition{X: 50, Y: 50, Scale: 100}
}

// Account represents a registered identity.
type Account struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	DisplayName    string         `json:"displayName,omitempty"`
	Email          string         `json:"email"`
	PasswordHash   string         `json:"passwordHash,omitempty"`
	Role           string         `json:"role"`
	Status         string         `json:"status"`
	Bio            string         `json:"bio,omitempty"`
	Avatar         string         `json:"avatar,omitempty"`
	AvatarPosition AvatarPosition `json:"avatarPosition"`
	ProfileVersion int            `json:"profileVersion"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

const (
	RoleMember = "member"
	RoleAdmin  = "admin"

	StatusActive   = "active"
	StatusInactive = "inactive"
)

func (a *Account) IsActive() bool {
	return a != nil && a.Status == StatusActive
}

// Label returns the name shown in UI contexts, preferring the display name.
func (a *Account) Label() string {
	if a == nil {
		return ""
	}
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Name
}

// Sanitized returns a copy safe to hand to clients or persist in session
// snapshots: the credential hash never leaves the registry document.
func (a *Account) Sanitized() *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.PasswordHash = ""
	return &out
}

// NormalizeEmail folds incidental whitespace and case drift so lookups match
// regardless of how the address was typed.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ProfileUpdate carries the fields a profile edit may change. Nil pointers
// keep the previous value.
type ProfileUpdate struct {
	DisplayName    *string         `json:"displayName,omitempty"`
	Bio            *string         `json:"bio,omitempty"`
	Avatar         *string         `json:"avatar,omitempty"`
	AvatarPosition *AvatarPosition `json:"avatarPosition,omitempty"`
	Email          *string         `json:"email,omitempty"`
}

// ProfileChange is one entry of the bounded per-account edit history.
type ProfileChange struct {
	Timestamp time.Time     `json:"timestamp"`
	Changes   ProfileUpdate `json:"changes"`
	Version   int           `json:"version"`
}
