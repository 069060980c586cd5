package domain

import "time"

// BundleVersion tags persisted envelopes so future migrations can tell
// generations apart.
const BundleVersion = "2.8.5"

// TeamMember is the lightweight member record kept inside a bundle.
type TeamMember struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Preferences holds per-account UI settings.
type Preferences struct {
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
	Language      string `json:"language"`
}

// DefaultPreferences mirrors what a freshly initialized account gets.
func DefaultPreferences() Preferences {
	return Preferences{Theme: "light", Notifications: true, Language: "ja"}
}

// Bundle is the persisted envelope for one account's full state. It is owned
// exclusively by that account and is never read or written under another
// account's id.
type Bundle struct {
	PersonalTasks []Task       `json:"personalTasks"`
	TeamTasks     []Task       `json:"teamTasks"`
	TeamMembers   []TeamMember `json:"teamMembers"`
	UserData      Preferences  `json:"userData"`
	CurrentUser   *Account     `json:"currentUser,omitempty"`
	CurrentTeam   string       `json:"currentTeam,omitempty"`
	LastSaved     time.Time    `json:"lastSaved"`
	Version       string       `json:"version"`
}

// NewBundle returns the empty state a first login starts from.
func NewBundle(owner *Account) *Bundle {
	return &Bundle{
		PersonalTasks: []Task{},
		TeamTasks:     []Task{},
		TeamMembers:   []TeamMember{},
		UserData:      DefaultPreferences(),
		CurrentUser:   owner.Sanitized(),
		Version:       BundleVersion,
	}
}

// Coerce replaces nil collections with empty ones so a malformed envelope
// never corrupts a write.
func (b *Bundle) Coerce() {
	if b == nil {
		return
	}
	if b.PersonalTasks == nil {
		b.PersonalTasks = []Task{}
	}
	if b.TeamTasks == nil {
		b.TeamTasks = []Task{}
	}
	if b.TeamMembers == nil {
		b.TeamMembers = []TeamMember{}
	}
}

// Tasks returns both task lists as a single slice for scanning.
func (b *Bundle) Tasks() []Task {
	if b == nil {
		return nil
	}
	out := make([]Task, 0, len(b.PersonalTasks)+len(b.TeamTasks))
	out = append(out, b.PersonalTasks...)
	out = append(out, b.TeamTasks...)
	return out
}
