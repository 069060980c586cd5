package domain

import "time"

// Session records which account is active on this device.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	LoginTime time.Time `json:"loginTime"`
}

// FreshWithin reports whether the session's login is recent enough to be
// restored without asking for credentials again.
func (s *Session) FreshWithin(window time.Duration, reference time.Time) bool {
	if s == nil || s.LoginTime.IsZero() {
		return false
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return reference.Sub(s.LoginTime) < window
}
