package repository

import "fmt"

// Every persisted key is derived here and nowhere else. Keeping the scheme in
// one place makes cross-account leakage impossible by construction instead of
// something an auditor patches after the fact.

const (
	// KeyRegisteredMembers holds the single registry document.
	KeyRegisteredMembers = "registered_members"
	// KeyLastLoggedIn is the global pointer to the most recent account id.
	KeyLastLoggedIn = "last_logged_in_user_id"

	prefixCurrentUser = "current_user_"
	prefixLastLogin   = "last_login_"
	prefixSession     = "session_"
	prefixBundle      = "user_"
	prefixBackup      = "backup_"
	prefixHistory     = "profile_history_"
	prefixReset       = "password_reset_"
)

// CurrentUserPrefix is enumerated by session restore.
const CurrentUserPrefix = prefixCurrentUser

func CurrentUserKey(accountID string) string { return prefixCurrentUser + accountID }
func LastLoginKey(accountID string) string   { return prefixLastLogin + accountID }
func SessionKey(accountID string) string     { return prefixSession + accountID }
func BundleKey(accountID string) string      { return prefixBundle + accountID }
func HistoryKey(accountID string) string     { return prefixHistory + accountID }
func ResetTokenKey(token string) string      { return prefixReset + token }

// BackupKey embeds a zero-padded timestamp so lexicographic order of snapshot
// keys matches chronological order.
func BackupKey(accountID string, ts int64) string {
	return fmt.Sprintf("%s%s_%020d", prefixBackup, accountID, ts)
}

// BackupPrefix enumerates one account's snapshots.
func BackupPrefix(accountID string) string {
	return prefixBackup + accountID + "_"
}

// AccountIDFromCurrentUserKey recovers the account id a current-user key was
// derived from. Returns "" for keys outside the family.
func AccountIDFromCurrentUserKey(key string) string {
	if len(key) <= len(prefixCurrentUser) || key[:len(prefixCurrentUser)] != prefixCurrentUser {
		return ""
	}
	return key[len(prefixCurrentUser):]
}
