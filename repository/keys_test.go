package repository

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackupKeyOrderMatchesTime(t *testing.T) {
	keys := []string{
		BackupKey("acc", 1700000000000000000),
		BackupKey("acc", 900000000000000000),
		BackupKey("acc", 1500000000000000000),
	}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	assert.Equal(t, []string{keys[1], keys[2], keys[0]}, sorted)
}

func TestBackupPrefixScopesToAccount(t *testing.T) {
	key := BackupKey("alice", 42)
	assert.Contains(t, key, BackupPrefix("alice"))
	assert.NotContains(t, key, BackupPrefix("alice2"))
}

func TestAccountIDFromCurrentUserKey(t *testing.T) {
	assert.Equal(t, "abc-123", AccountIDFromCurrentUserKey(CurrentUserKey("abc-123")))
	assert.Equal(t, "", AccountIDFromCurrentUserKey("session_abc"))
	assert.Equal(t, "", AccountIDFromCurrentUserKey("current_user_"))
}
