package session

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atdgo/backend/domain"
	"github.com/atdgo/backend/repository"
	"github.com/atdgo/backend/repository/memory"
	registryUC "github.com/atdgo/backend/usecase/registry"
)

type fakeJobs struct {
	cancelled []string
}

func (f *fakeJobs) CancelAccount(accountID string) {
	f.cancelled = append(f.cancelled, accountID)
}

type harness struct {
	store    *memory.Store
	registry *registryUC.UseCase
	sessions *UseCase
	jobs     *fakeJobs
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.New()
	reg := registryUC.New(store, nil)
	jobs := &fakeJobs{}
	return &harness{
		store:    store,
		registry: reg,
		sessions: New(store, reg, jobs, DefaultFreshness, nil),
		jobs:     jobs,
	}
}

func (h *harness) register(t *testing.T, name, email string) *domain.Account {
	t.Helper()
	account, err := h.registry.Register(context.Background(), name, email, "secret1", "secret1")
	require.NoError(t, err)
	return account
}

// setLastLogin overwrites the recorded login time so freshness can be tested
// without a clock abstraction.
func (h *harness) setLastLogin(t *testing.T, accountID string, at time.Time) {
	t.Helper()
	err := h.store.Set(context.Background(),
		repository.LastLoginKey(accountID),
		[]byte(strconv.FormatInt(at.UnixMilli(), 10)))
	require.NoError(t, err)
}

func TestLoginWritesSessionKeys(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	account := h.register(t, "Alice", "alice@example.com")

	got, sess, err := h.sessions.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, account.ID, sess.AccountID)

	pointer, err := h.store.Get(ctx, repository.KeyLastLoggedIn)
	require.NoError(t, err)
	assert.Equal(t, account.ID, string(pointer))

	sid, err := h.store.Get(ctx, repository.SessionKey(account.ID))
	require.NoError(t, err)
	assert.Equal(t, sess.ID, string(sid))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newHarness(t)
	h.register(t, "Alice", "alice@example.com")

	_, _, err := h.sessions.Login(context.Background(), "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRestoreReturnsFreshSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	account := h.register(t, "Alice", "alice@example.com")

	_, _, err := h.sessions.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	// Just inside the three day window.
	h.setLastLogin(t, account.ID, time.Now().Add(-(DefaultFreshness - time.Hour)))

	got, sess, err := h.sessions.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, account.ID, got.ID)
	assert.Equal(t, account.ID, sess.AccountID)
}

func TestRestoreIgnoresStaleSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	account := h.register(t, "Alice", "alice@example.com")

	_, _, err := h.sessions.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	h.setLastLogin(t, account.ID, time.Now().Add(-(DefaultFreshness + time.Hour)))

	got, sess, err := h.sessions.Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Nil(t, sess)
}

func TestRestoreEmptyDevice(t *testing.T) {
	h := newHarness(t)

	got, sess, err := h.sessions.Restore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Nil(t, sess)
}

func TestRestorePicksMostRecentOfSeveral(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.register(t, "Alice", "alice@example.com")
	bob := h.register(t, "Bob", "bob@example.com")

	_, _, err := h.sessions.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	_, _, err = h.sessions.Login(ctx, "bob@example.com", "secret1")
	require.NoError(t, err)

	h.setLastLogin(t, alice.ID, time.Now().Add(-2*time.Hour))
	h.setLastLogin(t, bob.ID, time.Now().Add(-time.Hour))

	got, _, err := h.sessions.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, bob.ID, got.ID)
}

func TestRestoreReflectsProfileEdits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	account := h.register(t, "Alice", "alice@example.com")

	_, _, err := h.sessions.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	bio := "updated after login"
	_, err = h.registry.UpdateProfile(ctx, account.ID, domain.ProfileUpdate{Bio: &bio})
	require.NoError(t, err)

	got, _, err := h.sessions.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "updated after login", got.Bio)
}

func TestRestoreSkipsCorruptRecords(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	account := h.register(t, "Alice", "alice@example.com")

	_, _, err := h.sessions.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	// A second, damaged record must not break restore for everyone.
	require.NoError(t, h.store.Set(ctx, repository.CurrentUserKey("ghost"), []byte("{not json")))

	got, _, err := h.sessions.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, account.ID, got.ID)
}

func TestLogoutRemovesOnlyOwnKeys(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.register(t, "Alice", "alice@example.com")
	bob := h.register(t, "Bob", "bob@example.com")

	_, _, err := h.sessions.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	_, _, err = h.sessions.Login(ctx, "bob@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, h.sessions.Logout(ctx, alice.ID))

	gone, err := h.store.Get(ctx, repository.CurrentUserKey(alice.ID))
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := h.store.Get(ctx, repository.CurrentUserKey(bob.ID))
	require.NoError(t, err)
	assert.NotNil(t, kept)

	assert.Equal(t, []string{alice.ID}, h.jobs.cancelled)
}

func TestLogoutClearsPointerOnlyWhenOwn(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.register(t, "Alice", "alice@example.com")
	bob := h.register(t, "Bob", "bob@example.com")

	_, _, err := h.sessions.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	_, _, err = h.sessions.Login(ctx, "bob@example.com", "secret1")
	require.NoError(t, err)

	// Bob logged in last, so the pointer names him. Alice's logout must not
	// clear it.
	require.NoError(t, h.sessions.Logout(ctx, alice.ID))
	pointer, err := h.store.Get(ctx, repository.KeyLastLoggedIn)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, string(pointer))

	require.NoError(t, h.sessions.Logout(ctx, bob.ID))
	pointer, err = h.store.Get(ctx, repository.KeyLastLoggedIn)
	require.NoError(t, err)
	assert.Nil(t, pointer)
}
