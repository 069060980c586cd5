package session

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atdgo/backend/domain"
	"github.com/atdgo/backend/repository"
)

// DefaultFreshness is the soft-expiry window for restoring a session without
// credentials. This is a convenience policy, not a security boundary.
const DefaultFreshness = 3 * 24 * time.Hour

// AccountDirectory is the slice of the identity registry the session manager
// needs.
type AccountDirectory interface {
	Authenticate(ctx context.Context, email, password string) (*domain.Account, error)
	FindByID(ctx context.Context, accountID string) (*domain.Account, error)
}

// JobCanceler drains an account's scheduled background work. Logout must not
// leave a stale job mutating the next account's state.
type JobCanceler interface {
	CancelAccount(accountID string)
}

// UseCase establishes which account is active and persists that fact durably
// enough to survive a restart.
type UseCase struct {
	store     repository.KV
	directory AccountDirectory
	jobs      JobCanceler
	freshness time.Duration
	logger    *zap.Logger
}

func New(store repository.KV, directory AccountDirectory, jobs JobCanceler, freshness time.Duration, logger *zap.Logger) *UseCase {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		store:     store,
		directory: directory,
		jobs:      jobs,
		freshness: freshness,
		logger:    logger,
	}
}

// Login verifies credentials and records the new session under the account's
// own key family plus the global last-logged-in pointer.
func (uc *UseCase) Login(ctx context.Context, email, password string) (*domain.Account, *domain.Session, error) {
	account, err := uc.directory.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	sess := &domain.Session{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		LoginTime: now,
	}

	// The four session records are written as one unit so Restore never sees
	// a half-written login.
	err = repository.Atomically(ctx, uc.store, func(kv repository.KV) error {
		if err := repository.SetJSON(ctx, kv, repository.CurrentUserKey(account.ID), account); err != nil {
			return err
		}
		if err := kv.Set(ctx, repository.LastLoginKey(account.ID), []byte(strconv.FormatInt(now.UnixMilli(), 10))); err != nil {
			return domain.WrapError(domain.ErrCodeStorage, domain.ErrStorageWriteFailed.Message, err)
		}
		if err := kv.Set(ctx, repository.SessionKey(account.ID), []byte(sess.ID)); err != nil {
			return domain.WrapError(domain.ErrCodeStorage, domain.ErrStorageWriteFailed.Message, err)
		}
		if err := kv.Set(ctx, repository.KeyLastLoggedIn, []byte(account.ID)); err != nil {
			return domain.WrapError(domain.ErrCodeStorage, domain.ErrStorageWriteFailed.Message, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	uc.logger.Info("login", zap.String("account_id", account.ID), zap.String("session_id", sess.ID))
	return account, sess, nil
}

type candidate struct {
	account   domain.Account
	lastLogin time.Time
	sessionID string
}

// Restore enumerates every per-account session record on this device and
// picks the most recently logged-in one. More than one account may have
// logged in here; the newest wins, and only within the freshness window.
// Returns (nil, nil, nil) when no session qualifies.
func (uc *UseCase) Restore(ctx context.Context) (*domain.Account, *domain.Session, error) {
	keys, err := uc.store.Keys(ctx, repository.CurrentUserPrefix)
	if err != nil {
		return nil, nil, err
	}

	var best *candidate
	for _, key := range keys {
		accountID := repository.AccountIDFromCurrentUserKey(key)
		if accountID == "" {
			continue
		}

		var account domain.Account
		ok, err := repository.GetJSON(ctx, uc.store, key, &account)
		if err != nil || !ok || account.ID == "" {
			continue
		}

		raw, err := uc.store.Get(ctx, repository.LastLoginKey(accountID))
		if err != nil || len(raw) == 0 {
			continue
		}
		millis, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			continue
		}

		c := candidate{
			account:   account,
			lastLogin: time.UnixMilli(millis),
		}
		if sid, err := uc.store.Get(ctx, repository.SessionKey(accountID)); err == nil {
			c.sessionID = string(sid)
		}

		if best == nil || c.lastLogin.After(best.lastLogin) {
			best = &c
		}
	}

	if best == nil {
		return nil, nil, nil
	}

	sess := &domain.Session{
		ID:        best.sessionID,
		AccountID: best.account.ID,
		LoginTime: best.lastLogin,
	}
	if !sess.FreshWithin(uc.freshness, time.Now()) {
		uc.logger.Info("stale session ignored",
			zap.String("account_id", best.account.ID),
			zap.Time("last_login", best.lastLogin))
		return nil, nil, nil
	}

	account := uc.enrich(ctx, &best.account)
	uc.logger.Info("session restored", zap.String("account_id", account.ID))
	return account, sess, nil
}

// enrich merges the latest registry profile over the login-time snapshot so a
// restored session reflects profile edits made since.
func (uc *UseCase) enrich(ctx context.Context, snapshot *domain.Account) *domain.Account {
	latest, err := uc.directory.FindByID(ctx, snapshot.ID)
	if err != nil {
		return snapshot
	}
	merged := *snapshot
	merged.DisplayName = latest.Label()
	merged.Bio = latest.Bio
	merged.Avatar = latest.Avatar
	merged.AvatarPosition = latest.AvatarPosition
	merged.Email = latest.Email
	merged.ProfileVersion = latest.ProfileVersion
	return &merged
}

// Logout removes the account's session and cached data keys. Other accounts'
// records are deliberately untouched; the global pointer is cleared only when
// it points at this account.
func (uc *UseCase) Logout(ctx context.Context, accountID string) error {
	if uc.jobs != nil {
		uc.jobs.CancelAccount(accountID)
	}

	err := repository.Atomically(ctx, uc.store, func(kv repository.KV) error {
		for _, key := range []string{
			repository.CurrentUserKey(accountID),
			repository.LastLoginKey(accountID),
			repository.SessionKey(accountID),
			repository.BundleKey(accountID),
		} {
			if err := kv.Delete(ctx, key); err != nil {
				return err
			}
		}

		// Check-and-clear of the global pointer must not race a concurrent
		// login by another account.
		pointer, err := kv.Get(ctx, repository.KeyLastLoggedIn)
		if err == nil && string(pointer) == accountID {
			return kv.Delete(ctx, repository.KeyLastLoggedIn)
		}
		return nil
	})
	if err != nil {
		return err
	}

	uc.logger.Info("logout", zap.String("account_id", accountID))
	return nil
}
