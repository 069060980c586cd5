package registry

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atdgo/backend/domain"
	"github.com/atdgo/backend/repository"
)

const (
	minPasswordLength = 6
	historyLimit      = 10
	resetTokenTTL     = 24 * time.Hour
)

// document is the single registry record persisted under one well-known key.
// Every mutation is a read-modify-write of the whole document and must run
// inside one repository.Atomically unit; a Get/Set pair issued as separate
// store calls can interleave with a concurrent mutation and lose its write.
type document struct {
	RegisteredMembers          []domain.Account `json:"registeredMembers"`
	MemberRegistrationPassword string           `json:"memberRegistrationPassword"`
	LastUpdated                time.Time        `json:"lastUpdated"`
}

type resetRecord struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	Expiry    time.Time `json:"expiry"`
	CreatedAt time.Time `json:"createdAt"`
}

// UseCase manages the list of registered accounts.
type UseCase struct {
	store  repository.KV
	logger *zap.Logger
}

func New(store repository.KV, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		store:  store,
		logger: logger,
	}
}

func (uc *UseCase) load(ctx context.Context, kv repository.KV) (document, error) {
	var doc document
	if _, err := repository.GetJSON(ctx, kv, repository.KeyRegisteredMembers, &doc); err != nil {
		return document{}, err
	}
	return doc, nil
}

func (uc *UseCase) save(ctx context.Context, kv repository.KV, doc document) error {
	doc.LastUpdated = time.Now()
	return repository.SetJSON(ctx, kv, repository.KeyRegisteredMembers, doc)
}

// ListAccounts returns every registered account without credential material.
func (uc *UseCase) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	doc, err := uc.load(ctx, uc.store)
	if err != nil {
		return nil, err
	}
	accounts := make([]domain.Account, 0, len(doc.RegisteredMembers))
	for i := range doc.RegisteredMembers {
		accounts = append(accounts, *doc.RegisteredMembers[i].Sanitized())
	}
	return accounts, nil
}

// Register appends a new account after validating the registration rules.
// The duplicate check and the append land in the same atomic unit so two
// near-simultaneous registrations cannot both pass the check and then
// overwrite each other's document.
func (uc *UseCase) Register(ctx context.Context, name, email, password, passwordConfirm string) (*domain.Account, error) {
	if password != passwordConfirm {
		return nil, domain.NewValidationError("passwords do not match")
	}
	if len(password) < minPasswordLength {
		return nil, domain.NewValidationError("password must be at least 6 characters")
	}
	normalized := domain.NormalizeEmail(email)
	if normalized == "" || !strings.Contains(normalized, "@") {
		return nil, domain.NewValidationError("email address is required")
	}

	// Hashing is slow; keep it off the store worker.
	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(password)), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "hash password", err)
	}

	var account domain.Account
	err = repository.Atomically(ctx, uc.store, func(kv repository.KV) error {
		doc, err := uc.load(ctx, kv)
		if err != nil {
			return err
		}
		for i := range doc.RegisteredMembers {
			m := &doc.RegisteredMembers[i]
			if m.IsActive() && domain.NormalizeEmail(m.Email) == normalized {
				return domain.NewValidationError("this email address is already registered")
			}
		}

		now := time.Now()
		account = domain.Account{
			ID:             uuid.NewString(),
			Name:           name,
			DisplayName:    name,
			Email:          normalized,
			PasswordHash:   string(hash),
			Role:           domain.RoleMember,
			Status:         domain.StatusActive,
			AvatarPosition: domain.DefaultAvatarPosition(),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		doc.RegisteredMembers = append(doc.RegisteredMembers, account)
		return uc.save(ctx, kv, doc)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("account registered", zap.String("account_id", account.ID), zap.String("email", account.Email))
	return account.Sanitized(), nil
}

// Authenticate resolves credentials against the registry. Both sides of the
// comparison are normalized first: stored records have survived several
// browsers' ideas of what a string is.
func (uc *UseCase) Authenticate(ctx context.Context, email, password string) (*domain.Account, error) {
	doc, err := uc.load(ctx, uc.store)
	if err != nil {
		return nil, err
	}
	if len(doc.RegisteredMembers) == 0 {
		return nil, domain.ErrNoAccountsRegistered
	}

	normalized := domain.NormalizeEmail(email)
	trimmed := strings.TrimSpace(password)

	for i := range doc.RegisteredMembers {
		m := &doc.RegisteredMembers[i]
		if !m.IsActive() || domain.NormalizeEmail(m.Email) != normalized {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(trimmed)) == nil {
			return m.Sanitized(), nil
		}
	}
	return nil, domain.ErrInvalidCredentials
}

// FindByID returns the latest profile for an account id.
func (uc *UseCase) FindByID(ctx context.Context, accountID string) (*domain.Account, error) {
	doc, err := uc.load(ctx, uc.store)
	if err != nil {
		return nil, err
	}
	for i := range doc.RegisteredMembers {
		if doc.RegisteredMembers[i].ID == accountID {
			return doc.RegisteredMembers[i].Sanitized(), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

// UpdateProfile merges the provided fields into the account, bumps the
// profile version and appends a history entry for later restore.
func (uc *UseCase) UpdateProfile(ctx context.Context, accountID string, update domain.ProfileUpdate) (*domain.Account, error) {
	var account *domain.Account
	err := repository.Atomically(ctx, uc.store, func(kv repository.KV) error {
		var err error
		account, err = uc.applyProfileUpdate(ctx, kv, accountID, update)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (uc *UseCase) applyProfileUpdate(ctx context.Context, kv repository.KV, accountID string, update domain.ProfileUpdate) (*domain.Account, error) {
	doc, err := uc.load(ctx, kv)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range doc.RegisteredMembers {
		if doc.RegisteredMembers[i].ID == accountID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, domain.ErrAccountNotFound
	}

	account := &doc.RegisteredMembers[idx]
	if update.DisplayName != nil && *update.DisplayName != "" {
		account.DisplayName = *update.DisplayName
		account.Name = *update.DisplayName
	}
	if update.Bio != nil {
		account.Bio = *update.Bio
	}
	if update.Avatar != nil {
		account.Avatar = *update.Avatar
	}
	if update.AvatarPosition != nil {
		account.AvatarPosition = *update.AvatarPosition
	}
	if update.Email != nil && *update.Email != "" {
		account.Email = domain.NormalizeEmail(*update.Email)
	}
	account.ProfileVersion++
	account.UpdatedAt = time.Now()

	if err := uc.save(ctx, kv, doc); err != nil {
		return nil, err
	}
	uc.appendHistory(ctx, kv, accountID, update, account.ProfileVersion)

	return account.Sanitized(), nil
}

func (uc *UseCase) appendHistory(ctx context.Context, kv repository.KV, accountID string, update domain.ProfileUpdate, version int) {
	key := repository.HistoryKey(accountID)
	var history []domain.ProfileChange
	if _, err := repository.GetJSON(ctx, kv, key, &history); err != nil {
		uc.logger.Warn("profile history read failed", zap.String("account_id", accountID), zap.Error(err))
	}

	history = append(history, domain.ProfileChange{
		Timestamp: time.Now(),
		Changes:   update,
		Version:   version,
	})
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	if err := repository.SetJSON(ctx, kv, key, history); err != nil {
		// History is a convenience; the profile update itself already landed.
		uc.logger.Warn("profile history write failed", zap.String("account_id", accountID), zap.Error(err))
	}
}

// History returns the bounded profile change list for an account.
func (uc *UseCase) History(ctx context.Context, accountID string) ([]domain.ProfileChange, error) {
	var history []domain.ProfileChange
	if _, err := repository.GetJSON(ctx, uc.store, repository.HistoryKey(accountID), &history); err != nil {
		return nil, err
	}
	return history, nil
}

// RestoreProfile replays a history entry, the latest when version is nil.
func (uc *UseCase) RestoreProfile(ctx context.Context, accountID string, version *int) (*domain.Account, error) {
	var account *domain.Account
	err := repository.Atomically(ctx, uc.store, func(kv repository.KV) error {
		var history []domain.ProfileChange
		if _, err := repository.GetJSON(ctx, kv, repository.HistoryKey(accountID), &history); err != nil {
			return err
		}
		if len(history) == 0 {
			return domain.ErrNoHistory
		}

		target := history[len(history)-1]
		if version != nil {
			found := false
			for _, entry := range history {
				if entry.Version == *version {
					target = entry
					found = true
					break
				}
			}
			if !found {
				return domain.ErrVersionNotFound
			}
		}

		var err error
		account, err = uc.applyProfileUpdate(ctx, kv, accountID, target.Changes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// RequestPasswordReset issues a reset token with a 24 hour expiry.
func (uc *UseCase) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	doc, err := uc.load(ctx, uc.store)
	if err != nil {
		return "", err
	}

	normalized := domain.NormalizeEmail(email)
	found := false
	for i := range doc.RegisteredMembers {
		if domain.NormalizeEmail(doc.RegisteredMembers[i].Email) == normalized {
			found = true
			break
		}
	}
	if !found {
		return "", domain.ErrAccountNotFound
	}

	now := time.Now()
	record := resetRecord{
		Token:     uuid.NewString(),
		Email:     normalized,
		Expiry:    now.Add(resetTokenTTL),
		CreatedAt: now,
	}
	if err := repository.SetJSON(ctx, uc.store, repository.ResetTokenKey(record.Token), record); err != nil {
		return "", err
	}
	return record.Token, nil
}

// ResetPassword validates a reset token and replaces the account credential.
// Token lookup, credential swap and token burn form one atomic unit so the
// token cannot be redeemed twice.
func (uc *UseCase) ResetPassword(ctx context.Context, token, newPassword string) error {
	key := repository.ResetTokenKey(token)
	return repository.Atomically(ctx, uc.store, func(kv repository.KV) error {
		var record resetRecord
		ok, err := repository.GetJSON(ctx, kv, key, &record)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrResetTokenInvalid
		}
		if time.Now().After(record.Expiry) {
			_ = kv.Delete(ctx, key)
			return domain.ErrResetTokenExpired
		}
		if len(newPassword) < minPasswordLength {
			return domain.NewValidationError("password must be at least 6 characters")
		}

		doc, err := uc.load(ctx, kv)
		if err != nil {
			return err
		}
		idx := -1
		for i := range doc.RegisteredMembers {
			if domain.NormalizeEmail(doc.RegisteredMembers[i].Email) == record.Email {
				idx = i
				break
			}
		}
		if idx < 0 {
			return domain.ErrAccountNotFound
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(newPassword)), bcrypt.DefaultCost)
		if err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "hash password", err)
		}
		doc.RegisteredMembers[idx].PasswordHash = string(hash)
		doc.RegisteredMembers[idx].UpdatedAt = time.Now()

		if err := uc.save(ctx, kv, doc); err != nil {
			return err
		}
		return kv.Delete(ctx, key)
	})
}
