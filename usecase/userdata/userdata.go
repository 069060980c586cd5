package userdata

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/atdgo/backend/domain"
	"github.com/atdgo/backend/repository"
)

// ExportVersion tags exported documents.
const ExportVersion = "1.0.0"

const defaultBackupKeep = 5

// UseCase persists one account's full state and maintains its backup ring.
type UseCase struct {
	store  repository.KV
	keep   int
	logger *zap.Logger
}

func New(store repository.KV, backupKeep int, logger *zap.Logger) *UseCase {
	if backupKeep <= 0 {
		backupKeep = defaultBackupKeep
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		store:  store,
		keep:   backupKeep,
		logger: logger,
	}
}

// Load reads the account's bundle. A missing bundle yields a fresh empty one
// which is persisted immediately so subsequent loads are stable.
func (uc *UseCase) Load(ctx context.Context, accountID string) (*domain.Bundle, error) {
	var bundle domain.Bundle
	ok, err := repository.GetJSON(ctx, uc.store, repository.BundleKey(accountID), &bundle)
	if err != nil {
		return nil, err
	}
	if ok {
		bundle.Coerce()
		return &bundle, nil
	}

	fresh := domain.NewBundle(nil)
	if err := uc.Save(ctx, accountID, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// Save validates the bundle, writes it and records a backup snapshot, then
// trims the ring to the most recent snapshots. Bundle write, snapshot and trim
// run as one atomic unit so the ring cannot be over- or under-trimmed by a
// concurrent save.
func (uc *UseCase) Save(ctx context.Context, accountID string, bundle *domain.Bundle) error {
	if bundle == nil {
		return domain.ErrInvalidPayload
	}
	return repository.Atomically(ctx, uc.store, func(kv repository.KV) error {
		return uc.write(ctx, kv, accountID, bundle)
	})
}

func (uc *UseCase) write(ctx context.Context, kv repository.KV, accountID string, bundle *domain.Bundle) error {
	bundle.Coerce()
	uc.sanitize(bundle)
	bundle.LastSaved = time.Now()
	if bundle.Version == "" {
		bundle.Version = domain.BundleVersion
	}

	if err := repository.SetJSON(ctx, kv, repository.BundleKey(accountID), bundle); err != nil {
		return err
	}

	backupKey := repository.BackupKey(accountID, time.Now().UnixNano())
	if err := repository.SetJSON(ctx, kv, backupKey, bundle); err != nil {
		// The main write already landed; a failed snapshot does not undo it.
		uc.logger.Warn("backup snapshot failed", zap.String("account_id", accountID), zap.Error(err))
		return nil
	}
	uc.trimBackups(ctx, kv, accountID)
	return nil
}

// ErrUnchanged signals from an Update mutator that the bundle should be left
// as stored, with no write and no snapshot.
var ErrUnchanged = errors.New("bundle unchanged")

// Update runs a load-mutate-save sequence against the account's bundle as one
// atomic unit. mutate may return ErrUnchanged to skip the save; any other
// error aborts the update and is returned as-is.
func (uc *UseCase) Update(ctx context.Context, accountID string, mutate func(*domain.Bundle) error) (*domain.Bundle, error) {
	var out *domain.Bundle
	err := repository.Atomically(ctx, uc.store, func(kv repository.KV) error {
		var bundle domain.Bundle
		ok, err := repository.GetJSON(ctx, kv, repository.BundleKey(accountID), &bundle)
		if err != nil {
			return err
		}
		if !ok {
			bundle = *domain.NewBundle(nil)
		}
		bundle.Coerce()

		if err := mutate(&bundle); err != nil {
			if err == ErrUnchanged {
				out = &bundle
				return nil
			}
			return err
		}
		if err := uc.write(ctx, kv, accountID, &bundle); err != nil {
			return err
		}
		out = &bundle
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// sanitize drops records too damaged to keep and fills defaults, mirroring
// what years of hand-edited browser state taught the original.
func (uc *UseCase) sanitize(bundle *domain.Bundle) {
	seen := make(map[string]struct{})
	clean := func(tasks []domain.Task) []domain.Task {
		out := tasks[:0]
		for i := range tasks {
			t := tasks[i]
			if !t.Valid() {
				continue
			}
			if _, dup := seen[t.ID]; dup {
				continue
			}
			seen[t.ID] = struct{}{}
			t.Normalize()
			out = append(out, t)
		}
		return out
	}
	bundle.PersonalTasks = clean(bundle.PersonalTasks)
	bundle.TeamTasks = clean(bundle.TeamTasks)

	members := bundle.TeamMembers[:0]
	for _, m := range bundle.TeamMembers {
		if m.ID != "" && m.Name != "" {
			members = append(members, m)
		}
	}
	bundle.TeamMembers = members
}

func (uc *UseCase) trimBackups(ctx context.Context, kv repository.KV, accountID string) {
	keys, err := kv.Keys(ctx, repository.BackupPrefix(accountID))
	if err != nil {
		uc.logger.Warn("backup enumeration failed", zap.String("account_id", accountID), zap.Error(err))
		return
	}
	if len(keys) <= uc.keep {
		return
	}
	// Keys embed timestamps, so lexicographic order is chronological.
	sort.Strings(keys)
	for _, key := range keys[:len(keys)-uc.keep] {
		if err := kv.Delete(ctx, key); err != nil {
			uc.logger.Warn("backup eviction failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// Backups lists the account's snapshot keys, oldest first.
func (uc *UseCase) Backups(ctx context.Context, accountID string) ([]string, error) {
	keys, err := uc.store.Keys(ctx, repository.BackupPrefix(accountID))
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// RestoreFromBackup returns the newest snapshot, or nil when none exist.
func (uc *UseCase) RestoreFromBackup(ctx context.Context, accountID string) (*domain.Bundle, error) {
	keys, err := uc.Backups(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	var bundle domain.Bundle
	ok, err := repository.GetJSON(ctx, uc.store, keys[len(keys)-1], &bundle)
	if err != nil || !ok {
		return nil, err
	}
	bundle.Coerce()
	return &bundle, nil
}

// exportDocument is the interchange format for export/import.
type exportDocument struct {
	PersonalTasks []domain.Task       `json:"personalTasks"`
	TeamTasks     []domain.Task       `json:"teamTasks"`
	TeamMembers   []domain.TeamMember `json:"teamMembers"`
	CurrentTeam   string              `json:"currentTeam,omitempty"`
	Tasks         []domain.Task       `json:"tasks"`
	ExportDate    time.Time           `json:"exportDate"`
	Version       string              `json:"version"`
}

// Export renders a bundle as a pretty-printed interchange document.
func (uc *UseCase) Export(bundle *domain.Bundle) (string, error) {
	if bundle == nil {
		return "", domain.ErrInvalidPayload
	}
	bundle.Coerce()
	doc := exportDocument{
		PersonalTasks: bundle.PersonalTasks,
		TeamTasks:     bundle.TeamTasks,
		TeamMembers:   bundle.TeamMembers,
		CurrentTeam:   bundle.CurrentTeam,
		Tasks:         bundle.PersonalTasks,
		ExportDate:    time.Now(),
		Version:       ExportVersion,
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "encode export", err)
	}
	return string(raw), nil
}

// Import parses an interchange document back into a bundle. Documents without
// an array-typed tasks field are rejected.
func (uc *UseCase) Import(jsonText string) (*domain.Bundle, error) {
	var peek struct {
		Tasks json.RawMessage `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(jsonText), &peek); err != nil {
		return nil, domain.ErrInvalidFormat
	}
	var tasks []domain.Task
	if len(peek.Tasks) == 0 || json.Unmarshal(peek.Tasks, &tasks) != nil {
		return nil, domain.ErrInvalidFormat
	}

	var doc exportDocument
	if err := json.Unmarshal([]byte(jsonText), &doc); err != nil {
		return nil, domain.ErrInvalidFormat
	}

	bundle := &domain.Bundle{
		PersonalTasks: doc.PersonalTasks,
		TeamTasks:     doc.TeamTasks,
		TeamMembers:   doc.TeamMembers,
		CurrentTeam:   doc.CurrentTeam,
		UserData:      domain.DefaultPreferences(),
		Version:       domain.BundleVersion,
	}
	if len(bundle.PersonalTasks) == 0 {
		bundle.PersonalTasks = tasks
	}
	bundle.Coerce()
	return bundle, nil
}
