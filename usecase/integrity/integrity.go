package integrity

import (
	"context"

	"go.uber.org/zap"

	"github.com/atdgo/backend/domain"
	"github.com/atdgo/backend/usecase/userdata"
)

// UseCase detects and repairs cross-account task contamination. With key
// derivation centralized the repair path should stay idle; it remains the
// safety net for state written by earlier generations of the application.
type UseCase struct {
	data   *userdata.UseCase
	logger *zap.Logger
}

func New(data *userdata.UseCase, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		data:   data,
		logger: logger,
	}
}

// Scan returns every task in the account's bundle owned by someone else.
func (uc *UseCase) Scan(ctx context.Context, accountID string) ([]domain.Task, error) {
	bundle, err := uc.data.Load(ctx, accountID)
	if err != nil {
		return nil, err
	}

	var violations []domain.Task
	for _, task := range bundle.Tasks() {
		if task.UserID != accountID {
			violations = append(violations, task)
		}
	}
	return violations, nil
}

// Repair filters foreign tasks out of the bundle and writes it back only when
// something was actually removed, so clean state causes no extra writes or
// backups. Returns the repaired bundle and the number of purged tasks.
func (uc *UseCase) Repair(ctx context.Context, accountID string) (*domain.Bundle, int, error) {
	purged := 0
	bundle, err := uc.data.Update(ctx, accountID, func(bundle *domain.Bundle) error {
		before := len(bundle.PersonalTasks) + len(bundle.TeamTasks)
		bundle.PersonalTasks = owned(bundle.PersonalTasks, accountID)
		bundle.TeamTasks = owned(bundle.TeamTasks, accountID)
		purged = before - len(bundle.PersonalTasks) - len(bundle.TeamTasks)

		if purged == 0 {
			return userdata.ErrUnchanged
		}
		uc.logger.Warn("cross-account tasks purged",
			zap.String("account_id", accountID),
			zap.Int("purged", purged))
		return nil
	})
	if err != nil {
		return nil, purged, err
	}
	return bundle, purged, nil
}

func owned(tasks []domain.Task, accountID string) []domain.Task {
	out := tasks[:0]
	for _, t := range tasks {
		if t.UserID == accountID {
			out = append(out, t)
		}
	}
	return out
}
