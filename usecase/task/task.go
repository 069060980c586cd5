package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atdgo/backend/domain"
	"github.com/atdgo/backend/usecase/userdata"
)

// Filter narrows task listings.
type Filter struct {
	Status   string
	ViewMode string
}

// UseCase provides task CRUD over the owning account's bundle. Tasks have no
// storage of their own; every mutation is a load-modify-save of the bundle,
// which also keeps the backup ring rolling.
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

// List returns the account's tasks, optionally filtered.
func (uc *UseCase) List(ctx context.Context, accountID string, filter Filter) ([]domain.Task, error) {
	bundle, err := uc.data.Load(ctx, accountID)
	if err != nil {
		return nil, err
	}

	var source []domain.Task
	switch filter.ViewMode {
	case domain.ViewModeTeam:
		source = bundle.TeamTasks
	case domain.ViewModePersonal:
		source = bundle.PersonalTasks
	default:
		source = bundle.Tasks()
	}

	if filter.Status == "" {
		return source, nil
	}
	var out []domain.Task
	for _, t := range source {
		if t.Status == filter.Status {
			out = append(out, t)
		}
	}
	return out, nil
}

// Get returns one task by id.
func (uc *UseCase) Get(ctx context.Context, accountID, taskID string) (*domain.Task, error) {
	bundle, err := uc.data.Load(ctx, accountID)
	if err != nil {
		return nil, err
	}
	for _, t := range bundle.Tasks() {
		if t.ID == taskID {
			return &t, nil
		}
	}
	return nil, domain.ErrTaskNotFound
}

// Create adds a task to the account's bundle. The owner id is always the
// authenticated account, regardless of what the payload claims. The whole
// load-append-save runs as one unit so concurrent creates cannot drop each
// other's task.
func (uc *UseCase) Create(ctx context.Context, accountID string, t *domain.Task) (*domain.Task, error) {
	if t == nil || t.Title == "" {
		return nil, domain.ErrInvalidPayload
	}

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.UserID = accountID
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Normalize()

	_, err := uc.data.Update(ctx, accountID, func(bundle *domain.Bundle) error {
		if t.ViewMode == domain.ViewModeTeam {
			bundle.TeamTasks = append(bundle.TeamTasks, *t)
		} else {
			t.ViewMode = domain.ViewModePersonal
			bundle.PersonalTasks = append(bundle.PersonalTasks, *t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Update replaces a task's mutable fields in place.
func (uc *UseCase) Update(ctx context.Context, accountID string, t *domain.Task) (*domain.Task, error) {
	if t == nil || t.ID == "" {
		return nil, domain.ErrInvalidPayload
	}

	_, err := uc.data.Update(ctx, accountID, func(bundle *domain.Bundle) error {
		updated := false
		apply := func(tasks []domain.Task) {
			for i := range tasks {
				if tasks[i].ID != t.ID {
					continue
				}
				createdAt := tasks[i].CreatedAt
				tasks[i] = *t
				tasks[i].UserID = accountID
				tasks[i].CreatedAt = createdAt
				tasks[i].UpdatedAt = time.Now()
				tasks[i].Normalize()
				*t = tasks[i]
				updated = true
				return
			}
		}
		apply(bundle.PersonalTasks)
		if !updated {
			apply(bundle.TeamTasks)
		}
		if !updated {
			return domain.ErrTaskNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a task from whichever list holds it.
func (uc *UseCase) Delete(ctx context.Context, accountID, taskID string) error {
	_, err := uc.data.Update(ctx, accountID, func(bundle *domain.Bundle) error {
		removed := false
		strip := func(tasks []domain.Task) []domain.Task {
			out := tasks[:0]
			for _, t := range tasks {
				if t.ID == taskID {
					removed = true
					continue
				}
				out = append(out, t)
			}
			return out
		}
		bundle.PersonalTasks = strip(bundle.PersonalTasks)
		bundle.TeamTasks = strip(bundle.TeamTasks)

		if !removed {
			return domain.ErrTaskNotFound
		}
		return nil
	})
	return err
}
