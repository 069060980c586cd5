package task

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atdgo/backend/domain"
	"github.com/atdgo/backend/repository"
	"github.com/atdgo/backend/repository/memory"
	userdataUC "github.com/atdgo/backend/usecase/userdata"
)

func newTestUseCase() *UseCase {
	return New(userdataUC.New(memory.New(), 5, nil), nil)
}

func TestCreateAssignsOwnerAndID(t *testing.T) {
	uc := newTestUseCase()
	ctx := context.Background()

	created, err := uc.Create(ctx, "alice", &domain.Task{Title: "write report", UserID: "mallory"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.UserID)
	assert.Equal(t, domain.ViewModePersonal, created.ViewMode)
	assert.Equal(t, domain.TaskStatusPending, created.Status)

	tasks, err := uc.List(ctx, "alice", Filter{})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

// Each create must land even when requests for the same account overlap; the
// bundle is one document and a lost update would silently drop tasks.
func TestConcurrentCreatesAllSurvive(t *testing.T) {
	store := repository.NewSerialized(memory.New(), 64)
	defer store.Close()
	uc := New(userdataUC.New(store, 5, nil), nil)
	ctx := context.Background()

	const count = 8
	var wg sync.WaitGroup
	errs := make([]error, count)
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = uc.Create(ctx, "alice", &domain.Task{Title: fmt.Sprintf("task %d", n)})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "create %d", i)
	}

	tasks, err := uc.List(ctx, "alice", Filter{})
	require.NoError(t, err)
	assert.Len(t, tasks, count)
}

func TestCreateRequiresTitle(t *testing.T) {
	uc := newTestUseCase()

	_, err := uc.Create(context.Background(), "alice", &domain.Task{})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestCreateTeamTaskLandsInTeamList(t *testing.T) {
	uc := newTestUseCase()
	ctx := context.Background()

	_, err := uc.Create(ctx, "alice", &domain.Task{Title: "standup", ViewMode: domain.ViewModeTeam})
	require.NoError(t, err)

	team, err := uc.List(ctx, "alice", Filter{ViewMode: domain.ViewModeTeam})
	require.NoError(t, err)
	assert.Len(t, team, 1)

	personal, err := uc.List(ctx, "alice", Filter{ViewMode: domain.ViewModePersonal})
	require.NoError(t, err)
	assert.Empty(t, personal)
}

func TestListFiltersByStatus(t *testing.T) {
	uc := newTestUseCase()
	ctx := context.Background()

	_, err := uc.Create(ctx, "alice", &domain.Task{Title: "open one"})
	require.NoError(t, err)
	done, err := uc.Create(ctx, "alice", &domain.Task{Title: "done one", Status: domain.TaskStatusCompleted})
	require.NoError(t, err)

	completed, err := uc.List(ctx, "alice", Filter{Status: domain.TaskStatusCompleted})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, done.ID, completed[0].ID)
}

func TestGetUpdateDelete(t *testing.T) {
	uc := newTestUseCase()
	ctx := context.Background()

	created, err := uc.Create(ctx, "alice", &domain.Task{Title: "first"})
	require.NoError(t, err)

	got, err := uc.Get(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)

	created.Title = "renamed"
	updated, err := uc.Update(ctx, "alice", created)
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	require.NoError(t, uc.Delete(ctx, "alice", created.ID))

	_, err = uc.Get(ctx, "alice", created.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestUpdateUnknownTask(t *testing.T) {
	uc := newTestUseCase()

	_, err := uc.Update(context.Background(), "alice", &domain.Task{ID: "nope", Title: "x"})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestDeleteUnknownTask(t *testing.T) {
	uc := newTestUseCase()

	err := uc.Delete(context.Background(), "alice", "nope")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestTasksAreScopedPerAccount(t *testing.T) {
	uc := newTestUseCase()
	ctx := context.Background()

	created, err := uc.Create(ctx, "alice", &domain.Task{Title: "alice task"})
	require.NoError(t, err)

	bobTasks, err := uc.List(ctx, "bob", Filter{})
	require.NoError(t, err)
	assert.Empty(t, bobTasks)

	_, err = uc.Get(ctx, "bob", created.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}
