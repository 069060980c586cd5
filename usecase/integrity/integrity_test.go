package integrity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atdgo/backend/domain"
	"github.com/atdgo/backend/repository/memory"
	registryUC "github.com/atdgo/backend/usecase/registry"
	sessionUC "github.com/atdgo/backend/usecase/session"
	userdataUC "github.com/atdgo/backend/usecase/userdata"
)

func TestScanReportsForeignTasks(t *testing.T) {
	data := userdataUC.New(memory.New(), 5, nil)
	uc := New(data, nil)
	ctx := context.Background()

	bundle := domain.NewBundle(nil)
	bundle.PersonalTasks = []domain.Task{
		{ID: "t1", UserID: "alice", Title: "mine"},
		{ID: "t2", UserID: "bob", Title: "not mine"},
	}
	bundle.TeamTasks = []domain.Task{
		{ID: "t3", UserID: "carol", Title: "also not mine"},
	}
	require.NoError(t, data.Save(ctx, "alice", bundle))

	violations, err := uc.Scan(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, violations, 2)
}

func TestScanCleanBundle(t *testing.T) {
	data := userdataUC.New(memory.New(), 5, nil)
	uc := New(data, nil)
	ctx := context.Background()

	bundle := domain.NewBundle(nil)
	bundle.PersonalTasks = []domain.Task{{ID: "t1", UserID: "alice", Title: "mine"}}
	require.NoError(t, data.Save(ctx, "alice", bundle))

	violations, err := uc.Scan(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestRepairPurgesForeignTasks(t *testing.T) {
	data := userdataUC.New(memory.New(), 5, nil)
	uc := New(data, nil)
	ctx := context.Background()

	bundle := domain.NewBundle(nil)
	bundle.PersonalTasks = []domain.Task{
		{ID: "t1", UserID: "alice", Title: "mine"},
		{ID: "t2", UserID: "bob", Title: "not mine"},
	}
	require.NoError(t, data.Save(ctx, "alice", bundle))

	repaired, purged, err := uc.Repair(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, purged)
	require.Len(t, repaired.PersonalTasks, 1)
	assert.Equal(t, "t1", repaired.PersonalTasks[0].ID)

	// The repair persisted.
	reloaded, err := data.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, reloaded.PersonalTasks, 1)
}

func TestRepairCleanBundleWritesNothing(t *testing.T) {
	data := userdataUC.New(memory.New(), 5, nil)
	uc := New(data, nil)
	ctx := context.Background()

	bundle := domain.NewBundle(nil)
	bundle.PersonalTasks = []domain.Task{{ID: "t1", UserID: "alice", Title: "mine"}}
	require.NoError(t, data.Save(ctx, "alice", bundle))

	before, err := data.Backups(ctx, "alice")
	require.NoError(t, err)

	_, purged, err := uc.Repair(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, purged)

	// No write means no new backup snapshot.
	after, err := data.Backups(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

// Full account lifecycle: register, log in with a differently-cased email,
// save a bundle contaminated with another account's task, repair it, and
// confirm the pre-repair state survives in a backup.
func TestContaminationLifecycle(t *testing.T) {
	store := memory.New()
	registry := registryUC.New(store, nil)
	data := userdataUC.New(store, 5, nil)
	integrity := New(data, nil)
	sessions := sessionUC.New(store, registry, nil, 0, nil)
	ctx := context.Background()

	alice, err := registry.Register(ctx, "Alice", "alice@example.com", "secret1", "secret1")
	require.NoError(t, err)

	loggedIn, _, err := sessions.Login(ctx, " ALICE@example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, loggedIn.ID)

	bundle := domain.NewBundle(nil)
	bundle.PersonalTasks = []domain.Task{
		{ID: "t-bob", UserID: "bob-id", Title: "leaked from bob"},
	}
	require.NoError(t, data.Save(ctx, alice.ID, bundle))

	repaired, purged, err := integrity.Repair(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)
	assert.Empty(t, repaired.PersonalTasks)

	// The contaminated snapshot is still recoverable from the ring: the
	// newest backup is post-repair, the one before it is pre-repair.
	backups, err := data.Backups(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, backups, 2)
}
