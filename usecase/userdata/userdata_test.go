package userdata

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atdgo/backend/domain"
	"github.com/atdgo/backend/repository/memory"
)

func newTestUseCase(keep int) (*UseCase, *memory.Store) {
	store := memory.New()
	return New(store, keep, nil), store
}

func task(id, owner, title string) domain.Task {
	return domain.Task{ID: id, UserID: owner, Title: title}
}

func TestLoadMissingBundleInitializesEmpty(t *testing.T) {
	uc, _ := newTestUseCase(5)
	ctx := context.Background()

	bundle, err := uc.Load(ctx, "acc")
	require.NoError(t, err)
	assert.Empty(t, bundle.PersonalTasks)
	assert.Empty(t, bundle.TeamTasks)
	assert.Equal(t, domain.BundleVersion, bundle.Version)
	assert.Equal(t, domain.DefaultPreferences(), bundle.UserData)

	// The initialization was persisted, so a second load is stable.
	again, err := uc.Load(ctx, "acc")
	require.NoError(t, err)
	assert.Equal(t, bundle.Version, again.Version)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	uc, _ := newTestUseCase(5)
	ctx := context.Background()

	bundle := domain.NewBundle(nil)
	bundle.PersonalTasks = []domain.Task{task("t1", "acc", "write report")}

	require.NoError(t, uc.Save(ctx, "acc", bundle))

	got, err := uc.Load(ctx, "acc")
	require.NoError(t, err)
	require.Len(t, got.PersonalTasks, 1)
	assert.Equal(t, "write report", got.PersonalTasks[0].Title)
	assert.False(t, got.LastSaved.IsZero())
}

func TestSaveDropsInvalidAndDuplicateTasks(t *testing.T) {
	uc, _ := newTestUseCase(5)
	ctx := context.Background()

	bundle := domain.NewBundle(nil)
	bundle.PersonalTasks = []domain.Task{
		task("t1", "acc", "keep me"),
		task("", "acc", "no id"),
		task("t2", "acc", ""),
		task("t1", "acc", "duplicate id"),
	}

	require.NoError(t, uc.Save(ctx, "acc", bundle))

	got, err := uc.Load(ctx, "acc")
	require.NoError(t, err)
	require.Len(t, got.PersonalTasks, 1)
	assert.Equal(t, "keep me", got.PersonalTasks[0].Title)
	assert.Equal(t, domain.TaskStatusPending, got.PersonalTasks[0].Status)
	assert.Equal(t, domain.PriorityDefault, got.PersonalTasks[0].Priority)
}

func TestBackupRingKeepsExactlyFive(t *testing.T) {
	uc, _ := newTestUseCase(5)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		bundle := domain.NewBundle(nil)
		bundle.PersonalTasks = []domain.Task{task(fmt.Sprintf("t%d", i), "acc", fmt.Sprintf("rev %d", i))}
		require.NoError(t, uc.Save(ctx, "acc", bundle))
	}

	backups, err := uc.Backups(ctx, "acc")
	require.NoError(t, err)
	assert.Len(t, backups, 5)
}

func TestBackupRingKeepsNewest(t *testing.T) {
	uc, _ := newTestUseCase(5)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		bundle := domain.NewBundle(nil)
		bundle.PersonalTasks = []domain.Task{task(fmt.Sprintf("t%d", i), "acc", fmt.Sprintf("rev %d", i))}
		require.NoError(t, uc.Save(ctx, "acc", bundle))
	}

	restored, err := uc.RestoreFromBackup(ctx, "acc")
	require.NoError(t, err)
	require.NotNil(t, restored)
	require.Len(t, restored.PersonalTasks, 1)
	assert.Equal(t, "rev 6", restored.PersonalTasks[0].Title)
}

func TestBackupsAreScopedPerAccount(t *testing.T) {
	uc, _ := newTestUseCase(5)
	ctx := context.Background()

	require.NoError(t, uc.Save(ctx, "alice", domain.NewBundle(nil)))
	require.NoError(t, uc.Save(ctx, "bob", domain.NewBundle(nil)))

	aliceBackups, err := uc.Backups(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, aliceBackups, 1)
}

func TestRestoreFromBackupWithoutSnapshots(t *testing.T) {
	uc, _ := newTestUseCase(5)

	restored, err := uc.RestoreFromBackup(context.Background(), "acc")
	require.NoError(t, err)
	assert.Nil(t, restored)
}

func TestExportCarriesBothTaskFields(t *testing.T) {
	uc, _ := newTestUseCase(5)

	bundle := domain.NewBundle(nil)
	bundle.PersonalTasks = []domain.Task{task("t1", "acc", "write report")}

	doc, err := uc.Export(bundle)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(doc), &decoded))
	assert.Contains(t, decoded, "personalTasks")
	assert.Contains(t, decoded, "tasks")
	assert.Contains(t, decoded, "version")
	assert.Contains(t, decoded, "exportDate")
}

func TestImportExportRoundTrip(t *testing.T) {
	uc, _ := newTestUseCase(5)

	bundle := domain.NewBundle(nil)
	bundle.PersonalTasks = []domain.Task{task("t1", "acc", "write report")}
	bundle.TeamMembers = []domain.TeamMember{{ID: "m1", Name: "Alice"}}

	doc, err := uc.Export(bundle)
	require.NoError(t, err)

	imported, err := uc.Import(doc)
	require.NoError(t, err)
	require.Len(t, imported.PersonalTasks, 1)
	assert.Equal(t, "write report", imported.PersonalTasks[0].Title)
	require.Len(t, imported.TeamMembers, 1)
	assert.Equal(t, "Alice", imported.TeamMembers[0].Name)
}

func TestImportRejectsDocumentWithoutTasksArray(t *testing.T) {
	uc, _ := newTestUseCase(5)

	cases := []string{
		`not json at all`,
		`{"personalTasks": []}`,
		`{"tasks": "not an array"}`,
		`{"tasks": {"id": "t1"}}`,
	}
	for _, input := range cases {
		_, err := uc.Import(input)
		assert.ErrorIs(t, err, domain.ErrInvalidFormat, "input: %s", input)
	}
}

func TestImportLegacyTasksOnlyDocument(t *testing.T) {
	uc, _ := newTestUseCase(5)

	doc := `{"tasks": [{"id": "t1", "userId": "acc", "title": "from old export"}]}`
	imported, err := uc.Import(doc)
	require.NoError(t, err)
	require.Len(t, imported.PersonalTasks, 1)
	assert.Equal(t, "from old export", imported.PersonalTasks[0].Title)
}
