package namespace

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Latronboy/smart-grocery-expense-tracker/internal/docstore"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/model"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/testutil"
)

func TestEnsure_MigratesLegacyForDefaultTenant(t *testing.T) {
	t.Parallel()
	p, dataDir, recorder := newTestProvisioner(t)
	legacy := []map[string]any{
		{"id": "e1", "amount": 12.5, "createdAt": "2024-01-01T00:00:00.000Z"},
		{"id": "e2", "amount": 3},
	}
	testutil.WriteJSON(t, filepath.Join(dataDir, "expenses.json"), legacy)

	ns, err := p.Ensure(context.Background(), model.DefaultUserID)
	require.NoError(t, err)

	got := testutil.ReadJSONArray(t, ns.Expenses.Path)
	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0]["id"])
	assert.Equal(t, "e2", got[1]["id"])
	assert.JSONEq(t, "[]", string(testutil.ReadFile(t, ns.Groceries.Path)))

	snap := recorder.Snapshot()
	assert.Equal(t, uint64(1), snap.LegacyMigrations[string(MigrationMigrated)])
	assert.Equal(t, uint64(1), snap.LegacyMigrations[string(MigrationSkipped)])
}

func TestEnsure_LegacyIgnoredForOtherUsers(t *testing.T) {
	t.Parallel()
	p, dataDir, _ := newTestProvisioner(t)
	testutil.WriteJSON(t, filepath.Join(dataDir, "groceries.json"), []map[string]any{{"id": "g1"}})

	ns, err := p.Ensure(context.Background(), "alice")
	require.NoError(t, err)

	assert.Empty(t, testutil.ReadJSONArray(t, ns.Groceries.Path))
}

func TestEnsure_LegacySkippedWhenUserFileExists(t *testing.T) {
	t.Parallel()
	p, dataDir, _ := newTestProvisioner(t)
	ctx := context.Background()

	ns, err := p.Ensure(ctx, model.DefaultUserID)
	require.NoError(t, err)

	testutil.WriteJSON(t, filepath.Join(dataDir, "groceries.json"), []map[string]any{{"id": "late"}})

	_, err = p.Ensure(ctx, model.DefaultUserID)
	require.NoError(t, err)
	assert.Empty(t, testutil.ReadJSONArray(t, ns.Groceries.Path))
}

func TestEnsure_EmptyLegacyLeavesEmptyCollection(t *testing.T) {
	t.Parallel()
	p, dataDir, recorder := newTestProvisioner(t)
	testutil.WriteFile(t, filepath.Join(dataDir, "expenses.json"), []byte("[]"))

	ns, err := p.Ensure(context.Background(), model.DefaultUserID)
	require.NoError(t, err)

	assert.Empty(t, testutil.ReadJSONArray(t, ns.Expenses.Path))
	assert.Zero(t, recorder.Snapshot().LegacyMigrations[string(MigrationMigrated)])
}

func TestEnsure_MalformedLegacyIsSwallowed(t *testing.T) {
	t.Parallel()
	p, dataDir, recorder := newTestProvisioner(t)
	testutil.WriteFile(t, filepath.Join(dataDir, "expenses.json"), []byte("{broken"))

	ns, err := p.Ensure(context.Background(), model.DefaultUserID)
	require.NoError(t, err)

	assert.Empty(t, testutil.ReadJSONArray(t, ns.Expenses.Path))
	assert.Equal(t, uint64(1), recorder.Snapshot().LegacyMigrations[string(MigrationFailed)])
}

func TestEnsure_NonObjectLegacyElementsAreSwallowed(t *testing.T) {
	t.Parallel()
	p, dataDir, recorder := newTestProvisioner(t)
	testutil.WriteFile(t, filepath.Join(dataDir, "expenses.json"), []byte(`[1,"x"]`))
	testutil.WriteFile(t, filepath.Join(dataDir, "groceries.json"), []byte(`[{"id":"g1","item":"milk"},[]]`))

	ns, err := p.Ensure(context.Background(), model.DefaultUserID)
	require.NoError(t, err)

	assert.Empty(t, testutil.ReadJSONArray(t, ns.Expenses.Path))
	assert.Empty(t, testutil.ReadJSONArray(t, ns.Groceries.Path))
	assert.Equal(t, uint64(2), recorder.Snapshot().LegacyMigrations[string(MigrationFailed)])

	store := docstore.New()
	_, err = store.List(context.Background(), ns.Expenses)
	require.NoError(t, err)
	_, err = store.Create(context.Background(), ns.Expenses, map[string]any{"amount": 1})
	require.NoError(t, err)
}

func TestEnsure_LegacyDirOverride(t *testing.T) {
	t.Parallel()
	dataDir := testutil.DataDir(t)
	legacyDir := t.TempDir()
	testutil.WriteJSON(t, filepath.Join(legacyDir, "groceries.json"), []map[string]any{{"id": "g1", "name": "milk"}})

	p := NewProvisioner(dataDir, legacyDir, discardLogger(), nil)
	ns, err := p.Ensure(context.Background(), model.DefaultUserID)
	require.NoError(t, err)

	got := testutil.ReadJSONArray(t, ns.Groceries.Path)
	require.Len(t, got, 1)
	assert.Equal(t, "milk", got[0]["name"])
}

func TestMigrationReport(t *testing.T) {
	t.Parallel()
	report := MigrationReport{Results: []MigrationResult{
		{Kind: model.KindExpenses, Status: MigrationMigrated, Records: 2},
		{Kind: model.KindGroceries, Status: MigrationSkipped},
	}}
	assert.NoError(t, report.Err())
	assert.Equal(t, 1, report.Migrated())

	report.Results[1] = MigrationResult{Kind: model.KindGroceries, Status: MigrationFailed, Err: assert.AnError}
	assert.ErrorIs(t, report.Err(), assert.AnError)
}
