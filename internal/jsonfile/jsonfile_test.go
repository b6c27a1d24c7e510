package jsonfile

import (
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestReadArray_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

	items, err := ReadArray[item](path)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestReadArray_Missing(t *testing.T) {
	_, err := ReadArray[item](filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestReadArray_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":`), 0o644))

	_, err := ReadArray[item](path)
	assert.Error(t, err)
}

func TestWriteAtomic_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	want := []item{{"milk", 2}, {"eggs", 12}, {"bread", 1}}

	require.NoError(t, WriteAtomic(path, want))

	got, err := ReadArray[item](path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n  {"), "expected indented output, got %s", data)
}

func TestWriteAtomic_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "items.json")

	for i := 0; i < 5; i++ {
		require.NoError(t, WriteAtomic(path, []item{{"x", i}}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "items.json", entries[0].Name())
}

func TestWriteAtomic_EncodeFailureKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, WriteAtomic(path, []item{{"milk", 1}}))

	err := WriteAtomic(path, []any{math.Inf(1)})
	require.Error(t, err)

	got, err := ReadArray[item](path)
	require.NoError(t, err)
	assert.Equal(t, []item{{"milk", 1}}, got)
}

func TestCreateExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")

	created, err := CreateExclusive(path, EmptyArray)
	require.NoError(t, err)
	assert.True(t, created)

	require.NoError(t, WriteAtomic(path, []item{{"milk", 1}}))

	created, err = CreateExclusive(path, EmptyArray)
	require.NoError(t, err)
	assert.False(t, created, "existing file must not be recreated")

	got, err := ReadArray[item](path)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "items.json")

	ok, err := Exists(path)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, EmptyArray, 0o644))

	ok, err = Exists(path)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWriteNew(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "items.json")

	created, err := WriteNew(path, []item{{"eggs", 12}})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = WriteNew(path, []item{{"bread", 1}})
	require.NoError(t, err)
	assert.False(t, created, "existing file must not be replaced")

	got, err := ReadArray[item](path)
	require.NoError(t, err)
	assert.Equal(t, []item{{"eggs", 12}}, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must be removed")
}

func stubSyncDir(t *testing.T, fn func(dir string) error) {
	t.Helper()
	orig := syncDir
	t.Cleanup(func() { syncDir = orig })
	syncDir = fn
}

func TestWritesSyncParentDirectory(t *testing.T) {
	dir := t.TempDir()
	var synced []string
	stubSyncDir(t, func(d string) error {
		synced = append(synced, d)
		return nil
	})

	require.NoError(t, WriteAtomic(filepath.Join(dir, "a.json"), []item{{Name: "a"}}))
	created, err := WriteNew(filepath.Join(dir, "b.json"), []item{{Name: "b"}})
	require.NoError(t, err)
	require.True(t, created)

	assert.Equal(t, []string{dir, dir}, synced)
}

func TestWriteAtomic_SyncDirError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	stubSyncDir(t, func(string) error { return os.ErrPermission })

	err := WriteAtomic(path, []item{{Name: "a"}})
	require.ErrorIs(t, err, os.ErrPermission)
}

func TestSyncDir_RealDirectory(t *testing.T) {
	require.NoError(t, syncDir(t.TempDir()))
	require.Error(t, syncDir(filepath.Join(t.TempDir(), "missing")))
}
