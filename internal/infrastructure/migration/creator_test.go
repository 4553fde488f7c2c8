package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- test"), 0644))
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add lot origin", "add_lot_origin"},
		{"Add-Lot-Origin", "add_lot_origin"},
		{"ADD_LOT_ORIGIN", "add_lot_origin"},
		{"add__lot__origin", "add_lot_origin"},
		{"Plan Clusters 2", "plan_clusters_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_FirstVersion(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "add lot origin", "Tag lots with their origin")
	require.NoError(t, err)

	assert.Equal(t, uint(1), mf.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_lot_origin.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_lot_origin.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add lot origin")
	assert.Contains(t, string(up), "Tag lots with their origin")
	assert.Contains(t, string(up), "BEGIN;")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")
}

func TestCreateMigration_NextVersion(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"000001_init.up.sql", "000001_init.down.sql",
		"000007_plan_clusters.up.sql", "000007_plan_clusters.down.sql",
	)

	mf, err := CreateMigration(dir, "rejection index", "")
	require.NoError(t, err)

	assert.Equal(t, uint(8), mf.Version)
	assert.Equal(t, "000008_rejection_index.up.sql", filepath.Base(mf.UpPath))
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(nested, "init", "")
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestListMigrations_OrderedByVersion(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"000010_late.up.sql", "000010_late.down.sql",
		"000002_second.up.sql",
		"000001_init.up.sql", "000001_init.down.sql",
	)

	entries, err := ListMigrations(dir)
	require.NoError(t, err)

	assert.Equal(t, []Entry{
		{Version: 1, Name: "000001_init", HasDown: true},
		{Version: 2, Name: "000002_second", HasDown: false},
		{Version: 10, Name: "000010_late", HasDown: true},
	}, entries)
}

func TestListMigrations_EmptyDirectory(t *testing.T) {
	entries, err := ListMigrations(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	entries, err := ListMigrations(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListMigrations_IgnoresNonMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "000001_init.up.sql", "000001_init.down.sql", "README.md", "draft.up.sql", ".gitkeep")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "000002_dir.up.sql"), 0755))

	entries, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "000001_init", entries[0].Name)
}
