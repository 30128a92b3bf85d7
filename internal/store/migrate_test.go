package store

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestParseMigrations_OrdersAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/0002_role_index.sql": {Data: []byte("CREATE INDEX x;")},
		"sql/0001_manager.sql":    {Data: []byte("CREATE TABLE manager();")},
		"sql/README.md":           {Data: []byte("ignored")},
	}
	migs, err := NewMigrator(fsys, "sql").ParseMigrations()
	require.NoError(t, err)
	require.Len(t, migs, 2)
	require.Equal(t, 1, migs[0].Version)
	require.Equal(t, "manager", migs[0].Name)
	require.Equal(t, "role_index", migs[1].Name)
}

func TestParseMigrations_MissingDir(t *testing.T) {
	_, err := NewMigrator(fstest.MapFS{}, "nope").ParseMigrations()
	require.Error(t, err)
}
