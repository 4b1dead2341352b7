package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.ErrorContains(t, err, `unsupported database driver "oracle"`)
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite", DSN: "file::memory:?_foreign_keys=1"})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "roadmaps", "features", "personas", "project_members", "team_invitations", "shareable_links", "link_analytics", "export_histories", "user_activities"} {
		require.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestBuildPostgresDSN(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{User: "compass", Name: "compass", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, "host=localhost port=5432 user=compass dbname=compass password=secret sslmode=disable", dsn)

	_, err = buildPostgresDSN(Config{})
	require.Error(t, err)
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{User: "compass", Name: "compass"})
	require.NoError(t, err)
	require.Equal(t, "compass@tcp(127.0.0.1:3306)/compass?charset=utf8mb4&parseTime=True&loc=Local", dsn)
}
