package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(Memory)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM statuses`).Scan(&n))
	assert.Equal(t, 3, n, "default statuses are seeded once")
}

func TestMigrate_CreatesAllTables(t *testing.T) {
	db := openTestDB(t)

	for _, table := range Tables {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_CreatesIndexes(t *testing.T) {
	db := openTestDB(t)

	expected := []string{
		"idx_issues_project",
		"idx_issues_parent",
		"idx_issues_assignee",
		"idx_watchers_user",
		"idx_journals_issue",
	}
	for _, idx := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name=?`, idx).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
	}
}

func TestOpenDB_ForeignKeysEnforced(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO issues (project_id, subject, status_id, created_at, updated_at)
		VALUES (42, 'orphan', 1, 'now', 'now')`)
	assert.Error(t, err, "unknown project should violate the foreign key")
}

func TestOpenDB_DoneRatioChecked(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO projects (id, name) VALUES (1, 'Goals')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO issues (project_id, subject, done_ratio, status_id, created_at, updated_at)
		VALUES (1, 'too much', 140, 1, 'now', 'now')`)
	assert.Error(t, err)
}
