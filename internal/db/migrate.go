package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate applies every schema statement. Statements are idempotent, so it
// is safe to run on each open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// Tables lists the tables the schema creates, in dependency order.
var Tables = []string{
	"projects",
	"users",
	"statuses",
	"custom_fields",
	"issues",
	"issue_watchers",
	"custom_values",
	"journals",
	"user_groups",
	"group_members",
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id   INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id    INTEGER PRIMARY KEY,
		name  TEXT NOT NULL,
		login TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS statuses (
		id        INTEGER PRIMARY KEY,
		name      TEXT NOT NULL,
		is_closed INTEGER NOT NULL DEFAULT 0,
		position  INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS custom_fields (
		id       INTEGER PRIMARY KEY,
		name     TEXT NOT NULL UNIQUE,
		multiple INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS issues (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id     INTEGER NOT NULL REFERENCES projects(id),
		parent_id      INTEGER,
		subject        TEXT NOT NULL,
		done_ratio     INTEGER NOT NULL DEFAULT 0 CHECK(done_ratio BETWEEN 0 AND 100),
		status_id      INTEGER NOT NULL REFERENCES statuses(id),
		assigned_to_id INTEGER REFERENCES users(id),
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_issues_project ON issues(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_issues_parent ON issues(parent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_issues_assignee ON issues(assigned_to_id)`,
	`CREATE TABLE IF NOT EXISTS issue_watchers (
		issue_id INTEGER NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
		user_id  INTEGER NOT NULL REFERENCES users(id),
		PRIMARY KEY (issue_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_watchers_user ON issue_watchers(user_id)`,
	`CREATE TABLE IF NOT EXISTS custom_values (
		issue_id INTEGER NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
		field_id INTEGER NOT NULL REFERENCES custom_fields(id),
		position INTEGER NOT NULL DEFAULT 0,
		value    TEXT NOT NULL,
		PRIMARY KEY (issue_id, field_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS journals (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		issue_id   INTEGER NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
		notes      TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_journals_issue ON journals(issue_id)`,
	`CREATE TABLE IF NOT EXISTS user_groups (
		id   INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE
	)`,
	`CREATE TABLE IF NOT EXISTS group_members (
		group_id INTEGER NOT NULL REFERENCES user_groups(id) ON DELETE CASCADE,
		user_id  INTEGER NOT NULL REFERENCES users(id),
		PRIMARY KEY (group_id, user_id)
	)`,
	`INSERT OR IGNORE INTO statuses (id, name, is_closed, position) VALUES
		(1, 'New', 0, 1),
		(2, 'In Progress', 0, 2),
		(5, 'Closed', 1, 5)`,
}
