package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/tierboard/internal/db"
	"github.com/alexanderramin/tierboard/internal/domain"
)

// SQLiteGroupRepo implements GroupRepo using a SQLite database.
type SQLiteGroupRepo struct {
	db db.DBTX
}

func NewSQLiteGroupRepo(conn db.DBTX) *SQLiteGroupRepo {
	return &SQLiteGroupRepo{db: conn}
}

// Upsert writes the group and its members. Callers wanting atomicity run
// it inside a UnitOfWork.
func (r *SQLiteGroupRepo) Upsert(ctx context.Context, g domain.Group) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO user_groups (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`, g.ID, g.Name); err != nil {
		return fmt.Errorf("upserting group %q: %w", g.Name, err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = ?`, g.ID); err != nil {
		return fmt.Errorf("clearing members of group %q: %w", g.Name, err)
	}
	for _, u := range g.Users {
		if _, err := r.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO group_members (group_id, user_id) VALUES (?, ?)`, g.ID, u.ID); err != nil {
			return fmt.Errorf("adding user %d to group %q: %w", u.ID, g.Name, err)
		}
	}
	return nil
}

func (r *SQLiteGroupRepo) List(ctx context.Context) ([]domain.Group, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM user_groups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scanning group row: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating groups: %w", err)
	}
	return groups, nil
}

func (r *SQLiteGroupRepo) GetByID(ctx context.Context, id int) (*domain.Group, error) {
	var g domain.Group
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM user_groups WHERE id = ?`, id).Scan(&g.ID, &g.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("group %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning group: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT u.id, u.name, u.login
		FROM group_members m JOIN users u ON u.id = m.user_id
		WHERE m.group_id = ? ORDER BY u.id`, id)
	if err != nil {
		return nil, fmt.Errorf("listing members of group %d: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Login); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		g.Users = append(g.Users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating members: %w", err)
	}
	return &g, nil
}
