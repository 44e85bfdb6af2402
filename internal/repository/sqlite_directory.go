package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/tierboard/internal/db"
	"github.com/alexanderramin/tierboard/internal/domain"
)

// SQLiteDirectoryRepo stores the reference data issues point at: projects,
// users, statuses and custom field definitions.
type SQLiteDirectoryRepo struct {
	db db.DBTX
}

func NewSQLiteDirectoryRepo(conn db.DBTX) *SQLiteDirectoryRepo {
	return &SQLiteDirectoryRepo{db: conn}
}

func (r *SQLiteDirectoryRepo) UpsertProject(ctx context.Context, p domain.IDName) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`, p.ID, p.Name)
	if err != nil {
		return fmt.Errorf("upserting project %d: %w", p.ID, err)
	}
	return nil
}

func (r *SQLiteDirectoryRepo) UpsertUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, login) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, login = excluded.login`, u.ID, u.Name, u.Login)
	if err != nil {
		return fmt.Errorf("upserting user %d: %w", u.ID, err)
	}
	return nil
}

func (r *SQLiteDirectoryRepo) UpsertStatus(ctx context.Context, s domain.Status, position int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO statuses (id, name, is_closed, position) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, is_closed = excluded.is_closed, position = excluded.position`,
		s.ID, s.Name, boolToInt(s.IsClosed), position)
	if err != nil {
		return fmt.Errorf("upserting status %d: %w", s.ID, err)
	}
	return nil
}

func (r *SQLiteDirectoryRepo) GetStatus(ctx context.Context, id int) (*domain.Status, error) {
	var (
		s      domain.Status
		closed int
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, name, is_closed FROM statuses WHERE id = ?`, id).
		Scan(&s.ID, &s.Name, &closed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("status %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning status: %w", err)
	}
	s.IsClosed = closed != 0
	return &s, nil
}

func (r *SQLiteDirectoryRepo) ListStatuses(ctx context.Context) ([]domain.Status, error) {
	return listStatuses(ctx, r.db)
}

func listStatuses(ctx context.Context, conn db.DBTX) ([]domain.Status, error) {
	rows, err := conn.QueryContext(ctx, `SELECT id, name, is_closed FROM statuses ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("listing statuses: %w", err)
	}
	defer rows.Close()

	var out []domain.Status
	for rows.Next() {
		var (
			s      domain.Status
			closed int
		)
		if err := rows.Scan(&s.ID, &s.Name, &closed); err != nil {
			return nil, fmt.Errorf("scanning status row: %w", err)
		}
		s.IsClosed = closed != 0
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating statuses: %w", err)
	}
	return out, nil
}

func (r *SQLiteDirectoryRepo) UpsertCustomField(ctx context.Context, f CustomFieldDef) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO custom_fields (id, name, multiple) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, multiple = excluded.multiple`,
		f.ID, f.Name, boolToInt(f.Multiple))
	if err != nil {
		return fmt.Errorf("upserting custom field %q: %w", f.Name, err)
	}
	return nil
}

func (r *SQLiteDirectoryRepo) GetCustomField(ctx context.Context, id int) (*CustomFieldDef, error) {
	var (
		f        CustomFieldDef
		multiple int
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, name, multiple FROM custom_fields WHERE id = ?`, id).
		Scan(&f.ID, &f.Name, &multiple)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("custom field %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning custom field: %w", err)
	}
	f.Multiple = multiple != 0
	return &f, nil
}
