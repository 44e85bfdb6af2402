package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/tierboard/internal/db"
	"github.com/alexanderramin/tierboard/internal/domain"
)

const defaultStatusID = 1

// SQLiteIssueRepo implements IssueRepo using a SQLite database.
type SQLiteIssueRepo struct {
	db db.DBTX
}

func NewSQLiteIssueRepo(conn db.DBTX) *SQLiteIssueRepo {
	return &SQLiteIssueRepo{db: conn}
}

const issueSelect = `SELECT i.id, i.subject, i.parent_id, i.done_ratio, i.project_id, p.name,
		s.id, s.name, s.is_closed, u.id, u.name
	FROM issues i
	JOIN projects p ON p.id = i.project_id
	JOIN statuses s ON s.id = i.status_id
	LEFT JOIN users u ON u.id = i.assigned_to_id`

func (r *SQLiteIssueRepo) Create(ctx context.Context, it *domain.Item) error {
	statusID := defaultStatusID
	if it.Status != nil && it.Status.ID != 0 {
		statusID = it.Status.ID
	}
	parentID, _ := it.ParentID()
	now := nowUTC()

	res, err := r.db.ExecContext(ctx, `INSERT INTO issues
		(id, project_id, parent_id, subject, done_ratio, status_id, assigned_to_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableID(it.ID),
		it.Project.ID,
		nullableID(parentID),
		it.Subject,
		it.DoneRatio,
		statusID,
		nullableID(it.AssigneeID()),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("inserting issue: %w", err)
	}
	if it.ID == 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading issue id: %w", err)
		}
		it.ID = int(id)
	}

	for _, uid := range it.WatcherIDs() {
		if _, err := r.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO issue_watchers (issue_id, user_id) VALUES (?, ?)`, it.ID, uid); err != nil {
			return fmt.Errorf("adding watcher %d to issue %d: %w", uid, it.ID, err)
		}
	}
	for _, cf := range it.CustomFields {
		if cf.Value.Null {
			continue
		}
		for pos, v := range cf.Value.Values {
			if _, err := r.db.ExecContext(ctx,
				`INSERT INTO custom_values (issue_id, field_id, position, value) VALUES (?, ?, ?, ?)`,
				it.ID, cf.ID, pos, v); err != nil {
				return fmt.Errorf("setting field %d on issue %d: %w", cf.ID, it.ID, err)
			}
		}
	}
	return nil
}

// GetByID loads an issue with watchers, custom fields and the statuses it
// may move to.
func (r *SQLiteIssueRepo) GetByID(ctx context.Context, id int) (*domain.Item, error) {
	row := r.db.QueryRowContext(ctx, issueSelect+` WHERE i.id = ?`, id)
	it, err := scanIssue(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("issue %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning issue %d: %w", id, err)
	}
	if err := r.hydrate(ctx, []*domain.Item{it}); err != nil {
		return nil, err
	}
	statuses, err := listStatuses(ctx, r.db)
	if err != nil {
		return nil, err
	}
	it.AllowedStatuses = statuses
	return it, nil
}

func (r *SQLiteIssueRepo) List(ctx context.Context, f IssueFilter) ([]*domain.Item, int, error) {
	where, args := f.where()

	var total int
	countQuery := `SELECT COUNT(*) FROM issues i JOIN statuses s ON s.id = i.status_id` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting issues: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	query := issueSelect + where + ` ORDER BY i.id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing issues: %w", err)
	}
	var items []*domain.Item
	for rows.Next() {
		it, err := scanIssue(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scanning issue row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, 0, fmt.Errorf("iterating issues: %w", err)
	}
	rows.Close()

	if err := r.hydrate(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *SQLiteIssueRepo) UpdateProgress(ctx context.Context, id int, upd ProgressUpdate) error {
	sets := []string{"updated_at = ?"}
	args := []any{nowUTC()}
	if upd.StatusID != nil {
		sets = append(sets, "status_id = ?")
		args = append(args, *upd.StatusID)
	}
	if upd.DoneRatio != nil {
		sets = append(sets, "done_ratio = ?")
		args = append(args, *upd.DoneRatio)
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE issues SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("updating issue %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating issue %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("issue %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteIssueRepo) AddJournal(ctx context.Context, id int, notes string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO journals (issue_id, notes, created_at) VALUES (?, ?, ?)`, id, notes, nowUTC())
	if err != nil {
		return fmt.Errorf("adding journal to issue %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteIssueRepo) Journals(ctx context.Context, id int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT notes FROM journals WHERE issue_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("listing journals: %w", err)
	}
	defer rows.Close()

	var notes []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scanning journal: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (f IssueFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.ProjectID != 0 {
		conds = append(conds, "i.project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.ParentID != 0 {
		conds = append(conds, "i.parent_id = ?")
		args = append(args, f.ParentID)
	}
	if f.AssignedTo != 0 {
		conds = append(conds, "i.assigned_to_id = ?")
		args = append(args, f.AssignedTo)
	}
	if f.WatcherID != 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM issue_watchers w WHERE w.issue_id = i.id AND w.user_id = ?)")
		args = append(args, f.WatcherID)
	}
	if !f.IncludeClosed {
		conds = append(conds, "s.is_closed = 0")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*domain.Item, error) {
	var (
		it           domain.Item
		parentID     sql.NullInt64
		status       domain.Status
		closed       int
		assigneeID   sql.NullInt64
		assigneeName sql.NullString
	)
	err := row.Scan(
		&it.ID, &it.Subject, &parentID, &it.DoneRatio,
		&it.Project.ID, &it.Project.Name,
		&status.ID, &status.Name, &closed,
		&assigneeID, &assigneeName,
	)
	if err != nil {
		return nil, err
	}
	status.IsClosed = closed != 0
	it.Status = &status
	if parentID.Valid {
		it.Parent = &domain.IDRef{ID: nullInt(parentID)}
	}
	if assigneeID.Valid {
		it.AssignedTo = &domain.IDName{ID: nullInt(assigneeID), Name: assigneeName.String}
	}
	return &it, nil
}

// hydrate attaches watchers and custom values to items in two batched
// queries. Each result set is drained before the next query starts.
func (r *SQLiteIssueRepo) hydrate(ctx context.Context, items []*domain.Item) error {
	if len(items) == 0 {
		return nil
	}
	byID := make(map[int]*domain.Item, len(items))
	ids := make([]int, 0, len(items))
	for _, it := range items {
		byID[it.ID] = it
		ids = append(ids, it.ID)
	}
	in := "(" + placeholders(len(ids)) + ")"

	rows, err := r.db.QueryContext(ctx, `SELECT w.issue_id, u.id, u.name
		FROM issue_watchers w JOIN users u ON u.id = w.user_id
		WHERE w.issue_id IN `+in+` ORDER BY w.issue_id, u.id`, intArgs(ids)...)
	if err != nil {
		return fmt.Errorf("loading watchers: %w", err)
	}
	for rows.Next() {
		var issueID int
		var u domain.IDName
		if err := rows.Scan(&issueID, &u.ID, &u.Name); err != nil {
			rows.Close()
			return fmt.Errorf("scanning watcher: %w", err)
		}
		byID[issueID].Watchers = append(byID[issueID].Watchers, u)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterating watchers: %w", err)
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx, `SELECT v.issue_id, f.id, f.name, f.multiple, v.value
		FROM custom_values v JOIN custom_fields f ON f.id = v.field_id
		WHERE v.issue_id IN `+in+` ORDER BY v.issue_id, f.id, v.position`, intArgs(ids)...)
	if err != nil {
		return fmt.Errorf("loading custom values: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			issueID, fieldID, multiple int
			name, value                string
		)
		if err := rows.Scan(&issueID, &fieldID, &name, &multiple, &value); err != nil {
			return fmt.Errorf("scanning custom value: %w", err)
		}
		it := byID[issueID]
		n := len(it.CustomFields)
		if n > 0 && it.CustomFields[n-1].ID == fieldID {
			last := &it.CustomFields[n-1]
			last.Value.Values = append(last.Value.Values, value)
			continue
		}
		cf := domain.CustomField{ID: fieldID, Name: name, Multiple: multiple != 0}
		if cf.Multiple {
			cf.Value = domain.ListValue(value)
		} else {
			cf.Value = domain.StringValue(value)
		}
		it.CustomFields = append(it.CustomFields, cf)
	}
	return rows.Err()
}
