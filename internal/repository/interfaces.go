// Package repository persists the fixture tracker's data.
package repository

import (
	"context"
	"errors"

	"github.com/alexanderramin/tierboard/internal/domain"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// IssueFilter narrows an issue listing. Zero values are ignored.
type IssueFilter struct {
	ProjectID     int
	ParentID      int
	AssignedTo    int
	WatcherID     int
	IncludeClosed bool
	Limit         int
	Offset        int
}

// ProgressUpdate changes an issue's status or done ratio; nil fields are kept.
type ProgressUpdate struct {
	StatusID  *int
	DoneRatio *int
}

// CustomFieldDef defines a custom field available on issues.
type CustomFieldDef struct {
	ID       int
	Name     string
	Multiple bool
}

type IssueRepo interface {
	// Create stores it with its watchers and custom values. A zero ID is
	// assigned by the database and written back to it.
	Create(ctx context.Context, it *domain.Item) error
	GetByID(ctx context.Context, id int) (*domain.Item, error)
	// List returns one page plus the total number of matches.
	List(ctx context.Context, f IssueFilter) ([]*domain.Item, int, error)
	UpdateProgress(ctx context.Context, id int, upd ProgressUpdate) error
	AddJournal(ctx context.Context, id int, notes string) error
	Journals(ctx context.Context, id int) ([]string, error)
}

type DirectoryRepo interface {
	UpsertProject(ctx context.Context, p domain.IDName) error
	UpsertUser(ctx context.Context, u domain.User) error
	UpsertStatus(ctx context.Context, s domain.Status, position int) error
	GetStatus(ctx context.Context, id int) (*domain.Status, error)
	ListStatuses(ctx context.Context) ([]domain.Status, error)
	UpsertCustomField(ctx context.Context, f CustomFieldDef) error
	GetCustomField(ctx context.Context, id int) (*CustomFieldDef, error)
}

type GroupRepo interface {
	// Upsert stores g and replaces its member list.
	Upsert(ctx context.Context, g domain.Group) error
	// List returns all groups without members, ordered by name.
	List(ctx context.Context) ([]domain.Group, error)
	GetByID(ctx context.Context, id int) (*domain.Group, error)
}
