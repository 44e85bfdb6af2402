package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/alexanderramin/tierboard/internal/tracker"
)

// FakeUpdate records one UpdateItem call.
type FakeUpdate struct {
	ID     int
	Update tracker.ItemUpdate
}

// FakeTracker is an in-memory tracker.Client. Listings omit the detail
// fields the real list endpoint omits, so tests see the same gaps.
type FakeTracker struct {
	mu sync.Mutex

	items  map[int]*domain.Item
	groups []domain.Group
	nextID int

	PageSize int
	MaxPages int

	// ListErr, when set, is consulted before every page request.
	ListErr func(q tracker.ListQuery) error
	// OnList runs before every page request, outside the lock.
	OnList func(ctx context.Context, q tracker.ListQuery)
	// GetErr fails GetItem for the given ids.
	GetErr map[int]error

	GetCalls  map[int]int
	ListCalls int
	Updates   []FakeUpdate
	Created   []tracker.NewItem
}

var _ tracker.Client = (*FakeTracker)(nil)

func NewFakeTracker(items ...*domain.Item) *FakeTracker {
	f := &FakeTracker{
		items:    make(map[int]*domain.Item),
		nextID:   1,
		PageSize: 2,
		MaxPages: 50,
		GetErr:   make(map[int]error),
		GetCalls: make(map[int]int),
	}
	for _, it := range items {
		f.Put(it)
	}
	return f
}

// Put stores or replaces an item.
func (f *FakeTracker) Put(it *domain.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[it.ID] = clone(it)
	if it.ID >= f.nextID {
		f.nextID = it.ID + 1
	}
}

// AddGroup registers a group with its members.
func (f *FakeTracker) AddGroup(g domain.Group) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups = append(f.groups, g)
}

// Item returns a copy of the stored item.
func (f *FakeTracker) Item(id int) (*domain.Item, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return nil, false
	}
	return clone(it), true
}

func (f *FakeTracker) ListItems(ctx context.Context, q tracker.ListQuery) (*tracker.Page, error) {
	if f.OnList != nil {
		f.OnList(ctx, q)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.ListErr != nil {
		if err := f.ListErr(q); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListCalls++

	var matched []*domain.Item
	for _, it := range f.items {
		if matches(it, q) {
			matched = append(matched, it)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	limit := q.Limit
	if limit <= 0 {
		limit = 25
	}
	page := &tracker.Page{TotalCount: len(matched), Offset: q.Offset, Limit: limit}
	for i := q.Offset; i < len(matched) && i < q.Offset+limit; i++ {
		listed := clone(matched[i])
		listed.AllowedStatuses = nil
		page.Items = append(page.Items, listed)
	}
	return page, nil
}

func matches(it *domain.Item, q tracker.ListQuery) bool {
	if q.ProjectID != 0 && it.Project.ID != q.ProjectID {
		return false
	}
	if q.ParentID != 0 {
		if pid, ok := it.ParentID(); !ok || pid != q.ParentID {
			return false
		}
	}
	if q.AssignedTo != 0 && it.AssigneeID() != q.AssignedTo {
		return false
	}
	if q.WatcherID != 0 {
		found := false
		for _, id := range it.WatcherIDs() {
			if id == q.WatcherID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !q.StatusAll && it.Status != nil && it.Status.IsClosed {
		return false
	}
	return true
}

func (f *FakeTracker) ListAllItems(ctx context.Context, q tracker.ListQuery) ([]*domain.Item, error) {
	return tracker.CollectAll(ctx, f, q, f.PageSize, f.MaxPages)
}

func (f *FakeTracker) GetItem(ctx context.Context, id int) (*domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetCalls[id]++
	if err := f.GetErr[id]; err != nil {
		return nil, err
	}
	it, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("fetching item %d: %w", id, tracker.ErrNotFound)
	}
	return clone(it), nil
}

func (f *FakeTracker) UpdateItem(ctx context.Context, id int, upd tracker.ItemUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return fmt.Errorf("updating item %d: %w", id, tracker.ErrNotFound)
	}
	f.Updates = append(f.Updates, FakeUpdate{ID: id, Update: upd})
	if upd.DoneRatio != nil {
		it.DoneRatio = *upd.DoneRatio
	}
	if upd.StatusID != nil {
		for _, st := range it.AllowedStatuses {
			if st.ID == *upd.StatusID {
				s := st
				it.Status = &s
			}
		}
	}
	return nil
}

func (f *FakeTracker) CreateItem(ctx context.Context, in tracker.NewItem) (*domain.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Created = append(f.Created, in)

	it := &domain.Item{
		ID:        f.nextID,
		Subject:   in.Subject,
		DoneRatio: in.DoneRatio,
		Project:   domain.IDName{ID: in.ProjectID},
		Status:    &domain.Status{ID: 1, Name: "New"},
	}
	f.nextID++
	if in.ParentID != 0 {
		it.Parent = &domain.IDRef{ID: in.ParentID}
	}
	if in.AssignedToID != 0 {
		it.AssignedTo = &domain.IDName{ID: in.AssignedToID}
	}
	for _, fa := range in.CustomFields {
		it.CustomFields = append(it.CustomFields, domain.CustomField{ID: fa.ID, Value: domain.StringValue(fa.Value)})
	}
	f.items[it.ID] = it
	return clone(it), nil
}

func (f *FakeTracker) FindGroupByName(ctx context.Context, name string) (*domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.groups {
		if strings.EqualFold(f.groups[i].Name, strings.TrimSpace(name)) {
			g := f.groups[i]
			g.Users = nil
			return &g, nil
		}
	}
	return nil, fmt.Errorf("group %q: %w", name, tracker.ErrNotFound)
}

func (f *FakeTracker) GroupMembers(ctx context.Context, groupID int) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.groups {
		if g.ID == groupID {
			return append([]domain.User(nil), g.Users...), nil
		}
	}
	return nil, fmt.Errorf("fetching group %d: %w", groupID, tracker.ErrNotFound)
}

// clone deep-copies an item through its JSON form.
func clone(it *domain.Item) *domain.Item {
	data, err := json.Marshal(it)
	if err != nil {
		panic(err)
	}
	var out domain.Item
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return &out
}
