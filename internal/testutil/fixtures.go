package testutil

import (
	"sync/atomic"

	"github.com/alexanderramin/tierboard/internal/domain"
)

var testItemIDCounter atomic.Int64

// NextItemID returns a process-unique id for items built without one.
func NextItemID() int {
	return int(10000 + testItemIDCounter.Add(1))
}

// Item options
type ItemOption func(*domain.Item)

func WithID(id int) ItemOption {
	return func(it *domain.Item) {
		it.ID = id
	}
}

func WithParent(id int) ItemOption {
	return func(it *domain.Item) {
		it.Parent = &domain.IDRef{ID: id}
	}
}

func WithDoneRatio(r int) ItemOption {
	return func(it *domain.Item) {
		it.DoneRatio = r
	}
}

func WithAssignee(id int, name string) ItemOption {
	return func(it *domain.Item) {
		it.AssignedTo = &domain.IDName{ID: id, Name: name}
	}
}

func WithWatchers(ids ...int) ItemOption {
	return func(it *domain.Item) {
		for _, id := range ids {
			it.Watchers = append(it.Watchers, domain.IDName{ID: id})
		}
	}
}

func WithProject(id int, name string) ItemOption {
	return func(it *domain.Item) {
		it.Project = domain.IDName{ID: id, Name: name}
	}
}

func WithStatus(id int, name string, closed bool) ItemOption {
	return func(it *domain.Item) {
		it.Status = &domain.Status{ID: id, Name: name, IsClosed: closed}
	}
}

func WithAllowedStatuses(statuses ...domain.Status) ItemOption {
	return func(it *domain.Item) {
		it.AllowedStatuses = append(it.AllowedStatuses, statuses...)
	}
}

func WithField(name, value string) ItemOption {
	return func(it *domain.Item) {
		it.CustomFields = append(it.CustomFields, domain.CustomField{Name: name, Value: domain.StringValue(value)})
	}
}

func WithFieldID(id int, name, value string) ItemOption {
	return func(it *domain.Item) {
		it.CustomFields = append(it.CustomFields, domain.CustomField{ID: id, Name: name, Value: domain.StringValue(value)})
	}
}

func WithListField(name string, values ...string) ItemOption {
	return func(it *domain.Item) {
		it.CustomFields = append(it.CustomFields, domain.CustomField{Name: name, Multiple: true, Value: domain.ListValue(values...)})
	}
}

func WithWeight(w string) ItemOption {
	return WithField("Weight", w)
}

func NewTestItem(subject string, opts ...ItemOption) *domain.Item {
	it := &domain.Item{
		ID:      NextItemID(),
		Subject: subject,
		Project: domain.IDName{ID: 1, Name: "Goals"},
		Status:  &domain.Status{ID: 1, Name: "New"},
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}
