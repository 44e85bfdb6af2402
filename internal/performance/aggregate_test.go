package performance

import (
	"context"
	"testing"

	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/alexanderramin/tierboard/internal/fields"
	"github.com/alexanderramin/tierboard/internal/hierarchy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemOpt func(*domain.Item)

func withField(name, value string) itemOpt {
	return func(it *domain.Item) {
		it.CustomFields = append(it.CustomFields, domain.CustomField{Name: name, Value: domain.StringValue(value)})
	}
}

func withList(name string, values ...string) itemOpt {
	return func(it *domain.Item) {
		it.CustomFields = append(it.CustomFields, domain.CustomField{Name: name, Multiple: true, Value: domain.ListValue(values...)})
	}
}

func withParent(id int) itemOpt {
	return func(it *domain.Item) { it.Parent = &domain.IDRef{ID: id} }
}

func withAssignee(id int, name string) itemOpt {
	return func(it *domain.Item) { it.AssignedTo = &domain.IDName{ID: id, Name: name} }
}

func newItem(id, ratio int, opts ...itemOpt) *domain.Item {
	it := &domain.Item{ID: id, Subject: "item", DoneRatio: ratio}
	for _, o := range opts {
		o(it)
	}
	return it
}

func TestWeightedPerformance_ZeroWeightIgnored(t *testing.T) {
	schema := fields.DefaultSchema()
	items := []*domain.Item{
		newItem(1, 80, withField("Weight", "2")),
		newItem(2, 100, withField("Weight", "0")),
	}
	assert.Equal(t, 80, WeightedPerformance(items, domain.PeriodYearly, schema))
}

func TestWeightedPerformance_NoPeriodMatch(t *testing.T) {
	schema := fields.DefaultSchema()
	items := []*domain.Item{
		newItem(1, 40, withField("Weight", "1"), withField("Q1", "10")),
		newItem(2, 90, withField("Weight", "3"), withField("Q3", "0")),
	}
	assert.Equal(t, 0, WeightedPerformance(items, domain.PeriodQ3, schema))
	assert.Equal(t, StatusBuckets{}, Buckets(items, domain.PeriodQ3, schema))
}

func TestWeightedPerformance_ZeroTotalWeight(t *testing.T) {
	schema := fields.DefaultSchema()
	assert.Equal(t, 0, WeightedPerformance(nil, domain.PeriodYearly, schema))

	unweighted := []*domain.Item{
		newItem(1, 50),
		newItem(2, 70, withField("Weight", "abc")),
		newItem(3, 90, withField("Weight", "-4")),
	}
	assert.Equal(t, 0, WeightedPerformance(unweighted, domain.PeriodYearly, schema))
}

func TestWeightedPerformance_MapsIntoPeriod(t *testing.T) {
	schema := fields.DefaultSchema()
	items := []*domain.Item{
		newItem(1, 38, withField("Weight", "1"), withField("Q2", "5")),  // Q2 progress 50
		newItem(2, 60, withField("Weight", "3"), withField("Q2", "10")), // past Q2: 100
		newItem(3, 10, withField("Weight", "9")),                        // no Q2 target
	}
	// (1*50 + 3*100) / 4 = 87.5
	assert.Equal(t, 88, WeightedPerformance(items, domain.PeriodQ2, schema))
}

func TestWeightedPerformance_FractionalWeights(t *testing.T) {
	schema := fields.DefaultSchema()
	items := []*domain.Item{
		newItem(1, 10, withField("Weight", "0.1")),
		newItem(2, 20, withField("Weight", "0.2")),
	}
	// (1 + 4) / 0.3 = 16.67
	assert.Equal(t, 17, WeightedPerformance(items, domain.PeriodYearly, schema))
}

func TestBuckets_UseUnmappedRatio(t *testing.T) {
	schema := fields.DefaultSchema()
	items := []*domain.Item{
		newItem(1, 0, withField("Q1", "1")),
		newItem(2, 30, withField("Q1", "1")), // Q1 progress is 100 but yearly is 30
		newItem(3, 100, withField("Q1", "1")),
		newItem(4, 55, withField("Q1", "1")),
	}
	b := Buckets(items, domain.PeriodQ1, schema)
	assert.Equal(t, StatusBuckets{NotStarted: 1, InProgress: 2, Done: 1}, b)
	assert.Equal(t, 4, b.Total())
}

func TestRecords(t *testing.T) {
	schema := fields.DefaultSchema()
	recs := Records([]*domain.Item{
		newItem(7, 38, withField("Weight", "2"), withField("Q2", "x")),
	}, domain.PeriodQ2, schema)

	require.Len(t, recs, 1)
	assert.Equal(t, 7, recs[0].ItemID)
	assert.Equal(t, "2", recs[0].Weight.String())
	assert.Equal(t, 38, recs[0].RawDoneRatio)
	assert.Equal(t, 50, recs[0].MappedProgress)
	assert.Equal(t, domain.PeriodQ2, recs[0].Period)
}

func TestGroupBy_MultiValuedFieldAndNoKeyLast(t *testing.T) {
	schema := fields.DefaultSchema()
	items := []*domain.Item{
		newItem(1, 10, withList("Department", "Sales", "Ops")),
		newItem(2, 20, withField("Department", "Ops")),
		newItem(3, 30),
	}
	keys, groups := GroupBy(items, ByField(fields.TagDepartment, schema))

	assert.Equal(t, []string{"Ops", "Sales", NoKey}, keys)
	assert.Len(t, groups["Ops"], 2)
	assert.Len(t, groups["Sales"], 1)
	assert.Len(t, groups[NoKey], 1)
}

func TestByMember(t *testing.T) {
	members := []domain.User{{ID: 5, Name: "Kim"}, {ID: 6}}
	key := ByMember(members)

	watched := newItem(1, 0, withAssignee(5, "Kim"))
	watched.Watchers = []domain.IDName{{ID: 6}, {ID: 8}}
	assert.Equal(t, []string{"Kim", "#6"}, key(watched))
	assert.Equal(t, []string{NoKey}, key(newItem(2, 0, withAssignee(9, "Lee"))))
}

func TestReport(t *testing.T) {
	schema := fields.DefaultSchema()
	items := []*domain.Item{
		newItem(1, 0),
		newItem(2, 50, withParent(1), withField("Weight", "1"), withField("Department", "Ops"), withAssignee(5, "Kim")),
		newItem(3, 100, withParent(1), withField("Weight", "1"), withField("Department", "Sales")),
		newItem(4, 0, withParent(2), withField("Weight", "100")),
		newItem(10, 20, withParent(9), withField("Weight", "2"), withField("Goal", "Grow")),
	}
	byID := make(map[int]*domain.Item)
	for _, it := range items {
		byID[it.ID] = it
	}
	b := hierarchy.NewBuilder(nil, func(_ context.Context, id int) (*domain.Item, error) {
		if it, ok := byID[id]; ok {
			return it, nil
		}
		return &domain.Item{ID: id, Subject: "main"}, nil
	}, nil, 2)
	tree, err := b.Build(context.Background(), items)
	require.NoError(t, err)

	s := Report(tree, []domain.User{{ID: 5, Name: "Kim"}}, domain.PeriodYearly, schema)

	// Children 2, 3, 10: (50 + 100 + 2*20) / 4 = 47.5; sub 4 carries no weight.
	assert.Equal(t, 48, s.Overall)
	assert.Equal(t, StatusBuckets{InProgress: 2, Done: 1}, s.Buckets)

	require.Len(t, s.Mains, 2)
	assert.Equal(t, MainResult{MainID: 1, Subject: "item", Children: 2, Performance: 75, Buckets: StatusBuckets{InProgress: 1, Done: 1}}, s.Mains[0])
	assert.Equal(t, 9, s.Mains[1].MainID)
	assert.Equal(t, 20, s.Mains[1].Performance)

	require.Len(t, s.Departments, 3)
	assert.Equal(t, "Ops", s.Departments[0].Key)
	assert.Equal(t, 50, s.Departments[0].Performance)
	assert.Equal(t, NoKey, s.Departments[2].Key)

	require.Len(t, s.Goals, 2)
	assert.Equal(t, "Grow", s.Goals[0].Key)

	require.Len(t, s.Members, 2)
	assert.Equal(t, "Kim", s.Members[0].Key)
	assert.Equal(t, 1, s.Members[0].Items)
}

func TestPeriodSeries(t *testing.T) {
	schema := fields.DefaultSchema()
	items := []*domain.Item{newItem(1, 38, withField("Weight", "1"), withField("Q2", "1"))}
	series := PeriodSeries(items, schema)

	require.Len(t, series, len(domain.PeriodTags))
	got := make(map[domain.PeriodTag]int)
	for _, p := range series {
		got[p.Period] = p.Performance
	}
	assert.Equal(t, 38, got[domain.PeriodYearly])
	assert.Equal(t, 50, got[domain.PeriodQ2])
	assert.Equal(t, 0, got[domain.PeriodQ1])
	assert.Equal(t, 76, got[domain.PeriodHalf])
}
