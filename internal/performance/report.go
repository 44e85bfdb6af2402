package performance

import (
	"sort"
	"strconv"
	"strings"

	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/alexanderramin/tierboard/internal/fields"
	"github.com/alexanderramin/tierboard/internal/hierarchy"
	"github.com/shopspring/decimal"
)

// NoKey groups items that carry no value for a grouping.
const NoKey = ""

// KeyFunc returns the group keys an item belongs to. Multi-valued fields
// put an item in several groups.
type KeyFunc func(it *domain.Item) []string

// ByField groups by the values of the schema field bound to tag.
func ByField(tag fields.Tag, schema fields.Schema) KeyFunc {
	name := schema.Name(tag)
	return func(it *domain.Item) []string {
		f, ok := fields.Lookup(it, name, fields.MatchExact)
		if !ok {
			return []string{NoKey}
		}
		var keys []string
		seen := make(map[string]bool)
		for _, v := range f.Value.Values {
			v = strings.TrimSpace(v)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			keys = append(keys, v)
		}
		if len(keys) == 0 {
			return []string{NoKey}
		}
		return keys
	}
}

// ByAssignee groups by assignee name, falling back to "#id".
func ByAssignee(it *domain.Item) []string {
	if it == nil || it.AssignedTo == nil || it.AssignedTo.ID == 0 {
		return []string{NoKey}
	}
	return []string{userKey(it.AssignedTo.ID, it.AssignedTo.Name)}
}

// ByMember groups by the members an item is assigned to or watched by.
// Items touching no member fall under NoKey.
func ByMember(members []domain.User) KeyFunc {
	names := make(map[int]string, len(members))
	for _, u := range members {
		names[u.ID] = userKey(u.ID, u.Name)
	}
	return func(it *domain.Item) []string {
		var keys []string
		seen := make(map[int]bool)
		add := func(id int) {
			if name, ok := names[id]; ok && !seen[id] {
				seen[id] = true
				keys = append(keys, name)
			}
		}
		add(it.AssigneeID())
		for _, id := range it.WatcherIDs() {
			add(id)
		}
		if len(keys) == 0 {
			return []string{NoKey}
		}
		return keys
	}
}

func userKey(id int, name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return "#" + strconv.Itoa(id)
}

// GroupBy buckets items by key. Keys are returned sorted with NoKey last.
func GroupBy(items []*domain.Item, key KeyFunc) ([]string, map[string][]*domain.Item) {
	groups := make(map[string][]*domain.Item)
	for _, it := range items {
		if it == nil {
			continue
		}
		for _, k := range key(it) {
			groups[k] = append(groups[k], it)
		}
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == NoKey || keys[j] == NoKey {
			return keys[j] == NoKey && keys[i] != NoKey
		}
		return keys[i] < keys[j]
	})
	return keys, groups
}

// GroupResult is the aggregate for one group key.
type GroupResult struct {
	Key         string
	Items       int
	Weight      decimal.Decimal
	Performance int
	Buckets     StatusBuckets
}

// MainResult is the aggregate over one MAIN item's CHILD items.
type MainResult struct {
	MainID      int
	Subject     string
	Children    int
	Performance int
	Buckets     StatusBuckets
}

// Summary is everything a dashboard shows for one period.
type Summary struct {
	Period      domain.PeriodTag
	Overall     int
	Buckets     StatusBuckets
	Mains       []MainResult
	Departments []GroupResult
	Goals       []GroupResult
	Assignees   []GroupResult
	Members     []GroupResult
}

// Aggregate computes each group's result for tag.
func Aggregate(items []*domain.Item, key KeyFunc, tag domain.PeriodTag, schema fields.Schema) []GroupResult {
	keys, groups := GroupBy(items, key)
	out := make([]GroupResult, 0, len(keys))
	for _, k := range keys {
		members := groups[k]
		recs := Records(members, tag, schema)
		out = append(out, GroupResult{
			Key:         k,
			Items:       len(recs),
			Weight:      sumWeight(recs),
			Performance: Weighted(recs),
			Buckets:     Buckets(members, tag, schema),
		})
	}
	return out
}

func sumWeight(recs []Record) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range recs {
		sum = sum.Add(r.Weight)
	}
	return sum
}

// Report summarizes a classified tree for tag. CHILD items are the unit of
// measurement; SUB items are shown in the tree but do not carry weight
// here. members may be nil when no team dimension applies.
func Report(tree *hierarchy.Tree, members []domain.User, tag domain.PeriodTag, schema fields.Schema) Summary {
	children := tree.Children()
	s := Summary{
		Period:      tag,
		Overall:     WeightedPerformance(children, tag, schema),
		Buckets:     Buckets(children, tag, schema),
		Departments: Aggregate(children, ByField(fields.TagDepartment, schema), tag, schema),
		Goals:       Aggregate(children, ByField(fields.TagGoal, schema), tag, schema),
		Assignees:   Aggregate(children, ByAssignee, tag, schema),
	}
	if len(members) > 0 {
		s.Members = Aggregate(children, ByMember(members), tag, schema)
	}
	for _, m := range tree.Mains {
		items := make([]*domain.Item, 0, len(m.Children))
		for _, c := range m.Children {
			items = append(items, c.Child)
		}
		s.Mains = append(s.Mains, MainResult{
			MainID:      m.Main.ID,
			Subject:     m.Main.Subject,
			Children:    len(items),
			Performance: WeightedPerformance(items, tag, schema),
			Buckets:     Buckets(items, tag, schema),
		})
	}
	return s
}

// PeriodPoint is one tag's value in a PeriodSeries.
type PeriodPoint struct {
	Period      domain.PeriodTag
	Performance int
	Buckets     StatusBuckets
}

// PeriodSeries evaluates items under every recognized tag.
func PeriodSeries(items []*domain.Item, schema fields.Schema) []PeriodPoint {
	out := make([]PeriodPoint, 0, len(domain.PeriodTags))
	for _, tag := range domain.PeriodTags {
		out = append(out, PeriodPoint{
			Period:      tag,
			Performance: WeightedPerformance(items, tag, schema),
			Buckets:     Buckets(items, tag, schema),
		})
	}
	return out
}
