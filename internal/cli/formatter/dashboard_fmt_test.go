package formatter

import (
	"testing"
	"time"

	"github.com/alexanderramin/tierboard/internal/cache"
	"github.com/alexanderramin/tierboard/internal/contract"
	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/alexanderramin/tierboard/internal/hierarchy"
	"github.com/alexanderramin/tierboard/internal/performance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func sampleDashboard(now time.Time) *contract.DashboardResponse {
	return &contract.DashboardResponse{
		LoadID:      "3f2c9a10-5b7e-4c1d-9f00-aa0000000001",
		GeneratedAt: now.Add(-2 * time.Minute),
		Period:      domain.PeriodQ2,
		Tree: []contract.MainView{{
			ID: 100, Subject: "Grow revenue", Performance: 80,
			Children: []contract.ChildView{{
				ID: 101, Subject: "Close Q2 deals", Assignee: "Kim",
				DoneRatio: 80, MappedProgress: 80, Weight: "2", State: domain.StateInProgress,
				Subs: []contract.SubView{{ID: 103, Subject: "Call leads", DoneRatio: 0, State: domain.StateNotStarted}},
			}},
		}},
		Counts: contract.TierCounts{Main: 1, Child: 1, Sub: 1, Excluded: 1},
		Summary: performance.Summary{
			Period:  domain.PeriodQ2,
			Overall: 80,
			Buckets: performance.StatusBuckets{InProgress: 1},
			Mains:   []performance.MainResult{{MainID: 100, Subject: "Grow revenue", Children: 1, Performance: 80}},
			Departments: []performance.GroupResult{
				{Key: "Sales", Items: 1, Weight: decimal.NewFromInt(2), Performance: 80},
				{Key: performance.NoKey, Items: 0, Weight: decimal.Zero},
			},
		},
		Series: []performance.PeriodPoint{{Period: domain.PeriodYearly, Performance: 80}, {Period: domain.PeriodQ2, Performance: 80}},
		Progress: []performance.ProgressRow{{
			ItemID: 101, Subject: "Close Q2 deals", DoneRatio: 80, Weight: decimal.NewFromInt(2), Unit: "deals",
			Cells: []performance.QuarterCell{
				{Period: domain.PeriodQ1},
				{Period: domain.PeriodQ2, Target: "4", HasTarget: true, Progress: 80},
			},
		}},
		Broken:   []hierarchy.BrokenLink{{ItemID: 300, ParentID: 999, Reason: hierarchy.ReasonParentUnavailable}},
		Cache:    cache.Stats{Hits: 3, Misses: 2, Fetches: 2},
		Warnings: []string{"item #300 dropped: parent #999 parent_unavailable"},
	}
}

func TestFormatDashboard_IncludesEverySection(t *testing.T) {
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	out := FormatDashboard(sampleDashboard(now), now)

	for _, want := range []string{
		"DASHBOARD", "Q2", "1 main", "1 excluded",
		"TREE", "Grow revenue", "Close Q2 deals", "@Kim", "Call leads",
		"MAIN ITEMS", "DEPARTMENTS", "Sales", "(none)",
		"BY PERIOD", "YEARLY",
		"QUARTER PROGRESS", "deals",
		"BROKEN LINKS", "#300 → #999", "parent_unavailable",
		"WARNING: item #300 dropped",
		"load 3f2c9a10", "2m ago", "3 hits, 2 misses",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "ASSIGNEES")
	assert.NotContains(t, out, "MEMBERS")
}

func TestFormatTree_ShowsWeightAndNesting(t *testing.T) {
	out := FormatTree(sampleDashboard(time.Now()).Tree)

	assert.Contains(t, out, "#100")
	assert.Contains(t, out, "80% w2")
	assert.Contains(t, out, treeCorner)
	assert.Contains(t, out, "0%")
}

func TestFormatTree_Empty(t *testing.T) {
	assert.Empty(t, FormatTree(nil))
}

func TestFormatSetProgress(t *testing.T) {
	closed := 5
	out := FormatSetProgress(&contract.SetProgressResponse{
		ItemID: 101, Period: domain.PeriodQ2, PeriodValue: 100,
		PreviousRatio: 25, DoneRatio: 100, StatusID: &closed,
	})
	assert.Contains(t, out, "#101 Q2 = 100%")
	assert.Contains(t, out, "25%")
	assert.Contains(t, out, "status → 5")
}

func TestFormatCreatedItem(t *testing.T) {
	out := FormatCreatedItem(&contract.CreateItemResponse{Item: &domain.Item{
		ID:         501,
		Subject:    "Upsell",
		Parent:     &domain.IDRef{ID: 100},
		Project:    domain.IDName{ID: 1, Name: "Goals"},
		AssignedTo: &domain.IDName{ID: 6, Name: "Lee"},
		CustomFields: []domain.CustomField{
			{ID: 11, Name: "Weight", Value: domain.StringValue("3")},
		},
	}})
	assert.Contains(t, out, "#501")
	assert.Contains(t, out, "parent  #100")
	assert.Contains(t, out, "Goals")
	assert.Contains(t, out, "Lee")
	assert.Contains(t, out, "Weight: 3")
}
