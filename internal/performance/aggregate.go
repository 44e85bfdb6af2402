// Package performance computes weighted, period-scoped progress over
// classified items. Everything here is a pure function of the items and the
// selected period; nothing is cached between calls.
package performance

import (
	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/alexanderramin/tierboard/internal/fields"
	"github.com/alexanderramin/tierboard/internal/period"
	"github.com/shopspring/decimal"
)

// Record is the per-item input to a weighted average.
type Record struct {
	ItemID         int
	Weight         decimal.Decimal
	RawDoneRatio   int
	Period         domain.PeriodTag
	MappedProgress int
}

// StatusBuckets counts items by overall done ratio.
type StatusBuckets struct {
	NotStarted int `json:"not_started"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
}

// Total returns the number of bucketed items.
func (b StatusBuckets) Total() int {
	return b.NotStarted + b.InProgress + b.Done
}

// Records builds one Record per item that passes the period filter.
func Records(items []*domain.Item, tag domain.PeriodTag, schema fields.Schema) []Record {
	kept := period.FilterByPeriod(items, tag, schema)
	out := make([]Record, 0, len(kept))
	for _, it := range kept {
		if it == nil {
			continue
		}
		out = append(out, Record{
			ItemID:         it.ID,
			Weight:         fields.Weight(it, schema),
			RawDoneRatio:   domain.ClampRatio(it.DoneRatio),
			Period:         tag,
			MappedProgress: period.MapTo(tag, it.DoneRatio),
		})
	}
	return out
}

// Weighted averages mapped progress by weight. A zero total weight, which
// includes the empty set, yields 0.
func Weighted(records []Record) int {
	totalWeight := decimal.Zero
	weightedSum := decimal.Zero
	for _, r := range records {
		totalWeight = totalWeight.Add(r.Weight)
		weightedSum = weightedSum.Add(r.Weight.Mul(decimal.NewFromInt(int64(r.MappedProgress))))
	}
	if totalWeight.IsZero() {
		return 0
	}
	return int(weightedSum.Div(totalWeight).Round(0).IntPart())
}

// WeightedPerformance is the 0..100 weighted progress of items for tag.
func WeightedPerformance(items []*domain.Item, tag domain.PeriodTag, schema fields.Schema) int {
	return Weighted(Records(items, tag, schema))
}

// Buckets counts the period-filtered items by their unmapped done ratio.
func Buckets(items []*domain.Item, tag domain.PeriodTag, schema fields.Schema) StatusBuckets {
	var b StatusBuckets
	for _, it := range period.FilterByPeriod(items, tag, schema) {
		if it == nil {
			continue
		}
		switch it.State() {
		case domain.StateNotStarted:
			b.NotStarted++
		case domain.StateDone:
			b.Done++
		default:
			b.InProgress++
		}
	}
	return b
}

// TotalWeight sums the weights of the period-filtered items.
func TotalWeight(items []*domain.Item, tag domain.PeriodTag, schema fields.Schema) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range Records(items, tag, schema) {
		sum = sum.Add(r.Weight)
	}
	return sum
}
