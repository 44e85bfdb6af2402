package period

import (
	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/alexanderramin/tierboard/internal/fields"
)

// FilterByPeriod keeps the items that carry a target for tag. HALF accepts
// a Q1 or Q2 target, THREE_Q any of Q1..Q3, a quarter its own field, and
// YEARLY keeps everything.
func FilterByPeriod(items []*domain.Item, tag domain.PeriodTag, schema fields.Schema) []*domain.Item {
	quarters := coveredQuarters(tag)
	if quarters == nil {
		return items
	}
	out := make([]*domain.Item, 0, len(items))
	for _, it := range items {
		for _, q := range quarters {
			ft, _ := fields.QuarterTag(q)
			if fields.HasValue(it, schema.Name(ft)) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

func coveredQuarters(tag domain.PeriodTag) []domain.PeriodTag {
	switch tag {
	case domain.PeriodHalf:
		return []domain.PeriodTag{domain.PeriodQ1, domain.PeriodQ2}
	case domain.PeriodThreeQ:
		return []domain.PeriodTag{domain.PeriodQ1, domain.PeriodQ2, domain.PeriodQ3}
	case domain.PeriodQ1, domain.PeriodQ2, domain.PeriodQ3, domain.PeriodQ4:
		return []domain.PeriodTag{tag}
	}
	return nil
}
