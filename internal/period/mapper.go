// Package period rescales an item's yearly done ratio onto fiscal
// sub-periods and back, and decides which sub-period is currently open.
package period

import (
	"fmt"
	"math"
	"strings"

	"github.com/alexanderramin/tierboard/internal/domain"
)

// Range is the slice of the yearly 0..100 scale a period covers.
type Range struct {
	Min int
	Max int
}

var ranges = map[domain.PeriodTag]Range{
	domain.PeriodYearly: {0, 100},
	domain.PeriodQ1:     {0, 25},
	domain.PeriodQ2:     {26, 50},
	domain.PeriodQ3:     {51, 75},
	domain.PeriodQ4:     {76, 100},
	domain.PeriodHalf:   {0, 50},
	domain.PeriodThreeQ: {0, 75},
}

// RangeOf returns the ratio range for tag.
func RangeOf(tag domain.PeriodTag) (Range, bool) {
	r, ok := ranges[tag]
	return r, ok
}

// ParseTag accepts a tag name case-insensitively, plus the aliases "H1",
// "Q1-Q3" and "Y".
func ParseTag(s string) (domain.PeriodTag, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	switch norm {
	case "", "Y", "YEAR":
		return domain.PeriodYearly, nil
	case "H1":
		return domain.PeriodHalf, nil
	case "Q1-Q3", "3Q", "THREEQ":
		return domain.PeriodThreeQ, nil
	}
	tag := domain.PeriodTag(norm)
	if _, ok := ranges[tag]; !ok {
		return "", fmt.Errorf("unknown period %q (want one of %s)", s, tagList())
	}
	return tag, nil
}

func tagList() string {
	names := make([]string, len(domain.PeriodTags))
	for i, t := range domain.PeriodTags {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// MapTo converts a yearly done ratio into progress within tag, on a 0..100
// scale. Ratios past the period's range saturate at 100; ratios before it
// yield 0.
func MapTo(tag domain.PeriodTag, ratio int) int {
	r := domain.ClampRatio(ratio)
	switch tag {
	case domain.PeriodHalf:
		return leading(r, 50)
	case domain.PeriodThreeQ:
		return leading(r, 75)
	case domain.PeriodQ1:
		return leading(r, 25)
	case domain.PeriodQ2:
		return trailing(r, 26, 50)
	case domain.PeriodQ3:
		return trailing(r, 51, 75)
	case domain.PeriodQ4:
		if r >= 76 {
			return roundHalfUp(float64(r-76) / 24 * 100)
		}
		return 0
	default:
		return r
	}
}

func leading(r, max int) int {
	if r <= max {
		return roundHalfUp(float64(r) / float64(max) * 100)
	}
	return 100
}

func trailing(r, min, max int) int {
	switch {
	case r >= min && r <= max:
		return roundHalfUp(float64(r-min) / 24 * 100)
	case r > max:
		return 100
	default:
		return 0
	}
}

// MapFrom converts period-relative progress back to a yearly done ratio
// using the period's range. A degenerate range yields 0.
func MapFrom(tag domain.PeriodTag, value int) int {
	rg, ok := ranges[tag]
	if !ok || rg.Max == rg.Min {
		return 0
	}
	v := domain.ClampRatio(value)
	return roundHalfUp(float64(rg.Min) + float64(v)*float64(rg.Max-rg.Min)/100)
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
