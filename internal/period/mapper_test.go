package period

import (
	"testing"

	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapTo_Q2Scenario(t *testing.T) {
	assert.Equal(t, 50, MapTo(domain.PeriodQ2, 38))
	assert.Equal(t, 38, MapFrom(domain.PeriodQ2, 50))
}

func TestMapTo_Table(t *testing.T) {
	cases := []struct {
		tag   domain.PeriodTag
		ratio int
		want  int
	}{
		{domain.PeriodYearly, 37, 37},
		{domain.PeriodHalf, 25, 50},
		{domain.PeriodHalf, 50, 100},
		{domain.PeriodHalf, 51, 100},
		{domain.PeriodThreeQ, 30, 40},
		{domain.PeriodThreeQ, 90, 100},
		{domain.PeriodQ1, 10, 40},
		{domain.PeriodQ1, 26, 100},
		{domain.PeriodQ2, 20, 0},
		{domain.PeriodQ2, 26, 0},
		{domain.PeriodQ2, 60, 100},
		{domain.PeriodQ3, 63, 50},
		{domain.PeriodQ3, 50, 0},
		{domain.PeriodQ3, 76, 100},
		{domain.PeriodQ4, 75, 0},
		{domain.PeriodQ4, 88, 50},
		{domain.PeriodQ4, 100, 100},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MapTo(tc.tag, tc.ratio), "tag=%s ratio=%d", tc.tag, tc.ratio)
	}
}

func TestMapTo_ClampsOutOfRangeRatios(t *testing.T) {
	assert.Equal(t, 0, MapTo(domain.PeriodQ1, -5))
	assert.Equal(t, 100, MapTo(domain.PeriodQ4, 140))
	assert.Equal(t, 100, MapTo(domain.PeriodYearly, 140))
}

func TestMapFrom_RoundTripInsideRange(t *testing.T) {
	tags := []domain.PeriodTag{
		domain.PeriodQ1, domain.PeriodQ2, domain.PeriodQ3, domain.PeriodQ4,
		domain.PeriodHalf, domain.PeriodThreeQ, domain.PeriodYearly,
	}
	for _, tag := range tags {
		rg, ok := RangeOf(tag)
		require.True(t, ok)
		for r := rg.Min; r <= rg.Max; r++ {
			assert.Equal(t, r, MapFrom(tag, MapTo(tag, r)), "tag=%s ratio=%d", tag, r)
		}
	}
}

func TestMapTo_Saturates(t *testing.T) {
	for _, tag := range domain.Quarters {
		rg, _ := RangeOf(tag)
		for r := 0; r < rg.Min; r++ {
			assert.Equal(t, 0, MapTo(tag, r), "tag=%s ratio=%d", tag, r)
		}
		for r := rg.Max + 1; r <= 100; r++ {
			assert.Equal(t, 100, MapTo(tag, r), "tag=%s ratio=%d", tag, r)
		}
	}
}

func TestMapFrom_UnknownTag(t *testing.T) {
	assert.Equal(t, 0, MapFrom(domain.PeriodTag("Q5"), 50))
}

func TestParseTag(t *testing.T) {
	cases := map[string]domain.PeriodTag{
		"q3":      domain.PeriodQ3,
		"YEARLY":  domain.PeriodYearly,
		"":        domain.PeriodYearly,
		"half":    domain.PeriodHalf,
		"h1":      domain.PeriodHalf,
		"three_q": domain.PeriodThreeQ,
		"Q1-Q3":   domain.PeriodThreeQ,
	}
	for in, want := range cases {
		got, err := ParseTag(in)
		require.NoError(t, err, "in=%q", in)
		assert.Equal(t, want, got, "in=%q", in)
	}

	_, err := ParseTag("Q5")
	assert.ErrorContains(t, err, "unknown period")
}

func TestValue_Flag(t *testing.T) {
	v := NewValue(domain.PeriodYearly)
	assert.Equal(t, "period", v.Type())
	require.NoError(t, v.Set("q2"))
	assert.Equal(t, domain.PeriodQ2, v.Tag())
	assert.Equal(t, "Q2", v.String())
	assert.Error(t, v.Set("nope"))
	assert.Equal(t, domain.PeriodQ2, v.Tag())
}
