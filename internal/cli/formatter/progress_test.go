package formatter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderProgress_Clamps(t *testing.T) {
	tests := []struct {
		name string
		pct  int
		want string
	}{
		{"zero", 0, "  0%"},
		{"half", 50, " 50%"},
		{"full", 100, "100%"},
		{"over", 140, "100%"},
		{"negative", -5, "  0%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, strings.HasSuffix(RenderProgress(tt.pct, 10), tt.want))
		})
	}
}

func TestRenderCompactBar_Blocks(t *testing.T) {
	bar := RenderCompactBar(50, 4, true)
	assert.Equal(t, 2, strings.Count(bar, filledBlock))
	assert.Equal(t, 2, strings.Count(bar, emptyBlock))

	tiny := RenderCompactBar(100, 1, true)
	assert.Equal(t, 2, strings.Count(tiny, filledBlock))
	assert.NotContains(t, tiny, "%")
}
