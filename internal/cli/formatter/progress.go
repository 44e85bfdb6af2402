package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a 0..100 score as a bar like [████░░░░]  45%.
func RenderProgress(pct, width int) string {
	bar, style := progressBar(pct, width)
	return fmt.Sprintf("[%s] %3d%%", style.Render(bar), clampPct(pct))
}

// RenderCompactBar renders the bar alone, for dense table cells. dim drops
// the color.
func RenderCompactBar(pct, width int, dim bool) string {
	bar, style := progressBar(pct, width)
	if dim {
		return StyleDim.Render(bar)
	}
	return style.Render(bar)
}

func progressBar(pct, width int) (string, lipgloss.Style) {
	pct = clampPct(pct)
	if width < 2 {
		width = 2
	}
	filled := pct * width / 100
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)
	return bar, PerformanceStyle(pct)
}

func clampPct(pct int) int {
	return min(max(pct, 0), 100)
}
