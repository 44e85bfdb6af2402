package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one line of a rendered tree.
type TreeItem struct {
	Title  string
	ID     int // 0 hides the id
	Level  int
	IsLast bool
	State  domain.ProgressState
	Detail string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeGap    = "   "
)

// RenderTree draws items with box-drawing connectors. Done items get a
// green ✔, in-progress items an amber ▶, and details are right-aligned.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	type lineInfo struct {
		content string
		badge   string
	}
	lines := make([]lineInfo, len(items))
	maxContentWidth := 0

	// open[l] reports whether level l still has siblings below.
	open := map[int]bool{}
	for idx, item := range items {
		var prefix strings.Builder
		for l := 1; l < item.Level; l++ {
			if open[l] {
				prefix.WriteString(treePipe)
			} else {
				prefix.WriteString(treeGap)
			}
		}
		if item.Level > 0 {
			if item.IsLast {
				prefix.WriteString(treeCorner)
			} else {
				prefix.WriteString(treeBranch)
			}
			open[item.Level] = !item.IsLast
		}

		title := item.Title
		if item.ID > 0 {
			title = StyleDim.Render(fmt.Sprintf("#%d ", item.ID)) + title
		}
		statusPrefix := ""
		switch item.State {
		case domain.StateDone:
			statusPrefix = StyleGreen.Render("✔ ")
			title = Dim(title)
		case domain.StateInProgress:
			statusPrefix = StyleYellowBold.Render("▶ ")
		}

		lines[idx].content = prefix.String() + statusPrefix + title
		if item.Detail != "" {
			lines[idx].badge = StyleBlue.Render(fmt.Sprintf("[ %s ]", item.Detail))
		}
		if w := lipgloss.Width(lines[idx].content); w > maxContentWidth {
			maxContentWidth = w
		}
	}

	var b strings.Builder
	for _, li := range lines {
		if li.badge == "" {
			b.WriteString(li.content + "\n")
			continue
		}
		pad := max(maxContentWidth-lipgloss.Width(li.content), 0)
		b.WriteString(li.content + strings.Repeat(" ", pad) + "  " + li.badge + "\n")
	}
	return b.String()
}
