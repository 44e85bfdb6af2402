package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/tierboard/internal/contract"
	"github.com/alexanderramin/tierboard/internal/performance"
)

const (
	barWidth     = 10
	subjectWidth = 48
)

// FormatDashboard renders a full dashboard: the tier tree, the grouped
// summaries, the period series, quarter progress and anything dropped.
func FormatDashboard(resp *contract.DashboardResponse, now time.Time) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		Dim("Period"), Bold(string(resp.Period)),
		Dim("Overall"), RenderProgress(resp.Summary.Overall, barWidth)))
	b.WriteString(fmt.Sprintf("%s %d main · %d child · %d sub · %d excluded\n",
		Dim("Items "), resp.Counts.Main, resp.Counts.Child, resp.Counts.Sub, resp.Counts.Excluded))
	b.WriteString(formatBuckets(resp.Summary.Buckets) + "\n")

	if len(resp.Tree) > 0 {
		b.WriteString("\n" + Header("Tree") + "\n")
		b.WriteString(FormatTree(resp.Tree))
	}

	if len(resp.Summary.Mains) > 0 {
		b.WriteString("\n" + Header("Main items") + "\n")
		rows := make([][]string, 0, len(resp.Summary.Mains))
		for _, m := range resp.Summary.Mains {
			rows = append(rows, []string{
				Dim("#" + strconv.Itoa(m.MainID)),
				Truncate(m.Subject, subjectWidth),
				strconv.Itoa(m.Children),
				RenderProgress(m.Performance, barWidth),
			})
		}
		b.WriteString(Table{
			Headers:    []string{"ID", "SUBJECT", "CHILDREN", "PERFORMANCE"},
			Rows:       rows,
			RightAlign: map[int]bool{2: true},
		}.Render())
	}

	writeGroups(&b, "Departments", "DEPARTMENT", resp.Summary.Departments)
	writeGroups(&b, "Goals", "GOAL", resp.Summary.Goals)
	writeGroups(&b, "Assignees", "ASSIGNEE", resp.Summary.Assignees)
	writeGroups(&b, "Members", "MEMBER", resp.Summary.Members)

	if len(resp.Series) > 0 {
		b.WriteString("\n" + Header("By period") + "\n")
		rows := make([][]string, 0, len(resp.Series))
		for _, p := range resp.Series {
			label := string(p.Period)
			if p.Period == resp.Period {
				label = StyleYellowBold.Render(label)
			}
			rows = append(rows, []string{label, RenderProgress(p.Performance, barWidth), formatBuckets(p.Buckets)})
		}
		b.WriteString(RenderTable([]string{"PERIOD", "PERFORMANCE", "ITEMS"}, rows))
	}

	if len(resp.Progress) > 0 {
		b.WriteString("\n" + Header("Quarter progress") + "\n")
		b.WriteString(FormatProgressRows(resp.Progress))
	}

	if len(resp.Broken) > 0 {
		b.WriteString("\n" + Header("Broken links") + "\n")
		for _, l := range resp.Broken {
			b.WriteString(StyleRed.Render(fmt.Sprintf("  #%d → #%d", l.ItemID, l.ParentID)) +
				Dim(" "+string(l.Reason)) + "\n")
		}
	}

	if len(resp.Warnings) > 0 {
		b.WriteString("\n")
		for _, w := range resp.Warnings {
			b.WriteString(StyleYellow.Render(fmt.Sprintf("  WARNING: %s", w)) + "\n")
		}
	}

	c := resp.Cache
	b.WriteString("\n" + Dim(fmt.Sprintf("load %s · %s · cache %d hits, %d misses, %d fetches, %d errors",
		shortID(resp.LoadID), HumanTimestamp(resp.GeneratedAt, now),
		c.Hits, c.Misses, c.Fetches, c.Errors)))

	return RenderBox("Dashboard", b.String())
}

// FormatTree renders the MAIN → CHILD → SUB tree. CHILD lines carry their
// period progress and weight.
func FormatTree(tree []contract.MainView) string {
	var items []TreeItem
	for _, m := range tree {
		items = append(items, TreeItem{
			Title:  Bold(m.Subject),
			ID:     m.ID,
			Detail: Percent(m.Performance),
		})
		for ci, c := range m.Children {
			lastChild := ci == len(m.Children)-1
			detail := fmt.Sprintf("%d%%", c.MappedProgress)
			if c.Weight != "" {
				detail += " w" + c.Weight
			}
			title := c.Subject
			if c.Assignee != "" {
				title += Dim(" @" + c.Assignee)
			}
			items = append(items, TreeItem{
				Title:  title,
				ID:     c.ID,
				Level:  1,
				IsLast: lastChild,
				State:  c.State,
				Detail: detail,
			})
			for si, s := range c.Subs {
				items = append(items, TreeItem{
					Title:  s.Subject,
					ID:     s.ID,
					Level:  2,
					IsLast: si == len(c.Subs)-1,
					State:  s.State,
					Detail: fmt.Sprintf("%d%%", s.DoneRatio),
				})
			}
		}
	}
	return RenderTree(items)
}

// FormatProgressRows renders one line per item with a target/progress
// cell for each quarter. Quarters without a target show "--".
func FormatProgressRows(rows []performance.ProgressRow) string {
	headers := []string{"ID", "SUBJECT", "WEIGHT", "UNIT"}
	if len(rows) > 0 {
		for _, c := range rows[0].Cells {
			headers = append(headers, string(c.Period))
		}
	}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		line := []string{
			Dim("#" + strconv.Itoa(r.ItemID)),
			Truncate(r.Subject, subjectWidth),
			r.Weight.String(),
			OrDash(r.Unit),
		}
		for _, c := range r.Cells {
			if !c.HasTarget {
				line = append(line, Dim("--"))
				continue
			}
			line = append(line, fmt.Sprintf("%s %s", c.Target, Percent(c.Progress)))
		}
		out = append(out, line)
	}
	return Table{Headers: headers, Rows: out, RightAlign: map[int]bool{2: true}}.Render()
}

// FormatSetProgress renders the result of a progress edit.
func FormatSetProgress(resp *contract.SetProgressResponse) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s #%d %s = %d%%\n",
		StyleGreen.Render("✔ Updated"), resp.ItemID, resp.Period, resp.PeriodValue))
	b.WriteString(fmt.Sprintf("  done ratio %s → %s\n",
		Dim(fmt.Sprintf("%d%%", resp.PreviousRatio)), Percent(resp.DoneRatio)))
	if resp.StatusID != nil {
		b.WriteString(fmt.Sprintf("  status → %d\n", *resp.StatusID))
	}
	return b.String()
}

// FormatCreatedItem renders a newly created item.
func FormatCreatedItem(resp *contract.CreateItemResponse) string {
	it := resp.Item
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s #%d %s\n", StyleGreen.Render("✔ Created"), it.ID, Bold(it.Subject)))
	if pid, ok := it.ParentID(); ok {
		b.WriteString(fmt.Sprintf("  parent  #%d\n", pid))
	}
	b.WriteString(fmt.Sprintf("  project %s\n", OrDash(it.Project.Name)))
	if it.AssignedTo != nil {
		b.WriteString(fmt.Sprintf("  owner   %s\n", OrDash(it.AssignedTo.Name)))
	}
	for _, f := range it.CustomFields {
		b.WriteString(fmt.Sprintf("  %s %s\n", Dim(f.Name+":"), f.Value.String()))
	}
	return b.String()
}

func formatBuckets(b performance.StatusBuckets) string {
	return fmt.Sprintf("%s %s %s",
		StyleGreen.Render(fmt.Sprintf("%d done", b.Done)),
		StyleYellow.Render(fmt.Sprintf("%d in progress", b.InProgress)),
		StyleDim.Render(fmt.Sprintf("%d not started", b.NotStarted)))
}

func writeGroups(b *strings.Builder, title, column string, groups []performance.GroupResult) {
	if len(groups) == 0 {
		return
	}
	b.WriteString("\n" + Header(title) + "\n")
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		key := g.Key
		if key == performance.NoKey {
			key = Dim("(none)")
		}
		rows = append(rows, []string{
			key,
			strconv.Itoa(g.Items),
			g.Weight.String(),
			RenderProgress(g.Performance, barWidth),
		})
	}
	b.WriteString(Table{
		Headers:    []string{column, "ITEMS", "WEIGHT", "PERFORMANCE"},
		Rows:       rows,
		RightAlign: map[int]bool{1: true, 2: true},
	}.Render())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
