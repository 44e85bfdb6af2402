package performance

import (
	"sort"

	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/alexanderramin/tierboard/internal/fields"
	"github.com/alexanderramin/tierboard/internal/period"
	"github.com/shopspring/decimal"
)

// QuarterCell is one quarter column of a progress row.
type QuarterCell struct {
	Period    domain.PeriodTag
	Target    string
	HasTarget bool
	Progress  int
}

// ProgressRow is an item with its per-quarter targets and progress.
type ProgressRow struct {
	ItemID    int
	Subject   string
	DoneRatio int
	Weight    decimal.Decimal
	Unit      string
	Cells     []QuarterCell
}

// ProgressRows builds the quarter columns for items, sorted by id. Column
// fields are matched exactly first, then with digits stripped, so a column
// renumbered by the deployment still resolves.
func ProgressRows(items []*domain.Item, schema fields.Schema) []ProgressRow {
	rows := make([]ProgressRow, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		row := ProgressRow{
			ItemID:    it.ID,
			Subject:   it.Subject,
			DoneRatio: domain.ClampRatio(it.DoneRatio),
			Weight:    fields.Weight(it, schema),
			Unit:      fields.Value(it, schema.Name(fields.TagUnit)),
		}
		for _, q := range domain.Quarters {
			ft, _ := fields.QuarterTag(q)
			cell := QuarterCell{Period: q, Progress: period.MapTo(q, it.DoneRatio)}
			if f, ok := fields.Lookup(it, schema.Name(ft), fields.ExactThenDigitStripped); ok {
				cell.Target = f.Value.String()
				cell.HasTarget = fields.IsMeaningful(cell.Target)
			}
			row.Cells = append(row.Cells, cell)
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ItemID < rows[j].ItemID })
	return rows
}
