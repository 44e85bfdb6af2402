package tracker

import (
	"context"
	"fmt"

	"github.com/alexanderramin/tierboard/internal/domain"
)

// Lister fetches a single page of items.
type Lister interface {
	ListItems(ctx context.Context, q ListQuery) (*Page, error)
}

// CollectAll requests pages of pageSize items at increasing offsets until
// the accumulated count reaches the server-reported total. It gives up with
// a *PaginationInvariantError after maxPages pages, or when the server
// returns an empty page before the total is reached.
func CollectAll(ctx context.Context, l Lister, q ListQuery, pageSize, maxPages int) ([]*domain.Item, error) {
	if pageSize <= 0 {
		pageSize = 100
	}
	if maxPages <= 0 {
		maxPages = 1
	}
	q.Limit = pageSize
	q.Offset = 0

	var (
		all   []*domain.Item
		total int
	)
	for pages := 0; ; pages++ {
		if pages >= maxPages {
			return nil, &PaginationInvariantError{
				Reason:     "page budget exhausted",
				Pages:      pages,
				Fetched:    len(all),
				TotalCount: total,
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := l.ListItems(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("listing items at offset %d: %w", q.Offset, err)
		}
		all = append(all, page.Items...)
		total = page.TotalCount

		if len(all) >= page.TotalCount {
			return all, nil
		}
		if len(page.Items) == 0 {
			return nil, &PaginationInvariantError{
				Reason:     "empty page before reported total",
				Pages:      pages + 1,
				Fetched:    len(all),
				TotalCount: page.TotalCount,
			}
		}
		q.Offset += pageSize
	}
}
