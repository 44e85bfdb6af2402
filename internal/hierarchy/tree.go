package hierarchy

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/alexanderramin/tierboard/internal/cache"
	"github.com/alexanderramin/tierboard/internal/domain"
	"golang.org/x/sync/errgroup"
)

// ItemCache is the per-pass dedup cache the tree builder fetches through.
type ItemCache = cache.Cache[int, *domain.Item]

// FetchFunc loads one fully detailed item.
type FetchFunc = cache.FetchFunc[int, *domain.Item]

// Tree is the classified three-tier view of one pass.
type Tree struct {
	Mains  []MainNode
	Tiers  map[int]domain.Tier
	Broken []BrokenLink
}

// MainNode is a MAIN item with its CHILD items.
type MainNode struct {
	Main     *domain.Item
	Children []ChildNode
}

// ChildNode is a CHILD item with its SUB items.
type ChildNode struct {
	Child *domain.Item
	Subs  []*domain.Item
}

// BrokenLink records an item left out of the tree because its ancestry
// could not be resolved.
type BrokenLink struct {
	ItemID   int
	ParentID int
	Reason   ExclusionReason
}

// Builder materializes a Partition into a Tree, fetching MAIN items (and
// CHILD items whose parent lies outside the input) through the pass cache.
type Builder struct {
	cache       *ItemCache
	fetch       FetchFunc
	logger      *slog.Logger
	concurrency int
}

// NewBuilder creates a Builder. A nil logger discards diagnostics.
func NewBuilder(c *ItemCache, fetch FetchFunc, logger *slog.Logger, concurrency int) *Builder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	if c == nil {
		c = cache.New[int, *domain.Item]()
	}
	return &Builder{cache: c, fetch: fetch, logger: logger, concurrency: concurrency}
}

// Build classifies items and assembles the tree. Fetch failures drop the
// affected branch and are reported in Tree.Broken; only context
// cancellation is returned as an error.
func (b *Builder) Build(ctx context.Context, items []*domain.Item) (*Tree, error) {
	part := Classify(items)

	var (
		mu       sync.Mutex
		mains    = make(map[int]*domain.Item, len(part.MainIDs))
		failed   = make(map[int]error)
		refreshs = make(map[int]*domain.Item)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for _, id := range part.MainIDs {
		g.Go(func() error {
			it, err := b.cache.GetOrFetch(gctx, id, b.fetch)
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[id] = err
				return nil
			}
			mains[id] = it
			return nil
		})
	}

	// CHILD items whose MAIN was not part of the input came from a
	// listing that omits detail fields; refresh them.
	for _, mainID := range part.MainIDs {
		if _, fetched := part.Index[mainID]; fetched {
			continue
		}
		for _, childID := range part.ChildrenOf[mainID] {
			g.Go(func() error {
				it, err := b.cache.GetOrFetch(gctx, childID, b.fetch)
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				if err != nil {
					b.logger.DebugContext(gctx, "child_refresh_failed", "item_id", childID, "error", err)
					return nil
				}
				mu.Lock()
				refreshs[childID] = it
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	tree := &Tree{Tiers: make(map[int]domain.Tier, len(part.Tiers))}
	for id, tier := range part.Tiers {
		tree.Tiers[id] = tier
	}
	for id, reason := range part.Excluded {
		if reason == ReasonCycle {
			pid, _ := part.Index[id].ParentID()
			tree.Broken = append(tree.Broken, BrokenLink{ItemID: id, ParentID: pid, Reason: reason})
		}
	}

	for _, mainID := range part.MainIDs {
		main, ok := mains[mainID]
		if !ok {
			b.dropBranch(ctx, tree, part, mainID, failed[mainID])
			continue
		}
		node := MainNode{Main: main}
		for _, childID := range part.ChildrenOf[mainID] {
			child := part.Index[childID]
			if fresh, ok := refreshs[childID]; ok {
				child = fresh
			}
			cn := ChildNode{Child: child}
			for _, subID := range part.SubsOf[childID] {
				cn.Subs = append(cn.Subs, part.Index[subID])
			}
			node.Children = append(node.Children, cn)
		}
		tree.Mains = append(tree.Mains, node)
	}

	sort.Slice(tree.Broken, func(i, j int) bool {
		return tree.Broken[i].ItemID < tree.Broken[j].ItemID
	})
	return tree, nil
}

// dropBranch removes every CHILD and SUB under an unfetchable MAIN.
func (b *Builder) dropBranch(ctx context.Context, tree *Tree, part Partition, mainID int, cause error) {
	b.logger.WarnContext(ctx, "parent_unavailable",
		"main_id", mainID,
		"children", len(part.ChildrenOf[mainID]),
		"error", cause,
	)
	if _, present := part.Index[mainID]; present {
		tree.Tiers[mainID] = domain.TierExcluded
	}
	for _, childID := range part.ChildrenOf[mainID] {
		tree.Tiers[childID] = domain.TierExcluded
		tree.Broken = append(tree.Broken, BrokenLink{ItemID: childID, ParentID: mainID, Reason: ReasonParentUnavailable})
		for _, subID := range part.SubsOf[childID] {
			tree.Tiers[subID] = domain.TierExcluded
			tree.Broken = append(tree.Broken, BrokenLink{ItemID: subID, ParentID: childID, Reason: ReasonParentUnavailable})
		}
	}
}

// Children returns every CHILD item in tree order.
func (t *Tree) Children() []*domain.Item {
	var out []*domain.Item
	for _, m := range t.Mains {
		for _, c := range m.Children {
			out = append(out, c.Child)
		}
	}
	return out
}

// Subs returns every SUB item in tree order.
func (t *Tree) Subs() []*domain.Item {
	var out []*domain.Item
	for _, m := range t.Mains {
		for _, c := range m.Children {
			out = append(out, c.Subs...)
		}
	}
	return out
}

// Count returns how many input items ended up in tier after fetching.
func (t *Tree) Count(tier domain.Tier) int {
	n := 0
	for _, v := range t.Tiers {
		if v == tier {
			n++
		}
	}
	return n
}
