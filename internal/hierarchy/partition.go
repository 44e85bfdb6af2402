// Package hierarchy rebuilds the MAIN → CHILD → SUB work tree from flat
// item listings that only carry parent pointers.
package hierarchy

import (
	"sort"

	"github.com/alexanderramin/tierboard/internal/domain"
)

// ExclusionReason explains why an input item is outside the tree.
type ExclusionReason string

const (
	// ReasonUnrelated marks a parentless item nobody in the set points to.
	ReasonUnrelated ExclusionReason = "unrelated"
	// ReasonCycle marks an item whose parent chain loops inside the set.
	ReasonCycle ExclusionReason = "cycle"
	// ReasonParentUnavailable marks an item whose MAIN could not be fetched.
	ReasonParentUnavailable ExclusionReason = "parent_unavailable"
)

// Partition is the pointer-only classification of one item set.
// Every input id appears in Tiers exactly once.
type Partition struct {
	Index      map[int]*domain.Item
	Tiers      map[int]domain.Tier
	Excluded   map[int]ExclusionReason
	MainIDs    []int
	ChildrenOf map[int][]int
	SubsOf     map[int][]int
}

const cyclic = -1

// Dedupe drops nil items, items without an id, and repeated ids (first
// occurrence wins). Order is preserved.
func Dedupe(items []*domain.Item) []*domain.Item {
	seen := make(map[int]struct{}, len(items))
	out := make([]*domain.Item, 0, len(items))
	for _, it := range items {
		if it == nil || it.ID <= 0 {
			continue
		}
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Classify partitions items into tiers using only id and parent pointers.
//
// An item with a parent walks up through parents that also have a parent
// in the set. The last item reached is a CHILD; the item it points to is
// that CHILD's MAIN, whether or not the MAIN was fetched. Items above depth
// three collapse onto their nearest CHILD ancestor as SUBs. A parentless
// item is MAIN when some CHILD points to it, otherwise it is excluded.
func Classify(items []*domain.Item) Partition {
	p := Partition{
		Index:      make(map[int]*domain.Item, len(items)),
		Tiers:      make(map[int]domain.Tier, len(items)),
		Excluded:   make(map[int]ExclusionReason),
		ChildrenOf: make(map[int][]int),
		SubsOf:     make(map[int][]int),
	}
	for _, it := range Dedupe(items) {
		p.Index[it.ID] = it
	}

	parentOf := make(map[int]int, len(p.Index))
	for id, it := range p.Index {
		if pid, ok := it.ParentID(); ok {
			parentOf[id] = pid
		}
	}

	anchors := make(map[int]int, len(parentOf))
	for id := range parentOf {
		resolveAnchor(id, parentOf, anchors)
	}

	mains := make(map[int]struct{})
	for id, pid := range parentOf {
		switch a := anchors[id]; {
		case a == cyclic:
			p.Tiers[id] = domain.TierExcluded
			p.Excluded[id] = ReasonCycle
		case a == id:
			p.Tiers[id] = domain.TierChild
			p.ChildrenOf[pid] = append(p.ChildrenOf[pid], id)
			mains[pid] = struct{}{}
		default:
			p.Tiers[id] = domain.TierSub
			p.SubsOf[a] = append(p.SubsOf[a], id)
		}
	}

	for id := range p.Index {
		if _, hasParent := parentOf[id]; hasParent {
			continue
		}
		if _, isMain := mains[id]; isMain {
			p.Tiers[id] = domain.TierMain
			continue
		}
		p.Tiers[id] = domain.TierExcluded
		p.Excluded[id] = ReasonUnrelated
	}

	p.MainIDs = make([]int, 0, len(mains))
	for id := range mains {
		p.MainIDs = append(p.MainIDs, id)
	}
	sort.Ints(p.MainIDs)
	for _, ids := range p.ChildrenOf {
		sort.Ints(ids)
	}
	for _, ids := range p.SubsOf {
		sort.Ints(ids)
	}
	return p
}

// resolveAnchor walks parent pointers from id and memoizes the CHILD anchor
// for every item on the path, or cyclic when the walk revisits an item.
func resolveAnchor(id int, parentOf map[int]int, anchors map[int]int) int {
	var path []int
	onPath := make(map[int]struct{})
	cur := id
	result := cyclic
	for {
		if a, done := anchors[cur]; done {
			result = a
			break
		}
		if _, loop := onPath[cur]; loop {
			break
		}
		onPath[cur] = struct{}{}
		path = append(path, cur)

		parent := parentOf[cur]
		if _, parentHasParent := parentOf[parent]; !parentHasParent {
			result = cur
			break
		}
		cur = parent
	}
	for _, n := range path {
		anchors[n] = result
	}
	return result
}

// Count returns how many input items landed in tier.
func (p Partition) Count(tier domain.Tier) int {
	n := 0
	for _, t := range p.Tiers {
		if t == tier {
			n++
		}
	}
	return n
}
