package schedule

import (
	"container/list"
	"sort"

	"github.com/sarchlab/stripesched/internal/stripe"
)

// gatherPlacementState splits ios into placements that already have a live
// cache entry (existingEntryPlan) and the ones that still need to be
// placed, grouped by affine unit and ordered largest-first (ties broken by
// refinement name) as required for deterministic best-fit placement.
func gatherPlacementState(ios []io) (*placementPlan, map[stripe.Affine][]io) {
	plan := newPlacementPlan()
	todoItems := make(map[*refInfo]io)
	var todoOrder []*refInfo

	for _, item := range ios {
		key := newPlacementKey(item.ri, item.ri.exteriorCacheShape, nil)
		if existing, ok := plan.get(key); ok {
			existing.dir = stripe.UnionDir(existing.dir, item.dir)
			continue
		}

		if item.ri.cacheEntry != nil && !item.ri.cacheEntry.sawEarliestWriter {
			plan.set(key, &placement{
				dir:   item.dir,
				size:  item.ri.cacheEntry.rng.size(),
				rng:   item.ri.cacheEntry.rng,
				shape: item.ri.exteriorCacheShape,
				entry: item.ri.cacheEntry,
			})
			continue
		}

		if existing, ok := todoItems[item.ri]; ok {
			existing.dir = stripe.UnionDir(existing.dir, item.dir)
			todoItems[item.ri] = existing
			continue
		}
		todoOrder = append(todoOrder, item.ri)
		todoItems[item.ri] = item
	}

	todos := make(map[stripe.Affine][]io)
	for _, ri := range todoOrder {
		unit := ri.ref.Location.Unit
		todos[unit] = append(todos[unit], todoItems[ri])
	}
	for unit := range todos {
		items := todos[unit]
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].ri.size != items[j].ri.size {
				return items[i].ri.size > items[j].ri.size
			}
			return items[i].ri.name < items[j].ri.name
		})
		todos[unit] = items
	}

	return plan, todos
}

// candidatePlacement is a (key, placement) pair not yet resolved to a
// memory range.
type candidatePlacement struct {
	key placementKey
	p   placement
}

func makeFullPlacements(ios []io) []candidatePlacement {
	out := make([]candidatePlacement, 0, len(ios))
	for _, item := range ios {
		out = append(out, candidatePlacement{
			key: newPlacementKey(item.ri, item.ri.exteriorCacheShape, nil),
			p:   placement{dir: item.dir, size: item.ri.size, shape: item.ri.exteriorCacheShape},
		})
	}
	return out
}

func makePartialPlacements(ios []io) []candidatePlacement {
	out := make([]candidatePlacement, 0, len(ios))
	for _, item := range ios {
		interiorSize := item.interiorShape.ByteSize()
		isInternal := interiorSize != item.ri.size
		var access []stripe.Affine
		if isInternal {
			access = item.access
		}
		out = append(out, candidatePlacement{
			key: newPlacementKey(item.ri, item.interiorShape, access),
			p: placement{
				dir:          item.dir,
				size:         interiorSize,
				shape:        item.interiorShape,
				isInternal:   isInternal,
				interiorName: item.interiorName,
				access:       access,
			},
		})
	}
	return out
}

// tryMakePlan runs the six-strategy ladder from section 4.3 and returns the
// first plan that succeeds.
func (s *Scheduler) tryMakePlan(currentBlock *stripe.Block, ios []io) (*placementPlan, bool) {
	existingEntryPlan, todos := gatherPlacementState(ios)

	todoFulls := make(map[stripe.Affine][]candidatePlacement)
	todoPartials := make(map[stripe.Affine][]candidatePlacement)
	for unit, items := range todos {
		todoFulls[unit] = makeFullPlacements(items)
		todoPartials[unit] = makePartialPlacements(items)
	}

	if plan, ok := s.tryMakePlanWithNoSwaps(existingEntryPlan, todoFulls); ok {
		return plan, true
	}
	if plan, ok := s.tryMakePlanWithNoSwaps(existingEntryPlan, todoPartials); ok {
		return plan, true
	}
	if plan, ok := s.tryMakePlanWithSwaps(existingEntryPlan, todoFulls); ok {
		return plan, true
	}
	if plan, ok := s.tryMakePlanWithSwaps(existingEntryPlan, todoPartials); ok {
		return plan, true
	}
	if plan, ok := s.tryMakeFallbackPlan(makeFullPlacements(ios)); ok {
		return plan, true
	}
	if currentBlock != nil {
		if plan, ok := s.tryMakeFallbackPlan(makePartialPlacements(ios)); ok {
			return plan, true
		}
	}

	return nil, false
}

func sortedUnits(m map[stripe.Affine][]candidatePlacement) []stripe.Affine {
	units := make([]stripe.Affine, 0, len(m))
	for u := range m {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].Less(units[j]) })
	return units
}

// tryPlaceInRanges places each candidate, largest-first, using best-fit
// (smallest range still large enough; equal waste keeps the earlier range)
// against the supplied free-list ranges.
func (s *Scheduler) tryPlaceInRanges(plan *placementPlan, placements []candidatePlacement, ranges *list.List) bool {
	for _, cp := range placements {
		if existing, ok := plan.get(cp.key); ok {
			existing.dir = stripe.UnionDir(existing.dir, cp.p.dir)
			continue
		}

		size := cp.p.size
		var best *list.Element
		bestWaste := s.memBytes + 1
		for e := ranges.Front(); e != nil; e = e.Next() {
			r := e.Value.(memRange)
			if r.size() < size {
				continue
			}
			waste := r.size() - size
			if bestWaste <= waste {
				continue
			}
			best = e
			bestWaste = waste
		}
		if best == nil {
			return false
		}

		r := best.Value.(memRange)
		assigned := memRange{Begin: r.Begin, End: r.Begin + size}
		subtractRangeAt(assigned, ranges, best)

		p := cp.p
		p.rng = assigned
		plan.set(cp.key, &p)
	}
	return true
}

func (s *Scheduler) tryMakePlanWithNoSwaps(existing *placementPlan, todos map[stripe.Affine][]candidatePlacement) (*placementPlan, bool) {
	plan := clonePlan(existing)

	for _, unit := range sortedUnits(todos) {
		ranges := list.New()
		ranges.PushBack(memRange{0, s.memBytes})
		for _, ent := range s.active.entries(unit) {
			key := newPlacementKey(ent.source, ent.source.exteriorCacheShape, nil)
			_, inPlan := plan.get(key)
			if !(ent.sawEarliestWriter && !inPlan) {
				subtractRange(ent.rng, ranges)
			}
		}

		if !s.tryPlaceInRanges(plan, todos[unit], ranges) {
			return nil, false
		}
	}

	return plan, true
}

func (s *Scheduler) tryMakePlanWithSwaps(existing *placementPlan, todos map[stripe.Affine][]candidatePlacement) (*placementPlan, bool) {
	plan := clonePlan(existing)

	for _, unit := range sortedUnits(todos) {
		ranges := list.New()
		ranges.PushBack(memRange{0, s.memBytes})
		for _, ent := range s.active.entries(unit) {
			key := newPlacementKey(ent.source, ent.source.exteriorCacheShape, nil)
			if _, inPlan := plan.get(key); inPlan {
				subtractRange(ent.rng, ranges)
			}
		}

		if !s.tryPlaceInRanges(plan, todos[unit], ranges) {
			return nil, false
		}
	}

	return plan, true
}

func (s *Scheduler) tryMakeFallbackPlan(placements []candidatePlacement) (*placementPlan, bool) {
	plan := newPlacementPlan()
	offsets := make(map[stripe.Affine]uint64)

	for _, cp := range placements {
		offsets[cp.key.ri.ref.Location.Unit] = 0
	}

	for _, cp := range placements {
		if existing, ok := plan.get(cp.key); ok {
			existing.dir = stripe.UnionDir(existing.dir, cp.p.dir)
			continue
		}

		unit := cp.key.ri.ref.Location.Unit
		offset := offsets[unit]
		p := cp.p
		p.rng = memRange{Begin: offset, End: offset + p.size}
		plan.set(cp.key, &p)
		offsets[unit] = align(offset+p.size, s.alignment)
	}

	for _, offset := range offsets {
		if s.memBytes < offset {
			return nil, false
		}
	}

	return plan, true
}

func align(v, alignment uint64) uint64 {
	if alignment == 0 {
		return v
	}
	rem := v % alignment
	if rem == 0 {
		return v
	}
	return v + (alignment - rem)
}
