package schedule

import (
	"container/list"

	"github.com/sarchlab/stripesched/internal/stripe"
)

// cacheEntry is a single local instantiation of a refinement's data.
// Swapping a value out and back in produces a new cacheEntry.
type cacheEntry struct {
	source *refInfo
	name   string
	rng    memRange
	shape  stripe.Shape

	isInternal   bool
	interiorName string

	// firstAccessor is the earliest (runtime order) statement to access
	// this entry.
	firstAccessor stripe.StatementIt

	writers map[*stripe.Statement]stripe.AliasInfo
	readers map[*stripe.Statement]stripe.AliasInfo

	// sawEarliestWriter becomes true once scheduling has provided a
	// writer for source.earliestWriter, meaning no swap-in is needed to
	// prime this entry's value.
	sawEarliestWriter bool

	// activeElem is this entry's position in its affine unit's active
	// list, or nil if it isn't (or is no longer) active.
	activeElem *list.Element

	// uncoveredRanges holds the sub-intervals of rng not yet overwritten
	// by later-scheduled (runtime-earlier) entries. Once empty, the
	// entry is retired from the active index.
	uncoveredRanges *list.List
}

func newCacheEntry(source *refInfo, rng memRange, shape stripe.Shape, isInternal bool, interiorName string) *cacheEntry {
	e := &cacheEntry{
		source:          source,
		name:            source.nextCacheEntryName(),
		rng:             rng,
		shape:           shape,
		isInternal:      isInternal,
		interiorName:    interiorName,
		writers:         make(map[*stripe.Statement]stripe.AliasInfo),
		readers:         make(map[*stripe.Statement]stripe.AliasInfo),
		uncoveredRanges: list.New(),
	}
	e.uncoveredRanges.PushBack(rng)
	return e
}

// activeIndex tracks, per affine unit, the sorted (by range.Begin) list of
// active cache entries.
type activeIndex struct {
	byUnit map[stripe.Affine]*list.List
}

func newActiveIndex() *activeIndex {
	return &activeIndex{byUnit: make(map[stripe.Affine]*list.List)}
}

func (idx *activeIndex) listFor(unit stripe.Affine) *list.List {
	l, ok := idx.byUnit[unit]
	if !ok {
		l = list.New()
		idx.byUnit[unit] = l
	}
	return l
}

// entries returns the cache entries active on unit as a slice, ordered by
// range.Begin.
func (idx *activeIndex) entries(unit stripe.Affine) []*cacheEntry {
	l, ok := idx.byUnit[unit]
	if !ok {
		return nil
	}
	out := make([]*cacheEntry, 0, l.Len())
	for e := l.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*cacheEntry))
	}
	return out
}

func (idx *activeIndex) retire(unit stripe.Affine, ent *cacheEntry) {
	l := idx.listFor(unit)
	if ent.activeElem != nil {
		l.Remove(ent.activeElem)
		ent.activeElem = nil
	}
}

// spliceAndSort merges added into the main index for unit, keeping the
// combined list sorted by range.Begin.
func (idx *activeIndex) spliceAndSort(unit stripe.Affine, added []*cacheEntry) {
	if len(added) == 0 {
		return
	}
	l := idx.listFor(unit)
	all := make([]*cacheEntry, 0, l.Len()+len(added))
	for e := l.Front(); e != nil; e = e.Next() {
		all = append(all, e.Value.(*cacheEntry))
	}
	all = append(all, added...)

	// Insertion sort: the number of entries active on one affine unit at
	// once is small, and this keeps the ordering stable for entries with
	// equal offsets.
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].rng.Begin < all[j-1].rng.Begin; j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}

	l.Init()
	for _, ent := range all {
		ent.activeElem = l.PushBack(ent)
	}
}
