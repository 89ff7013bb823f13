// Package schedule implements the caching memory scheduler: a reverse-order
// pass over a single stripe.Block that plans cache placement for every
// refinement the block's statements touch, and rewrites the block in place
// to reference cache entries instead of backing memory.
package schedule

import (
	"strconv"

	"github.com/sarchlab/stripesched/internal/stripe"
)

// refInfo carries the state the pass tracks for one refinement of the block
// being scheduled, across the whole reverse pass.
type refInfo struct {
	// ref is a copy of the block's refinement, taken so that later
	// mutation of the block's refinement slice can't invalidate it.
	ref stripe.Refinement

	alias stripe.AliasInfo

	// exteriorCacheShape is ref's shape restrided to compact row-major
	// form; it is both the shape installed on external cache entries for
	// this refinement and the basis for the swap templates below.
	exteriorCacheShape stripe.Shape

	// Swap templates: one index per dimension plus the two access-affine
	// vectors and the two collapsed shapes used when building a transfer
	// block for this refinement.
	swapIdxs        []stripe.Index
	refSwapAccess   []stripe.Affine
	cacheSwapAccess []stripe.Affine
	refSwapShape    stripe.Shape
	cacheSwapShape  stripe.Shape

	// size is the byte size of exteriorCacheShape.
	size uint64

	// used becomes true once any transfer block references ref's backing
	// name.
	used bool

	// sawFinalWrite becomes true after the first swap-out scheduled for
	// this refinement (the last write in runtime order).
	sawFinalWrite bool

	// cacheEntry is the current active instantiation of this refinement,
	// or nil.
	cacheEntry *cacheEntry

	// swapInReaders is the set of transfer blocks that will read this
	// refinement's backing memory.
	swapInReaders map[*stripe.Statement]struct{}

	// nextCacheEntry generates unique suffixes for this refinement's
	// cache-entry names.
	nextCacheEntry int

	// aliases points to the shared slice of every refInfo whose alias
	// info shares this one's base refinement.
	aliases *[]*refInfo

	// earliestWriter is the first statement, in runtime order, that
	// writes this refinement, or nil if nothing in the block writes it.
	earliestWriter *stripe.Statement

	// name is ref.Into, kept alongside for convenience.
	name string
}

const defaultAlignment = 4

func newRefInfo(ref *stripe.Refinement, alias stripe.AliasInfo) *refInfo {
	ri := &refInfo{
		ref:                ref.Clone(),
		alias:              alias,
		exteriorCacheShape: ref.Shape.Restride(),
		name:               ref.Into,
		swapInReaders:      make(map[*stripe.Statement]struct{}),
	}
	ri.size = ri.exteriorCacheShape.ByteSize()

	sizes := ri.exteriorCacheShape.Sizes()
	for i, sz := range sizes {
		iname := indexName(i)
		ri.swapIdxs = append(ri.swapIdxs, stripe.Index{Name: iname, Range: sz})
		ri.refSwapAccess = append(ri.refSwapAccess, stripe.Var(iname))
		ri.cacheSwapAccess = append(ri.cacheSwapAccess, stripe.Var(iname))
	}
	ri.refSwapShape = ref.Shape.Collapsed()
	ri.cacheSwapShape = ri.exteriorCacheShape.Collapsed()

	return ri
}

func indexName(i int) string {
	return "i" + strconv.Itoa(i)
}

// nextCacheEntryName returns the next unique cache-entry name for this
// refinement and advances the counter.
func (ri *refInfo) nextCacheEntryName() string {
	n := ri.name + "^" + strconv.Itoa(ri.nextCacheEntry)
	ri.nextCacheEntry++
	return n
}

// refInfoTable maps a refinement's local name to its refInfo, and owns the
// alias-set groupings derived from it.
type refInfoTable struct {
	byName  map[string]*refInfo
	aliases map[string]*[]*refInfo
}

// buildRefInfoTable constructs the per-refinement state for block, using
// aliasMap for each refinement's alias analysis, then computes each
// refinement's earliest writer and groups refInfos into alias sets.
func buildRefInfoTable(block *stripe.Block, aliasMap stripe.AliasMap) *refInfoTable {
	t := &refInfoTable{
		byName:  make(map[string]*refInfo),
		aliases: make(map[string]*[]*refInfo),
	}

	for i := range block.Refs {
		ref := &block.Refs[i]
		ai := aliasMap[ref.Into]
		t.byName[ref.Into] = newRefInfo(ref, ai)
	}

	block.Body.Each(func(it stripe.StatementIt) {
		stmt := stripe.StatementAt(it)
		for _, name := range stmt.WrittenRefs() {
			ri, ok := t.byName[name]
			if !ok || ri.earliestWriter != nil {
				continue
			}
			ri.earliestWriter = stmt
		}
	})

	for _, ri := range t.byName {
		group, ok := t.aliases[ri.alias.BaseRef]
		if !ok {
			group = &[]*refInfo{}
			t.aliases[ri.alias.BaseRef] = group
		}
		*group = append(*group, ri)
		ri.aliases = group
	}

	return t
}

func (t *refInfoTable) get(name string) *refInfo {
	ri, ok := t.byName[name]
	if !ok {
		panic("schedule: unknown refinement " + name)
	}
	return ri
}
