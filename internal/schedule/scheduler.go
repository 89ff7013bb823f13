package schedule

import (
	"sort"

	"github.com/sarchlab/stripesched/internal/hooking"
	"github.com/sarchlab/stripesched/internal/stripe"
)

// Scheduler runs the reverse-order caching memory scheduling pass over a
// single block. Callers normally reach it only through ScheduleBlock; the
// type is exported so a caller that wants to observe scheduling events can
// register hooks with New before calling Run.
type Scheduler struct {
	*hooking.HookableBase

	block     *stripe.Block
	memLoc    stripe.Location
	memBytes  uint64
	alignment uint64
	xferLoc   stripe.Location

	refs   *refInfoTable
	active *activeIndex

	// entries owns every cache entry created during the pass, in creation
	// order, whether or not it is still active at the end.
	entries []*cacheEntry
}

// New constructs a Scheduler for block using aliasMap and options. Call Run
// to execute the pass.
func New(aliasMap stripe.AliasMap, block *stripe.Block, options Options) *Scheduler {
	s := &Scheduler{
		HookableBase: hooking.NewHookableBase(),
		block:        block,
		memLoc:       options.memLoc,
		memBytes:     options.memBytes(),
		alignment:    options.alignment,
		xferLoc:      options.xferLoc,
		refs:         buildRefInfoTable(block, aliasMap),
		active:       newActiveIndex(),
	}
	return s
}

func (s *Scheduler) emit(pos *hooking.HookPos, item, detail any) {
	if s.NumHooks() == 0 {
		return
	}
	s.InvokeHook(hooking.HookCtx{Domain: s, Pos: pos, Item: item, Detail: detail})
}

// ScheduleBlock mutates block in place, planning cache placement for every
// refinement its statements touch and inserting swap-in/swap-out transfer
// blocks as needed. It returns *ResourceExhausted if no plan fits within
// the configured memory budget.
func ScheduleBlock(aliasMap stripe.AliasMap, block *stripe.Block, options Options) error {
	return New(aliasMap, block, options).Run()
}

// Run executes the scheduling pass. See ScheduleBlock.
func (s *Scheduler) Run() error {
	for si := s.block.Body.Back(); si != nil; {
		siNext := stripe.Next(si)
		prev := stripe.Prev(si)

		if err := s.scheduleStatement(si, &siNext); err != nil {
			return err
		}

		si = prev
	}

	s.finalize()
	return nil
}

func (s *Scheduler) scheduleStatement(si stripe.StatementIt, siNext *stripe.StatementIt) error {
	stmt := stripe.StatementAt(si)

	var currentBlock *stripe.Block
	if stmt.Kind == stripe.KindBlock {
		currentBlock = stmt.Body
	}

	ios, binder := gatherIO(stmt, s.memLoc, s.refs)

	riWriterSwapInReaders := s.invalidateAliasedEntries(ios, siNext)

	plan, ok := s.tryMakePlan(currentBlock, ios)
	if !ok {
		names := make([]string, 0, len(ios))
		for _, item := range ios {
			names = append(names, item.ri.name)
		}
		blockName := ""
		if currentBlock != nil {
			blockName = currentBlock.Name
		}
		s.emit(hooking.HookPosResourceExhausted, names, blockName)
		return &ResourceExhausted{Block: blockName, Refs: names}
	}

	s.applyPlan(plan, si, currentBlock, riWriterSwapInReaders)

	binder.apply()
	s.emit(hooking.HookPosStatementScheduled, stmt, plan)

	plan.each(func(_ placementKey, p *placement) {
		if p.entry != nil && p.entry.isInternal {
			p.entry.source.cacheEntry = nil
		}
	})

	return nil
}

// invalidateAliasedEntries implements step (b) of the main loop: writes
// force a swap-in for any aliased cache entry that isn't the one being
// written, and accumulate each RefInfo's set of statements that must
// depend on the eventual swap-out providing its backing memory.
func (s *Scheduler) invalidateAliasedEntries(ios []io, siNext *stripe.StatementIt) map[*refInfo]map[*stripe.Statement]struct{} {
	result := make(map[*refInfo]map[*stripe.Statement]struct{})

	for _, item := range ios {
		if !stripe.IsWriteDir(item.dir) {
			continue
		}
		ri := item.ri
		set, ok := result[ri]
		if !ok {
			set = make(map[*stripe.Statement]struct{})
			result[ri] = set
		}

		for _, alias := range *ri.aliases {
			if alias != ri && ri.alias.Compare(alias.alias) == stripe.AliasNone {
				continue
			}
			if alias != ri && alias.cacheEntry != nil {
				*siNext = s.scheduleSwapIn(*siNext, alias.cacheEntry)
				alias.cacheEntry = nil
			}
			for reader := range alias.swapInReaders {
				set[reader] = struct{}{}
			}
		}
	}

	return result
}

// applyPlan implements step (d) of the main loop.
func (s *Scheduler) applyPlan(plan *placementPlan, si stripe.StatementIt, currentBlock *stripe.Block, riWriterSwapInReaders map[*refInfo]map[*stripe.Statement]struct{}) {
	stmt := stripe.StatementAt(si)
	addedAffineEntries := make(map[stripe.Affine][]*cacheEntry)
	var addedRefs []stripe.Refinement
	internalSwapBackingRefNames := make(map[*refInfo]string)

	plan.each(func(key placementKey, p *placement) {
		ri := key.ri
		isNewEntry := p.entry == nil
		if isNewEntry {
			ent := newCacheEntry(ri, p.rng, p.shape, p.isInternal, p.interiorName)
			p.entry = ent
			ri.cacheEntry = ent
			s.entries = append(s.entries, ent)
			s.emit(hooking.HookPosCacheEntryCreated, ent.name, nil)
		}
		ent := p.entry

		reuseDep := si

		if p.isInternal {
			backingName, ok := internalSwapBackingRefNames[ri]
			if !ok {
				backingName = currentBlock.UniqueRefName(ri.name + "_storage")
				internalSwapBackingRefNames[ri] = backingName
				addedRefs = append(addedRefs, stripe.Refinement{
					Dir:      p.dir,
					From:     ent.source.ref.Into,
					Into:     backingName,
					Access:   ent.source.alias.Access,
					Shape:    ent.source.alias.Shape,
					Location: ent.source.ref.Location,
					IsConst:  ent.source.ref.IsConst,
					BankDim:  ent.source.ref.BankDim,
				})
			}
			if stripe.IsReadDir(p.dir) {
				s.addSubblockSwapIn(currentBlock, ent, backingName, p.access)
			}
			if stripe.IsWriteDir(p.dir) {
				s.addSubblockSwapOut(currentBlock, ent, backingName, p.access)
			}
		} else {
			if stripe.IsWriteDir(p.dir) {
				for reader, readerAlias := range ent.readers {
					if ri.alias.Compare(readerAlias) != stripe.AliasNone {
						reader.AddDep(stmt)
					}
				}
				ent.writers[stmt] = ri.alias
				if stmt == ri.earliestWriter {
					ent.sawEarliestWriter = true
				}
			}
			if stripe.IsReadDir(p.dir) {
				ent.readers[stmt] = ri.alias
			}
			ent.firstAccessor = si

			needsSwapOut := stripe.IsWriteDir(p.dir) &&
				((stripe.IsWriteDir(ri.ref.Dir) && !ri.sawFinalWrite) || len(riWriterSwapInReaders[ri]) > 0)
			if needsSwapOut {
				nextSi := stripe.Next(si)
				reuseDep = s.scheduleSwapOut(nextSi, ent, riWriterSwapInReaders[ri])
				stripe.StatementAt(reuseDep).AddDep(stmt)
			}
		}

		unit := ent.source.ref.Location.Unit
		for _, futureEnt := range s.active.entries(unit) {
			if futureEnt == ent || !rangeOverlapsAny(ent.rng, futureEnt.uncoveredRanges) {
				continue
			}

			if isNewEntry {
				if !futureEnt.sawEarliestWriter {
					nextIt := stripe.Next(reuseDep)
					s.scheduleSwapIn(nextIt, futureEnt)
				}
				for writer := range futureEnt.writers {
					writer.AddDep(stripe.StatementAt(reuseDep))
				}
				subtractRange(ent.rng, futureEnt.uncoveredRanges)
				if futureEnt.uncoveredRanges.Len() == 0 {
					s.emit(hooking.HookPosCacheEntryRetired, futureEnt.name, nil)
					s.active.retire(unit, futureEnt)
				}
				if futureEnt.source.cacheEntry == futureEnt {
					futureEnt.source.cacheEntry = nil
				}
			}

			for writer := range futureEnt.writers {
				writer.AddDep(stripe.StatementAt(reuseDep))
			}
		}

		if isNewEntry && !p.isInternal {
			addedAffineEntries[unit] = append(addedAffineEntries[unit], ent)
		}
	})

	for unit, added := range addedAffineEntries {
		s.active.spliceAndSort(unit, added)
	}

	if currentBlock != nil && len(addedRefs) > 0 {
		currentBlock.Refs = append(currentBlock.Refs, addedRefs...)
	}
}

// finalize implements step (g): swap-in writerless entries, materialize
// cache-entry refinements, restore used original refinements, sort, and
// clean up dependency edges.
func (s *Scheduler) finalize() {
	for unit := range s.active.byUnit {
		for _, ent := range s.active.entries(unit) {
			if ent.source.earliestWriter == nil {
				s.scheduleSwapIn(ent.firstAccessor, ent)
			}
		}
	}

	for _, ent := range s.entries {
		ref, ok := s.block.RefByInto(ent.name)
		if !ok {
			newRef := ent.source.ref.Clone()
			s.block.Refs = append(s.block.Refs, newRef)
			ref = &s.block.Refs[len(s.block.Refs)-1]
		}
		ref.Dir = stripe.DirNone
		ref.From = ""
		ref.Into = ent.name
		ref.Shape = ent.shape
		ref.Location = s.memLoc
		if ent.source.ref.CacheUnit != nil {
			ref.Location.Unit = *ent.source.ref.CacheUnit
		}
		ref.IsConst = ent.source.ref.IsConst
		ref.Offset = ent.rng.Begin
	}

	names := make([]string, 0, len(s.refs.byName))
	for name := range s.refs.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ri := s.refs.byName[name]
		if !ri.used {
			continue
		}
		if ref, ok := s.block.RefByInto(ri.ref.Into); ok {
			*ref = ri.ref
		} else {
			s.block.Refs = append(s.block.Refs, ri.ref)
		}
	}

	sort.Slice(s.block.Refs, func(i, j int) bool {
		return s.block.Refs[i].Into < s.block.Refs[j].Into
	})

	rebuildTransitiveDeps(s.block)
}

