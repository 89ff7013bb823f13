package schedule

import "github.com/sarchlab/stripesched/internal/stripe"

// statementBinder captures where in a statement its refinement-name fields
// live, so that once a placement plan has been chosen the statement (and,
// for a Block statement, its descendants) can be rewritten to reference the
// resolved cache entries.
type statementBinder struct {
	// scalarUpdates handles Load/Store/Special: string fields directly on
	// the statement that need to become a cache entry's name.
	scalarUpdates []scalarUpdate

	// blockUpdates handles Block: refinements of the sub-block that need
	// From, Location, and shape rewritten, plus a fixup of descendant
	// statements that reference the refinement by name.
	blockUpdates []blockUpdate
	block        *stripe.Block
	memLoc       stripe.Location
}

type scalarUpdate struct {
	set func(name string)
	ri  *refInfo
}

type blockUpdate struct {
	ref *stripe.Refinement
	ri  *refInfo
}

// gatherIO produces the IO set and binder for stmt, resolving refinement
// names against t.
func gatherIO(stmt *stripe.Statement, memLoc stripe.Location, t *refInfoTable) ([]io, statementBinder) {
	switch stmt.Kind {
	case stripe.KindLoad:
		ri := t.get(stmt.From)
		s := stmt
		return []io{ioFromRefDir(ri, stripe.DirIn)}, statementBinder{
			scalarUpdates: []scalarUpdate{{set: func(name string) { s.From = name }, ri: ri}},
		}

	case stripe.KindStore:
		ri := t.get(stmt.Into)
		s := stmt
		return []io{ioFromRefDir(ri, stripe.DirOut)}, statementBinder{
			scalarUpdates: []scalarUpdate{{set: func(name string) { s.Into = name }, ri: ri}},
		}

	case stripe.KindSpecial:
		return gatherSpecialIO(stmt, t)

	case stripe.KindConstant, stripe.KindIntrinsic:
		return nil, statementBinder{}

	case stripe.KindBlock:
		return gatherBlockIO(stmt.Body, memLoc, t)
	}
	panic("schedule: unknown statement kind")
}

func gatherSpecialIO(stmt *stripe.Statement, t *refInfoTable) ([]io, statementBinder) {
	var updates []scalarUpdate
	dirs := make(map[*refInfo]stripe.Dir)
	var order []*refInfo

	for i := range stmt.Inputs {
		ri := t.get(stmt.Inputs[i])
		if _, ok := dirs[ri]; !ok {
			order = append(order, ri)
		}
		dirs[ri] = stripe.UnionDir(dirs[ri], stripe.DirIn)
		idx := i
		updates = append(updates, scalarUpdate{set: func(name string) { stmt.Inputs[idx] = name }, ri: ri})
	}
	for i := range stmt.Outputs {
		ri := t.get(stmt.Outputs[i])
		if _, ok := dirs[ri]; !ok {
			order = append(order, ri)
		}
		dirs[ri] = stripe.UnionDir(dirs[ri], stripe.DirOut)
		idx := i
		updates = append(updates, scalarUpdate{set: func(name string) { stmt.Outputs[idx] = name }, ri: ri})
	}

	ios := make([]io, 0, len(order))
	for _, ri := range order {
		ios = append(ios, ioFromRefDir(ri, dirs[ri]))
	}
	return ios, statementBinder{scalarUpdates: updates}
}

func gatherBlockIO(block *stripe.Block, memLoc stripe.Location, t *refInfoTable) ([]io, statementBinder) {
	var ios []io
	var updates []blockUpdate
	for i := range block.Refs {
		ref := &block.Refs[i]
		if ref.Dir == stripe.DirNone {
			continue
		}
		ri := t.get(ref.From)
		updates = append(updates, blockUpdate{ref: ref, ri: ri})
		ios = append(ios, ioFromBlockRef(ri, *ref))
	}
	return ios, statementBinder{blockUpdates: updates, block: block, memLoc: memLoc}
}

// apply rewrites the statement's refinement-name fields to point at the
// cache entries the plan chose. It must run before ri.cacheEntry is
// clobbered by the next statement's scheduling.
func (b statementBinder) apply() {
	for _, u := range b.scalarUpdates {
		u.set(u.ri.cacheEntry.name)
	}
	for _, u := range b.blockUpdates {
		ref := u.ref
		ri := u.ri
		ref.From = ri.cacheEntry.name
		ref.Location = b.memLoc
		if ri.ref.CacheUnit != nil {
			ref.Location.Unit = *ri.ref.CacheUnit
		}
		if ri.cacheEntry.isInternal {
			ref.Shape = ri.cacheEntry.shape
			for i := range ref.Access {
				ref.Access[i] = stripe.ZeroAffine
			}
		} else {
			for i := range ref.Shape.Dims {
				ref.Shape.Dims[i].Stride = ri.exteriorCacheShape.Dims[i].Stride
			}
		}
		stripe.FixupRefs(b.block)
	}
}
