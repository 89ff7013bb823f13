package schedule

import (
	"strconv"

	"github.com/sarchlab/stripesched/internal/stripe"
)

// placementKey identifies one candidate placement within a plan: a
// refinement, the shape it would be cached at, and (for internal
// placements) the access affines of the sub-block slice being cached.
//
// It must be comparable so it can key a Go map: shapes and affine slices
// aren't comparable, so we fold them into a canonical string alongside the
// refInfo pointer.
type placementKey struct {
	ri     *refInfo
	shape  string
	access string
}

func newPlacementKey(ri *refInfo, shape stripe.Shape, access []stripe.Affine) placementKey {
	return placementKey{ri: ri, shape: shapeKey(shape), access: accessKey(access)}
}

func shapeKey(s stripe.Shape) string {
	out := ""
	for _, d := range s.Dims {
		out += strconv.FormatUint(d.Size, 10) + "x" + strconv.FormatUint(d.Stride, 10) + ";"
	}
	return out
}

func accessKey(access []stripe.Affine) string {
	out := ""
	for _, a := range access {
		out += a.String() + ","
	}
	return out
}

// placement is a proposed assignment of one statement input or output to a
// memory range within some cache entry.
type placement struct {
	dir   stripe.Dir
	size  uint64
	rng   memRange
	shape stripe.Shape

	// entry is nil until the plan is accepted, at which point either an
	// existing entry is reused or a new one is created here.
	entry *cacheEntry

	// isInternal marks a placement confined to a single sub-block
	// (cannot be reused by later statements).
	isInternal   bool
	interiorName string

	// access carries the offset affines for an internal placement; empty
	// for external placements.
	access []stripe.Affine
}

// placementPlan maps each placementKey touched by a statement to its
// resolved placement. Plans are built and consulted via an ordered slice of
// (key, placement) pairs so that plan application order is deterministic —
// a Go map has no stable iteration order, and the algorithm's determinism
// guarantee (§4.3) depends on visiting placements in a fixed order.
type placementPlan struct {
	order []placementKey
	byKey map[placementKey]*placement
}

func newPlacementPlan() *placementPlan {
	return &placementPlan{byKey: make(map[placementKey]*placement)}
}

func clonePlan(p *placementPlan) *placementPlan {
	np := newPlacementPlan()
	for _, k := range p.order {
		v := *p.byKey[k]
		np.set(k, &v)
	}
	return np
}

func (p *placementPlan) get(k placementKey) (*placement, bool) {
	v, ok := p.byKey[k]
	return v, ok
}

func (p *placementPlan) set(k placementKey, v *placement) {
	if _, exists := p.byKey[k]; !exists {
		p.order = append(p.order, k)
	}
	p.byKey[k] = v
}

func (p *placementPlan) each(fn func(placementKey, *placement)) {
	for _, k := range p.order {
		fn(k, p.byKey[k])
	}
}

// io describes one unit of I/O performed by the statement being scheduled.
type io struct {
	ri            *refInfo
	dir           stripe.Dir
	interiorShape stripe.Shape
	interiorName  string
	access        []stripe.Affine // only meaningful for block statements
}

func ioFromRefDir(ri *refInfo, dir stripe.Dir) io {
	return io{ri: ri, dir: dir, interiorShape: ri.exteriorCacheShape}
}

func ioFromBlockRef(ri *refInfo, ref stripe.Refinement) io {
	return io{
		ri:            ri,
		dir:           ref.Dir,
		interiorShape: ref.Shape.Restride(),
		interiorName:  ref.Into,
		access:        ref.Access,
	}
}
