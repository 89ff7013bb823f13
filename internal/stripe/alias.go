package stripe

// AliasMap gives the alias analysis result for every refinement of the
// block being scheduled, keyed by the refinement's local (Into) name.
type AliasMap map[string]AliasInfo

// AliasType classifies how two refinements' backing memory relate.
type AliasType int

const (
	// AliasNone means the two refinements never touch the same byte.
	AliasNone AliasType = iota
	// AliasPartial means the two refinements may overlap, depending on
	// runtime index values.
	AliasPartial
	// AliasExact means the two refinements always denote the same memory.
	AliasExact
)

// AliasInfo is the alias analyzer's verdict for one refinement of the block
// being scheduled: which base refinement it ultimately views, by what
// access affines, and its shape and extents in that view.
type AliasInfo struct {
	BaseRef string
	Access  []Affine
	Shape   Shape
	Extents []uint64
}

// Compare reports how a and b's backing memory relate. Refinements with
// different base refinements are always disjoint; refinements sharing a
// base are compared access-affine by access-affine, and any dimension that
// cannot be proven disjoint downgrades the verdict to Partial.
func (a AliasInfo) Compare(b AliasInfo) AliasType {
	if a.BaseRef != b.BaseRef {
		return AliasNone
	}
	if len(a.Access) != len(b.Access) {
		return AliasPartial
	}

	exact := true
	for i := range a.Access {
		if a.Access[i] == b.Access[i] {
			continue
		}
		exact = false

		diff := a.Access[i].GetMap()
		for name, coeff := range b.Access[i].GetMap() {
			diff[name] -= coeff
			if diff[name] == 0 {
				delete(diff, name)
			}
		}
		// A nonzero purely-constant difference at least as large as the
		// dimension's extent (or any nonzero constant when no extent is
		// given) proves disjointness; anything else, we conservatively call
		// Partial.
		if len(diff) == 1 {
			if c, ok := diff[""]; ok {
				extent := uint64(0)
				if i < len(a.Extents) {
					extent = a.Extents[i]
				}
				if c != 0 && (extent == 0 || absInt64(c) >= int64(extent)) {
					return AliasNone
				}
			}
		}
	}

	if exact {
		return AliasExact
	}
	return AliasPartial
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
