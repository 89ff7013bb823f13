package stripe

// Index is one loop index of a block: a name, the number of values it
// ranges over, and (for indices introduced to describe an outer offset
// rather than a fresh loop) the affine that defines it in terms of other
// indices.
type Index struct {
	Name   string
	Range  uint64
	Affine Affine
}
