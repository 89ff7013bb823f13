package stripe

// Location names a place in the memory hierarchy: a hierarchical name (e.g.
// "LOCAL") plus a Unit affine identifying the memory bank within it (the
// "affine unit" of the glossary). Cache entries whose Unit affines differ
// never alias, regardless of their byte ranges.
type Location struct {
	Name string
	Unit Affine
}
