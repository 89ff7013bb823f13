package stripe

import "fmt"

// Block is a single Stripe block: a named scope introducing loop indices, a
// set of refinements naming its interface to the outside world, and a body
// of statements executed once per point of the block's index space.
//
// The scheduler operates on exactly one Block; nested blocks appear only as
// the Body field of KindBlock statements. Their bodies are not scheduled,
// but the scheduler rewrites their refinements and may add refinements and
// transfer statements to them.
type Block struct {
	Name     string
	Location Location
	Idxs     []Index
	Refs     []Refinement
	Body     *StatementList
}

// NewBlock returns an empty block named name.
func NewBlock(name string) *Block {
	return &Block{Name: name, Body: NewStatementList()}
}

// RefByInto returns the refinement whose local name is into, if any.
func (b *Block) RefByInto(into string) (*Refinement, bool) {
	for i := range b.Refs {
		if b.Refs[i].Into == into {
			return &b.Refs[i], true
		}
	}
	return nil, false
}

// RefByFrom returns the first refinement backed by from, if any.
func (b *Block) RefByFrom(from string) (*Refinement, bool) {
	for i := range b.Refs {
		if b.Refs[i].From == from {
			return &b.Refs[i], true
		}
	}
	return nil, false
}

// UniqueRefName returns a name of the form base, base_1, base_2, ... that
// does not collide with any existing refinement's local name.
func (b *Block) UniqueRefName(base string) string {
	if _, ok := b.RefByInto(base); !ok {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if _, ok := b.RefByInto(candidate); !ok {
			return candidate
		}
	}
}

// UniqueIdxName returns a name of the form base, base_1, base_2, ... that
// does not collide with any existing index name.
func (b *Block) UniqueIdxName(base string) string {
	collides := func(name string) bool {
		for _, idx := range b.Idxs {
			if idx.Name == name {
				return true
			}
		}
		return false
	}
	if !collides(base) {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if !collides(candidate) {
			return candidate
		}
	}
}

// FixupRefs reconciles b's refinement list with what its body statements
// actually reference, after the scheduler has spliced in transfer
// statements or rebound loads and stores to synthetic cache refinements.
// It widens a referenced refinement's Dir to include any direction the body
// now exercises, but it never removes or adds refinements: transfer
// insertion is responsible for declaring the refinements it introduces.
func FixupRefs(b *Block) {
	used := make(map[string]Dir)
	b.Body.Each(func(it StatementIt) {
		widenAll(used, StatementAt(it))
	})

	for i := range b.Refs {
		if d, ok := used[b.Refs[i].Into]; ok {
			b.Refs[i].Dir = UnionDir(b.Refs[i].Dir, d)
		}
	}
}

func widenAll(used map[string]Dir, s *Statement) {
	switch s.Kind {
	case KindLoad:
		used[s.From] = UnionDir(used[s.From], DirIn)
	case KindStore:
		used[s.Into] = UnionDir(used[s.Into], DirOut)
	case KindSpecial:
		for _, name := range s.Inputs {
			used[name] = UnionDir(used[name], DirIn)
		}
		for _, name := range s.Outputs {
			used[name] = UnionDir(used[name], DirOut)
		}
	case KindBlock:
		for _, ref := range s.Body.Refs {
			used[ref.From] = UnionDir(used[ref.From], ref.Dir)
		}
	}
}
